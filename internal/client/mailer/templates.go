package mailer

import (
	"fmt"
	"html"
)

const brand = "Prompt Financial Services"

func layout(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; background-color: #f6f6f6; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 40px auto; background: #ffffff; border-radius: 8px;">
		<div style="background-color: #0b3d2e; padding: 24px; text-align: center;">
			<h1 style="color: #ffffff; margin: 0; font-size: 22px;">%s</h1>
		</div>
		<div style="padding: 32px 24px; color: #1f2933; line-height: 1.6;">
			<h2 style="margin-top: 0;">%s</h2>
			%s
		</div>
		<div style="padding: 16px; text-align: center; font-size: 12px; color: #666666;">
			You are receiving this email because you have an account on the %s client portal.
		</div>
	</div>
</body>
</html>`, brand, html.EscapeString(title), body, brand)
}

func PasswordReset(to, name, link string) Message {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	body := fmt.Sprintf(`<p>%s,</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #d7b56d; color: #ffffff; text-decoration: none; border-radius: 4px;">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(greeting), html.EscapeString(link))

	return Message{
		To:      to,
		ToName:  name,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("%s,\n\nReset your password: %s\n\nIf you did not ask for this, ignore this email.", greeting, link),
		HTML:    layout("Reset your password", body),
	}
}

// Notification is the email copy of an in-app notification.
func Notification(to, name, title, message string) Message {
	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(message))
	return Message{
		To:      to,
		ToName:  name,
		Subject: title,
		Text:    message,
		HTML:    layout(title, body),
	}
}
