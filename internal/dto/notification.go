package dto

// SendNotificationRequest targets one user or, with Broadcast, every non-admin profile.
type SendNotificationRequest struct {
	UserID    string `json:"userId" validate:"required_without=Broadcast"`
	Broadcast bool   `json:"broadcast"`
	Title     string `json:"title" validate:"required,max=120"`
	Message   string `json:"message" validate:"required,max=2000"`
	Email     bool   `json:"email"`
}

type SendResult struct {
	Recipients int `json:"recipients"`
	Emailed    int `json:"emailed"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
