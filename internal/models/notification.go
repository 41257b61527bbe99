package models

import "time"

type Notification struct {
	NotificationID string    `firestore:"notificationId" json:"notificationId"`
	UserID         string    `firestore:"userId" json:"userId"`
	Title          string    `firestore:"title" json:"title"`
	Message        string    `firestore:"message" json:"message"`
	Kind           string    `firestore:"kind" json:"kind"` // "manual", "review", "reminder", "system"
	SenderID       string    `firestore:"senderId" json:"senderId,omitempty"`
	Read           bool      `firestore:"read" json:"read"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}

const (
	NotificationManual   = "manual"
	NotificationReview   = "review"
	NotificationReminder = "reminder"
	NotificationSystem   = "system"
)
