package model

type NotificationType string

const (
	NotifyReminder NotificationType = "reminder"
	NotifyUpcoming NotificationType = "upcoming"
	NotifyUpdate   NotificationType = "update"
	NotifyDelete   NotificationType = "delete"
)

// Notification is a transient notice shown to the user until dismissed.
type Notification struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Time     string           `json:"time"` // "HH:MM" local
	Type     NotificationType `json:"type"`
	Priority Priority         `json:"priority,omitempty"`
	Read     bool             `json:"read"`
}
