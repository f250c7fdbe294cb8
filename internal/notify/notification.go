package notify

import "time"

// Severity marks how a notification should be presented.
type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityDestructive Severity = "destructive"
)

// Notification is the single user-facing failure/success surface of the
// platform. Every failed mutating operation produces exactly one of these;
// there are no silent failures and no automatic retries.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Info builds an informational notification.
func Info(title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Severity:    SeverityInfo,
		CreatedAt:   time.Now().UTC(),
	}
}

// Destructive builds a failure notification.
func Destructive(title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Severity:    SeverityDestructive,
		CreatedAt:   time.Now().UTC(),
	}
}
