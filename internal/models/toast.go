package models

import "time"

// ToastSeverity classifies a toast notification.
type ToastSeverity string

const (
	ToastSuccess ToastSeverity = "success"
	ToastError   ToastSeverity = "error"
	ToastInfo    ToastSeverity = "info"
	ToastWarning ToastSeverity = "warning"
)

func (s ToastSeverity) IsValid() bool {
	return s == ToastSuccess || s == ToastError || s == ToastInfo || s == ToastWarning
}

// ToastEntry is one ephemeral notification in the queue. At most one visible
// instance exists per ID; looping entries re-display until dismissed.
type ToastEntry struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Severity  ToastSeverity `json:"severity"`
	Duration  time.Duration `json:"duration"`
	Loop      bool          `json:"loop"`
	Visible   bool          `json:"visible"`
	CreatedAt time.Time     `json:"createdAt"`
}
