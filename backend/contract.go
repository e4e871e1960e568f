package backend

import (
	"context"
)

// Event names the situation a notification is sent for.
type Event string

const (
	EventAppNeedsApproval  Event = "app-needs-approval"
	EventUserNeedsApproval Event = "user-needs-approval"
	EventVendorJoinRequest Event = "vendor-join-request"
	EventVendorInvitation  Event = "vendor-invitation"
)

// Sender deliver one message synchronously.
type Sender interface {
	Send(ctx context.Context, msg *Message) (report *Report, err error)
}

// Notifier is fire-and-forget: Notify never returns an error and never blocks on delivery.
// Failures are logged.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Message is a plain text notification.
type Message struct {
	ReferenceID string   `json:"reference_id"`
	Event       Event    `json:"event" validate:"required"`
	Recipients  []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject     string   `json:"subject" validate:"required"`
	Body        string   `json:"body" validate:"required"`
}

// Report is a struct that hold the report
type Report struct {
	ReferenceID  string `json:"reference_id"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}
