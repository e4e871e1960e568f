// Package mailclient deliver plain text emails over SMTP, one transaction per recipient.
package mailclient

import (
	"context"
	"io"
)

// Client deliver notification emails. A failed recipient never stops the others.
type Client interface {
	io.Closer
	Send(ctx context.Context, emails []Email) (result Result)
}

// Email is one notification, delivered separately to each address of To.
type Email struct {
	TrackingID string   `validate:"-"`
	From       string   `validate:"required,email"`
	To         []string `validate:"required,min=1,dive,email"`
	Subject    string   `validate:"required"`
	Body       string   `validate:"required"`
}

// Delivery is the outcome for one recipient.
type Delivery struct {
	To  string
	Err error
}

type Result struct {
	Deliveries []Delivery
}

// Failed return the deliveries that did not succeed.
func (r Result) Failed() []Delivery {
	out := make([]Delivery, 0)
	for _, d := range r.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}

	return out
}
