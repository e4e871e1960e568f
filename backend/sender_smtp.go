package backend

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/mailclient"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

type SmtpSenderConfig struct {
	Client     mailclient.Client `validate:"required"`
	SenderAddr string            `validate:"required,email"`
}

// SmtpSender send every message as email, one per recipient.
type SmtpSender struct {
	Config SmtpSenderConfig
}

var _ Sender = (*SmtpSender)(nil)

func NewSmtpSender(cfg SmtpSenderConfig) (*SmtpSender, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &SmtpSender{Config: cfg}, nil
}

func (s *SmtpSender) Send(ctx context.Context, msg *Message) (report *Report, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "backend.SmtpSender.Send")
	defer span.End()

	if msg == nil {
		err = fmt.Errorf("passed message is nil, we cannot process that")
		return
	}

	if err = validator.Validate(msg); err != nil {
		err = fmt.Errorf("malformed message: %w", err)
		return
	}

	out := s.Config.Client.Send(ctx, []mailclient.Email{
		{
			TrackingID: msg.ReferenceID,
			From:       s.Config.SenderAddr,
			To:         msg.Recipients,
			Subject:    msg.Subject,
			Body:       msg.Body,
		},
	})

	report = &Report{ReferenceID: msg.ReferenceID}
	for _, d := range out.Deliveries {
		if d.Err != nil {
			report.FailureCount++
			err = multierr.Append(err, fmt.Errorf("send to %s: %w", d.To, d.Err))
			continue
		}

		report.SuccessCount++
	}

	return
}
