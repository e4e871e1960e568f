package backend

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
)

// NoopSender only logs the message, used when no mail server is configured.
type NoopSender struct{}

var _ Sender = (*NoopSender)(nil)

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (b *NoopSender) Send(ctx context.Context, msg *Message) (report *Report, err error) {
	if msg == nil {
		err = fmt.Errorf("passed message is nil, we cannot process that")
		return
	}

	if err = validator.Validate(msg); err != nil {
		err = fmt.Errorf("malformed message: %w", err)
		return
	}

	ylog.Info(ctx, "notification not sent, noop sender",
		ylog.KV("reference_id", msg.ReferenceID),
		ylog.KV("event", msg.Event),
		ylog.KV("recipients", msg.Recipients),
	)

	report = &Report{
		ReferenceID:  msg.ReferenceID,
		SuccessCount: len(msg.Recipients),
	}

	return
}
