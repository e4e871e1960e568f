package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stevelaver/developer-portal-sub000/pkg/uid"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/stevelaver/developer-portal-sub000/pkg/worker"
	"github.com/yusufsyaifudin/ylog"
)

type DispatcherConfig struct {
	Sender Sender         `validate:"required"`
	Worker worker.Service `validate:"required"`
	UIDGen uid.UID        `validate:"required"`
}

// Dispatcher queue messages on the worker pool so the request that triggered them returns
// without waiting for delivery.
type Dispatcher struct {
	Config DispatcherConfig
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &Dispatcher{Config: cfg}, nil
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	id, err := d.Config.UIDGen.NextID()
	if err != nil {
		ylog.Error(ctx, "notification dropped, cannot get reference id", ylog.KV("error", err), ylog.KV("event", msg.Event))
		return
	}

	msg.ReferenceID = strconv.FormatUint(id, 10)
	err = d.Config.Worker.AddJob(&sendJob{
		id:     id,
		ctx:    detach(ctx),
		sender: d.Config.Sender,
		msg:    msg,
	})

	if err != nil {
		ylog.Error(ctx, "notification dropped, cannot queue",
			ylog.KV("error", err),
			ylog.KV("reference_id", msg.ReferenceID),
			ylog.KV("event", msg.Event),
		)
	}
}

// detached keep the values of the request context (log tracer, span) but not its cancellation,
// the request is usually finished before the job runs.
type detached struct {
	context.Context
}

func (detached) Deadline() (deadline time.Time, ok bool) { return }
func (detached) Done() <-chan struct{} { return nil }
func (detached) Err() error { return nil }

func detach(ctx context.Context) context.Context {
	return detached{Context: ctx}
}

type sendJob struct {
	id     uint64
	ctx    context.Context
	sender Sender
	msg    Message
	report *Report
}

var _ worker.Job = (*sendJob)(nil)

func (j *sendJob) ID() uint64 {
	return j.id
}

func (j *sendJob) Context() context.Context {
	return j.ctx
}

func (j *sendJob) PreExecute() error {
	if err := validator.Validate(j.msg); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	return nil
}

func (j *sendJob) Execute() (err error) {
	j.report, err = j.sender.Send(j.ctx, &j.msg)
	return
}

func (j *sendJob) PostExecute(err error) {
	if err != nil {
		ylog.Error(j.ctx, "notification failed",
			ylog.KV("error", err),
			ylog.KV("reference_id", j.msg.ReferenceID),
			ylog.KV("event", j.msg.Event),
		)
		return
	}

	ylog.Info(j.ctx, "notification sent",
		ylog.KV("reference_id", j.msg.ReferenceID),
		ylog.KV("event", j.msg.Event),
		ylog.KV("report", j.report),
	)
}
