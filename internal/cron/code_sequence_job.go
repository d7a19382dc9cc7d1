package cron

import (
	"context"
	"fmt"

	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

type highestCodeSource interface {
	HighestCode(ctx context.Context) (string, error)
}

type sequenceStore interface {
	RaiseCounter(ctx context.Context, name string, floor int64) (int64, bool, error)
}

// CodeSequenceJobParams configure the code sequence guard.
type CodeSequenceJobParams struct {
	Logger *logger.Logger
	Orders highestCodeSource
	Store  sequenceStore
}

// NewCodeSequenceJob keeps the Redis code counter at or above the highest
// persisted OS code, so a restored or flushed Redis cannot hand out codes
// that already exist. It only ever raises the counter.
func NewCodeSequenceJob(params CodeSequenceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("service order source required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("sequence store required")
	}
	return &codeSequenceJob{logg: params.Logger, orders: params.Orders, store: params.Store}, nil
}

type codeSequenceJob struct {
	logg   *logger.Logger
	orders highestCodeSource
	store  sequenceStore
}

func (j *codeSequenceJob) Name() string { return "code-sequence-guard" }

func (j *codeSequenceJob) Run(ctx context.Context) error {
	code, err := j.orders.HighestCode(ctx)
	if err != nil {
		return fmt.Errorf("load highest code: %w", err)
	}
	if code == "" {
		return nil
	}
	highest, err := serviceorders.ParseCode(code)
	if err != nil {
		return err
	}

	prev, raised, err := j.store.RaiseCounter(ctx, serviceorders.CodeSequenceName, highest)
	if err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"highest_code": code,
		"counter":      prev,
	})
	if !raised {
		j.logg.Debug(logCtx, "code sequence up to date")
		return nil
	}
	j.logg.Warn(logCtx, "code sequence was behind persisted codes; advanced")
	return nil
}
