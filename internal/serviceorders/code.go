package serviceorders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/config"
)

const (
	codePrefix = "OS-"
	codeDigits = 5

	// CodeSequenceName names the Redis counter behind the sequence strategy.
	CodeSequenceName = "service_order_code"
)

// FormatCode renders n as OS-NNNNN. Values past 99999 keep all their digits.
func FormatCode(n int64) string {
	return fmt.Sprintf("%s%0*d", codePrefix, codeDigits, n)
}

// ParseCode extracts the numeric part of an OS code.
func ParseCode(code string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(trimmed, codePrefix) {
		return 0, fmt.Errorf("invalid service order code %q", code)
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(trimmed, codePrefix), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid service order code %q", code)
	}
	return n, nil
}

type orderCounter interface {
	CountServiceOrders(ctx context.Context) (int64, error)
}

// CodeMinter produces the code for a new service order.
type CodeMinter interface {
	Mint(ctx context.Context, counter orderCounter) (string, error)
	Strategy() string
}

// CountCodeMinter derives the code from count+1. Two concurrent creations can
// read the same count; the unique index on code turns that into a conflict.
type CountCodeMinter struct{}

func (CountCodeMinter) Strategy() string { return config.OrderCodeStrategyCount }

func (CountCodeMinter) Mint(ctx context.Context, counter orderCounter) (string, error) {
	count, err := counter.CountServiceOrders(ctx)
	if err != nil {
		return "", fmt.Errorf("count service orders: %w", err)
	}
	return FormatCode(count + 1), nil
}

type sequencer interface {
	NextSequence(ctx context.Context, name string, seed func(context.Context) (int64, error)) (int64, error)
}

// SequenceCodeMinter draws codes from an atomic Redis counter seeded once
// with the current order count.
type SequenceCodeMinter struct {
	seq sequencer
}

func NewSequenceCodeMinter(seq sequencer) (*SequenceCodeMinter, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequencer required")
	}
	return &SequenceCodeMinter{seq: seq}, nil
}

func (m *SequenceCodeMinter) Strategy() string { return config.OrderCodeStrategySequence }

func (m *SequenceCodeMinter) Mint(ctx context.Context, counter orderCounter) (string, error) {
	n, err := m.seq.NextSequence(ctx, CodeSequenceName, counter.CountServiceOrders)
	if err != nil {
		return "", err
	}
	return FormatCode(n), nil
}

// NewCodeMinter picks the minter for the configured strategy.
func NewCodeMinter(cfg config.OrdersConfig, seq sequencer) (CodeMinter, error) {
	switch cfg.Strategy() {
	case config.OrderCodeStrategyCount:
		return CountCodeMinter{}, nil
	case config.OrderCodeStrategySequence:
		return NewSequenceCodeMinter(seq)
	default:
		return nil, fmt.Errorf("unknown order code strategy %q", cfg.CodeStrategy)
	}
}
