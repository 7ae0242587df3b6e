package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// Operation outcomes used as the status label.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Outcome classifies err for the status label. Business rejections such as
// insufficient funds or a foreign card are "rejected"; anything the caller
// could not have caused is "error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case apperrors.Is(err, apperrors.ErrInvalidInput),
		apperrors.Is(err, apperrors.ErrInvalidState),
		apperrors.Is(err, apperrors.ErrNotFound),
		apperrors.Is(err, apperrors.ErrConflict),
		apperrors.Is(err, apperrors.ErrForbidden):
		return StatusRejected
	default:
		return StatusError
	}
}

// BusinessMetrics records card ledger operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation, e.g. domain "cards", operation
	// "card_transfer", status "rejected".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordTransferVolume adds a completed transfer amount to the moved-funds counter.
	RecordTransferVolume(ctx context.Context, amount decimal.Decimal)
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	transferVolume   metric.Float64Counter
}

// NewBusinessMetrics creates the OpenTelemetry instruments under namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of card ledger operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of card ledger operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	transferVolume, err := meter.Float64Counter(
		fmt.Sprintf("%s_transfer_volume_total", namespace),
		metric.WithDescription("Sum of amounts moved by successful transfers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer volume counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		transferVolume:   transferVolume,
	}, nil
}

func attrs(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1, attrs(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(), attrs(domain, operation, status))
}

// RecordTransferVolume ignores non-positive amounts; counters are monotonic.
func (b *businessMetrics) RecordTransferVolume(ctx context.Context, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	b.transferVolume.Add(ctx, amount.InexactFloat64())
}

// NoOpBusinessMetrics is used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

func (n *NoOpBusinessMetrics) RecordTransferVolume(ctx context.Context, amount decimal.Decimal) {}
