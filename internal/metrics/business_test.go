package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// assertMetricLine checks the Prometheus output for a sample of name whose labels
// match the pattern. OTel scope labels are tolerated anywhere in the label set.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: StatusSuccess},
		{
			name: "insufficient funds",
			err:  apperrors.WithReason(apperrors.ErrInvalidInput, "Insufficient funds."),
			want: StatusRejected,
		},
		{name: "wrong state", err: apperrors.Wrap(apperrors.ErrInvalidState, "cancel"), want: StatusRejected},
		{name: "missing card", err: apperrors.Wrap(apperrors.ErrNotFound, "card"), want: StatusRejected},
		{name: "duplicate number", err: apperrors.ErrConflict, want: StatusRejected},
		{name: "foreign card", err: apperrors.ErrForbidden, want: StatusRejected},
		{name: "database down", err: errors.New("connection refused"), want: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("ledger_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "ledger_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "cards", "card_transfer", StatusSuccess)
	bm.RecordOperation(ctx, "cards", "card_transfer", StatusSuccess)
	bm.RecordOperation(ctx, "cards", "card_transfer", StatusRejected)
	bm.RecordOperation(ctx, "cards", "card_create", StatusError)

	bm.RecordDuration(ctx, "cards", "card_transfer", 12*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "cards", "card_transfer", 30*time.Millisecond, StatusSuccess)

	bm.RecordTransferVolume(ctx, decimal.RequireFromString("150.25"))
	bm.RecordTransferVolume(ctx, decimal.RequireFromString("49.75"))
	bm.RecordTransferVolume(ctx, decimal.RequireFromString("-10"))

	output := scrape(t, provider)

	assertMetricLine(t, output, `ledger_test_operations_total`,
		`domain="cards".*operation="card_transfer".*status="success"`, `2`)
	assertMetricLine(t, output, `ledger_test_operations_total`,
		`domain="cards".*operation="card_transfer".*status="rejected"`, `1`)
	assertMetricLine(t, output, `ledger_test_operations_total`,
		`domain="cards".*operation="card_create".*status="error"`, `1`)
	assertMetricLine(t, output, `ledger_test_operation_duration_seconds_count`,
		`domain="cards".*operation="card_transfer".*status="success"`, `2`)
	assert.Regexp(t, `ledger_test_transfer_volume_total(\{[^}]*\})? 200`, output)
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)

	assert.NotPanics(t, func() {
		ctx := context.Background()
		noOp.RecordOperation(ctx, "cards", "card_transfer", StatusSuccess)
		noOp.RecordDuration(ctx, "cards", "card_transfer", time.Millisecond, StatusSuccess)
		noOp.RecordTransferVolume(ctx, decimal.NewFromInt(5))
	})
}
