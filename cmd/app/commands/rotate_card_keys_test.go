package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/card/usecase/mocks"
)

func TestRunRotateCardKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := &cardDomain.RotationBatch{Scanned: 250, Rotated: 120, LastID: 250}

	t.Run("text output", func(t *testing.T) {
		useCase := &mocks.MockCardUseCase{}
		useCase.On("RotateFieldKeys", mock.Anything, 100).Return(result, nil).Once()

		var out bytes.Buffer
		err := RunRotateCardKeys(ctx, useCase, logger, &out, 100, "text")
		require.NoError(t, err)
		assert.Equal(t, "Scanned 250 cards, re-encrypted 120 (last id 250)\n", out.String())
		useCase.AssertExpectations(t)
	})

	t.Run("json output", func(t *testing.T) {
		useCase := &mocks.MockCardUseCase{}
		useCase.On("RotateFieldKeys", mock.Anything, 50).Return(result, nil).Once()

		var out bytes.Buffer
		err := RunRotateCardKeys(ctx, useCase, logger, &out, 50, "json")
		require.NoError(t, err)

		var got map[string]int
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, map[string]int{"scanned": 250, "rotated": 120, "last_id": 250}, got)
		useCase.AssertExpectations(t)
	})

	t.Run("use case error", func(t *testing.T) {
		useCase := &mocks.MockCardUseCase{}
		useCase.On("RotateFieldKeys", mock.Anything, 10).
			Return(&cardDomain.RotationBatch{Scanned: 10, LastID: 10}, errors.New("db down")).
			Once()

		var out bytes.Buffer
		err := RunRotateCardKeys(ctx, useCase, logger, &out, 10, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to rotate card field keys")
		assert.Empty(t, out.String())
	})

	t.Run("invalid format", func(t *testing.T) {
		useCase := &mocks.MockCardUseCase{}
		err := RunRotateCardKeys(ctx, useCase, logger, io.Discard, 10, "yaml")
		require.Error(t, err)
		useCase.AssertNotCalled(t, "RotateFieldKeys", mock.Anything, mock.Anything)
	})

	t.Run("non-positive batch size", func(t *testing.T) {
		useCase := &mocks.MockCardUseCase{}
		err := RunRotateCardKeys(ctx, useCase, logger, io.Discard, 0, "text")
		require.Error(t, err)
		useCase.AssertNotCalled(t, "RotateFieldKeys", mock.Anything, mock.Anything)
	})
}
