package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
)

// RunRotateCardKeys re-encrypts every card under the active field key.
func RunRotateCardKeys(
	ctx context.Context,
	useCase cardUseCase.CardUseCase,
	logger *slog.Logger,
	writer io.Writer,
	batchSize int,
	format string,
) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	logger.Info("rotating card field keys", slog.Int("batch_size", batchSize))

	result, err := useCase.RotateFieldKeys(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to rotate card field keys: %w", err)
	}

	if format == "json" {
		output := map[string]any{
			"scanned": result.Scanned,
			"rotated": result.Rotated,
			"last_id": result.LastID,
		}
		jsonBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON output: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Scanned %d cards, re-encrypted %d (last id %d)\n",
			result.Scanned, result.Rotated, result.LastID)
	}

	logger.Info("card field key rotation completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("rotated", result.Rotated),
	)
	return nil
}
