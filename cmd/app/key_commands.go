package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cardledger/cmd/app/commands"
	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-field-key",
			Usage: "Generate a card field encryption key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Usage:   "Field key ID (defaults to a UUIDv7)",
				},
				&cli.StringFlag{
					Name:  "kms-provider",
					Usage: "KMS provider wrapping the key (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
				&cli.BoolFlag{
					Name:  "with-index-key",
					Usage: "Also generate FIELD_INDEX_KEY (only for a new deployment)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateFieldKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					os.Stdout,
					commands.FieldKeyOptions{
						KeyID:        cmd.String("id"),
						KMSProvider:  cmd.String("kms-provider"),
						KMSKeyURI:    cmd.String("kms-key-uri"),
						WithIndexKey: cmd.Bool("with-index-key"),
					},
				)
			},
		},
		{
			Name:  "rotate-card-keys",
			Usage: "Re-encrypt every card under ACTIVE_FIELD_KEY_ID",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Usage:   "Cards re-encrypted per transaction (defaults to CARD_ROTATION_BATCH_SIZE)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cardUseCase, err := container.CardUseCase()
				if err != nil {
					return err
				}

				batchSize := int(cmd.Int("batch-size"))
				if batchSize == 0 {
					batchSize = cfg.CardRotationBatchSize
				}

				return commands.RunRotateCardKeys(
					ctx,
					cardUseCase,
					container.Logger(),
					os.Stdout,
					batchSize,
					cmd.String("format"),
				)
			},
		},
	}
}
