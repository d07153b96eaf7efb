// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kvcrypt/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "kvcrypt",
		Usage:   "Encryption-at-rest layer for key-value record storage",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-key",
				Usage: "Generate a new 32-byte encryption key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Value:   "",
						Usage:   "Key ID (e.g., prod-key-2026)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Value: "",
						Usage: "KMS key URI used to wrap the generated key (omit for plain base64 output)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateKey(ctx, cmd.String("id"), cmd.String("kms-key-uri"))
				},
			},
			{
				Name:  "encrypt",
				Usage: "Encrypt stdin into an envelope written to stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Storage path the value will live under (binds the ciphertext to it)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEncrypt(ctx, cmd.String("path"), commands.DefaultIO())
				},
			},
			{
				Name:  "decrypt",
				Usage: "Decrypt an envelope from stdin and write the plaintext to stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Storage path the envelope was written under",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDecrypt(ctx, cmd.String("path"), commands.DefaultIO())
				},
			},
			{
				Name:  "inspect",
				Usage: "Parse an envelope from stdin and print its metadata without decrypting",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunInspect(ctx, commands.DefaultIO())
				},
			},
			{
				Name:  "rewrite-stale",
				Usage: "Re-encrypt stale records under the active provider and key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Value:   "",
						Usage:   "Resource kind to rewrite (omit to rewrite every encrypted kind)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRewriteStale(ctx, cmd.String("kind"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
