package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medbook/internal/auth"
	"medbook/internal/config"
	"medbook/internal/db"
	"medbook/internal/logging"
	"medbook/internal/seed"
	"medbook/internal/service"
)

func main() {
	var source string
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Register doctors from a JSON file or URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(source)
		},
	}
	rootCmd.Flags().StringVar(&source, "from", "doctors.json", "JSON file or http(s) URL listing doctors")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(source string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyDevSecrets()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)

	store, closeStore, err := db.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	doctors, err := seed.Load(ctx, source)
	if err != nil {
		return err
	}
	logger.Info().Int("count", len(doctors)).Str("source", source).Msg("doctors loaded")

	tokens := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	identity := service.NewIdentityService(store.Users, store.Sessions, tokens, nil, cfg.PasswordCost, logger)

	res, err := seed.Apply(ctx, identity, doctors)
	if err != nil {
		return err
	}
	logger.Info().Int("created", res.Created).Int("skipped", res.Skipped).Msg("seeding complete")
	return nil
}
