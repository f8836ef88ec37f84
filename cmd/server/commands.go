package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/actuallystonmai/fitness-plan-service/internal/domain"
	"github.com/actuallystonmai/fitness-plan-service/internal/render"
)

// generate command - one plan from a profile file, no server
func generateCmd() *cobra.Command {
	var (
		profilePath string
		asHTML      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan for a profile JSON file and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(profilePath)
			if err != nil {
				return fmt.Errorf("read profile: %w", err)
			}
			profile, err := domain.DecodeProfile(body)
			if err != nil {
				return err
			}
			if err := profile.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.service.GeneratePlan(ctx, profile)
			if err != nil {
				return err
			}
			a.log.Info().
				Str("candidate", result.Candidate.String()).
				Int("attempts", result.Attempts).
				Msg("plan generated")

			out := result.Text
			if asHTML {
				out = render.HTML(out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "path to a profile JSON file")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the HTML rendering instead of plain text")
	cmd.MarkFlagRequired("profile")
	return cmd
}

// migrate-down command - drop the attempt log tables
func migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-down",
		Short: "Drop the attempt log tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if a.repo == nil {
				return errors.New("DATABASE_URL is not set")
			}

			if err := a.repo.MigrateDown(ctx); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			a.log.Info().Msg("migrations dropped")
			return nil
		},
	}
}

// attempts-cleanup command - prune old attempt records
func cleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "attempts-cleanup",
		Short: "Delete attempt records older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if a.repo == nil {
				return errors.New("DATABASE_URL is not set")
			}

			cutoff := time.Now().UTC().AddDate(0, 0, -days)
			n, err := a.repo.Cleanup(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d attempt records older than %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "retention in days")
	return cmd
}

// clear-model-cache command - forget cached model listings
func clearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-model-cache",
		Short: "Remove cached model listings from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if a.modelCache == nil {
				return errors.New("REDIS_URL is not set or unreachable")
			}

			if err := a.modelCache.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "model cache cleared")
			return nil
		},
	}
}
