package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/models"
)

var configDir string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wastectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wastectl",
		Short: "Waste collection operations CLI",
		Long: `wastectl runs maintenance tasks against the waste collection database:
repairing legacy contamination scores, seeding facilities and issuing tokens.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", "./config", "Directory containing config.yaml")
	cmd.AddCommand(
		newRepairScoresCmd(),
		newSeedCmd(),
		newTokenCmd(),
	)
	return cmd
}

func newRepairScoresCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "repair-scores",
		Short: "Rewrite stored contamination scores that fall outside [0, 1]",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
				report, err := database.RepairScores(ctx, database.NewPickupStore(db), dryRun, logger)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the changes without writing them")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var adminID, adminEmail string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default facilities and an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
				created, err := database.SeedFacilities(ctx, database.NewFacilityStore(db), database.DefaultFacilities, logger)
				if err != nil {
					return err
				}
				if adminID != "" {
					if err := database.SeedAdmin(ctx, database.NewUserStore(db), adminID, adminEmail, logger); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "facilities created: %d\n", created)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&adminID, "admin-id", "admin", "User id of the seeded admin; empty skips it")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "Email of the seeded admin")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID, role, facilityID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			switch r {
			case models.RoleResident, models.RoleBusiness, models.RoleDriver,
				models.RoleRecycler, models.RoleCouncil, models.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if r == models.RoleRecycler && facilityID == "" {
				return fmt.Errorf("--facility is required for recyclers")
			}
			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			tokens, err := auth.NewManager(cfg.JWT)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateJWT(userID, r, facilityID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id placed in the token")
	cmd.Flags().StringVar(&role, "role", "", "Role: resident, business, driver, recycler, council or admin")
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id for recycler tokens")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// withDatabase loads config, connects to MongoDB and runs fn.
func withDatabase(ctx context.Context, fn func(context.Context, *mongo.Database, *slog.Logger) error) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	logger := cfg.Server.NewLogger(os.Stderr)

	client, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background()) //nolint:errcheck
	return fn(ctx, db, logger)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
