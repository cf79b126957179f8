package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"facturapos/internal/config"
	"facturapos/internal/database"
	"facturapos/internal/deadletter"
	"facturapos/internal/handler"
	"facturapos/internal/platform/reconcile"
	"facturapos/internal/platform/user"
	"facturapos/pkg/utils"
)

var backfill bool

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return cfg
}

func openService(cfg *config.Config) *user.Service {
	db, err := database.Connect(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return user.NewService(user.NewStore(db))
}

func openArchive(ctx context.Context, cfg *config.Config) *deadletter.S3Archive {
	if cfg.DeadletterBucket == "" {
		fmt.Fprintln(os.Stderr, "Error: FP_DEADLETTER_BUCKET is not set")
		os.Exit(1)
	}
	archive, err := deadletter.NewS3Archive(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return archive
}

var rootCmd = &cobra.Command{
	Use:   "facturapos",
	Short: "Facturapos user-sync operations",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the users table schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := database.NewMigrator(loadConfig().DatabaseURL)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("Schema already up to date")
				return
			}
			fmt.Println("Error:", err)
			return
		}
		fmt.Println("Migrations applied")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := database.NewMigrator(loadConfig().DatabaseURL)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if err := m.Down(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("Nothing to roll back")
				return
			}
			fmt.Println("Error:", err)
			return
		}
		fmt.Println("Migrations rolled back")
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect synced users",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List synced users",
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(loadConfig())

		users, err := service.List(cmd.Context(), 0)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		for _, u := range users {
			fmt.Printf("%s  %-30s  %-20s  %s\n",
				u.CognitoSub, u.Email, utils.Deref(u.RestaurantName), u.Role)
		}
		fmt.Printf("%d user(s)\n", len(users))
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <cognito_sub>",
	Short: "Show a synced user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(loadConfig())

		u, err := service.GetByCognitoSub(cmd.Context(), args[0])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		fmt.Println("Cognito sub :", u.CognitoSub)
		fmt.Println("Email       :", u.Email)
		fmt.Println("Name        :", utils.Deref(u.Name))
		fmt.Println("Username    :", utils.Deref(u.Username))
		fmt.Println("Phone       :", utils.Deref(u.PhoneNumber))
		fmt.Println("Restaurant  :", utils.Deref(u.RestaurantName))
		fmt.Println("Role        :", u.Role)
		fmt.Println("Created     :", u.CreatedAt)
		fmt.Println("Updated     :", u.UpdatedAt)
	},
}

var deadletterCmd = &cobra.Command{
	Use:   "deadletter",
	Short: "Manage archived sync failures",
}

var deadletterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sync failures",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		archive := openArchive(cmd.Context(), cfg)

		keys, err := archive.Keys(cmd.Context())
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		for _, key := range keys {
			fmt.Println(key)
		}
		fmt.Printf("%d archived event(s)\n", len(keys))
	},
}

var deadletterReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay archived sync failures through the sync path",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		archive := openArchive(ctx, cfg)
		service := openService(cfg)

		keys, err := archive.Keys(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		replayed := 0
		for _, key := range keys {
			env, err := archive.Fetch(ctx, key)
			if err != nil {
				fmt.Printf("%s: fetch failed: %v\n", key, err)
				continue
			}

			var event events.CognitoEventUserPoolsPostConfirmation
			if err := json.Unmarshal(env.Event, &event); err != nil {
				fmt.Printf("%s: undecodable event: %v\n", key, err)
				continue
			}

			signup := handler.SignupFromEvent(event)
			if signup.CognitoSub == "" || signup.Email == "" {
				fmt.Printf("%s: missing sub or email, skipping\n", key)
				continue
			}

			action, err := service.SyncSignup(ctx, signup)
			if err != nil {
				fmt.Printf("%s: sync failed: %v\n", key, err)
				continue
			}

			if err := archive.Remove(ctx, key); err != nil {
				fmt.Printf("%s: synced (%s) but removal failed: %v\n", key, action, err)
				continue
			}
			fmt.Printf("%s: %s\n", key, action)
			replayed++
		}
		fmt.Printf("%d of %d event(s) replayed\n", replayed, len(keys))
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare the Cognito pool against the users table",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		if cfg.CognitoUserPoolID == "" {
			fmt.Fprintln(os.Stderr, "Error: FP_COGNITO_USER_POOL_ID is not set")
			os.Exit(1)
		}

		pool, err := reconcile.NewCognitoPool(ctx, cfg)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		report, err := reconcile.NewAuditor(pool, openService(cfg)).Audit(ctx, backfill)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		fmt.Println("Pool users :", report.PoolUsers)
		fmt.Println("Missing    :", len(report.Missing))
		for _, sub := range report.Missing {
			fmt.Println("  -", sub)
		}
		if backfill {
			fmt.Println("Backfilled :", report.Backfilled)
		}
	},
}

func main() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userShowCmd)
	deadletterCmd.AddCommand(deadletterListCmd)
	deadletterCmd.AddCommand(deadletterReplayCmd)

	auditCmd.Flags().BoolVar(&backfill, "backfill", false, "sync missing users into the database")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(deadletterCmd)
	rootCmd.AddCommand(auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
