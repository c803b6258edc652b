package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/dashboard"
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot/snapshottest"
	"github.com/pavitra93/go-rental-management/shared/store"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "Rental platform operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("sqlite", "", "use this sqlite file instead of the configured database")

	rootCmd.AddCommand(
		migrateCmd(),
		seedCmd(),
		statsCmd(),
		retriesCmd(),
		tokenCmd(),
	)
	return rootCmd
}

// openStore connects to the database named by the environment, or to the
// sqlite file given with --sqlite.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := config.GetDatabaseConfig()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("sqlite"); path != "" {
		cfg.Driver = "sqlite"
		cfg.SQLitePath = path
		cfg.MaxOpenConns = 1
	}
	db, err := config.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return store.New(db), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables.\n", len(store.Tables()))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo portfolio; existing rows are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			portfolio := snapshottest.Portfolio()
			if err := st.Seed(ctx, portfolio); err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d properties, %d units, %d leases, %d payments.\n",
				len(portfolio.Users), len(portfolio.Properties), len(portfolio.Units), len(portfolio.Leases), len(portfolio.Payments))
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard counters a user would see",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			asOf, _ := cmd.Flags().GetString("as-of")

			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(time.DateOnly, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of date: %w", err)
				}
				now = t
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			user, err := st.Users.GetByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("user %s: %w", userID, err)
			}

			actor := models.Actor{ID: user.ID, Role: user.Role, Email: user.Email}
			view, err := loader.New(loader.FromStore(st), config.LoaderConfig{}).Load(ctx, actor)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}
			stats, err := dashboard.Aggregate(actor, view.Scoped, now)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.Flags().String("user", "", "user id")
	cmd.Flags().String("as-of", "", "evaluate due dates on this day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func retriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retries",
		Short: "Count failed activity events by retry status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			counts, err := st.RetryCounts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, counts)
		},
	}
}

type tokenConfig struct {
	Auth  config.AuthConfig
	Redis config.RedisConfig
}

// tokenCmd issues an HMAC token for local environments running with
// JWT_SIGNING_KEY instead of a Cognito pool, and opens its session.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for a stored user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			var cfg tokenConfig
			if err := config.Parse(&cfg); err != nil {
				return err
			}
			if cfg.Auth.SigningKey == "" {
				return fmt.Errorf("JWT_SIGNING_KEY is not set")
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			user, err := st.Users.GetByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("user %s: %w", userID, err)
			}

			now := time.Now()
			expires := now.Add(ttl)
			token, err := middleware.SignHMAC(cfg.Auth.SigningKey, &middleware.CognitoClaims{
				Sub:        user.ID,
				Email:      user.Email,
				TokenUse:   "access",
				CustomRole: string(user.Role),
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(expires),
				},
			})
			if err != nil {
				return err
			}

			noSession, _ := cmd.Flags().GetBool("no-session")
			if !noSession {
				kv, closeKV := cache.Open(ctx, cfg.Redis)
				defer closeKV()
				actor := models.Actor{ID: user.ID, Role: user.Role, Email: user.Email}
				if _, err := cache.NewSessionStore(kv, cfg.Redis.SessionTTL).Create(ctx, token, actor, expires); err != nil {
					return fmt.Errorf("failed to open session: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("user", "", "user id")
	cmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	cmd.Flags().Bool("no-session", false, "skip opening a redis session for the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
