package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-client/internal/category"
	"github.com/frahmantamala/expense-client/internal/mockapi"
	"github.com/frahmantamala/expense-client/pkg/logger"
	"github.com/spf13/cobra"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Run an in-memory expense API for local development",
	Long: fmt.Sprintf(`Run an in-memory implementation of the expense API.
With seeding enabled it starts with two accounts:
  %s / %s (ADMIN)
  %s / %s (EMPLOYEE)`,
		mockapi.AdminEmail, mockapi.AdminPassword, mockapi.EmployeeEmail, mockapi.EmployeePassword),
	RunE: func(cmd *cobra.Command, args []string) error {
		return startMockAPI(cmd.Context())
	},
}

func startMockAPI(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L().With("component", "mock-api")

	store := mockapi.NewStore()
	auth := mockapi.NewAuth(store, cfg.MockAPI.JWTSecret, cfg.MockAPI.TokenTTL)
	if cfg.MockAPI.Seed {
		if err := mockapi.Seed(store, auth, time.Now()); err != nil {
			return fmt.Errorf("failed to seed mock api: %w", err)
		}
		lg.Info("seeded mock api", "admin", mockapi.AdminEmail, "employee", mockapi.EmployeeEmail)
	}

	categories := category.NewService(category.NewStaticRepository(), lg)
	handler := mockapi.NewHandler(store, auth, categories, lg)
	router := mockapi.NewRouter(handler, auth, lg)

	return runServer(ctx, newHTTPServer(cfg.Server, cfg.MockAPI.Port, router), lg)
}
