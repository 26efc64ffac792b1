package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	"github.com/frahmantamala/expense-client/internal/category"
	"github.com/frahmantamala/expense-client/internal/core/events"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/frahmantamala/expense-client/internal/session"
	"github.com/frahmantamala/expense-client/internal/session/sqlite"
	"github.com/frahmantamala/expense-client/pkg/logger"
	"gorm.io/gorm"
)

// Dependencies is everything a client command needs, wired once per process.
type Dependencies struct {
	Config     *internal.Config
	Logger     *slog.Logger
	DB         *gorm.DB
	Bus        *events.EventBus
	Session    *session.Store
	Client     *apiclient.Client
	Navigator  *router.Navigator
	Expenses   *expense.Service
	Categories *category.Service
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	db, err := openSessionDB(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}

	var schemas *apiclient.SchemaValidator
	if cfg.API.ValidateResponses {
		if schemas, err = apiclient.NewSchemaValidator(ctx); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("failed to load api schemas: %w", err)
		}
	}

	// the client reads the token from the store it is handed to
	var store *session.Store
	tokens := func() string { return store.Token() }
	client, err := apiclient.New(cfg.API, tokens, schemas, lg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	bus := events.NewEventBus(lg)
	store, err = session.Open(ctx, sqlite.NewSessionRepository(db), client, bus, lg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	deps := &Dependencies{
		Config:     cfg,
		Logger:     lg,
		DB:         db,
		Bus:        bus,
		Session:    store,
		Client:     client,
		Expenses:   expense.NewService(client, bus, lg),
		Categories: category.NewService(category.NewStaticRepository(), lg),
	}
	deps.Navigator = router.NewNavigator(deps.principal, bus, lg)
	return deps, nil
}

func openSessionDB(ctx context.Context, cfg internal.SessionConfig) (*gorm.DB, error) {
	db, err := sqlite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store %s: %w", cfg.Path, err)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}
	return db, nil
}

func (d *Dependencies) Close() {
	d.Navigator.Close()
	closeDB(d.DB)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// principal is the router's view of the current session.
func (d *Dependencies) principal() router.Principal {
	s := d.Session.Current()
	return router.Principal{User: s.User, Token: s.Token}
}
