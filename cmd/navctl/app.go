package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/caiyueliang/fundnav-backend/internal/adapter/eastmoney"
	"github.com/caiyueliang/fundnav-backend/internal/adapter/repository/sqlstore"
	"github.com/caiyueliang/fundnav-backend/internal/common"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/navsync"
)

var configPath = flag.String("config", "", "Path to the TOML config file (defaults to ./config.toml when present)")

var commands = []subcommands.Command{
	&migrateCmd{},
	&addFundCmd{},
	&syncCmd{},
	&listCmd{},
	&detailCmd{},
	&fetchCmd{},
}

// app holds what the commands share
type app struct {
	config   *common.Config
	logger   *common.Logger
	db       *sqlstore.DB
	fundRepo domain.FundRepository
	navRepo  domain.NavRepository
}

// loadConfig reads the config and builds the logger, without touching the store
func loadConfig() (*common.Config, *common.Logger, error) {
	config, err := common.LoadConfig("config.toml", *configPath)
	if err != nil {
		return nil, nil, err
	}
	return config, common.NewLogger(config.Logging.Level, "console"), nil
}

// openApp connects to the store and makes sure the schema exists
func openApp(ctx context.Context) (*app, error) {
	config, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.NewDB(config.Database.Driver, config.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		config:   config,
		logger:   logger,
		db:       db,
		fundRepo: sqlstore.NewFundRepository(db),
		navRepo:  sqlstore.NewNavRepository(db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) fetcher() *eastmoney.Client {
	return eastmoney.NewClientFromConfig(a.config.Source, a.logger.Named("eastmoney"))
}

func (a *app) syncService() *navsync.SyncService {
	return navsync.NewSyncService(a.fundRepo, a.navRepo, a.fetcher(),
		navsync.WithConcurrency(a.config.Sync.Concurrency),
		navsync.WithFundTimeout(a.config.Sync.GetFundTimeout()),
		navsync.WithLocation(a.config.Sync.GetLocation()),
		navsync.WithLogger(a.logger.Named("navsync")),
	)
}

// optional formats an absent decimal as "-"
func optional(s fmt.Stringer, valid bool) string {
	if !valid {
		return "-"
	}
	return s.String()
}
