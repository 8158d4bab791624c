package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/cache"
	"github.com/fekuna/omnipos-stock-service/internal/database/sqlite"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	stockRepoPkg "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every command shares. It is filled by the root pre-run.
type app struct {
	cfg    *config.Config
	logger logger.ZapLogger
	db     *sqlx.DB
	redis  *cache.RedisClient
	uc     stock.UseCase
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "stockctl",
		Short:        "Keep the stock table in sync with spreadsheets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newSearchCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newSchemaCmd(a),
		newListenCmd(a),
	)
	return root
}

func (a *app) open() error {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()
	a.cfg = cfg

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		FilePath:          cfg.Logger.FilePath,
		MaxSizeMB:         cfg.Logger.MaxSizeMB,
		MaxBackups:        cfg.Logger.MaxBackups,
		MaxAgeDays:        cfg.Logger.MaxAgeDays,
	}
	if cfg.App.Env == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	a.logger = logger.NewZapLogger(logConfig)

	// 3. Open the store
	db, err := sqlite.NewSQLite(&sqlite.Config{
		Path:            cfg.SQLite.Path,
		BusyTimeoutMS:   cfg.SQLite.BusyTimeoutMS,
		JournalMode:     cfg.SQLite.JournalMode,
		MaxOpenConns:    cfg.SQLite.MaxOpenConns,
		MaxIdleConns:    cfg.SQLite.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.SQLite.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("could not open stock database: %w", err)
	}
	a.db = db
	a.logger.Debug("Opened SQLite database", zap.String("path", cfg.SQLite.Path))

	repo := stockRepoPkg.NewSQLiteRepository(db, cfg.SQLite.Table)
	if err := repo.Migrate(context.Background()); err != nil {
		return fmt.Errorf("could not prepare stock table: %w", err)
	}

	// 4. Optional Redis write lock
	var locker stock.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("could not connect to Redis: %w", err)
		}
		a.redis = redisClient
		locker = redisClient
		a.logger.Debug("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize UseCase
	a.uc = stockUCPkg.NewStockUseCase(repo, locker, time.Duration(cfg.Redis.LockTTL)*time.Second, a.logger)
	return nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
