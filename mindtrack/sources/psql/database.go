package psql

import (
	"context"
	"fmt"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// PoolConfig bounds the shared connection pool. Zero values keep database/sql defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func PoolFromConfig(cfg config.Config) PoolConfig {
	return PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)
}

// NewDatabase connects to postgres, sizes the pool and migrates the schema.
func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	logging.AppLogger.Info("connecting to database",
		zap.String("host", cfg.DBHost),
		zap.String("db", cfg.DBName),
	)
	return Open(ctx, postgres.Open(DSN(cfg)), PoolFromConfig(cfg))
}

// Open is NewDatabase for any gorm dialector; tests pass SQLite.
func Open(ctx context.Context, dialector gorm.Dialector, pool PoolConfig) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	database := &Database{DB: db}
	if err := database.Migrate(ctx); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate creates the tables plus the one-active-session-per-user index.
func (db *Database) Migrate(ctx context.Context) error {
	err := db.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Journal{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	// Postgres and SQLite both support partial indexes.
	err = db.DB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_chat_sessions_one_active ON chat_sessions (user_id) WHERE is_active`,
	).Error
	if err != nil {
		return fmt.Errorf("failed to create active session index: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
