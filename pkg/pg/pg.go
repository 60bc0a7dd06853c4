package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type txContextKey string

const txKey txContextKey = "trx"

// ErrNoConnection is returned by every operation on a DB that was never opened.
var ErrNoConnection = errors.New("no database connection available")

// DB is the process-wide database handle. It is opened once at startup,
// handed to repositories and closed at shutdown. A nil *DB is valid and
// means "no connection available".
type DB struct {
	read  *gorm.DB
	write *gorm.DB
}

func Create(config Config, withDebug bool) (*gorm.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	gormLogger := logger.Default.LogMode(logger.Warn)
	if withDebug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(postgres.Open(config.DSN()),
		&gorm.Config{
			Logger: gormLogger,
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			},
		})
	if err != nil {
		// gorm hands back the pool even when the initial ping fails
		closeQuietly(db)
		return nil, fmt.Errorf("connect to %s:%s/%s: %w", config.Host, config.Port, config.Database, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	return db, nil
}

func closeQuietly(db *gorm.DB) {
	if db == nil || db.ConnPool == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Open connects using config and returns the handle shared by all repositories.
func Open(config Config, withDebug bool) (*DB, error) {
	db, err := Create(config, withDebug)
	if err != nil {
		return nil, err
	}
	return Wrap(db), nil
}

// Wrap builds a DB over an existing gorm handle, used for both read and write.
func Wrap(db *gorm.DB) *DB {
	if db == nil {
		return nil
	}
	return &DB{read: db, write: db}
}

func (r *DB) Available() bool {
	return r != nil && r.write != nil
}

func (r *DB) Ping(ctx context.Context) error {
	if !r.Available() {
		return ErrNoConnection
	}
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *DB) Close() error {
	if !r.Available() {
		return nil
	}
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTransaction runs fn with a context carrying the transaction, so Read
// and Write called with that context use it.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	if !r.Available() {
		return ErrNoConnection
	}
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, txKey, tx)
		return fn(ctx)
	}, opts...)
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.write.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.read.WithContext(ctx)
}
