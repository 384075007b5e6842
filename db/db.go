package db

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"photostore/cloud"
	"photostore/config"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var Instance *gorm.DB

func Init(ctx context.Context) error {
	var dialector gorm.Dialector
	if config.DATABASE_URL != "" || config.DB_PARAM_PREFIX != "" {
		dsn, err := DSN(ctx)
		if err != nil {
			return err
		}
		dialector = postgres.Open(dsn)
	} else if config.SQLITE_FILE != "" {
		dialector = sqlite.Open(config.SQLITE_FILE)
	} else {
		return errors.New("no database configured: set DATABASE_URL, DB_PARAM_PREFIX or SQLITE_FILE")
	}
	db, err := Open(dialector)
	if err != nil {
		return err
	}
	Instance = db
	log.WithField("dialect", Dialect()).Info("Database connected")
	return nil
}

// Open creates a gorm handle that logs through logrus
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	level := logger.Warn
	if config.DEBUG_MODE {
		level = logger.Info
	}
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

func Dialect() string {
	if Instance == nil {
		return ""
	}
	return Instance.Dialector.Name()
}

// DSN returns the PostgreSQL connection URL, either DATABASE_URL or one assembled from SSM parameters
func DSN(ctx context.Context) (string, error) {
	if config.DATABASE_URL != "" {
		return config.DATABASE_URL, nil
	}
	if config.DB_PARAM_PREFIX == "" {
		return "", errors.New("DATABASE_URL is not set")
	}
	if cloud.Params == nil {
		return "", errors.New("SSM parameter store is not initialised")
	}
	prefix := config.DB_PARAM_PREFIX
	host, err := cloud.Params.Get(ctx, prefix+"/db-host", false)
	if err != nil {
		return "", err
	}
	name, err := cloud.Params.Get(ctx, prefix+"/db-name", false)
	if err != nil {
		return "", err
	}
	user, err := cloud.Params.Get(ctx, prefix+"/db-user", false)
	if err != nil {
		return "", err
	}
	password, err := cloud.Params.Get(ctx, prefix+"/db-password", true)
	if err != nil {
		return "", err
	}
	return buildDSN(host, name, user, password), nil
}

// buildDSN drops any port from the RDS endpoint and targets 5432
func buildDSN(host, name, user, password string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, "5432"),
		Path:   "/" + name,
	}
	return u.String()
}
