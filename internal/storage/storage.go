// Package storage opens the fiber.Storage driver behind the session store.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/storage/sqlite3/v2"

	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/db/dsn"
)

const (
	// MemoryDatabase selects a private in-memory sqlite database.
	MemoryDatabase = ":memory:"

	// gcInterval is the period of the expired entry sweep of the sql drivers.
	gcInterval = 10 * time.Minute
)

// ErrUnknownDriver is returned for an unknown storage driver.
var ErrUnknownDriver = errors.New("unknown storage driver")

// New opens the storage driver selected in cfg. The gofiber drivers panic
// when they cannot connect; New returns that as an error.
func New(cfg config.Storage) (s fiber.Storage, err error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("storage %s: %v", driver, r)
		}
	}()

	switch driver {
	case config.DriverSQLite:
		return newSQLite(cfg), nil
	case config.DriverMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         cfg.Table,
			GCInterval:    gcInterval,
		}), nil
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         cfg.Table,
			GCInterval:    gcInterval,
		}), nil
	case config.DriverRedis:
		c := redis.Config{
			Password: cfg.Redis.Password,
			Database: cfg.Redis.DB,
		}

		if cfg.Redis.Addr != "" {
			c.Addrs = []string{cfg.Redis.Addr}
		}

		return redis.New(c), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func newSQLite(cfg config.Storage) *sqlite3.Storage {
	c := sqlite3.Config{
		Database:   cfg.DB.Name,
		Table:      cfg.Table,
		GCInterval: gcInterval,
	}

	// an in-memory database lives as long as its single connection
	if c.Database == "" || c.Database == MemoryDatabase {
		c.Database = MemoryDatabase
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
		c.ConnMaxLifetime = -1
	}

	return sqlite3.New(c)
}
