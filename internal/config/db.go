package config

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"busbooking/internal/utils"

	"github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// DSN builds the driver connection string for cfg.
func (cfg DBConfig) DSN() string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.Local
	c.Timeout = 5 * time.Second
	c.ReadTimeout = 30 * time.Second
	c.WriteTimeout = 30 * time.Second
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()
	return connectLocked(ctx, cfg)
}

func connectLocked(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if DB != nil {
		return DB, nil
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db %s: %w", cfg.Name, err)
	}

	DB = db
	utils.LogEvent("", "db", "connect", "connected to MySQL "+cfg.Name)
	return DB, nil
}

// EnsureDB reconnects when the shared connection is missing and pings it
// otherwise.
func EnsureDB(ctx context.Context, cfg DBConfig) error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		_, err := connectLocked(ctx, cfg)
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return DB.PingContext(pingCtx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
