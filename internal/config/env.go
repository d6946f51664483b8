package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PaymentConfig struct {
	SuccessRate    float64
	Delay          time.Duration
	Timeout        time.Duration
	FailureReasons []string
	Unavailable    []string
}

type Env struct {
	AppAddr string
	GinMode string
	Debug   bool

	DB    DBConfig
	Redis RedisConfig

	JWTSecret string
	JWTTTL    time.Duration

	SessionBackend  string
	SessionTTL      time.Duration
	SessionIdle     time.Duration
	BookingsBackend string
	CatalogBackend  string
	CatalogSeedFile string

	Payment     PaymentConfig
	CORSOrigins []string
	SeatmapSeed uint64
}

const devJWTSecret = "dev-secret-change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_addr", ":8080")
	v.SetDefault("gin_mode", "")
	v.SetDefault("debug", false)

	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "bus_booking")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", devJWTSecret)
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.idle", "30m")
	v.SetDefault("bookings.backend", "memory")
	v.SetDefault("catalog.backend", "static")
	v.SetDefault("catalog.seed_file", "")

	v.SetDefault("payment.success_rate", 0.95)
	v.SetDefault("payment.delay", "2s")
	v.SetDefault("payment.timeout", "30s")
	v.SetDefault("payment.failure_reasons", []string{"insufficient_funds", "card_declined", "expired_card", "processing_error"})
	v.SetDefault("payment.unavailable", []string{})

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("seatmap.seed", 0)
}

// LoadEnv reads configuration from the environment (DB_HOST for db.host and
// so on) and, when CONFIG_FILE is set, from that file first.
func LoadEnv() (Env, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Env{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Env, error) {
	env := Env{
		AppAddr: strings.TrimSpace(v.GetString("app_addr")),
		GinMode: strings.TrimSpace(v.GetString("gin_mode")),
		Debug:   v.GetBool("debug"),
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          v.GetDuration("jwt.ttl"),
		SessionBackend:  strings.ToLower(v.GetString("session.backend")),
		SessionTTL:      v.GetDuration("session.ttl"),
		SessionIdle:     v.GetDuration("session.idle"),
		BookingsBackend: strings.ToLower(v.GetString("bookings.backend")),
		CatalogBackend:  strings.ToLower(v.GetString("catalog.backend")),
		CatalogSeedFile: v.GetString("catalog.seed_file"),
		Payment: PaymentConfig{
			SuccessRate:    v.GetFloat64("payment.success_rate"),
			Delay:          v.GetDuration("payment.delay"),
			Timeout:        v.GetDuration("payment.timeout"),
			FailureReasons: v.GetStringSlice("payment.failure_reasons"),
			Unavailable:    v.GetStringSlice("payment.unavailable"),
		},
		CORSOrigins: v.GetStringSlice("cors.allowed_origins"),
		SeatmapSeed: v.GetUint64("seatmap.seed"),
	}
	if env.AppAddr == "" {
		env.AppAddr = ":8080"
	}
	return env, env.Validate()
}

func (e Env) Validate() error {
	var errs []error
	if !oneOf(e.SessionBackend, "memory", "redis") {
		errs = append(errs, fmt.Errorf("session.backend must be memory or redis, got %q", e.SessionBackend))
	}
	if !oneOf(e.BookingsBackend, "memory", "mysql") {
		errs = append(errs, fmt.Errorf("bookings.backend must be memory or mysql, got %q", e.BookingsBackend))
	}
	if !oneOf(e.CatalogBackend, "static", "mysql") {
		errs = append(errs, fmt.Errorf("catalog.backend must be static or mysql, got %q", e.CatalogBackend))
	}
	if strings.TrimSpace(e.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if e.Payment.SuccessRate < 0 || e.Payment.SuccessRate > 1 {
		errs = append(errs, fmt.Errorf("payment.success_rate must be within [0,1], got %v", e.Payment.SuccessRate))
	}
	return errors.Join(errs...)
}

// NeedsMySQL reports whether any backend is configured to use MySQL.
func (e Env) NeedsMySQL() bool {
	return e.BookingsBackend == "mysql" || e.CatalogBackend == "mysql"
}

// UsesDevSecret reports whether the built-in development JWT secret is in use.
func (e Env) UsesDevSecret() bool {
	return e.JWTSecret == devJWTSecret
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
