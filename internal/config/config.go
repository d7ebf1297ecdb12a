package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	BaseURL         string        `env:"BASE_URL"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	SpinDuration    time.Duration `env:"SPIN_DURATION" envDefault:"3s"`
	SettleDelay     time.Duration `env:"SETTLE_DELAY" envDefault:"800ms"`
	SpinWatchdog    time.Duration `env:"SPIN_WATCHDOG" envDefault:"0s"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.SpinDuration <= 0 {
		errs = append(errs, fmt.Errorf("SPIN_DURATION must be positive, got %s", c.SpinDuration))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("SETTLE_DELAY must not be negative, got %s", c.SettleDelay))
	}
	if c.SpinWatchdog < 0 {
		errs = append(errs, fmt.Errorf("SPIN_WATCHDOG must not be negative, got %s", c.SpinWatchdog))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
