package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// EnvPrefix префикс переменных окружения, переопределяющих config.toml (RENTAL_DATABASE_HOST и т.д.)
const EnvPrefix = "RENTAL"

// ErrInvalidConfig возвращается при некорректной конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server" envconfig:"server"`
	Database  DatabaseConfig  `toml:"database" envconfig:"database"`
	Logs      LogsConfig      `toml:"logs" envconfig:"logs"`
	Metrics   MetricsConfig   `toml:"metrics" envconfig:"metrics"`
	Scheduler SchedulerConfig `toml:"scheduler" envconfig:"scheduler"`
	Outbox    OutboxConfig    `toml:"outbox" envconfig:"outbox"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" envconfig:"http_port"`
	ReadTimeout     int `toml:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout" envconfig:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout" envconfig:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout" envconfig:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к Postgres
type DatabaseConfig struct {
	Host            string `toml:"host" envconfig:"host"`
	Port            int    `toml:"port" envconfig:"port"`
	User            string `toml:"user" envconfig:"user"`
	Password        string `toml:"password" envconfig:"password"`
	DBName          string `toml:"dbname" envconfig:"dbname"`
	SSLMode         string `toml:"sslmode" envconfig:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" envconfig:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate" envconfig:"auto_migrate"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, sslMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file" envconfig:"file"`
	Level string `toml:"level" envconfig:"level"`
}

// MetricsConfig настройки prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" envconfig:"enabled"`
	Path        string `toml:"path" envconfig:"path"`
	ServiceName string `toml:"service_name" envconfig:"service_name"`
}

// SchedulerConfig настройки ежедневной сверки контрактов
type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled" envconfig:"enabled"`
	Cron       string `toml:"cron" envconfig:"cron"`               // cron-выражение или дескриптор (@daily)
	BatchSize  int    `toml:"batch_size" envconfig:"batch_size"`   // максимум контрактов на проход
	RunTimeout int    `toml:"run_timeout" envconfig:"run_timeout"` // секунды
}

// OutboxConfig настройки доставки событий из outbox
type OutboxConfig struct {
	Enabled      bool `toml:"enabled" envconfig:"enabled"`
	PollInterval int  `toml:"poll_interval" envconfig:"poll_interval"` // секунды
	BatchSize    int  `toml:"batch_size" envconfig:"batch_size"`
	MaxAttempts  int  `toml:"max_attempts" envconfig:"max_attempts"`
	RetryDelay   int  `toml:"retry_delay" envconfig:"retry_delay"` // секунды
	LeaseTimeout int  `toml:"lease_timeout" envconfig:"lease_timeout"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "rental",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "smc_rental_service",
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			Cron:       "@daily",
			BatchSize:  500,
			RunTimeout: 300,
		},
		Outbox: OutboxConfig{
			Enabled:      true,
			PollInterval: 2,
			BatchSize:    50,
			MaxAttempts:  10,
			RetryDelay:   30,
			LeaseTimeout: 300,
		},
	}
}

// Load читает config.toml поверх значений по умолчанию, затем применяет переменные окружения
// Отсутствующий файл не является ошибкой: сервис можно полностью сконфигурировать через окружение
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to stat %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in 1..65535")
	}
	if c.Database.Host == "" {
		problems = append(problems, "database.host is required")
	}
	if c.Database.DBName == "" {
		problems = append(problems, "database.dbname is required")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			problems = append(problems, fmt.Sprintf("scheduler.cron %q is invalid: %v", c.Scheduler.Cron, err))
		}
		if c.Scheduler.BatchSize <= 0 {
			problems = append(problems, "scheduler.batch_size must be positive")
		}
		if c.Scheduler.RunTimeout <= 0 {
			problems = append(problems, "scheduler.run_timeout must be positive")
		}
	}
	if c.Outbox.Enabled {
		if c.Outbox.PollInterval <= 0 {
			problems = append(problems, "outbox.poll_interval must be positive")
		}
		if c.Outbox.BatchSize <= 0 {
			problems = append(problems, "outbox.batch_size must be positive")
		}
		if c.Outbox.MaxAttempts <= 0 {
			problems = append(problems, "outbox.max_attempts must be positive")
		}
		if c.Outbox.LeaseTimeout <= 0 {
			problems = append(problems, "outbox.lease_timeout must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
