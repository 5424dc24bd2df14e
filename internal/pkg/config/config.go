package config

import (
	"fmt"
	"time"

	"github.com/henjigg/consumption/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server     Server        `yaml:"server"`
	Logger     logger.Config `yaml:"logger"`
	PostgresDB PostgresDB    `yaml:"db"`
	MenuCache  MenuCache     `yaml:"rdb"`
	Admin      Admin         `yaml:"admin"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type PostgresDB struct {
	Addr          string        `yaml:"addr"`
	Username      string        `env:"POSTGRES_USER"     env-required:"true" yaml:"username"`
	Password      string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB            string        `env:"POSTGRES_DB"       env-required:"true" yaml:"db"`
	SSLmode       string        `yaml:"sslmode"`
	MaxConns      string        `yaml:"maxConns"`
	QueryTimeout  time.Duration `yaml:"queryTimeout"`
	MigrationsDir string        `yaml:"migrationsDir"`
	Reload        bool          `yaml:"reload"`
	Version       int           `yaml:"version"`
}

type MenuCache struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `yaml:"exp"`
	DialWait time.Duration `yaml:"dialWait"`
}

// Admin is the bootstrap administrator created on first start when the
// account does not exist yet.
type Admin struct {
	Account  string `yaml:"account"`
	Password string `env:"ADMIN_PASSWORD" yaml:"password"`
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	if cfg.PostgresDB.QueryTimeout == 0 {
		cfg.PostgresDB.QueryTimeout = time.Second * 5
	}

	if cfg.PostgresDB.MigrationsDir == "" {
		cfg.PostgresDB.MigrationsDir = "./migrations"
	}

	if cfg.Admin.Account == "" {
		cfg.Admin.Account = "admin"
	}

	if cfg.Admin.Password == "" {
		cfg.Admin.Password = "admin123"
	}

	return cfg, nil
}
