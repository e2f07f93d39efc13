package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Database is the part of the configuration the migration tool needs.
type Database struct {
	DBDriver    string `env:"DB_DRIVER,default=postgres" description:"postgres or sqlite"`
	DatabaseURL string `env:"DATABASE_URL,default=host=localhost user=postgres password=postgres dbname=chatbot_studio port=5432 sslmode=disable" description:"postgres DSN or sqlite file path"`
}

type Config struct {
	Port        string `env:"PORT,default=8080" description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT,default=development"`

	Database
	RedisURL string `env:"REDIS_URL,default=redis://localhost:6379/0" description:"token denylist store"`

	JWTSecret       string        `env:"JWT_SECRET,required" description:"HMAC secret for access and refresh tokens"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,default=30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`

	LogLevel string `env:"LOG_LEVEL,default=info" description:"debug, info, warning or error"`
	LogJSON  bool   `env:"LOG_JSON,default=false"`

	AMQPURL      string `env:"AMQP_URL,optional" description:"error sink broker, empty disables publishing"`
	AMQPExchange string `env:"AMQP_EXCHANGE,default=chatbot-studio.errors"`

	WhatsAppAPIURL string `env:"WHATSAPP_API_URL,default=https://graph.facebook.com/v19.0"`
	WhatsAppToken  string `env:"WHATSAPP_TOKEN,optional"`
	PhoneNumberID  string `env:"PHONE_NUMBER_ID,optional"`
}

// LoadConfig reads .env when present and decodes the environment into a
// Config.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase decodes only the database settings.
func LoadDatabase() (*Database, error) {
	loadDotEnv()

	db := &Database{}
	if err := envdecode.Decode(db); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Warning: Error loading .env file")
	}
}

func (d *Database) Validate() error {
	switch d.DBDriver {
	case "postgres", "sqlite":
		return nil
	}
	return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", d.DBDriver)
}

// Validate checks the values envdecode cannot.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// WhatsAppEnabled reports whether sending test messages is configured.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppToken != "" && c.PhoneNumberID != ""
}
