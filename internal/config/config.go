package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig: пустой Addr означает in-memory счётчик попыток.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	// DryRun пишет письма в лог вместо SMTP (локальная разработка).
	DryRun bool `yaml:"dry_run"`
}

type SecurityConfig struct {
	// SecretKey is the master secret. CodeKey and TokenKey are derived from it
	// unless set explicitly.
	SecretKey     string        `yaml:"secret_key"`
	CodeKey       string        `yaml:"code_key"`
	TokenKey      string        `yaml:"token_key"`
	Issuer        string        `yaml:"issuer"`
	CodeTTL       time.Duration `yaml:"code_ttl"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	MaxAttempts   int           `yaml:"max_attempts"`
	LockoutWindow time.Duration `yaml:"lockout_window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Email    EmailConfig    `yaml:"email"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// Defaults returns a config with every optional field populated.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		Email: EmailConfig{
			SMTPPort:  587,
			FromEmail: "noreply@yamdb.local",
		},
		Security: SecurityConfig{
			Issuer:        "yamdb",
			CodeTTL:       24 * time.Hour,
			TokenTTL:      24 * time.Hour,
			MaxAttempts:   5,
			LockoutWindow: 15 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads the YAML file at path on top of Defaults and applies YAMDB_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Defaults()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path picks the config file: explicit value, then YAMDB_CONFIG, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("YAMDB_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"YAMDB_DATABASE_URL":   &cfg.Database.DSN,
		"YAMDB_REDIS_ADDR":     &cfg.Redis.Addr,
		"YAMDB_REDIS_PASSWORD": &cfg.Redis.Password,
		"YAMDB_SMTP_HOST":      &cfg.Email.SMTPHost,
		"YAMDB_SMTP_USER":      &cfg.Email.SMTPUser,
		"YAMDB_SMTP_PASSWORD":  &cfg.Email.SMTPPassword,
		"YAMDB_FROM_EMAIL":     &cfg.Email.FromEmail,
		"YAMDB_SECRET_KEY":     &cfg.Security.SecretKey,
		"YAMDB_CODE_KEY":       &cfg.Security.CodeKey,
		"YAMDB_TOKEN_KEY":      &cfg.Security.TokenKey,
		"YAMDB_LOG_LEVEL":      &cfg.Log.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"YAMDB_PORT":      &cfg.Server.Port,
		"YAMDB_SMTP_PORT": &cfg.Email.SMTPPort,
		"YAMDB_REDIS_DB":  &cfg.Redis.DB,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	s := c.Security
	if s.SecretKey == "" && (s.CodeKey == "" || s.TokenKey == "") {
		return errors.New("security.secret_key is required (or both code_key and token_key)")
	}
	if s.CodeTTL <= 0 || s.TokenTTL <= 0 {
		return errors.New("security.code_ttl and security.token_ttl must be positive")
	}
	if s.MaxAttempts <= 0 || s.LockoutWindow <= 0 {
		return errors.New("security.max_attempts and security.lockout_window must be positive")
	}
	return nil
}

// Keys returns the confirmation-code key and the token signing key. Keys that
// are not configured explicitly are derived from SecretKey with HKDF-SHA256.
func (s SecurityConfig) Keys() (codeKey, tokenKey []byte, err error) {
	codeKey, err = s.key(s.CodeKey, "yamdb confirmation code")
	if err != nil {
		return nil, nil, err
	}
	tokenKey, err = s.key(s.TokenKey, "yamdb access token")
	if err != nil {
		return nil, nil, err
	}
	return codeKey, tokenKey, nil
}

func (s SecurityConfig) key(explicit, info string) ([]byte, error) {
	if explicit != "" {
		return []byte(explicit), nil
	}
	if s.SecretKey == "" {
		return nil, errors.New("no secret to derive keys from")
	}
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(s.SecretKey), nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive %q key: %w", info, err)
	}
	return out, nil
}
