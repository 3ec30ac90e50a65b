package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	BucketAudit string
	UseSSL      bool
	Region      string
}

// TokenConfig holds the session token settings. Every field is required.
type TokenConfig struct {
	Secret        string
	Issuer        string
	Audience      string
	ExpiryMinutes int
}

func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.ExpiryMinutes) * time.Minute
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type MailConfig struct {
	FromAddress   string
	ConfirmURL    string
	SMTP          SMTPConfig
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	MaxLen        int64
	MaxDeliveries int64
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type JobsConfig struct {
	OutboxTrimSpec     string
	LoginArchiveSpec   string
	RateLimitSweepSpec string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Token            TokenConfig
	Mail             MailConfig
	RateLimit        RateLimitConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ACCOUNTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the service cannot start without.
func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Token.Secret) == "" {
		errs = append(errs, errors.New("token.secret is required"))
	}
	if strings.TrimSpace(c.Token.Issuer) == "" {
		errs = append(errs, errors.New("token.issuer is required"))
	}
	if strings.TrimSpace(c.Token.Audience) == "" {
		errs = append(errs, errors.New("token.audience is required"))
	}
	if c.Token.ExpiryMinutes <= 0 {
		errs = append(errs, fmt.Errorf("token.expiryminutes must be positive, got %d", c.Token.ExpiryMinutes))
	}
	if c.Mail.FromAddress == "" {
		errs = append(errs, errors.New("mail.fromaddress is required"))
	}
	return errors.Join(errs...)
}

// ValidateMailer reports settings the mail worker cannot start without.
func (c *AppConfig) ValidateMailer() error {
	var errs []error
	if c.Mail.Stream == "" {
		errs = append(errs, errors.New("mail.stream is required"))
	}
	if c.Mail.Group == "" {
		errs = append(errs, errors.New("mail.group is required"))
	}
	if c.Mail.Consumer == "" {
		errs = append(errs, errors.New("mail.consumer is required"))
	}
	if c.Mail.SMTP.Host != "" && c.Mail.SMTP.Port <= 0 {
		errs = append(errs, fmt.Errorf("mail.smtp.port must be positive, got %d", c.Mail.SMTP.Port))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.migrateonstart", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketaudit", "accounts-audit")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	// registered empty so AutomaticEnv overrides reach Unmarshal
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("token.secret", "")
	v.SetDefault("token.issuer", "")
	v.SetDefault("token.audience", "")
	v.SetDefault("token.expiryminutes", 0)
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")

	v.SetDefault("mail.fromaddress", "noreply@localhost")
	v.SetDefault("mail.confirmurl", "http://localhost:8080/account/confirmemail")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.stream", "mail:outbox")
	v.SetDefault("mail.group", "mailers")
	v.SetDefault("mail.consumer", "mailer-1")
	v.SetDefault("mail.claiminterval", "30s")
	v.SetDefault("mail.maxlen", 10000)
	v.SetDefault("mail.maxdeliveries", 10)

	v.SetDefault("ratelimit.perminute", 20)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("jobs.outboxtrimspec", "0 */15 * * * *")
	v.SetDefault("jobs.loginarchivespec", "0 30 0 * * *")
	v.SetDefault("jobs.ratelimitsweepspec", "0 */5 * * * *")
}
