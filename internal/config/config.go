package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Email    EmailConfig    `mapstructure:"email"`
	Template TemplateConfig `mapstructure:"template"`
	ErrorLog ErrorLogConfig `mapstructure:"error_log"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// SubmissionRateLimit is the number of submissions accepted per client IP per window.
	SubmissionRateLimit  int           `mapstructure:"submission_rate_limit"`
	SubmissionRateWindow time.Duration `mapstructure:"submission_rate_window"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL configuration, used by the postgres store driver
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Store drivers
const (
	StoreDriverGoogle   = "google"
	StoreDriverPostgres = "postgres"
	StoreDriverXLSX     = "xlsx"
)

// StoreConfig selects and configures the tabular store holding responses and the error log
type StoreConfig struct {
	// Driver is one of "google", "postgres" or "xlsx"
	Driver string `mapstructure:"driver"`
	// SpreadsheetID is the Google spreadsheet that receives form responses
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	// CredentialsJSON is the service account credentials JSON content for the Sheets API
	CredentialsJSON string `mapstructure:"credentials_json"`
	// XLSXPath is the workbook file used by the xlsx driver
	XLSXPath string `mapstructure:"xlsx_path"`
	// GoogleRequestsPerSecond paces Sheets API calls
	GoogleRequestsPerSecond float64 `mapstructure:"google_requests_per_second"`
}

// Email providers
const (
	ProviderGmail  = "gmail"
	ProviderResend = "resend"
)

// EmailConfig holds email sending configuration
type EmailConfig struct {
	// Provider is the email provider to use: "gmail" or "resend"
	Provider string `mapstructure:"provider"`
	// Subject is the confirmation email subject line
	Subject string            `mapstructure:"subject"`
	Gmail   GmailEmailConfig  `mapstructure:"gmail"`
	Resend  ResendEmailConfig `mapstructure:"resend"`
}

// GmailEmailConfig holds Gmail API configuration
type GmailEmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
	// SenderAddress is the "From" email address
	SenderAddress string `mapstructure:"sender_address"`
	// SenderName is the display name for the sender
	SenderName string `mapstructure:"sender_name"`
}

// ResendEmailConfig holds Resend API configuration
type ResendEmailConfig struct {
	APIKey        string `mapstructure:"api_key"`
	SenderAddress string `mapstructure:"sender_address"`
	SenderName    string `mapstructure:"sender_name"`
}

// TemplateConfig controls the confirmation message body
type TemplateConfig struct {
	// EscapeValues sanitizes submitted values before they are embedded in HTML
	EscapeValues bool `mapstructure:"escape_values"`
	// IncludeText adds a plain-text alternative part
	IncludeText bool   `mapstructure:"include_text"`
	ClubName    string `mapstructure:"club_name"`
	// ClubLinkText is the anchor text of the website link
	ClubLinkText string `mapstructure:"club_link_text"`
	ClubURL      string `mapstructure:"club_url"`
}

// ErrorLogConfig holds the error log table settings
type ErrorLogConfig struct {
	// SheetName is the fixed name of the log table
	SheetName string `mapstructure:"sheet_name"`
}

// TriggerConfig holds trigger registration settings
type TriggerConfig struct {
	// HandlerName is the entry point the form-submit trigger is bound to
	HandlerName string `mapstructure:"handler_name"`
	// Source is the default event source (spreadsheet) for setup commands
	Source string `mapstructure:"source"`
}

// WatchConfig holds the responses-sheet poller settings
type WatchConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ResponsesSheet string        `mapstructure:"responses_sheet"`
	Interval       time.Duration `mapstructure:"interval"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	// A local .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/formmailer")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("FORMMAILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverGoogle:
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("store.spreadsheet_id is required for the %q driver", c.Store.Driver)
		}
	case StoreDriverPostgres:
	case StoreDriverXLSX:
		if c.Store.XLSXPath == "" {
			return fmt.Errorf("store.xlsx_path is required for the %q driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Email.Provider {
	case ProviderGmail, ProviderResend:
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	if c.ErrorLog.SheetName == "" {
		return errors.New("error_log.sheet_name must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.submission_rate_limit", 30)
	v.SetDefault("server.submission_rate_window", "1m")
	v.SetDefault("server.trusted_proxies", []string{})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "formmailer")
	v.SetDefault("database.user", "formmailer")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	// Store defaults
	v.SetDefault("store.driver", StoreDriverXLSX)
	v.SetDefault("store.spreadsheet_id", "")
	v.SetDefault("store.credentials_json", "")
	v.SetDefault("store.xlsx_path", "./data/responses.xlsx")
	v.SetDefault("store.google_requests_per_second", 1.0)

	// Email defaults
	v.SetDefault("email.provider", ProviderGmail)
	v.SetDefault("email.subject", "Thank You for Your Submission!")
	v.SetDefault("email.gmail.credentials_json", "")
	v.SetDefault("email.gmail.client_id", "")
	v.SetDefault("email.gmail.client_secret", "")
	v.SetDefault("email.gmail.refresh_token", "")
	v.SetDefault("email.gmail.sender_address", "")
	v.SetDefault("email.gmail.sender_name", "CyberElites Club")
	v.SetDefault("email.resend.api_key", "")
	v.SetDefault("email.resend.sender_address", "")
	v.SetDefault("email.resend.sender_name", "CyberElites Club")

	// Template defaults
	v.SetDefault("template.escape_values", true)
	v.SetDefault("template.include_text", false)
	v.SetDefault("template.club_name", "CyberElites Club")
	v.SetDefault("template.club_link_text", "CyberElites")
	v.SetDefault("template.club_url", "https://cyberelites.org")

	// Error log defaults
	v.SetDefault("error_log.sheet_name", "Error Log Sheet")

	// Trigger defaults
	v.SetDefault("trigger.handler_name", "sendEmailOnSubmit")
	v.SetDefault("trigger.source", "")

	// Watcher defaults
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.responses_sheet", "Form Responses 1")
	v.SetDefault("watch.interval", "30s")
}
