package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Thank You for Your Submission!", cfg.Email.Subject)
	assert.Equal(t, "Error Log Sheet", cfg.ErrorLog.SheetName)
	assert.Equal(t, StoreDriverXLSX, cfg.Store.Driver)
	assert.Equal(t, "sendEmailOnSubmit", cfg.Trigger.HandlerName)
	assert.Equal(t, 30*time.Second, cfg.Watch.Interval)
	assert.True(t, cfg.Template.EscapeValues)
	assert.Equal(t, "CyberElites", cfg.Template.ClubLinkText)
	assert.Equal(t, "CyberElites Club", cfg.Template.ClubName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORMMAILER_EMAIL_SUBJECT", "Thanks!")
	t.Setenv("FORMMAILER_ERROR_LOG_SHEET_NAME", "Failures")
	t.Setenv("FORMMAILER_EMAIL_PROVIDER", ProviderResend)
	t.Setenv("FORMMAILER_SERVER_TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)

	assert.Equal(t, "Thanks!", cfg.Email.Subject)
	assert.Equal(t, "Failures", cfg.ErrorLog.SheetName)
	assert.Equal(t, ProviderResend, cfg.Email.Provider)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:    StoreConfig{Driver: StoreDriverXLSX, XLSXPath: "x.xlsx"},
			Email:    EmailConfig{Provider: ProviderGmail},
			ErrorLog: ErrorLogConfig{SheetName: "Error Log Sheet"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "google without spreadsheet", mutate: func(c *Config) { c.Store.Driver = StoreDriverGoogle }, wantErr: true},
		{name: "xlsx without path", mutate: func(c *Config) { c.Store.XLSXPath = "" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Email.Provider = "pigeon" }, wantErr: true},
		{name: "empty log sheet", mutate: func(c *Config) { c.ErrorLog.SheetName = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
