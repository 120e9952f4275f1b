package snowflake

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing account",
			cfg:     Config{User: "u", Password: "p"},
			wantErr: ErrMissingAccount,
		},
		{
			name:    "missing user",
			cfg:     Config{Account: "acme-x1", Password: "p"},
			wantErr: ErrMissingUser,
		},
		{
			name:    "missing credentials",
			cfg:     Config{Account: "acme-x1", User: "u"},
			wantErr: ErrMissingAuth,
		},
		{
			name: "password auth ok",
			cfg:  Config{Account: "acme-x1", User: "u", Password: "p"},
		},
		{
			name: "oauth token ok",
			cfg:  Config{Account: "acme-x1", User: "u", Token: "tok", Authenticator: "oauth"},
		},
		{
			name: "external browser needs no secret",
			cfg:  Config{Account: "acme-x1", User: "u", Authenticator: "externalbrowser"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Account:   "acme-x1",
		User:      "svc_mcp",
		Password:  "hunter2",
		Role:      "ANALYST",
		Warehouse: "WH_S",
		Database:  "SALES",
		Schema:    "PUBLIC",
	}

	dsn, err := cfg.DSN()
	if err != nil {
		t.Fatalf("DSN() error = %v", err)
	}
	for _, want := range []string{"acme-x1", "svc_mcp", "SALES", "PUBLIC", "WH_S", "ANALYST"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN missing %q: %s", want, dsn)
		}
	}
}

func TestConfigDSNRejectsUnknownAuthenticator(t *testing.T) {
	cfg := Config{Account: "a", User: "u", Password: "p", Authenticator: "carrier-pigeon"}
	if _, err := cfg.DSN(); err == nil {
		t.Fatal("expected an error for an unknown authenticator")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.LoginTimeout != 30*time.Second {
		t.Errorf("LoginTimeout = %v, want 30s", cfg.LoginTimeout)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want 60s", cfg.RequestTimeout)
	}
}
