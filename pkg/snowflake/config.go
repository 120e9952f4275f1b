package snowflake

import (
	"errors"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

const (
	defaultLoginTimeout   = 30 * time.Second
	defaultRequestTimeout = 60 * time.Second
)

// Config carries the connection parameters for a Snowflake account.
type Config struct {
	Account   string
	User      string
	Password  string
	Role      string
	Warehouse string
	Database  string
	Schema    string

	// Authenticator selects the login method ("snowflake", "externalbrowser",
	// "oauth", ...). Empty means password auth.
	Authenticator string
	// Token is the OAuth token when Authenticator is "oauth".
	Token string

	LoginTimeout   time.Duration
	RequestTimeout time.Duration
}

var (
	ErrMissingAccount = errors.New("snowflake: account is required")
	ErrMissingUser    = errors.New("snowflake: user is required")
	ErrMissingAuth    = errors.New("snowflake: password or token is required")
)

// Validate checks the fields a connection cannot be built without.
func (c Config) Validate() error {
	if c.Account == "" {
		return ErrMissingAccount
	}
	if c.User == "" {
		return ErrMissingUser
	}
	if c.Password == "" && c.Token == "" && c.Authenticator != "externalbrowser" {
		return ErrMissingAuth
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = defaultLoginTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// DSN renders the driver connection string.
func (c Config) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	c = c.withDefaults()

	driverCfg := &gosnowflake.Config{
		Account:        c.Account,
		User:           c.User,
		Password:       c.Password,
		Role:           c.Role,
		Warehouse:      c.Warehouse,
		Database:       c.Database,
		Schema:         c.Schema,
		Token:          c.Token,
		LoginTimeout:   c.LoginTimeout,
		RequestTimeout: c.RequestTimeout,
	}
	switch c.Authenticator {
	case "", "snowflake":
		driverCfg.Authenticator = gosnowflake.AuthTypeSnowflake
	case "externalbrowser":
		driverCfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case "oauth":
		driverCfg.Authenticator = gosnowflake.AuthTypeOAuth
	default:
		return "", errors.New("snowflake: unsupported authenticator " + c.Authenticator)
	}

	return gosnowflake.DSN(driverCfg)
}
