// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// DatabaseDSN holds the database connection string.
	DatabaseDSN string

	// SessionSecret is the HMAC key for session tokens.
	SessionSecret string

	// SessionTTL is the lifetime of an issued session.
	SessionTTL time.Duration

	// SessionRetention is how long expired sessions are kept before the
	// cleaner removes them.
	SessionRetention time.Duration

	// CleanerInterval is the period of the expired-session cleaner.
	CleanerInterval time.Duration

	// LogLevel is a zap level name.
	LogLevel string

	// WWWDir, if set, is served as static files outside /api.
	WWWDir string

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string

	// Config is the path to the config file.
	Config string
}

// fileOptions mirrors Options in the JSON config file. Durations are Go
// duration strings such as "15m".
type fileOptions struct {
	Address          *string  `json:"address"`
	DatabaseDSN      *string  `json:"database_dsn"`
	SessionSecret    *string  `json:"session_secret"`
	SessionTTL       *string  `json:"session_ttl"`
	SessionRetention *string  `json:"session_retention"`
	CleanerInterval  *string  `json:"cleaner_interval"`
	LogLevel         *string  `json:"log_level"`
	WWWDir           *string  `json:"www_dir"`
	TLSCert          *string  `json:"tls_cert"`
	TLSKey           *string  `json:"tls_key"`
	CORSOrigins      []string `json:"cors_origins"`
}

// ErrNoSecret is returned when no session secret is configured.
var ErrNoSecret = errors.New("session secret is required")

// Parse parses the command-line flags, the config file and environment
// variables. It exits the process on invalid configuration.
func Parse() *Options {
	opts, err := parse(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// parse applies, in increasing precedence: flag defaults, the config file,
// explicitly set flags, environment variables.
func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	fs.StringVar(&o.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.SessionSecret, "s", "", "session signing secret")
	fs.DurationVar(&o.SessionTTL, "ttl", 15*time.Minute, "session lifetime")
	fs.DurationVar(&o.SessionRetention, "retention", 7*24*time.Hour, "how long expired sessions are kept")
	fs.DurationVar(&o.CleanerInterval, "cleaner-interval", time.Hour, "expired session cleaner period")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&o.WWWDir, "www", "", "static files directory")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS key file")
	fs.Func("cors", "comma separated allowed CORS origins", func(v string) error {
		o.CORSOrigins = splitList(v)
		return nil
	})
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			var fo fileOptions
			if err := json.Unmarshal(data, &fo); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			if err := fo.apply(o, explicit); err != nil {
				return nil, err
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Address = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := getenv("SESSION_SECRET"); v != "" {
		o.SessionSecret = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		o.CORSOrigins = splitList(v)
	}

	if o.SessionSecret == "" {
		return nil, ErrNoSecret
	}
	if o.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", o.SessionTTL)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return nil, errors.New("tls cert and key must be set together")
	}
	return o, nil
}

func (fo *fileOptions) apply(o *Options, explicit map[string]bool) error {
	setString := func(flagName string, dst *string, v *string) {
		if v != nil && !explicit[flagName] {
			*dst = *v
		}
	}
	setDuration := func(flagName string, dst *time.Duration, v *string) error {
		if v == nil || explicit[flagName] {
			return nil
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("config file %s: %w", flagName, err)
		}
		*dst = d
		return nil
	}

	setString("a", &o.Address, fo.Address)
	setString("d", &o.DatabaseDSN, fo.DatabaseDSN)
	setString("s", &o.SessionSecret, fo.SessionSecret)
	setString("log-level", &o.LogLevel, fo.LogLevel)
	setString("www", &o.WWWDir, fo.WWWDir)
	setString("tls-cert", &o.TLSCert, fo.TLSCert)
	setString("tls-key", &o.TLSKey, fo.TLSKey)
	if fo.CORSOrigins != nil && !explicit["cors"] {
		o.CORSOrigins = fo.CORSOrigins
	}

	if err := setDuration("ttl", &o.SessionTTL, fo.SessionTTL); err != nil {
		return err
	}
	if err := setDuration("retention", &o.SessionRetention, fo.SessionRetention); err != nil {
		return err
	}
	return setDuration("cleaner-interval", &o.CleanerInterval, fo.CleanerInterval)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
