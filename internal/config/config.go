package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 5 * time.Second
	DefaultSMTPPort = 587
	DefaultSMTPFrom = `"Status Monitor" <status@localhost>`
)

// ServiceCheck describes one probed endpoint.
type ServiceCheck struct {
	Name           string
	Endpoint       string
	Method         string
	ExpectedStatus int
	Timeout        time.Duration
	Headers        map[string]string
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
}

// AlertsConfig holds failure notification settings. An empty Email disables
// notification.
type AlertsConfig struct {
	Email string
	SMTP  SMTPConfig
}

// Enabled reports whether a destination address is configured.
func (a AlertsConfig) Enabled() bool {
	return a.Email != ""
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Config is the root application configuration.
type Config struct {
	Interval time.Duration
	Targets  []ServiceCheck
	Alerts   AlertsConfig
	Server   ServerConfig
	Storage  StorageConfig
}

var validMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodPost: true,
	http.MethodHead: true,
}

type rawTarget struct {
	Name           string            `yaml:"name"`
	Endpoint       string            `yaml:"endpoint"`
	Method         string            `yaml:"method"`
	ExpectedStatus int               `yaml:"expected_status"`
	Timeout        string            `yaml:"timeout"`
	Headers        map[string]string `yaml:"headers"`
}

type rawConfig struct {
	Interval string        `yaml:"interval"`
	Targets  []rawTarget   `yaml:"targets"`
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
}

// Load reads, parses, and validates the config file at path. Alert and SMTP
// settings come from the process environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	alerts, err := alertsFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.Alerts = alerts
	return cfg, nil
}

// LoadDotenv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotenv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse validates YAML config data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if raw.Server.Address == "" {
		raw.Server.Address = ":8080"
	}
	if raw.Storage.Path == "" {
		raw.Storage.Path = "statusboard.db"
	}

	if len(raw.Targets) == 0 {
		return nil, fmt.Errorf("at least one target must be configured")
	}

	cfg := &Config{
		Interval: DefaultInterval,
		Server:   raw.Server,
		Storage:  raw.Storage,
	}
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", raw.Interval, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval must be positive, got %s", d)
		}
		cfg.Interval = d
	}

	names := make(map[string]bool, len(raw.Targets))
	for i, rt := range raw.Targets {
		if rt.Name == "" {
			return nil, fmt.Errorf("target[%d]: name is required", i)
		}
		if names[rt.Name] {
			return nil, fmt.Errorf("duplicate target name %q", rt.Name)
		}
		names[rt.Name] = true

		if rt.Endpoint == "" {
			return nil, fmt.Errorf("target %q: endpoint is required", rt.Name)
		}
		u, err := url.Parse(rt.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("target %q: endpoint %q must be an absolute http(s) URL", rt.Name, rt.Endpoint)
		}

		method := strings.ToUpper(rt.Method)
		if method == "" {
			method = http.MethodGet
		}
		if !validMethods[method] {
			return nil, fmt.Errorf("target %q: invalid method %q (must be GET, POST, or HEAD)", rt.Name, rt.Method)
		}

		sc := ServiceCheck{
			Name:           rt.Name,
			Endpoint:       rt.Endpoint,
			Method:         method,
			ExpectedStatus: rt.ExpectedStatus,
			Timeout:        DefaultTimeout,
			Headers:        rt.Headers,
		}
		if sc.ExpectedStatus == 0 {
			sc.ExpectedStatus = http.StatusOK
		}
		if rt.Timeout != "" {
			d, err := time.ParseDuration(rt.Timeout)
			if err != nil {
				return nil, fmt.Errorf("target %q: invalid timeout %q: %w", rt.Name, rt.Timeout, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("target %q: timeout must be positive, got %s", rt.Name, d)
			}
			sc.Timeout = d
		}

		cfg.Targets = append(cfg.Targets, sc)
	}

	return cfg, nil
}

func alertsFromEnv(getenv func(string) string) (AlertsConfig, error) {
	a := AlertsConfig{
		Email: getenv("ALERT_EMAIL"),
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST"),
			Port:     DefaultSMTPPort,
			Secure:   getenv("SMTP_SECURE") == "true",
			User:     getenv("SMTP_USER"),
			Password: getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM"),
		},
	}
	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return AlertsConfig{}, fmt.Errorf("invalid SMTP_PORT %q", v)
		}
		a.SMTP.Port = port
	}
	if a.SMTP.From == "" {
		a.SMTP.From = DefaultSMTPFrom
	}
	if a.Enabled() && a.SMTP.Host == "" {
		return AlertsConfig{}, fmt.Errorf("ALERT_EMAIL is set but SMTP_HOST is empty")
	}
	return a, nil
}
