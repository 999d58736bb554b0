// Package config reads settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Host inventory backends.
const (
	SourceVSphere = "vsphere"
	SourceSSH     = "ssh"
)

var (
	ErrMissingSetting = errors.New("missing required setting")
	ErrInvalidSetting = errors.New("invalid setting")
)

type Config struct {
	ESXi       ESXiConfig
	Intersight IntersightConfig
	Web        WebConfig
	Log        LogConfig

	ServerProfile string
	FetchTimeout  time.Duration
}

type ESXiConfig struct {
	Host     string
	User     string
	Password string
	Source   string
	SSHPort  int
	Insecure bool
}

type IntersightConfig struct {
	URL               string
	KeyID             string
	SecretKeyPath     string
	SignatureValidity time.Duration
	Insecure          bool
}

type WebConfig struct {
	Host   string
	Port   string
	DBPath string
}

type LogConfig struct {
	Level  string
	Output string
}

// LoadEnvFiles loads ./.env and then the file named by MAIN_ENV_PATH. Missing
// files are skipped and variables already set in the process are kept.
func LoadEnvFiles() {
	_ = godotenv.Load()
	if path := os.Getenv("MAIN_ENV_PATH"); path != "" {
		_ = godotenv.Load(path)
	}
}

// getEnv fetches environment variable or returns fallback
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds a Config from the current environment.
func Load() (*Config, error) {
	sshPort, err := strconv.Atoi(getEnv("ESXI_SSH_PORT", "22"))
	if err != nil {
		return nil, fmt.Errorf("%w: ESXI_SSH_PORT: %v", ErrInvalidSetting, err)
	}
	insecure, err := strconv.ParseBool(getEnv("INSECURE_SKIP_VERIFY", "true"))
	if err != nil {
		return nil, fmt.Errorf("%w: INSECURE_SKIP_VERIFY: %v", ErrInvalidSetting, err)
	}
	validity, err := time.ParseDuration(getEnv("INTERSIGHT_SIGNATURE_VALIDITY", "5m"))
	if err != nil {
		return nil, fmt.Errorf("%w: INTERSIGHT_SIGNATURE_VALIDITY: %v", ErrInvalidSetting, err)
	}
	timeout, err := time.ParseDuration(getEnv("FETCH_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("%w: FETCH_TIMEOUT: %v", ErrInvalidSetting, err)
	}

	cfg := &Config{
		ESXi: ESXiConfig{
			Host:     os.Getenv("ESXI_HOST"),
			User:     os.Getenv("ESXI_USER"),
			Password: os.Getenv("ESXI_PASSWORD"),
			Source:   strings.ToLower(getEnv("ESXI_SOURCE", SourceVSphere)),
			SSHPort:  sshPort,
			Insecure: insecure,
		},
		Intersight: IntersightConfig{
			URL:               getEnv("INTERSIGHT_URL", "https://intersight.com"),
			KeyID:             os.Getenv("INTERSIGHT_KEY_ID"),
			SecretKeyPath:     os.Getenv("INTERSIGHT_SECRET_KEY_PATH"),
			SignatureValidity: validity,
			Insecure:          insecure,
		},
		Web: WebConfig{
			Host:   getEnv("WEB_HOST", "0.0.0.0"),
			Port:   getEnv("WEB_PORT", "8080"),
			DBPath: getEnv("DB_PATH", "vnicmap.db"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stderr"),
		},
		ServerProfile: os.Getenv("SERVER_PROFILE"),
		FetchTimeout:  timeout,
	}

	if cfg.ESXi.Source != SourceVSphere && cfg.ESXi.Source != SourceSSH {
		return nil, fmt.Errorf("%w: ESXI_SOURCE %q (want %s or %s)", ErrInvalidSetting, cfg.ESXi.Source, SourceVSphere, SourceSSH)
	}

	return cfg, nil
}

// ValidateCredentials reports every missing credential needed to reach the
// two inventories. The ESXi host and server profile are per-target in the web
// server, so they are checked separately by ValidateCLI.
func (c *Config) ValidateCredentials() error {
	return missingError(c.missingCredentials())
}

// ValidateCLI checks everything a one-shot mapping run needs.
func (c *Config) ValidateCLI() error {
	missing := c.missingCredentials()
	if c.ESXi.Host == "" {
		missing = append(missing, "ESXI_HOST")
	}
	if c.ServerProfile == "" {
		missing = append(missing, "SERVER_PROFILE")
	}
	return missingError(missing)
}

func (c *Config) missingCredentials() []string {
	var missing []string
	for name, value := range map[string]string{
		"ESXI_USER":                  c.ESXi.User,
		"ESXI_PASSWORD":              c.ESXi.Password,
		"INTERSIGHT_KEY_ID":          c.Intersight.KeyID,
		"INTERSIGHT_SECRET_KEY_PATH": c.Intersight.SecretKeyPath,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func missingError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
}
