package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Adapter AdapterConfig `yaml:"adapter"`
	Limits  LimitsConfig  `yaml:"limits"`
	Uploads UploadsConfig `yaml:"uploads"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds listen and TLS settings. Address/Port is the net/http
// listener (ops endpoints plus the nethttp adapter); FastAddress is the
// fasthttp listener used when the fasthttp adapter is selected.
type ServerConfig struct {
	Address     string    `yaml:"address"`
	Port        int       `yaml:"port"`
	FastAddress string    `yaml:"fast_address"`
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AdapterConfig selects the underlying server and body-streaming knobs.
type AdapterConfig struct {
	Kind      string   `yaml:"kind"` // "nethttp" or "fasthttp"
	MaxBody   ByteSize `yaml:"max_body"`
	ChunkSize ByteSize `yaml:"chunk_size"`
}

// LimitsConfig holds per-client rate limiting.
type LimitsConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// UploadsConfig holds the temp spool dir, the ledger database path and the
// sweep schedule.
type UploadsConfig struct {
	Dir        string `yaml:"dir"`
	LedgerPath string `yaml:"ledger_path"`
	SweepCron  string `yaml:"sweep_cron"`
	MaxAge     string `yaml:"max_age"` // Go duration, e.g. "2h"
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ByteSize is an int that unmarshals from humanized strings ("10MB") as
// well as plain integers.
type ByteSize int

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var n64 int64
	if err := value.Decode(&n64); err == nil {
		*b = ByteSize(n64)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*b = 0
		return nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// Addr returns host:port for the net/http server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// MaxAgeDuration parses the upload max age, defaulting to one hour.
func (u UploadsConfig) MaxAgeDuration() time.Duration {
	if u.MaxAge == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(u.MaxAge)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
