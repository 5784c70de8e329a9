package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr    string
	Ledger  string
	Config  string
	Adapter string
	Set     map[string]bool
}

// EffectiveConfigResult is the single resolved configuration the server
// runs with, plus where it came from.
type EffectiveConfigResult struct {
	Config     *Config
	Addr       string
	LedgerPath string
	Source     string // "flags", "config", or "env"
}

// ParseCommandFlags defines and parses command-line flags and returns them
// along with a map indicating which were explicitly set.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	ledgerPtr := flag.String("ledger", "./.uploads-ledger", "Upload ledger DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	adapterPtr := flag.String("adapter", "nethttp", "Underlying server: nethttp or fasthttp")
	flag.Parse()
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, Ledger: *ledgerPtr, Config: *cfgPtr, Adapter: *adapterPtr, Set: set}
}

// ParseConfigFile resolves the config path and loads the YAML file. A
// missing file is not fatal unless the user passed --config explicitly.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfg, err := Load(flags.Config)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads environment variables into a fresh Config and
// reports whether any were present. It does not mutate caller state.
func ParseConfigEnvs() (*Config, bool) {
	envCfg := &Config{}
	envUsed := false

	setAddr := func(v string) {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	}
	if v := os.Getenv("CONNKIT_ADDR"); v != "" {
		envUsed = true
		setAddr(v)
	}
	if v := os.Getenv("CONNKIT_FAST_ADDR"); v != "" {
		envUsed = true
		envCfg.Server.FastAddress = v
	}
	if v := os.Getenv("CONNKIT_ADAPTER"); v != "" {
		envUsed = true
		envCfg.Adapter.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CONNKIT_MAX_BODY"); v != "" {
		if n, err := humanize.ParseBytes(v); err == nil {
			envUsed = true
			envCfg.Adapter.MaxBody = ByteSize(n)
		}
	}
	if v := os.Getenv("CONNKIT_CHUNK_SIZE"); v != "" {
		if n, err := humanize.ParseBytes(v); err == nil {
			envUsed = true
			envCfg.Adapter.ChunkSize = ByteSize(n)
		}
	}
	if v := os.Getenv("CONNKIT_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			envCfg.Limits.RPS = f
		}
	}
	if v := os.Getenv("CONNKIT_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			envCfg.Limits.Burst = n
		}
	}
	if v := os.Getenv("CONNKIT_UPLOAD_DIR"); v != "" {
		envUsed = true
		envCfg.Uploads.Dir = v
	}
	if v := os.Getenv("CONNKIT_LEDGER_PATH"); v != "" {
		envUsed = true
		envCfg.Uploads.LedgerPath = v
	}
	if v := os.Getenv("CONNKIT_SWEEP_CRON"); v != "" {
		envUsed = true
		envCfg.Uploads.SweepCron = v
	}
	if v := os.Getenv("CONNKIT_UPLOAD_MAX_AGE"); v != "" {
		envUsed = true
		envCfg.Uploads.MaxAge = v
	}
	if c := os.Getenv("CONNKIT_TLS_CERT"); c != "" {
		envUsed = true
		envCfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CONNKIT_TLS_KEY"); k != "" {
		envUsed = true
		envCfg.Server.TLS.KeyFile = k
	}
	if v := os.Getenv("CONNKIT_LOG_LEVEL"); v != "" {
		envUsed = true
		envCfg.Logging.Level = v
	}
	return envCfg, envUsed
}

// LoadEffectiveConfig decides which single source to use (flags, config
// file, or env). An explicit --config requires the file to exist and wins;
// otherwise explicit addr/ledger/adapter flags win; otherwise a present
// config file; otherwise env.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.LedgerPath = fileCfg.Uploads.LedgerPath
		res.Source = "config"
		return res, nil
	}

	if flags.Set["addr"] || flags.Set["ledger"] || flags.Set["adapter"] {
		out := &Config{}
		out.Server.Address = flags.Addr
		out.Server.Port = parsePortFromAddr(flags.Addr)
		out.Uploads.LedgerPath = flags.Ledger
		out.Adapter.Kind = flags.Adapter
		res.Config = out
		res.Addr = flags.Addr
		res.LedgerPath = flags.Ledger
		res.Source = "flags"
		return res, nil
	}

	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.LedgerPath = fileCfg.Uploads.LedgerPath
		res.Source = "config"
		return res, nil
	}

	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.LedgerPath = envCfg.Uploads.LedgerPath
	res.Source = "env"
	return res, nil
}

// parsePortFromAddr extracts the port integer from a host:port string.
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}
