package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/session"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr     string `yaml:"addr" env:"REBEAUTY_ADDR"`
	LogLevel string `yaml:"log_level" env:"REBEAUTY_LOG_LEVEL"`
	DataDir  string `yaml:"data_dir" env:"REBEAUTY_DATA_DIR"`

	API struct {
		BaseURL  string        `yaml:"base_url" env:"REBEAUTY_API_BASE_URL"`
		Timeout  time.Duration `yaml:"timeout" env:"REBEAUTY_API_TIMEOUT"`
		Attempts int           `yaml:"attempts" env:"REBEAUTY_API_ATTEMPTS"`
		Token    string        `yaml:"-" env:"REBEAUTY_TOKEN"`
	} `yaml:"api"`

	Sync struct {
		Interval time.Duration `yaml:"interval" env:"REBEAUTY_SYNC_INTERVAL"`
	} `yaml:"sync"`

	Search struct {
		Normalize string `yaml:"normalize" env:"REBEAUTY_SEARCH_NORMALIZE"`
	} `yaml:"search"`

	TLS struct {
		CertFile string `yaml:"cert_file" env:"REBEAUTY_TLS_CERT"`
		KeyFile  string `yaml:"key_file" env:"REBEAUTY_TLS_KEY"`
	} `yaml:"tls"`

	MCP struct {
		Enabled bool `yaml:"enabled" env:"REBEAUTY_MCP_ENABLED"`
	} `yaml:"mcp"`

	// Console guards the console's own HTTP and MCP surfaces.
	Console struct {
		Token          string   `yaml:"-" env:"REBEAUTY_CONSOLE_TOKEN"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"REBEAUTY_ALLOWED_ORIGINS" env-separator:","`
	} `yaml:"console"`
}

func defaultConfig() config {
	var cfg config
	cfg.Addr = "127.0.0.1:8443"
	cfg.LogLevel = "info"
	cfg.DataDir = "data"
	cfg.API.BaseURL = client.DefaultBaseURL
	cfg.API.Timeout = 30 * time.Second
	cfg.API.Attempts = 3
	cfg.Sync.Interval = 5 * time.Minute
	cfg.Search.Normalize = "kana"
	cfg.MCP.Enabled = true
	return cfg
}

// loadConfig layers defaults, the YAML file (optional), a .env file
// (optional) and the process environment, in that order of precedence.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.Attempts < 1 {
		return fmt.Errorf("api.attempts must be at least 1, got %d", c.API.Attempts)
	}
	return nil
}

// checkExposure refuses to serve customer data on a non-loopback address
// without a console token.
func (c config) checkExposure() error {
	if c.Console.Token != "" || isLoopback(c.Addr) {
		return nil
	}
	return fmt.Errorf("addr %s is reachable from other hosts: set REBEAUTY_CONSOLE_TOKEN or listen on 127.0.0.1", c.Addr)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// env bundles what every command needs: config, logger and session store.
type env struct {
	cfg    config
	logger *slog.Logger
	store  *session.SQLiteStore
}

// setup parses the common --config flag plus fs's own flags and opens the
// session store.
func setup(fset *flag.FlagSet, args []string) *env {
	cfgPath := fset.String("config", "config.yaml", "path to config file")
	fset.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fatal("config %s: %v", *cfgPath, err)
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fatal("data dir: %v", err)
	}
	store, err := session.OpenSQLiteStore(filepath.Join(cfg.DataDir, "session.db"))
	if err != nil {
		fatal("%v", err)
	}
	return &env{cfg: cfg, logger: logger, store: store}
}

func (e *env) close() { e.store.Close() }

// session loads the stored session. REBEAUTY_TOKEN, when set, takes
// precedence over the stored token.
func (e *env) session() *session.Session {
	sess, err := session.Load(e.store)
	if err != nil {
		fatal("load session: %v", err)
	}
	if e.cfg.API.Token != "" {
		sess.Set(e.cfg.API.Token, sess.User())
	}
	if staleToken(sess, time.Now()) {
		e.logger.Warn("stored token has expired, run `rebeauty login`")
	}
	return sess
}

// staleToken reports a stored token past its expiry. A logged-out session
// has nothing to warn about.
func staleToken(sess *session.Session, now time.Time) bool {
	return sess.LoggedIn() && sess.Expired(now)
}

func (e *env) client(sess *session.Session) *client.Client {
	return newAPIClient(e.cfg, sess, e.logger)
}

func newAPIClient(cfg config, sess *session.Session, logger *slog.Logger) *client.Client {
	return client.New(cfg.API.BaseURL, sess,
		client.WithLogger(logger),
		client.WithRetry(cfg.API.Attempts, time.Second),
		client.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
	)
}
