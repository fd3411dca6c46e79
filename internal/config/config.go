package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr                string
	AllowOrigins        string
	DBPath              string
	MatchmakingInterval time.Duration
	LogLevel            string
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load parses flags from args, falling back to CHESS_* environment variables for defaults.
// An empty DBPath disables snapshot persistence.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var cfg Config
	fs.StringVar(&cfg.Addr, "addr", getenv("CHESS_ADDR", ":3000"), "listen address")
	fs.StringVar(&cfg.AllowOrigins, "allow-origins", getenv("CHESS_ALLOW_ORIGINS", "http://localhost:5173"), "comma-separated CORS origins")
	fs.StringVar(&cfg.DBPath, "db", getenv("CHESS_DB_PATH", "./chess.db"), "sqlite snapshot database, empty to disable")
	interval := fs.String("match-interval", getenv("CHESS_MATCH_INTERVAL", "1s"), "matchmaking tick interval")
	fs.StringVar(&cfg.LogLevel, "log-level", getenv("CHESS_LOG_LEVEL", "info"), "log level: trace, debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	d, err := time.ParseDuration(*interval)
	if err != nil {
		return Config{}, fmt.Errorf("match interval %q: %w", *interval, err)
	}
	if d <= 0 {
		return Config{}, fmt.Errorf("match interval %s: must be positive", d)
	}
	cfg.MatchmakingInterval = d

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return Config{}, fmt.Errorf("log level %q: %w", cfg.LogLevel, errUnknownLevel)
	}
	return cfg, nil
}

var errUnknownLevel = errors.New("unknown log level")

// Level maps the configured name to a fiber log level.
func (c Config) Level() log.Level {
	return logLevels[c.LogLevel]
}

// Origins returns the CORS origins as a slice.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
