package config

import (
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CHESS_ADDR", "CHESS_ALLOW_ORIGINS", "CHESS_DB_PATH", "CHESS_MATCH_INTERVAL", "CHESS_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":3000" || cfg.DBPath != "./chess.db" || cfg.MatchmakingInterval != time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Level() != log.LevelInfo {
		t.Fatalf("Level() = %v, want info", cfg.Level())
	}
	if origins := cfg.Origins(); len(origins) != 1 || origins[0] != "http://localhost:5173" {
		t.Fatalf("Origins() = %v", origins)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHESS_ADDR", ":8080")
	t.Setenv("CHESS_LOG_LEVEL", "DEBUG")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Level() != log.LevelDebug {
		t.Fatalf("env config = %+v", cfg)
	}

	cfg, err = Load([]string{"-addr", ":9090", "-db", "", "-match-interval", "250ms", "-allow-origins", "https://a.test, https://b.test,"})
	if err != nil {
		t.Fatalf("Load with flags: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.DBPath != "" || cfg.MatchmakingInterval != 250*time.Millisecond {
		t.Fatalf("flag config = %+v", cfg)
	}
	if origins := cfg.Origins(); len(origins) != 2 || origins[1] != "https://b.test" {
		t.Fatalf("Origins() = %v", origins)
	}
}

func TestLoadRejects(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unparsable interval", []string{"-match-interval", "soon"}},
		{"zero interval", []string{"-match-interval", "0s"}},
		{"negative interval", []string{"-match-interval", "-1s"}},
		{"unknown level", []string{"-log-level", "loud"}},
		{"unknown flag", []string{"-port", "80"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args); err == nil {
				t.Fatalf("Load(%v) succeeded", tt.args)
			}
		})
	}

	if _, err := Load([]string{"-log-level", "loud"}); !errors.Is(err, errUnknownLevel) {
		t.Fatalf("unknown level error = %v", err)
	}
}
