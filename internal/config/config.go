// Package config reads process settings from flags with environment
// fallbacks and builds the suggestion engine they select.
package config

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"chessx/internal/suggest"
)

const (
	EngineLocal = "local"
	EngineUCI   = "uci"
	EngineNone  = "none"
)

type Config struct {
	Addr     string
	GameID   string
	ClientID string
	Engine   string
	UCIPath  string
	Level    int
	Seed     int64
	Color    bool
}

// Parse reads flags from args. Every flag defaults to its CHESSX_* variable.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&cfg.Addr, "addr", getenv("CHESSX_ADDR", ":8080"), "listen address")
	fs.StringVar(&cfg.GameID, "game", getenv("CHESSX_GAME_ID", "default"), "shared game id")
	fs.StringVar(&cfg.ClientID, "client", getenv("CHESSX_CLIENT_ID", defaultClientID()), "client id written to sync documents")
	fs.StringVar(&cfg.Engine, "engine", getenv("CHESSX_ENGINE", EngineLocal), "suggestion engine: local, uci or none")
	fs.StringVar(&cfg.UCIPath, "uci-path", getenv("CHESSX_UCI_PATH", ""), "path to a UCI engine binary (with -engine uci)")
	fs.IntVar(&cfg.Level, "level", getenvInt("CHESSX_LEVEL", 2), "default suggestion level")
	fs.BoolVar(&cfg.Color, "color", getenb("CHESSX_COLOR", true), "ANSI colors in console output")
	fs.Int64Var(&cfg.Seed, "seed", int64(getenvInt("CHESSX_SEED", 0)), "random seed for the local engine (0 = time based)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.GameID) == "" {
		return fmt.Errorf("empty game id")
	}
	if c.Level < 1 {
		return fmt.Errorf("level %d: must be at least 1", c.Level)
	}
	switch c.Engine {
	case EngineLocal, EngineNone:
	case EngineUCI:
		if c.UCIPath == "" {
			return fmt.Errorf("engine %q needs -uci-path", c.Engine)
		}
	default:
		return fmt.Errorf("unknown engine %q; valid: %s, %s, %s", c.Engine, EngineLocal, EngineUCI, EngineNone)
	}
	return nil
}

// Suggester starts the configured engine. The returned close func is never
// nil. With EngineNone the adapter is nil.
func (c Config) Suggester(ctx context.Context) (*suggest.Adapter, func() error, error) {
	noop := func() error { return nil }
	switch c.Engine {
	case EngineNone:
		return nil, noop, nil
	case EngineUCI:
		eng, err := suggest.StartUCI(ctx, c.UCIPath)
		if err != nil {
			return nil, noop, fmt.Errorf("uci engine: %w", err)
		}
		return suggest.NewAdapter(eng), eng.Close, nil
	default:
		eng := suggest.NewLocalEngine(c.Seed)
		return suggest.NewAdapter(eng), eng.Close, nil
	}
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "chessx"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
