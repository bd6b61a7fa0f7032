// Command server exposes one shared chess game over HTTP and websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chessx/internal/config"
	"chessx/internal/gamesync"
	"chessx/internal/httpx"
	"chessx/internal/session"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	fatalIf(err, "config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	suggester, closeEngine, err := cfg.Suggester(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.Printf("engine close: %v", err)
		}
	}()
	if suggester == nil {
		log.Printf("No suggestion engine; /api/suggest is disabled.")
	} else {
		log.Printf("Suggestion engine: %s (default level %d)", cfg.Engine, cfg.Level)
	}

	sess := session.New(session.Config{
		GameID:    cfg.GameID,
		ClientID:  cfg.ClientID,
		Store:     gamesync.NewMemoryStore(),
		Suggester: suggester,
	})
	if err := sess.Open(ctx); err != nil {
		return err
	}
	log.Printf("Game %q opened as client %q", cfg.GameID, cfg.ClientID)

	srv := httpx.NewServer(sess, cfg.Level)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(cfg.Addr)
	})
	g.Go(func() error {
		if err := sess.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Printf("Shutting down")
		return srv.Close(shutdownCtx)
	})
	return g.Wait()
}

func fatalIf(err error, label string) {
	if err != nil {
		log.Fatalf("%s: %v", label, err)
	}
}
