// Command console plays one game from a terminal, one command per line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"chessx/internal/config"
	"chessx/internal/game"
	"chessx/internal/gamesync"
	"chessx/internal/session"
)

const helpText = `commands:
  new                     start a new game
  move <e2e4|e2 e4 [q]>   play a move (the verb may be omitted)
  undo [n]                take back n moves (default 1)
  redo [n]                replay n undone moves (default 1)
  suggest [level]         let the engine play for the side to move
  hint [level]            show the engine's move without playing it
  legal [square]          list legal moves, or targets of one square
  state | show            print the board
  fen                     print the position as FEN
  save <file>             write the game with its history as JSON
  load <file>             replace the game with a saved one
  help                    this text
  quit                    leave`

type console struct {
	sess  *session.Session
	out   io.Writer
	level int
	color bool
}

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	suggester, closeEngine, err := cfg.Suggester(ctx)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer closeEngine()

	c := newConsole(cfg, os.Stdout)
	c.sess = session.New(session.Config{
		GameID:    cfg.GameID,
		ClientID:  cfg.ClientID,
		Store:     gamesync.NewMemoryStore(),
		Suggester: suggester,
		Notifier:  game.NotifierFunc(c.notify),
	})
	if err := c.sess.Open(ctx); err != nil {
		log.Fatalf("open: %v", err)
	}
	if err := c.run(ctx, os.Stdin); err != nil {
		log.Fatal(err)
	}
}

func newConsole(cfg config.Config, out io.Writer) *console {
	return &console{out: out, level: cfg.Level, color: cfg.Color}
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	c.show(nil)
	sc := bufio.NewScanner(in)
	c.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := c.exec(ctx, sc.Text()); quit {
			return nil
		}
		c.prompt()
	}
	return sc.Err()
}

func (c *console) prompt() {
	v := c.sess.View()
	fmt.Fprintf(c.out, "%s> ", v.Turn)
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// exec runs one command line and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.printf("%s", helpText)
	case "new", "reset":
		c.check(c.sess.Reset(ctx))
		c.show(nil)
	case "move", "m":
		c.move(ctx, args)
	case "undo", "u":
		n, ok := c.count(args)
		if !ok {
			return false
		}
		done, err := c.sess.Undo(ctx, n)
		if c.check(err) {
			c.printf("Undid %d move(s).", done)
			c.show(nil)
		}
	case "redo", "r":
		n, ok := c.count(args)
		if !ok {
			return false
		}
		done, err := c.sess.Redo(ctx, n)
		if c.check(err) {
			c.printf("Redid %d move(s).", done)
			c.show(nil)
		}
	case "suggest", "hint":
		c.suggest(ctx, args, verb == "suggest")
	case "legal":
		c.legal(args)
	case "state", "show", "board":
		c.show(nil)
	case "fen":
		c.printf("%s", c.sess.View().FEN)
	case "save":
		c.save(args)
	case "load":
		c.load(ctx, args)
	default:
		if _, err := game.ParseMove(fields[0]); err == nil {
			c.move(ctx, fields)
			return false
		}
		c.printf("Unknown command %q. Type help.", fields[0])
	}
	return false
}

func (c *console) check(err error) bool {
	if err != nil {
		c.printf("Error: %v", err)
		return false
	}
	return true
}

func (c *console) count(args []string) (int, bool) {
	if len(args) == 0 {
		return 1, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		c.printf("Error: step count %q must be a positive number", args[0])
		return 0, false
	}
	return n, true
}

func parseMoveArgs(args []string) (game.Move, error) {
	switch len(args) {
	case 1:
		return game.ParseMove(args[0])
	case 2, 3:
		return game.ParseMove(strings.Join(args, ""))
	default:
		return game.Move{}, fmt.Errorf("usage: move e2e4 | move e2 e4 [q]")
	}
}

func (c *console) move(ctx context.Context, args []string) {
	m, err := parseMoveArgs(args)
	if !c.check(err) {
		return
	}
	if _, err := c.sess.Move(ctx, m); c.check(err) {
		c.show(nil)
	}
}

func (c *console) suggest(ctx context.Context, args []string, apply bool) {
	level := c.level
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			c.printf("Error: level %q must be a positive number", args[0])
			return
		}
		level = n
	}
	res, err := c.sess.Suggest(ctx, level, apply)
	if !c.check(err) {
		return
	}
	note := ""
	if res.Suggestion.Fallback {
		note = " (fallback)"
	}
	if !apply {
		c.printf("Engine suggests %s%s.", res.Suggestion.Move, note)
		return
	}
	c.printf("Engine played %s%s.", res.Suggestion.Move, note)
	c.show(nil)
}

func (c *console) legal(args []string) {
	if len(args) == 0 {
		moves := c.sess.LegalMoves()
		names := make([]string, len(moves))
		for i, m := range moves {
			names[i] = m.String()
		}
		c.printf("%d legal move(s): %s", len(moves), strings.Join(names, " "))
		return
	}
	sq, ok := game.CoordToSquare(args[0])
	if !ok {
		c.printf("Error: invalid square %q", args[0])
		return
	}
	targets := c.sess.LegalTargets(sq)
	hl := make(map[game.Square]bool, len(targets))
	names := make([]string, len(targets))
	for i, t := range targets {
		hl[t] = true
		names[i] = t.String()
	}
	c.show(hl)
	c.printf("%s: %s", sq, strings.Join(names, " "))
}

func (c *console) show(highlight map[game.Square]bool) {
	v := c.sess.View()
	printBoard(c.out, v.BoardState, highlight, c.color)
	if v.LastMove != "" {
		c.printf("Last move: %s", v.LastMove)
	}
	c.printf("%s", v.Message)
}

func (c *console) save(args []string) {
	if len(args) != 1 {
		c.printf("Error: usage: save <file>")
		return
	}
	data, err := json.MarshalIndent(c.sess.Saved(), "", "  ")
	if !c.check(err) {
		return
	}
	if c.check(os.WriteFile(args[0], data, 0o644)) {
		c.printf("Saved to %s.", args[0])
	}
}

func (c *console) load(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.printf("Error: usage: load <file>")
		return
	}
	data, err := os.ReadFile(args[0])
	if !c.check(err) {
		return
	}
	var saved game.SavedGame
	if !c.check(json.Unmarshal(data, &saved)) {
		return
	}
	if c.check(c.sess.Import(ctx, saved)) {
		c.show(nil)
	}
}

// notify runs inside session calls; it only writes to the terminal.
func (c *console) notify(ev game.Event) {
	switch ev.Kind {
	case game.EventGameStarted:
		c.printf("New game.")
	case game.EventCaptured:
		c.printf("%s plays %s, taking a %s.", ev.Side, ev.Move, ev.Captured.Name())
	case game.EventMoved:
		c.printf("%s plays %s.", ev.Side, ev.Move)
	case game.EventCheck:
		c.printf("Check!")
	case game.EventGameEnded:
		c.printf("%s", ev.Outcome)
	case game.EventIllegalAttempt:
		c.printf("Illegal move %s.", ev.Move)
	}
}
