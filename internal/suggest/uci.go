package suggest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const stopTimeout = 2 * time.Second

// UCIEngine drives an external engine process over the UCI protocol. The
// position is resent in full before every search.
type UCIEngine struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	fen   string
	moves []string
}

// StartUCI launches path and completes the uci/isready handshake.
func StartUCI(ctx context.Context, path string, args ...string) (*UCIEngine, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	e := &UCIEngine{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	go e.readLoop(stdout)

	if err := e.send("uci"); err != nil {
		e.Close()
		return nil, err
	}
	if _, err := e.await(ctx, "uciok"); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.ready(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *UCIEngine) readLoop(r io.Reader) {
	defer close(e.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e.lines <- strings.TrimSpace(scanner.Text())
	}
}

func (e *UCIEngine) send(line string) error {
	_, err := io.WriteString(e.stdin, line+"\n")
	return err
}

// await discards output until a line starting with prefix arrives.
func (e *UCIEngine) await(ctx context.Context, prefix string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return "", ErrEngineExited
			}
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		}
	}
}

func (e *UCIEngine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	_, err := e.await(ctx, "readyok")
	return err
}

func (e *UCIEngine) NewGame(ctx context.Context, fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fen = fen
	e.moves = nil
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	return e.ready(ctx)
}

func (e *UCIEngine) Play(_ context.Context, moves ...string) error {
	e.mu.Lock()
	e.moves = append(e.moves, moves...)
	e.mu.Unlock()
	return nil
}

func (e *UCIEngine) BestMove(ctx context.Context, level int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.send(positionCommand(e.fen, e.moves)); err != nil {
		return "", err
	}
	if err := e.send(fmt.Sprintf("go depth %d", max(level, 1))); err != nil {
		return "", err
	}
	line, err := e.await(ctx, "bestmove")
	if err != nil {
		if ctx.Err() != nil {
			e.abandonSearch()
		}
		return "", err
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] == "(none)" {
		return "", fmt.Errorf("engine returned %q", line)
	}
	return fields[1], nil
}

// abandonSearch stops a search whose caller gave up and consumes its
// bestmove, so the next search cannot read it.
func (e *UCIEngine) abandonSearch() {
	if err := e.send("stop"); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if _, err := e.await(ctx, "bestmove"); err != nil {
		log.Printf("uci: abandoned search: %v", err)
	}
}

// Close asks the process to quit and waits briefly before killing it.
func (e *UCIEngine) Close() error {
	_ = e.send("quit")
	_ = e.stdin.Close()
	go func() {
		for range e.lines {
		}
	}()
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = e.cmd.Process.Kill()
		return <-done
	}
}

func positionCommand(fen string, moves []string) string {
	var sb strings.Builder
	sb.WriteString("position ")
	if fen == "" {
		sb.WriteString("startpos")
	} else {
		sb.WriteString("fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	return sb.String()
}
