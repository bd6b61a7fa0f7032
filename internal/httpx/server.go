// Package httpx exposes a game session over HTTP and websocket.
package httpx

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"chessx/internal/game"
	"chessx/internal/session"
	"chessx/internal/suggest"
)

// Server wires the HTTP layer to a game session.
type Server struct {
	session      *session.Session
	defaultLevel int
	srvMu        sync.Mutex
	srv          *http.Server
}

const (
	maxJSONBodyBytes int64 = 1 << 20
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
)

func NewServer(sess *session.Session, defaultLevel int) *Server {
	return &Server{session: sess, defaultLevel: defaultLevel}
}

// Listen starts the HTTP server.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	log.Printf("HTTP listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api", apiHeaders)
	api.GET("/state", s.handleState)
	api.GET("/legal", s.handleLegal)
	api.POST("/move", s.handleMove)
	api.POST("/undo", s.handleUndo)
	api.POST("/redo", s.handleRedo)
	api.POST("/reset", s.handleReset)
	api.POST("/suggest", s.handleSuggest)
	api.GET("/save", s.handleSave)
	api.POST("/load", s.handleLoad)
	return r
}

// ---- JSON helpers ----

func apiHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Embedder-Policy", "require-corp")
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes)
	}
	c.Next()
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindJSON decodes the request body into v. An empty body leaves v as is
// when optional is set.
func bindJSON(c *gin.Context, v any, optional bool) bool {
	if optional && (c.Request.Body == nil || c.Request.Body == http.NoBody) {
		return true
	}
	err := c.ShouldBindJSON(v)
	switch {
	case err == nil:
		return true
	case optional && errors.Is(err, io.EOF):
		return true
	case isBodyTooLarge(err):
		writeError(c, http.StatusRequestEntityTooLarge, "request too large")
	default:
		writeError(c, http.StatusBadRequest, "invalid json")
	}
	return false
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrIllegalMove), errors.Is(err, game.ErrInvalidSnapshot):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrTerminalGame),
		errors.Is(err, session.ErrSuggestionPending),
		errors.Is(err, session.ErrStaleSuggestion),
		errors.Is(err, session.ErrSyncConflict),
		errors.Is(err, session.ErrStaleRevision),
		errors.Is(err, suggest.ErrNoLegalMoves):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSuggester):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	writeError(c, status, err.Error())
}

func (s *Server) respondState(c *gin.Context, extra gin.H) {
	body := gin.H{"state": s.session.View()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// ---- API: state ----

func (s *Server) handleState(c *gin.Context) {
	s.respondState(c, nil)
}

func (s *Server) handleLegal(c *gin.Context) {
	coord := strings.TrimSpace(c.Query("square"))
	if coord == "" {
		moves := s.session.LegalMoves()
		out := make([]string, len(moves))
		for i, m := range moves {
			out[i] = m.String()
		}
		c.JSON(http.StatusOK, gin.H{"moves": out})
		return
	}
	sq, ok := game.CoordToSquare(coord)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid square")
		return
	}
	targets := s.session.LegalTargets(sq)
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.String()
	}
	c.JSON(http.StatusOK, gin.H{"square": sq.String(), "targets": out})
}

// ---- API: move ----

type moveBody struct {
	Move      string `json:"move"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (b moveBody) parse() (game.Move, string) {
	if b.Move != "" {
		m, err := game.ParseMove(b.Move)
		if err != nil {
			return game.Move{}, "invalid move"
		}
		return m, ""
	}
	from, ok := game.CoordToSquare(b.From)
	if !ok {
		return game.Move{}, "invalid from square"
	}
	to, ok := game.CoordToSquare(b.To)
	if !ok {
		return game.Move{}, "invalid to square"
	}
	m := game.Move{From: from, To: to}
	if promotion := strings.TrimSpace(b.Promotion); promotion != "" {
		pt, ok := game.ParsePromotionPiece(promotion)
		if !ok {
			return game.Move{}, "invalid promotion choice"
		}
		m.Promotion = pt
	}
	return m, ""
}

func (s *Server) handleMove(c *gin.Context) {
	var body moveBody
	if !bindJSON(c, &body, false) {
		return
	}
	m, msg := body.parse()
	if msg != "" {
		writeError(c, http.StatusBadRequest, msg)
		return
	}
	res, err := s.session.Move(c.Request.Context(), m)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, gin.H{"move": res.Move.String(), "events": res.Events})
}

// ---- API: history ----

type stepsBody struct {
	N int `json:"n"`
}

func (b stepsBody) steps() int {
	if b.N <= 0 {
		return 1
	}
	return b.N
}

func (s *Server) handleUndo(c *gin.Context) {
	var body stepsBody
	if !bindJSON(c, &body, true) {
		return
	}
	n, err := s.session.Undo(c.Request.Context(), body.steps())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, gin.H{"undone": n})
}

func (s *Server) handleRedo(c *gin.Context) {
	var body stepsBody
	if !bindJSON(c, &body, true) {
		return
	}
	n, err := s.session.Redo(c.Request.Context(), body.steps())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, gin.H{"redone": n})
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.session.Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, nil)
}

// ---- API: suggestion ----

type suggestBody struct {
	Level int  `json:"level"`
	Apply bool `json:"apply"`
}

func (s *Server) handleSuggest(c *gin.Context) {
	var body suggestBody
	if !bindJSON(c, &body, true) {
		return
	}
	if body.Level <= 0 {
		body.Level = s.defaultLevel
	}
	res, err := s.session.Suggest(c.Request.Context(), body.Level, body.Apply)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, gin.H{
		"suggestion": res.Suggestion.Move.String(),
		"fallback":   res.Suggestion.Fallback,
		"applied":    res.Applied,
	})
}

// ---- API: persistence ----

func (s *Server) handleSave(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Saved())
}

func (s *Server) handleLoad(c *gin.Context) {
	var saved game.SavedGame
	if !bindJSON(c, &saved, false) {
		return
	}
	if err := s.session.Import(c.Request.Context(), saved); err != nil {
		s.fail(c, err)
		return
	}
	s.respondState(c, nil)
}
