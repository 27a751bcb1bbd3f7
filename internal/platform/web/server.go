// Package web serves the HTTP side of the tritris server: a small JSON
// API over rooms, matches and the leaderboard, and the websocket endpoint
// remote clients play through.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

// Leaderboard is the read side of the store the API exposes.
type Leaderboard interface {
	TopScores(mode config.Mode, limit int) ([]storage.ScoreEntry, error)
	RecentMatches(limit int) ([]storage.MatchRecord, error)
	MatchByID(matchID string) (*storage.MatchRecord, error)
}

// Server handles HTTP and websocket requests.
type Server struct {
	coord     *multiplayer.Coordinator
	sessions  *multiplayer.SessionRegistry
	board     Leaderboard // optional
	cfg       config.HTTPConfig
	logger    *log.Logger
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewServer creates a server. board may be nil when persistence is off.
func NewServer(
	coord *multiplayer.Coordinator,
	sessions *multiplayer.SessionRegistry,
	board Leaderboard,
	cfg config.HTTPConfig,
	logger *log.Logger,
) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		coord:    coord,
		sessions: sessions,
		board:    board,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebsocket)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/health", s.handleHealth)
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/rooms", s.handleListRooms)
			r.Get("/rooms/{code}", s.handleGetRoom)
			r.Get("/matches", s.handleListMatches)
			r.Get("/matches/{id}", s.handleGetMatch)
			r.Get("/scores", s.handleTopScores)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Rooms    int    `json:"rooms"`
	Matches  int    `json:"matches"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "healthy",
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Sessions: s.sessions.Count(),
		Rooms:    s.coord.RoomCount(),
		Matches:  s.coord.MatchCount(),
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coord.Rooms())
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.coord.Room(chi.URLParam(r, "code"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "room not found")
		return
	}
	s.writeJSON(w, http.StatusOK, room)
}

type matchResponse struct {
	MatchID   string                    `json:"matchId"`
	Code      string                    `json:"code"`
	Seed      string                    `json:"seed"`
	Mode      config.Mode               `json:"mode"`
	Reason    string                    `json:"reason"`
	Winner    string                    `json:"winner"`
	Duration  int64                     `json:"durationMs"`
	Players   []multiplayer.PlayerScore `json:"players"`
	CreatedAt time.Time                 `json:"createdAt"`
}

func toMatchResponse(rec storage.MatchRecord) matchResponse {
	return matchResponse{
		MatchID:   rec.MatchID,
		Code:      rec.Code,
		Seed:      rec.Seed,
		Mode:      rec.Mode,
		Reason:    rec.Reason,
		Winner:    rec.Winner,
		Duration:  rec.Duration.Milliseconds(),
		Players:   rec.Players,
		CreatedAt: rec.CreatedAt,
	}
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.board.RecentMatches(limit)
	if err != nil {
		s.logger.Error("list matches", "err", err)
		s.writeError(w, http.StatusInternalServerError, "cannot list matches")
		return
	}
	out := make([]matchResponse, len(recs))
	for i, rec := range recs {
		out[i] = toMatchResponse(rec)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	rec, err := s.board.MatchByID(chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("get match", "err", err)
		s.writeError(w, http.StatusInternalServerError, "cannot load match")
		return
	}
	if rec == nil {
		s.writeError(w, http.StatusNotFound, "match not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toMatchResponse(*rec))
}

type scoreResponse struct {
	Name       string      `json:"name"`
	Mode       config.Mode `json:"mode"`
	PieceSet   string      `json:"pieceSet"`
	StartLevel int         `json:"startLevel"`
	Score      int         `json:"score"`
	Lines      int         `json:"lines"`
	Level      int         `json:"level"`
	MatchID    string      `json:"matchId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.board.TopScores(config.Mode(r.URL.Query().Get("mode")), limit)
	if err != nil {
		s.logger.Error("top scores", "err", err)
		s.writeError(w, http.StatusInternalServerError, "cannot list scores")
		return
	}
	out := make([]scoreResponse, len(entries))
	for i, e := range entries {
		out[i] = scoreResponse{
			Name:       e.Name,
			Mode:       e.Mode,
			PieceSet:   e.PieceSet,
			StartLevel: e.StartLevel,
			Score:      e.Score,
			Lines:      e.Lines,
			Level:      e.Level,
			MatchID:    e.MatchID,
			CreatedAt:  e.CreatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

var errBadLimit = errors.New("limit must be a number between 1 and 100")

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		return 0, errBadLimit
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
