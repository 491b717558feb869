package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"vote-role-bot/metrics"
	"vote-role-bot/model"
	"vote-role-bot/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

var errMissingUserID = errors.New("no user id in payload")

// VoteStore is the part of the vote store the webhook server uses.
type VoteStore interface {
	Upsert(ctx context.Context, userID string, now time.Time) (time.Time, error)
	Count(ctx context.Context) (int, error)
}

type Dependencies struct {
	Logger        *log.Logger
	Addr          string
	Secret        string // empty disables the Authorization check
	Store         VoteStore
	Actuator      model.RoleActuator
	Metrics       *metrics.Metrics
	ChannelLogger *utils.ChannelLogger
	Now           func() time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	secret     string
	store      VoteStore
	actuator   model.RoleActuator
	metrics    *metrics.Metrics
	channel    *utils.ChannelLogger
	now        func() time.Time
	startedAt  time.Time
}

func NewServer(d Dependencies) *Server {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		logger:    d.Logger,
		secret:    d.Secret,
		store:     d.Store,
		actuator:  d.Actuator,
		metrics:   d.Metrics,
		channel:   d.ChannelLogger,
		now:       now,
		startedAt: now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: d.Logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Post("/webhook", s.handleWebhook)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(s.secret)) != 1 {
		s.logger.Printf("unauthorized webhook attempt from %s", r.RemoteAddr)
		s.reply(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	userID, err := extractUserID(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, errMissingUserID) {
			s.logger.Printf("no user id found in webhook payload")
			s.reply(w, http.StatusBadRequest, "User ID missing", "bad_request")
			return
		}
		s.logger.Printf("invalid webhook payload: %v", err)
		s.reply(w, http.StatusBadRequest, "Invalid JSON body", "bad_request")
		return
	}

	expiresAt, err := s.store.Upsert(r.Context(), userID, s.now())
	if err != nil {
		s.logger.Printf("error processing vote: %v", err)
		if lerr := s.channel.Error("Webhook", "Upsert", err.Error()); lerr != nil {
			s.logger.Printf("failed to send log: %v", lerr)
		}
		s.reply(w, http.StatusInternalServerError, "Internal Server Error", "error")
		return
	}
	s.logger.Printf("vote registered for user %s, expires %s", userID, expiresAt.UTC().Format(time.RFC3339))

	// The vote is already stored; the grant outcome never changes the response.
	res := s.actuator.Grant(context.WithoutCancel(r.Context()), userID)
	s.metrics.ObserveAction("grant", res.Outcome.String(), res.NoticeErr != nil)
	switch res.Outcome {
	case model.OutcomeSuccess:
		s.logger.Printf("granted voter role to user %s", userID)
	case model.OutcomeNotFound:
		s.logger.Printf("user %s not found in guild", userID)
	default:
		s.logger.Printf("error granting voter role to user %s: %v", userID, res.Err)
	}
	if res.NoticeErr != nil {
		s.logger.Printf("could not DM user %s: %v", userID, res.NoticeErr)
	}

	s.reply(w, http.StatusOK, "Vote processed", "ok")
}

func (s *Server) reply(w http.ResponseWriter, status int, msg, result string) {
	s.metrics.WebhookRequests.WithLabelValues(result).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

// extractUserID reads the voter id from either {"id": ...} or
// {"user": {"id": ...}}. Ids may be strings or numbers.
func extractUserID(body io.Reader) (string, error) {
	var payload map[string]any
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", errors.New("decode payload: unexpected data after JSON value")
	}

	if id := idString(payload["id"]); id != "" {
		return id, nil
	}
	if user, ok := payload["user"].(map[string]any); ok {
		if id := idString(user["id"]); id != "" {
			return id, nil
		}
	}
	return "", errMissingUserID
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
