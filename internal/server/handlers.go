package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"flowci/internal/history"
	"flowci/internal/metrics"
	"flowci/internal/trigger"
)

// signatureHeader carries the hex HMAC-SHA256 of the request body,
// prefixed with "sha256=", the scheme used by GitHub webhooks.
const signatureHeader = "X-Hub-Signature-256"

// maxPayloadBytes bounds webhook request bodies.
const maxPayloadBytes = 1 << 20

type hookResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// handlePushHook accepts a push delivery: 202 with the run ID when the
// event matches the workflow, 204 when it does not, 400 on a bad payload,
// 401 on a bad signature.
func (s *Server) handlePushHook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues(metrics.OutcomeBadPayload).Inc()
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read payload: %w", err))
		return
	}

	if s.cfg.Secret != "" {
		if !verifySignature(s.cfg.Secret, body, r.Header.Get(signatureHeader)) {
			metrics.WebhookRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
			s.writeError(w, http.StatusUnauthorized, errors.New("invalid signature"))
			return
		}
	}

	var event trigger.PushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookRequests.WithLabelValues(metrics.OutcomeBadPayload).Inc()
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		metrics.WebhookRequests.WithLabelValues(metrics.OutcomeBadPayload).Inc()
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if !s.cfg.Workflow.On.Matches(&event) {
		metrics.WebhookRequests.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		s.log.Info("delivery does not match workflow triggers", "repo", event.Repo, "branch", event.Branch())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id := uuid.NewString()
	metrics.WebhookRequests.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.QueueDepth.Inc()
	s.pool.Submit(func() {
		defer metrics.QueueDepth.Dec()
		s.execute(id, event)
	})

	s.log.Info("run accepted", "run_id", id, "repo", event.Repo, "branch", event.Branch())
	s.writeJSON(w, http.StatusAccepted, hookResponse{ID: id, Status: "accepted"})
}

// execute runs one accepted delivery on a pool worker. The run is given a
// fresh context so graceful shutdown drains it instead of cancelling it.
func (s *Server) execute(id string, event trigger.PushEvent) {
	log := s.log.With("run_id", id, "repo", event.Repo, "branch", event.Branch())

	run, err := s.cfg.Runner.RunWithID(context.Background(), s.cfg.Workflow, &event, id)
	if run != nil {
		metrics.ObserveRun(run)
	}
	if err != nil {
		log.Error("run failed to execute", "error", err)
		return
	}
	log.Info("run finished", "status", run.Status, "duration", run.Duration())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	runs, err := s.cfg.Store.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.cfg.Store.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	logPath := chi.URLParam(r, "*")
	data, err := s.cfg.Store.ReadLog(logPath)
	if err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("log not found: %s", logPath))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

// verifySignature checks a delivery signature: the hex HMAC-SHA256 of the
// body keyed with the shared secret, compared in constant time.
func verifySignature(secret string, body []byte, header string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}
