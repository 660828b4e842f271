package server

import (
	"net/http"
	"strings"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan"
	"github.com/teranos/pantry/plan/executor"
	"github.com/teranos/pantry/version"
)

// PlanRequest is the body of POST /api/plan
type PlanRequest struct {
	Utterance string `json:"utterance"`
}

// PlanResponse is returned by POST /api/plan
type PlanResponse struct {
	Plan       *plan.Plan `json:"plan"`
	Actionable bool       `json:"actionable"`
	Summary    string     `json:"summary"`
}

// ItemsResponse is returned by GET /api/items
type ItemsResponse struct {
	Items []list.Item `json:"items"`
	Count int         `json:"count"`
}

// ListUpdate is broadcast to WebSocket clients after a plan changes the list
type ListUpdate struct {
	Type   string           `json:"type"`
	Result *executor.Result `json:"result,omitempty"`
	Items  []list.Item      `json:"items"`
}

// WebSocket message types
const (
	MessageListSnapshot = "list_snapshot"
	MessageListUpdated  = "list_updated"
)

// HandleHealth reports liveness and the active floor policy
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"version":      info.Version,
		"commit":       info.Short(),
		"floor_policy": string(s.executor.FloorPolicy()),
		"clients":      s.ClientCount(),
	})
}

// HandleItems returns the current list
func (s *Server) HandleItems(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	items, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to read list", logger.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "failed to read list")
		return
	}
	writeJSON(w, http.StatusOK, ItemsResponse{Items: items, Count: len(items)})
}

// HandlePlan compiles an utterance without touching the list
func (s *Server) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req PlanRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeErr(w, errors.WithHint(
			errors.NewInvalidRequestError("utterance is required"),
			`send {"utterance": "add milk and eggs"}`))
		return
	}

	p, err := s.compiler.Compile(r.Context(), req.Utterance)
	if err != nil {
		writeErr(w, err)
		return
	}

	s.logger.Debugw("Compiled utterance",
		logger.FieldUtterance, req.Utterance,
		logger.FieldCount, p.Len(),
	)
	writeJSON(w, http.StatusOK, PlanResponse{
		Plan:       p,
		Actionable: !p.IsEmpty(),
		Summary:    p.Summary(),
	})
}

// HandleExecute applies a plan in wire shape from any producer.
// Status is 200 when no entry failed, 207 when some did and 500 when all did.
func (s *Server) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	data, err := readBody(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	p, err := plan.Decode(data)
	if err != nil {
		writeErr(w, err)
		return
	}

	res, err := s.executor.Execute(r.Context(), p)
	if err != nil {
		if errors.IsInvalidRequestError(err) {
			writeErr(w, err)
			return
		}
		s.logger.Errorw("Plan execution aborted", logger.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, newErrorBody(err))
		return
	}

	if res.Applied() > 0 {
		s.broadcastListUpdate(r, res)
	}

	status := http.StatusOK
	switch {
	case res.Partial():
		status = http.StatusMultiStatus
	case !res.OK():
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func (s *Server) broadcastListUpdate(r *http.Request, res *executor.Result) {
	items, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.logger.Warnw("Failed to read list for broadcast", logger.FieldError, err)
		return
	}
	sent := s.broadcastMessage(ListUpdate{Type: MessageListUpdated, Result: res, Items: items})
	s.logger.Debugw("Broadcast list update", logger.FieldCount, sent)
}

// HandleWebSocket upgrades the connection and streams list updates.
// The first message is the current list.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Debugw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	c := newClient(s, conn)
	if items, err := s.store.Snapshot(r.Context()); err == nil {
		c.send <- ListUpdate{Type: MessageListSnapshot, Items: items}
	}
	s.registerClient(c)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump()
	}()
}
