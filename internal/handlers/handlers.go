package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"tarotscore/internal/badge"
	"tarotscore/internal/logging"
	"tarotscore/internal/service"
	"tarotscore/internal/stats"
	"tarotscore/internal/summary"
	"tarotscore/internal/tarot"
	"tarotscore/internal/templates"
)

// Service is the scorekeeping API used by the handlers.
type Service interface {
	RegisterPlayer(ctx context.Context, name string) (tarot.Player, error)
	CreateGroup(ctx context.Context, name string) (service.Group, error)
	OpenSession(ctx context.Context, playerIDs []uuid.UUID, groupID *uuid.UUID) (tarot.Session, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID) error
	StartHand(ctx context.Context, sessionID, takerID uuid.UUID, contract tarot.Contract) (tarot.Hand, error)
	CompleteHand(ctx context.Context, handID uuid.UUID, result service.HandResult) (service.Completion, error)
	UpdateHand(ctx context.Context, handID uuid.UUID, result service.HandResult) (service.Completion, error)
	DeleteLastHand(ctx context.Context, handID uuid.UUID) error
	AddStar(ctx context.Context, sessionID, playerID uuid.UUID) (service.StarResult, error)
	SessionSummary(ctx context.Context, sessionID uuid.UUID) (summary.Summary, error)
	Statistics(ctx context.Context, groupID *uuid.UUID) (stats.Global, error)
	ContractStatistics(ctx context.Context, groupID *uuid.UUID) ([]stats.PlayerContracts, error)
	EloStatistics(ctx context.Context, groupID *uuid.UUID) (service.EloView, error)
	PlayerStatistics(ctx context.Context, playerID uuid.UUID, groupID *uuid.UUID) (stats.PlayerStats, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Service Service
	Version VersionInfo
}

// VersionInfo identifies the running build.
type VersionInfo struct {
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// NewHandler creates a new handler instance
func NewHandler(svc Service, version VersionInfo) *Handler {
	return &Handler{Service: svc, Version: version}
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /players", h.HandleRegisterPlayer)
	mux.HandleFunc("POST /groups", h.HandleCreateGroup)
	mux.HandleFunc("POST /sessions", h.HandleOpenSession)
	mux.HandleFunc("POST /sessions/{id}/close", h.HandleCloseSession)
	mux.HandleFunc("POST /sessions/{id}/hands", h.HandleStartHand)
	mux.HandleFunc("POST /sessions/{id}/stars", h.HandleAddStar)
	mux.HandleFunc("GET /sessions/{id}/summary", h.HandleSummary)
	mux.HandleFunc("GET /sessions/{id}/recap", h.HandleRecap)
	mux.HandleFunc("PUT /hands/{id}/complete", h.HandleCompleteHand)
	mux.HandleFunc("PUT /hands/{id}", h.HandleUpdateHand)
	mux.HandleFunc("DELETE /hands/{id}", h.HandleDeleteHand)
	mux.HandleFunc("GET /statistics", h.HandleStatistics)
	mux.HandleFunc("GET /statistics/contracts", h.HandleContractStatistics)
	mux.HandleFunc("GET /statistics/elo", h.HandleEloStatistics)
	mux.HandleFunc("GET /players/{id}/statistics", h.HandlePlayerStatistics)
	mux.HandleFunc("GET /badges", h.HandleBadges)
	mux.HandleFunc("GET /version", h.HandleVersion)
}

type nameRequest struct {
	Name string `json:"name"`
}

type sessionRequest struct {
	PlayerIDs []uuid.UUID `json:"playerIds"`
	GroupID   *uuid.UUID  `json:"groupId"`
}

type startHandRequest struct {
	TakerID  uuid.UUID      `json:"takerId"`
	Contract tarot.Contract `json:"contract"`
}

type starRequest struct {
	PlayerID uuid.UUID `json:"playerId"`
}

// HandleRegisterPlayer creates a player.
func (h *Handler) HandleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var body nameRequest
	if !decode(w, r, &body) {
		return
	}
	p, err := h.Service.RegisterPlayer(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "player": p})
}

// HandleCreateGroup creates a player group.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body nameRequest
	if !decode(w, r, &body) {
		return
	}
	g, err := h.Service.CreateGroup(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "group": g})
}

// HandleOpenSession seats five players at a new session.
func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if !decode(w, r, &body) {
		return
	}
	sess, err := h.Service.OpenSession(r.Context(), body.PlayerIDs, body.GroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "session": sess})
}

// HandleCloseSession marks a session inactive.
func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.CloseSession(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleStartHand opens a hand in a session.
func (h *Handler) HandleStartHand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body startHandRequest
	if !decode(w, r, &body) {
		return
	}
	hand, err := h.Service.StartHand(r.Context(), id, body.TakerID, body.Contract)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "hand": hand})
}

// HandleCompleteHand scores the in-progress hand.
func (h *Handler) HandleCompleteHand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body service.HandResult
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Service.CompleteHand(r.Context(), id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}

// HandleUpdateHand rescores the last completed hand.
func (h *Handler) HandleUpdateHand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body service.HandResult
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Service.UpdateHand(r.Context(), id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}

// HandleDeleteHand removes the last hand of a session.
func (h *Handler) HandleDeleteHand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteLastHand(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleAddStar gives a star to a seated player.
func (h *Handler) HandleAddStar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body starRequest
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Service.AddStar(r.Context(), id, body.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "star": res})
}

// HandleSummary returns the recap of a session.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.SessionSummary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "summary": sum})
}

// HandleRecap renders the session summary as an HTML page.
func (h *Handler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.SessionSummary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	templates.WriteRecapHTML(w, sum)
}

// HandleStatistics returns the global statistics.
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	group, ok := groupParam(w, r)
	if !ok {
		return
	}
	global, err := h.Service.Statistics(r.Context(), group)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "statistics": global})
}

// HandleContractStatistics returns contract success rates by player.
func (h *Handler) HandleContractStatistics(w http.ResponseWriter, r *http.Request) {
	group, ok := groupParam(w, r)
	if !ok {
		return
	}
	rates, err := h.Service.ContractStatistics(r.Context(), group)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "players": rates})
}

// HandleEloStatistics returns the rating ranking and history.
func (h *Handler) HandleEloStatistics(w http.ResponseWriter, r *http.Request) {
	group, ok := groupParam(w, r)
	if !ok {
		return
	}
	view, err := h.Service.EloStatistics(r.Context(), group)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "elo": view})
}

// HandlePlayerStatistics returns the detail page of a player.
func (h *Handler) HandlePlayerStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	group, ok := groupParam(w, r)
	if !ok {
		return
	}
	ps, err := h.Service.PlayerStatistics(r.Context(), id, group)
	if err != nil {
		writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "player": ps})
}

// HandleBadges lists the badge catalogue.
func (h *Handler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "badges": badge.Statuses(nil)})
}

// HandleVersion reports the running build.
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "version": h.Version})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad id"})
		return uuid.Nil, false
	}
	return id, true
}

func groupParam(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("group")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad group"})
		return nil, false
	}
	return &id, true
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, tarot.ErrInvalidInput), errors.Is(err, service.ErrNotSeated):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHandInProgress),
		errors.Is(err, service.ErrNotLastHand),
		errors.Is(err, service.ErrHandNotInProgress),
		errors.Is(err, service.ErrHandNotCompleted),
		errors.Is(err, service.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Infof("request failed: %v", err)
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]any{"ok": false, "error": msg})
}
