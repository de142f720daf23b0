package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tarotscore/internal/service"
	"tarotscore/internal/stats"
	"tarotscore/internal/summary"
	"tarotscore/internal/tarot"
)

// MockService is a mock of Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) RegisterPlayer(ctx context.Context, name string) (tarot.Player, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(tarot.Player), args.Error(1)
}

func (m *MockService) CreateGroup(ctx context.Context, name string) (service.Group, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(service.Group), args.Error(1)
}

func (m *MockService) OpenSession(ctx context.Context, playerIDs []uuid.UUID, groupID *uuid.UUID) (tarot.Session, error) {
	args := m.Called(ctx, playerIDs, groupID)
	return args.Get(0).(tarot.Session), args.Error(1)
}

func (m *MockService) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockService) StartHand(ctx context.Context, sessionID, takerID uuid.UUID, contract tarot.Contract) (tarot.Hand, error) {
	args := m.Called(ctx, sessionID, takerID, contract)
	return args.Get(0).(tarot.Hand), args.Error(1)
}

func (m *MockService) CompleteHand(ctx context.Context, handID uuid.UUID, result service.HandResult) (service.Completion, error) {
	args := m.Called(ctx, handID, result)
	return args.Get(0).(service.Completion), args.Error(1)
}

func (m *MockService) UpdateHand(ctx context.Context, handID uuid.UUID, result service.HandResult) (service.Completion, error) {
	args := m.Called(ctx, handID, result)
	return args.Get(0).(service.Completion), args.Error(1)
}

func (m *MockService) DeleteLastHand(ctx context.Context, handID uuid.UUID) error {
	args := m.Called(ctx, handID)
	return args.Error(0)
}

func (m *MockService) AddStar(ctx context.Context, sessionID, playerID uuid.UUID) (service.StarResult, error) {
	args := m.Called(ctx, sessionID, playerID)
	return args.Get(0).(service.StarResult), args.Error(1)
}

func (m *MockService) SessionSummary(ctx context.Context, sessionID uuid.UUID) (summary.Summary, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(summary.Summary), args.Error(1)
}

func (m *MockService) Statistics(ctx context.Context, groupID *uuid.UUID) (stats.Global, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(stats.Global), args.Error(1)
}

func (m *MockService) ContractStatistics(ctx context.Context, groupID *uuid.UUID) ([]stats.PlayerContracts, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stats.PlayerContracts), args.Error(1)
}

func (m *MockService) EloStatistics(ctx context.Context, groupID *uuid.UUID) (service.EloView, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(service.EloView), args.Error(1)
}

func (m *MockService) PlayerStatistics(ctx context.Context, playerID uuid.UUID, groupID *uuid.UUID) (stats.PlayerStats, error) {
	args := m.Called(ctx, playerID, groupID)
	return args.Get(0).(stats.PlayerStats), args.Error(1)
}

func serve(t *testing.T, svc *MockService, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(svc, VersionInfo{Commit: "abc1234", BuildDate: "2024-01-02"}).Register(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

func TestHandleStartHand(t *testing.T) {
	svc := new(MockService)
	sessionID, takerID := uuid.New(), uuid.New()
	hand := tarot.Hand{ID: uuid.New(), SessionID: sessionID, Position: 1, TakerID: takerID, Contract: tarot.Garde, Status: tarot.InProgress}
	svc.On("StartHand", mock.Anything, sessionID, takerID, tarot.Garde).Return(hand, nil)

	body := fmt.Sprintf(`{"takerId":%q,"contract":"garde"}`, takerID)
	w, resp := serve(t, svc, http.MethodPost, "/sessions/"+sessionID.String()+"/hands", body)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, true, resp["ok"])
	got := resp["hand"].(map[string]any)
	require.Equal(t, hand.ID.String(), got["id"])
	svc.AssertExpectations(t)
}

func TestHandleStartHandInProgress(t *testing.T) {
	svc := new(MockService)
	sessionID, takerID := uuid.New(), uuid.New()
	svc.On("StartHand", mock.Anything, sessionID, takerID, tarot.Petite).Return(tarot.Hand{}, service.ErrHandInProgress)

	body := fmt.Sprintf(`{"takerId":%q,"contract":"petite"}`, takerID)
	w, resp := serve(t, svc, http.MethodPost, "/sessions/"+sessionID.String()+"/hands", body)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, false, resp["ok"])
	require.Equal(t, service.ErrHandInProgress.Error(), resp["error"])
}

func TestHandleBadPathID(t *testing.T) {
	svc := new(MockService)
	w, resp := serve(t, svc, http.MethodPut, "/hands/not-a-uuid/complete", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "bad id", resp["error"])
	svc.AssertNotCalled(t, "CompleteHand", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleBadJSON(t *testing.T) {
	svc := new(MockService)
	w, resp := serve(t, svc, http.MethodPost, "/players", `{`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "bad json", resp["error"])
}

func TestHandleCompleteHandInvalidInput(t *testing.T) {
	svc := new(MockService)
	handID := uuid.New()
	points := 95.0
	oudlers := 2
	result := service.HandResult{Oudlers: &oudlers, Points: &points}
	err := fmt.Errorf("%w: points out of range", tarot.ErrInvalidInput)
	svc.On("CompleteHand", mock.Anything, handID, result).Return(service.Completion{}, err)

	w, resp := serve(t, svc, http.MethodPut, "/hands/"+handID.String()+"/complete", `{"oudlers":2,"points":95}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, resp["error"], "points out of range")
}

func TestHandleDeleteHandNotLast(t *testing.T) {
	svc := new(MockService)
	handID := uuid.New()
	svc.On("DeleteLastHand", mock.Anything, handID).Return(service.ErrNotLastHand)

	w, _ := serve(t, svc, http.MethodDelete, "/hands/"+handID.String(), "")

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlePlayerStatisticsNotFound(t *testing.T) {
	svc := new(MockService)
	playerID := uuid.New()
	svc.On("PlayerStatistics", mock.Anything, playerID, (*uuid.UUID)(nil)).
		Return(stats.PlayerStats{}, fmt.Errorf("player %s: %w", playerID, service.ErrNotFound))

	w, _ := serve(t, svc, http.MethodGet, "/players/"+playerID.String()+"/statistics", "")

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStatisticsGroupFilter(t *testing.T) {
	svc := new(MockService)
	groupID := uuid.New()
	matchGroup := mock.MatchedBy(func(g *uuid.UUID) bool { return g != nil && *g == groupID })
	svc.On("Statistics", mock.Anything, matchGroup).Return(stats.Global{TotalGames: 7}, nil)

	w, resp := serve(t, svc, http.MethodGet, "/statistics?group="+groupID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	got := resp["statistics"].(map[string]any)
	require.EqualValues(t, 7, got["totalGames"])
	svc.AssertExpectations(t)
}

func TestHandleStatisticsBadGroup(t *testing.T) {
	svc := new(MockService)
	w, resp := serve(t, svc, http.MethodGet, "/statistics?group=oops", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "bad group", resp["error"])
}

func TestHandleInternalErrorHidden(t *testing.T) {
	svc := new(MockService)
	sessionID := uuid.New()
	svc.On("SessionSummary", mock.Anything, sessionID).Return(summary.Summary{}, errors.New("connection refused"))

	w, resp := serve(t, svc, http.MethodGet, "/sessions/"+sessionID.String()+"/summary", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal error", resp["error"])
}

func TestHandleAddStar(t *testing.T) {
	svc := new(MockService)
	sessionID, playerID := uuid.New(), uuid.New()
	res := service.StarResult{StarCount: 3, Penalty: []tarot.PlayerScore{{PlayerID: playerID, Score: -100}}}
	svc.On("AddStar", mock.Anything, sessionID, playerID).Return(res, nil)

	body := fmt.Sprintf(`{"playerId":%q}`, playerID)
	w, resp := serve(t, svc, http.MethodPost, "/sessions/"+sessionID.String()+"/stars", body)

	require.Equal(t, http.StatusCreated, w.Code)
	star := resp["star"].(map[string]any)
	require.EqualValues(t, 3, star["starCount"])
	require.Len(t, star["penalty"], 1)
}

func TestHandleSessionClosed(t *testing.T) {
	svc := new(MockService)
	sessionID := uuid.New()
	svc.On("CloseSession", mock.Anything, sessionID).Return(service.ErrSessionClosed)

	w, _ := serve(t, svc, http.MethodPost, "/sessions/"+sessionID.String()+"/close", "")

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleBadgesAndVersion(t *testing.T) {
	svc := new(MockService)

	w, resp := serve(t, svc, http.MethodGet, "/badges", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["badges"], 15)

	w, resp = serve(t, svc, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	version := resp["version"].(map[string]any)
	require.Equal(t, "abc1234", version["commit"])
}

func TestHandleRecap(t *testing.T) {
	svc := new(MockService)
	sessionID := uuid.New()
	sum := summary.Summary{SessionID: sessionID, Ranking: []summary.RankEntry{{Position: 1, PlayerName: "Alice", Score: 40}}}
	svc.On("SessionSummary", mock.Anything, sessionID).Return(sum, nil)

	mux := http.NewServeMux()
	NewHandler(svc, VersionInfo{}).Register(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID.String()+"/recap", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Alice")
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
