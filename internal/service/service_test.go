package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tarotscore/internal/badge"
	"tarotscore/internal/elo"
	"tarotscore/internal/session"
	"tarotscore/internal/tarot"
)

// memStore keeps every row in memory.
type memStore struct {
	mu       sync.Mutex
	players  map[uuid.UUID]tarot.Player
	groups   map[uuid.UUID]string
	sessions map[uuid.UUID]tarot.Session
	hands    map[uuid.UUID]tarot.Hand
	scores   []tarot.ScoreEntry
	stars    []tarot.StarEvent
	elo      []tarot.EloEntry
	badges   []tarot.PlayerBadge
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{
		players:  make(map[uuid.UUID]tarot.Player),
		groups:   make(map[uuid.UUID]string),
		sessions: make(map[uuid.UUID]tarot.Session),
		hands:    make(map[uuid.UUID]tarot.Hand),
	}
}

func (m *memStore) CreatePlayer(ctx context.Context, p tarot.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
	return nil
}

func (m *memStore) CreateGroup(ctx context.Context, id uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[id] = name
	return nil
}

func (m *memStore) PlayersExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.players[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *memStore) GroupExists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.groups[id]
	return ok, nil
}

func (m *memStore) CreateSession(ctx context.Context, sess tarot.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memStore) Session(ctx context.Context, id uuid.UUID) (tarot.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return tarot.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *memStore) CloseSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessions[id]
	sess.IsActive = false
	m.sessions[id] = sess
	return nil
}

func (m *memStore) Hand(ctx context.Context, id uuid.UUID) (tarot.Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hands[id]
	if !ok {
		return tarot.Hand{}, ErrNotFound
	}
	return h, nil
}

func (m *memStore) SessionHands(ctx context.Context, sessionID uuid.UUID) ([]tarot.Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tarot.Hand
	for _, h := range m.hands {
		if h.SessionID == sessionID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) CreateHand(ctx context.Context, h tarot.Hand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands[h.ID] = h
	return nil
}

func (m *memStore) SaveHandResult(ctx context.Context, h tarot.Hand, scores []tarot.ScoreEntry, ratings []tarot.EloEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands[h.ID] = h
	m.dropHandRows(h.ID)
	m.scores = append(m.scores, scores...)
	for _, e := range ratings {
		m.seq++
		e.Seq = m.seq
		m.elo = append(m.elo, e)
	}
	return nil
}

func (m *memStore) DeleteHand(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hands, id)
	m.dropHandRows(id)
	return nil
}

func (m *memStore) dropHandRows(handID uuid.UUID) {
	scores := m.scores[:0]
	for _, e := range m.scores {
		if e.HandID == nil || *e.HandID != handID {
			scores = append(scores, e)
		}
	}
	m.scores = scores
	ratings := m.elo[:0]
	for _, e := range m.elo {
		if e.HandID != handID {
			ratings = append(ratings, e)
		}
	}
	m.elo = ratings
}

func (m *memStore) HandElo(ctx context.Context, handID uuid.UUID) ([]tarot.EloEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tarot.EloEntry
	for _, e := range m.elo {
		if e.HandID == handID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) CurrentRatings(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, e := range m.elo {
		out[e.PlayerID] = e.RatingAfter
	}
	return out, nil
}

func (m *memStore) CountStars(ctx context.Context, sessionID, playerID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.stars {
		if e.SessionID == sessionID && e.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) AddStar(ctx context.Context, ev tarot.StarEvent, penalty []tarot.ScoreEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stars = append(m.stars, ev)
	m.scores = append(m.scores, penalty...)
	return nil
}

func (m *memStore) PlayerBadges(ctx context.Context, playerID uuid.UUID) ([]tarot.PlayerBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tarot.PlayerBadge
	for _, b := range m.badges {
		if b.PlayerID == playerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) AwardBadges(ctx context.Context, badges []tarot.PlayerBadge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.badges = append(m.badges, badges...)
	return nil
}

func (m *memStore) Snapshot(ctx context.Context) (tarot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := tarot.Snapshot{
		Scores: append([]tarot.ScoreEntry(nil), m.scores...),
		Stars:  append([]tarot.StarEvent(nil), m.stars...),
		Elo:    append([]tarot.EloEntry(nil), m.elo...),
		Badges: append([]tarot.PlayerBadge(nil), m.badges...),
	}
	for _, p := range m.players {
		snap.Players = append(snap.Players, p)
	}
	for _, s := range m.sessions {
		snap.Sessions = append(snap.Sessions, s)
	}
	for _, h := range m.hands {
		snap.Hands = append(snap.Hands, h)
	}
	return snap, nil
}

func (m *memStore) SessionSnapshot(ctx context.Context, sessionID uuid.UUID) (tarot.Snapshot, error) {
	snap, _ := m.Snapshot(ctx)
	return snap.FilterSessions(func(id uuid.UUID) bool { return id == sessionID }), nil
}

func (m *memStore) PlayerHistory(ctx context.Context, playerID uuid.UUID) (tarot.Snapshot, error) {
	snap, _ := m.Snapshot(ctx)
	seated := snap.SessionByID()
	return snap.FilterSessions(func(id uuid.UUID) bool { return seated[id].HasPlayer(playerID) }), nil
}

type fixture struct {
	svc     *Service
	store   *memStore
	players []uuid.UUID
	session tarot.Session
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	svc := New(store, session.NewHub(), elo.NewTeamRater(elo.DefaultInitial, elo.DefaultK), time.UTC)
	clock := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	f := &fixture{svc: svc, store: store}
	for _, name := range []string{"Alice", "Bruno", "Chloé", "David", "Emma"} {
		p, err := svc.RegisterPlayer(ctx, name)
		require.NoError(t, err)
		f.players = append(f.players, p.ID)
	}
	sess, err := svc.OpenSession(ctx, f.players, nil)
	require.NoError(t, err)
	f.session = sess
	return f
}

func (f *fixture) playHand(t *testing.T, taker, partner uuid.UUID, points float64) Completion {
	t.Helper()
	ctx := context.Background()
	h, err := f.svc.StartHand(ctx, f.session.ID, taker, tarot.Garde)
	require.NoError(t, err)
	oudlers := 2
	res, err := f.svc.CompleteHand(ctx, h.ID, HandResult{PartnerID: &partner, Oudlers: &oudlers, Points: &points})
	require.NoError(t, err)
	return res
}

func TestOpenSessionValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.OpenSession(ctx, f.players[:4], nil)
	require.ErrorIs(t, err, tarot.ErrInvalidInput)

	dup := []uuid.UUID{f.players[0], f.players[0], f.players[1], f.players[2], f.players[3]}
	_, err = f.svc.OpenSession(ctx, dup, nil)
	require.ErrorIs(t, err, tarot.ErrInvalidInput)

	unknown := append([]uuid.UUID{uuid.New()}, f.players[1:]...)
	_, err = f.svc.OpenSession(ctx, unknown, nil)
	require.ErrorIs(t, err, ErrNotFound)

	group := uuid.New()
	_, err = f.svc.OpenSession(ctx, f.players, &group)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.RegisterPlayer(ctx, "   ")
	require.ErrorIs(t, err, tarot.ErrInvalidInput)
}

func TestStartHandRejectsSecondOpenHand(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	h, err := f.svc.StartHand(ctx, f.session.ID, f.players[0], tarot.Garde)
	require.NoError(t, err)
	require.Equal(t, 1, h.Position)
	require.Equal(t, tarot.InProgress, h.Status)

	_, err = f.svc.StartHand(ctx, f.session.ID, f.players[1], tarot.Petite)
	require.ErrorIs(t, err, ErrHandInProgress)

	_, err = f.svc.StartHand(ctx, f.session.ID, uuid.New(), tarot.Petite)
	require.ErrorIs(t, err, ErrNotSeated)

	_, err = f.svc.StartHand(ctx, f.session.ID, f.players[0], tarot.Contract("garde_royale"))
	require.ErrorIs(t, err, tarot.ErrInvalidInput)
}

func TestCompleteHandRecordsScoresRatingsAndBadges(t *testing.T) {
	f := setup(t)
	res := f.playHand(t, f.players[0], f.players[1], 51)

	require.Equal(t, tarot.Completed, res.Hand.Status)
	require.NotNil(t, res.Hand.CompletedAt)
	want := []int{140, 70, -70, -70, -70}
	for i, s := range res.Scores {
		require.Equal(t, f.players[i], s.PlayerID)
		require.Equal(t, want[i], s.Score)
	}
	require.Len(t, f.store.scores, 5)
	require.Len(t, f.store.elo, 5)
	for _, p := range f.players {
		require.Contains(t, res.Badges[p], badge.FirstGame)
	}

	_, err := f.svc.CompleteHand(context.Background(), res.Hand.ID, HandResult{})
	require.ErrorIs(t, err, ErrHandNotInProgress)
}

func TestCompleteHandInvalidResultKeepsHandOpen(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.svc.StartHand(ctx, f.session.ID, f.players[0], tarot.Garde)
	require.NoError(t, err)

	oudlers, points := 2, 95.0
	_, err = f.svc.CompleteHand(ctx, h.ID, HandResult{Oudlers: &oudlers, Points: &points})
	require.ErrorIs(t, err, tarot.ErrInvalidInput)

	stored, err := f.store.Hand(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, tarot.InProgress, stored.Status)
	require.Empty(t, f.store.scores)
}

func TestOnlyLastHandCanChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.playHand(t, f.players[0], f.players[1], 51)
	second := f.playHand(t, f.players[2], f.players[3], 51)

	_, err := f.svc.UpdateHand(ctx, first.Hand.ID, HandResult{})
	require.ErrorIs(t, err, ErrNotLastHand)
	require.ErrorIs(t, f.svc.DeleteLastHand(ctx, first.Hand.ID), ErrNotLastHand)

	firstRatings, err := f.store.HandElo(ctx, first.Hand.ID)
	require.NoError(t, err)
	after := make(map[uuid.UUID]int)
	for _, e := range firstRatings {
		after[e.PlayerID] = e.RatingAfter
	}

	oudlers, points := 2, 30.0
	partner := f.players[3]
	edited, err := f.svc.UpdateHand(ctx, second.Hand.ID, HandResult{PartnerID: &partner, Oudlers: &oudlers, Points: &points})
	require.NoError(t, err)
	require.Negative(t, edited.Scores[2].Score)

	secondRatings, err := f.store.HandElo(ctx, second.Hand.ID)
	require.NoError(t, err)
	require.Len(t, secondRatings, 5)
	for _, e := range secondRatings {
		require.Equal(t, after[e.PlayerID], e.RatingBefore)
	}
	require.Len(t, f.store.scores, 10)

	require.NoError(t, f.svc.DeleteLastHand(ctx, second.Hand.ID))
	require.Len(t, f.store.scores, 5)
	require.Len(t, f.store.elo, 5)
	_, err = f.store.Hand(ctx, second.Hand.ID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateHandRequiresCompletedHand(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.svc.StartHand(ctx, f.session.ID, f.players[0], tarot.Garde)
	require.NoError(t, err)

	_, err = f.svc.UpdateHand(ctx, h.ID, HandResult{})
	require.ErrorIs(t, err, ErrHandNotCompleted)
}

func TestAddStarAppliesPenaltyEveryThirdStar(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := f.players[2]

	for i := 1; i <= 2; i++ {
		res, err := f.svc.AddStar(ctx, f.session.ID, target)
		require.NoError(t, err)
		require.Equal(t, i, res.StarCount)
		require.Empty(t, res.Penalty)
	}
	res, err := f.svc.AddStar(ctx, f.session.ID, target)
	require.NoError(t, err)
	require.Equal(t, 3, res.StarCount)
	require.Len(t, res.Penalty, 5)

	total := 0
	for _, e := range f.store.scores {
		require.Nil(t, e.HandID)
		if e.PlayerID == target {
			require.Equal(t, -tarot.StarPenaltyLoss, e.Score)
		} else {
			require.Equal(t, tarot.StarPenaltyGain, e.Score)
		}
		total += e.Score
	}
	require.Equal(t, 0, total)

	_, err = f.svc.AddStar(ctx, f.session.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotSeated)
}

func TestClosedSessionRejectsWrites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.CloseSession(ctx, f.session.ID))

	_, err := f.svc.StartHand(ctx, f.session.ID, f.players[0], tarot.Garde)
	require.ErrorIs(t, err, ErrSessionClosed)
	_, err = f.svc.AddStar(ctx, f.session.ID, f.players[0])
	require.ErrorIs(t, err, ErrSessionClosed)
	require.ErrorIs(t, f.svc.CloseSession(ctx, f.session.ID), ErrSessionClosed)

	_, err = f.svc.StartHand(ctx, uuid.New(), f.players[0], tarot.Garde)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestViews(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.playHand(t, f.players[0], f.players[1], 51)

	global, err := f.svc.Statistics(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, global.TotalGames)
	require.Equal(t, 1, global.TotalSessions)

	group := uuid.New()
	empty, err := f.svc.Statistics(ctx, &group)
	require.NoError(t, err)
	require.Equal(t, 0, empty.TotalGames)

	view, err := f.svc.EloStatistics(ctx, nil)
	require.NoError(t, err)
	require.Len(t, view.Ranking, 5)

	ps, err := f.svc.PlayerStatistics(ctx, f.players[0], nil)
	require.NoError(t, err)
	require.Equal(t, 140, ps.TotalScore)

	_, err = f.svc.PlayerStatistics(ctx, uuid.New(), nil)
	require.ErrorIs(t, err, ErrNotFound)

	sum, err := f.svc.SessionSummary(ctx, f.session.ID)
	require.NoError(t, err)
	require.Equal(t, f.players[0], sum.Ranking[0].PlayerID)

	_, err = f.svc.SessionSummary(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
