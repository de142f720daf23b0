// Package service drives the hand lifecycle of a session and exposes the
// statistics views. Writes to a session are serialised through the session
// hub; scoring, rating and badge evaluation run on data loaded from the
// store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/badge"
	"tarotscore/internal/elo"
	"tarotscore/internal/logging"
	"tarotscore/internal/session"
	"tarotscore/internal/storage"
	"tarotscore/internal/tarot"
)

var (
	// ErrNotFound is returned for unknown sessions, hands and players.
	ErrNotFound = storage.ErrNotFound
	// ErrHandInProgress is returned when a session already has an open hand.
	ErrHandInProgress = errors.New("a hand is already in progress")
	// ErrNotLastHand is returned when editing or deleting an older hand.
	ErrNotLastHand = errors.New("only the last hand can be changed")
	// ErrHandNotInProgress is returned when completing a scored hand.
	ErrHandNotInProgress = errors.New("hand is not in progress")
	// ErrHandNotCompleted is returned when editing a hand still in progress.
	ErrHandNotCompleted = errors.New("hand is not completed")
	// ErrSessionClosed is returned when changing an inactive session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNotSeated is returned when a player does not belong to the session.
	ErrNotSeated = errors.New("player is not seated in the session")
)

// Store is the persistence used by the service.
type Store interface {
	badge.Store
	CreatePlayer(ctx context.Context, p tarot.Player) error
	CreateGroup(ctx context.Context, id uuid.UUID, name string) error
	PlayersExist(ctx context.Context, ids []uuid.UUID) (bool, error)
	GroupExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateSession(ctx context.Context, sess tarot.Session) error
	Session(ctx context.Context, id uuid.UUID) (tarot.Session, error)
	CloseSession(ctx context.Context, id uuid.UUID) error
	Hand(ctx context.Context, id uuid.UUID) (tarot.Hand, error)
	// SessionHands returns the hands of a session ordered by position.
	SessionHands(ctx context.Context, sessionID uuid.UUID) ([]tarot.Hand, error)
	CreateHand(ctx context.Context, h tarot.Hand) error
	// SaveHandResult stores the hand and atomically replaces its score
	// entries and rating rows.
	SaveHandResult(ctx context.Context, h tarot.Hand, scores []tarot.ScoreEntry, ratings []tarot.EloEntry) error
	// DeleteHand removes a hand with its score entries and rating rows.
	DeleteHand(ctx context.Context, id uuid.UUID) error
	HandElo(ctx context.Context, handID uuid.UUID) ([]tarot.EloEntry, error)
	// CurrentRatings returns the latest rating of each player that has one.
	CurrentRatings(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]int, error)
	CountStars(ctx context.Context, sessionID, playerID uuid.UUID) (int, error)
	// AddStar stores the star event and any penalty entries together.
	AddStar(ctx context.Context, ev tarot.StarEvent, penalty []tarot.ScoreEntry) error
	Snapshot(ctx context.Context) (tarot.Snapshot, error)
	SessionSnapshot(ctx context.Context, sessionID uuid.UUID) (tarot.Snapshot, error)
}

// Service implements the scorekeeping operations.
type Service struct {
	store  Store
	hub    *session.Hub
	rater  elo.Rater
	badges *badge.Checker
	now    func() time.Time
}

// New creates a Service. loc is the timezone used by time-of-day badges.
func New(store Store, hub *session.Hub, rater elo.Rater, loc *time.Location) *Service {
	return &Service{
		store:  store,
		hub:    hub,
		rater:  rater,
		badges: badge.NewChecker(store, loc),
		now:    time.Now,
	}
}

// HandResult carries the fields filled in when a hand is scored. An empty
// Contract or nil TakerID keeps the value chosen when the hand started.
type HandResult struct {
	Contract     tarot.Contract `json:"contract"`
	TakerID      *uuid.UUID     `json:"takerId"`
	PartnerID    *uuid.UUID     `json:"partnerId"`
	Oudlers      *int           `json:"oudlers"`
	Points       *float64       `json:"points"`
	Poignee      tarot.Poignee  `json:"poignee"`
	PoigneeOwner tarot.Side     `json:"poigneeOwner"`
	PetitAuBout  tarot.Side     `json:"petitAuBout"`
	Chelem       tarot.Chelem   `json:"chelem"`
}

func (r HandResult) apply(h *tarot.Hand) {
	if r.Contract != "" {
		h.Contract = r.Contract
	}
	if r.TakerID != nil {
		h.TakerID = *r.TakerID
	}
	h.PartnerID = r.PartnerID
	h.Oudlers = r.Oudlers
	h.Points = r.Points
	h.Poignee = orDefault(r.Poignee, tarot.PoigneeNone)
	h.PoigneeOwner = orDefault(r.PoigneeOwner, tarot.SideNone)
	h.PetitAuBout = orDefault(r.PetitAuBout, tarot.SideNone)
	h.Chelem = orDefault(r.Chelem, tarot.ChelemNone)
	if h.Poignee == tarot.PoigneeNone {
		h.PoigneeOwner = tarot.SideNone
	}
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

// Completion is the outcome of scoring a hand.
type Completion struct {
	Hand   tarot.Hand                 `json:"hand"`
	Scores []tarot.PlayerScore        `json:"scores"`
	Badges map[uuid.UUID][]badge.Type `json:"badges"`
}

// StarResult is the outcome of giving a star.
type StarResult struct {
	Event     tarot.StarEvent     `json:"event"`
	StarCount int                 `json:"starCount"`
	Penalty   []tarot.PlayerScore `json:"penalty"`
}

// lockedSession acquires the writer lock of a session and loads it.
func (s *Service) lockedSession(ctx context.Context, id uuid.UUID) (tarot.Session, func(), error) {
	release := s.hub.Acquire(id)
	sess, err := s.store.Session(ctx, id)
	if err != nil {
		release()
		return tarot.Session{}, nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !sess.IsActive {
		release()
		return tarot.Session{}, nil, ErrSessionClosed
	}
	return sess, release, nil
}

// lockedHand acquires the writer lock of the hand's session and reloads
// the hand under the lock.
func (s *Service) lockedHand(ctx context.Context, handID uuid.UUID) (tarot.Session, tarot.Hand, func(), error) {
	h, err := s.store.Hand(ctx, handID)
	if err != nil {
		return tarot.Session{}, tarot.Hand{}, nil, fmt.Errorf("load hand %s: %w", handID, err)
	}
	sess, release, err := s.lockedSession(ctx, h.SessionID)
	if err != nil {
		return tarot.Session{}, tarot.Hand{}, nil, err
	}
	if h, err = s.store.Hand(ctx, handID); err != nil {
		release()
		return tarot.Session{}, tarot.Hand{}, nil, fmt.Errorf("load hand %s: %w", handID, err)
	}
	return sess, h, release, nil
}

// StartHand opens a new hand with its taker and contract.
func (s *Service) StartHand(ctx context.Context, sessionID, takerID uuid.UUID, contract tarot.Contract) (tarot.Hand, error) {
	if !contract.Valid() {
		return tarot.Hand{}, fmt.Errorf("%w: unknown contract %q", tarot.ErrInvalidInput, string(contract))
	}
	sess, release, err := s.lockedSession(ctx, sessionID)
	if err != nil {
		return tarot.Hand{}, err
	}
	defer release()

	if !sess.HasPlayer(takerID) {
		return tarot.Hand{}, ErrNotSeated
	}
	hands, err := s.store.SessionHands(ctx, sessionID)
	if err != nil {
		return tarot.Hand{}, fmt.Errorf("load hands: %w", err)
	}
	position := 1
	for _, h := range hands {
		if h.Status == tarot.InProgress {
			return tarot.Hand{}, ErrHandInProgress
		}
		if h.Position >= position {
			position = h.Position + 1
		}
	}

	h := tarot.Hand{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Position:     position,
		Contract:     contract,
		TakerID:      takerID,
		Poignee:      tarot.PoigneeNone,
		PoigneeOwner: tarot.SideNone,
		PetitAuBout:  tarot.SideNone,
		Chelem:       tarot.ChelemNone,
		Status:       tarot.InProgress,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateHand(ctx, h); err != nil {
		return tarot.Hand{}, fmt.Errorf("create hand: %w", err)
	}
	logging.Debugf("session %s: hand %d started by %s", sessionID, position, takerID)
	return h, nil
}

// CompleteHand scores the in-progress hand, records scores and ratings and
// awards badges to every seated player.
func (s *Service) CompleteHand(ctx context.Context, handID uuid.UUID, result HandResult) (Completion, error) {
	sess, h, release, err := s.lockedHand(ctx, handID)
	if err != nil {
		return Completion{}, err
	}
	defer release()

	if h.Status != tarot.InProgress {
		return Completion{}, ErrHandNotInProgress
	}
	result.apply(&h)
	scores, err := tarot.Compute(h, sess.PlayerIDs)
	if err != nil {
		return Completion{}, err
	}
	now := s.now()
	h.Status = tarot.Completed
	h.CompletedAt = &now

	current, err := s.store.CurrentRatings(ctx, sess.PlayerIDs)
	if err != nil {
		return Completion{}, fmt.Errorf("load ratings: %w", err)
	}
	ratings := s.rater.Rate(h, scores, current, now)
	if err := s.store.SaveHandResult(ctx, h, scoreEntries(h, scores, now), ratings); err != nil {
		return Completion{}, fmt.Errorf("save hand: %w", err)
	}
	logging.Debugf("session %s: hand %d completed", h.SessionID, h.Position)

	out := Completion{Hand: h, Scores: scores}
	unlocked, err := s.badges.CheckPlayers(ctx, sess.PlayerIDs)
	if err != nil {
		logging.Infof("badge check for session %s failed: %v", h.SessionID, err)
		return out, nil
	}
	out.Badges = unlocked
	return out, nil
}

// UpdateHand rescores the last completed hand of a session.
func (s *Service) UpdateHand(ctx context.Context, handID uuid.UUID, result HandResult) (Completion, error) {
	sess, h, release, err := s.lockedHand(ctx, handID)
	if err != nil {
		return Completion{}, err
	}
	defer release()

	if h.Status != tarot.Completed {
		return Completion{}, ErrHandNotCompleted
	}
	if err := s.ensureLast(ctx, h); err != nil {
		return Completion{}, err
	}
	result.apply(&h)
	scores, err := tarot.Compute(h, sess.PlayerIDs)
	if err != nil {
		return Completion{}, err
	}

	previous, err := s.store.HandElo(ctx, h.ID)
	if err != nil {
		return Completion{}, fmt.Errorf("load hand ratings: %w", err)
	}
	var before map[uuid.UUID]int
	if len(previous) > 0 {
		before = make(map[uuid.UUID]int, len(previous))
		for _, e := range previous {
			before[e.PlayerID] = e.RatingBefore
		}
	} else if before, err = s.store.CurrentRatings(ctx, sess.PlayerIDs); err != nil {
		return Completion{}, fmt.Errorf("load ratings: %w", err)
	}

	now := s.now()
	ratings := s.rater.Rate(h, scores, before, now)
	if err := s.store.SaveHandResult(ctx, h, scoreEntries(h, scores, now), ratings); err != nil {
		return Completion{}, fmt.Errorf("save hand: %w", err)
	}
	logging.Debugf("session %s: hand %d edited", h.SessionID, h.Position)
	return Completion{Hand: h, Scores: scores}, nil
}

// DeleteLastHand removes the highest-position hand of its session.
func (s *Service) DeleteLastHand(ctx context.Context, handID uuid.UUID) error {
	_, h, release, err := s.lockedHand(ctx, handID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.ensureLast(ctx, h); err != nil {
		return err
	}
	if err := s.store.DeleteHand(ctx, h.ID); err != nil {
		return fmt.Errorf("delete hand: %w", err)
	}
	logging.Debugf("session %s: hand %d deleted", h.SessionID, h.Position)
	return nil
}

func (s *Service) ensureLast(ctx context.Context, h tarot.Hand) error {
	hands, err := s.store.SessionHands(ctx, h.SessionID)
	if err != nil {
		return fmt.Errorf("load hands: %w", err)
	}
	for _, other := range hands {
		if other.Position > h.Position {
			return ErrNotLastHand
		}
	}
	return nil
}

// AddStar gives a star to a seated player. Every third star of the player
// in the session applies the star penalty.
func (s *Service) AddStar(ctx context.Context, sessionID, playerID uuid.UUID) (StarResult, error) {
	sess, release, err := s.lockedSession(ctx, sessionID)
	if err != nil {
		return StarResult{}, err
	}
	defer release()

	if !sess.HasPlayer(playerID) {
		return StarResult{}, ErrNotSeated
	}
	count, err := s.store.CountStars(ctx, sessionID, playerID)
	if err != nil {
		return StarResult{}, fmt.Errorf("count stars: %w", err)
	}
	count++

	now := s.now()
	ev := tarot.StarEvent{ID: uuid.New(), SessionID: sessionID, PlayerID: playerID, CreatedAt: now}
	out := StarResult{Event: ev, StarCount: count, Penalty: []tarot.PlayerScore{}}
	var entries []tarot.ScoreEntry
	if penalty, ok := tarot.StarPenalty(playerID, sess.PlayerIDs, count); ok {
		out.Penalty = penalty
		for _, p := range penalty {
			entries = append(entries, tarot.ScoreEntry{
				ID:        uuid.New(),
				SessionID: sessionID,
				PlayerID:  p.PlayerID,
				Score:     p.Score,
				CreatedAt: now,
			})
		}
		logging.Debugf("session %s: star penalty for %s", sessionID, playerID)
	}
	if err := s.store.AddStar(ctx, ev, entries); err != nil {
		return StarResult{}, fmt.Errorf("add star: %w", err)
	}
	return out, nil
}

// CloseSession marks a session inactive.
func (s *Service) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	_, release, err := s.lockedSession(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()
	return s.store.CloseSession(ctx, sessionID)
}

func scoreEntries(h tarot.Hand, scores []tarot.PlayerScore, at time.Time) []tarot.ScoreEntry {
	out := make([]tarot.ScoreEntry, 0, len(scores))
	for _, p := range scores {
		id := h.ID
		out = append(out, tarot.ScoreEntry{
			ID:        uuid.New(),
			SessionID: h.SessionID,
			HandID:    &id,
			PlayerID:  p.PlayerID,
			Score:     p.Score,
			CreatedAt: at,
		})
	}
	return out
}
