package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tarotscore/internal/logging"
	"tarotscore/internal/tarot"
)

// Group is a named set of sessions.
type Group struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RegisterPlayer creates a player with a unique, non-empty name.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (tarot.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tarot.Player{}, fmt.Errorf("%w: empty player name", tarot.ErrInvalidInput)
	}
	p := tarot.Player{ID: uuid.New(), Name: name}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return tarot.Player{}, fmt.Errorf("create player: %w", err)
	}
	logging.Debugf("player %s registered as %q", p.ID, p.Name)
	return p, nil
}

// CreateGroup creates a player group.
func (s *Service) CreateGroup(ctx context.Context, name string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: empty group name", tarot.ErrInvalidInput)
	}
	g := Group{ID: uuid.New(), Name: name}
	if err := s.store.CreateGroup(ctx, g.ID, g.Name); err != nil {
		return Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// OpenSession seats five distinct registered players at a new active
// session, optionally attached to a group.
func (s *Service) OpenSession(ctx context.Context, playerIDs []uuid.UUID, groupID *uuid.UUID) (tarot.Session, error) {
	if len(playerIDs) != tarot.SessionSize {
		return tarot.Session{}, fmt.Errorf("%w: a session needs %d players, got %d", tarot.ErrInvalidInput, tarot.SessionSize, len(playerIDs))
	}
	seen := make(map[uuid.UUID]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := seen[id]; dup {
			return tarot.Session{}, fmt.Errorf("%w: player %s seated twice", tarot.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	ok, err := s.store.PlayersExist(ctx, playerIDs)
	if err != nil {
		return tarot.Session{}, fmt.Errorf("check players: %w", err)
	}
	if !ok {
		return tarot.Session{}, fmt.Errorf("players: %w", ErrNotFound)
	}
	if groupID != nil {
		ok, err := s.store.GroupExists(ctx, *groupID)
		if err != nil {
			return tarot.Session{}, fmt.Errorf("check group: %w", err)
		}
		if !ok {
			return tarot.Session{}, fmt.Errorf("group %s: %w", *groupID, ErrNotFound)
		}
	}

	sess := tarot.Session{
		ID:        uuid.New(),
		GroupID:   groupID,
		PlayerIDs: append([]uuid.UUID(nil), playerIDs...),
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return tarot.Session{}, fmt.Errorf("create session: %w", err)
	}
	logging.Debugf("session %s opened", sess.ID)
	return sess, nil
}
