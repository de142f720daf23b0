package badge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tarotscore/internal/logging"
	"tarotscore/internal/tarot"
)

// Store is the persistence the Checker needs.
type Store interface {
	// PlayerHistory returns every session the player sat in with all of
	// their hands, score entries and the player's star events.
	PlayerHistory(ctx context.Context, playerID uuid.UUID) (tarot.Snapshot, error)
	PlayerBadges(ctx context.Context, playerID uuid.UUID) ([]tarot.PlayerBadge, error)
	// AwardBadges persists all badges in a single batch.
	AwardBadges(ctx context.Context, badges []tarot.PlayerBadge) error
}

// Checker awards badges after a hand is completed.
type Checker struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewChecker creates a Checker evaluating night hours in loc.
func NewChecker(store Store, loc *time.Location) *Checker {
	return &Checker{store: store, loc: loc, now: time.Now}
}

// CheckPlayers evaluates every player independently and persists the newly
// unlocked badges in one batch. The result maps each player to the badges
// they just unlocked; players without a new badge map to an empty slice.
func (c *Checker) CheckPlayers(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID][]Type, error) {
	var mu sync.Mutex
	unlocked := make(map[uuid.UUID][]Type, len(playerIDs))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range playerIDs {
		id := id
		g.Go(func() error {
			types, err := c.evaluate(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			unlocked[id] = types
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := c.now()
	var awards []tarot.PlayerBadge
	for _, id := range playerIDs {
		for _, t := range unlocked[id] {
			awards = append(awards, tarot.PlayerBadge{PlayerID: id, Badge: string(t), UnlockedAt: now})
		}
	}
	if len(awards) > 0 {
		if err := c.store.AwardBadges(ctx, awards); err != nil {
			return nil, fmt.Errorf("award badges: %w", err)
		}
		logging.Debugf("awarded %d badges", len(awards))
	}
	return unlocked, nil
}

func (c *Checker) evaluate(ctx context.Context, playerID uuid.UUID) ([]Type, error) {
	owned, err := c.store.PlayerBadges(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load badges of %s: %w", playerID, err)
	}
	held := make(map[Type]bool, len(owned))
	for _, b := range owned {
		held[Type(b.Badge)] = true
	}
	if len(held) == len(All) {
		return []Type{}, nil
	}
	history, err := c.store.PlayerHistory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", playerID, err)
	}
	types := Evaluate(BuildContext(playerID, history, c.loc), held)
	if types == nil {
		types = []Type{}
	}
	return types, nil
}

// Status is a badge as shown on a player profile.
type Status struct {
	Info
	UnlockedAt *time.Time `json:"unlockedAt"`
}

// Statuses lists every badge kind with its unlock time, nil when locked.
func Statuses(owned []tarot.PlayerBadge) []Status {
	at := make(map[Type]time.Time, len(owned))
	for _, b := range owned {
		at[Type(b.Badge)] = b.UnlockedAt
	}
	out := make([]Status, 0, len(All))
	for _, t := range All {
		s := Status{Info: Describe(t)}
		if when, ok := at[t]; ok {
			when := when
			s.UnlockedAt = &when
		}
		out = append(out, s)
	}
	return out
}
