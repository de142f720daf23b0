// Package elo rates players after every completed hand.
package elo

import (
	"math"
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/tarot"
)

const (
	DefaultInitial = 1500
	DefaultK       = 20
)

// Rater turns a scored hand into rating history rows. current holds the
// rating of each seated player before the hand; missing players start at
// the rater's initial rating.
type Rater interface {
	Initial() int
	Rate(h tarot.Hand, scores []tarot.PlayerScore, current map[uuid.UUID]int, at time.Time) []tarot.EloEntry
}

// TeamRater rates the attack (taker and partner) against the average
// rating of the defence.
type TeamRater struct {
	K        float64
	Starting int
}

// NewTeamRater creates a rater with the given starting rating and K factor.
func NewTeamRater(initial int, k float64) *TeamRater {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if k <= 0 {
		k = DefaultK
	}
	return &TeamRater{K: k, Starting: initial}
}

func (r *TeamRater) Initial() int { return r.Starting }

// Rate implements Rater.
func (r *TeamRater) Rate(h tarot.Hand, scores []tarot.PlayerScore, current map[uuid.UUID]int, at time.Time) []tarot.EloEntry {
	rating := func(id uuid.UUID) int {
		if v, ok := current[id]; ok {
			return v
		}
		return r.Starting
	}

	var attack, defense []uuid.UUID
	for _, s := range scores {
		if s.PlayerID == h.TakerID || h.IsPartner(s.PlayerID) {
			attack = append(attack, s.PlayerID)
		} else {
			defense = append(defense, s.PlayerID)
		}
	}
	if len(attack) == 0 || len(defense) == 0 {
		return nil
	}

	expected := 1 / (1 + math.Pow(10, (average(defense, rating)-average(attack, rating))/400))
	result := 0.0
	if score, ok := tarot.TakerScore(h, scores); ok && score > 0 {
		result = 1
	}
	change := int(math.Round(r.K * (result - expected)))

	out := make([]tarot.EloEntry, 0, len(scores))
	for _, s := range scores {
		delta := -change
		if s.PlayerID == h.TakerID || h.IsPartner(s.PlayerID) {
			delta = change
		}
		before := rating(s.PlayerID)
		out = append(out, tarot.EloEntry{
			PlayerID:     s.PlayerID,
			HandID:       h.ID,
			RatingBefore: before,
			RatingAfter:  before + delta,
			RatingChange: delta,
			CreatedAt:    at,
		})
	}
	return out
}

func average(ids []uuid.UUID, rating func(uuid.UUID) int) float64 {
	sum := 0
	for _, id := range ids {
		sum += rating(id)
	}
	return float64(sum) / float64(len(ids))
}
