package tarot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned for malformed hands, rosters and names.
var ErrInvalidInput = errors.New("invalid input")

// PlayerScore is the score delta computed for one player of a hand.
type PlayerScore struct {
	PlayerID uuid.UUID `json:"playerId"`
	Score    int       `json:"score"`
}

// RequiredPoints returns the points the attack needs with the given number
// of oudlers.
func RequiredPoints(oudlers int) (int, error) {
	switch oudlers {
	case 0:
		return 56, nil
	case 1:
		return 51, nil
	case 2:
		return 41, nil
	case 3:
		return 36, nil
	}
	return 0, fmt.Errorf("%w: oudlers must be between 0 and 3, got %d", ErrInvalidInput, oudlers)
}

// Margin returns |points - required| for a completed hand, with points
// truncated to an integer.
func Margin(h Hand) (int, error) {
	if h.Oudlers == nil || h.Points == nil {
		return 0, fmt.Errorf("%w: oudlers and points are required", ErrInvalidInput)
	}
	required, err := RequiredPoints(*h.Oudlers)
	if err != nil {
		return 0, err
	}
	return abs(int(*h.Points) - required), nil
}

// HandTotal returns the signed score of the attack for a single unit share,
// before distribution across the roster.
func HandTotal(h Hand) (int, error) {
	if h.Oudlers == nil || h.Points == nil {
		return 0, fmt.Errorf("%w: oudlers and points are required", ErrInvalidInput)
	}
	if *h.Points < 0 || *h.Points > 91 {
		return 0, fmt.Errorf("%w: points must be between 0 and 91, got %v", ErrInvalidInput, *h.Points)
	}
	required, err := RequiredPoints(*h.Oudlers)
	if err != nil {
		return 0, err
	}
	multiplier, err := h.Contract.Multiplier()
	if err != nil {
		return 0, err
	}
	poignee, err := h.Poignee.Bonus()
	if err != nil {
		return 0, err
	}
	chelem, err := h.Chelem.Bonus()
	if err != nil {
		return 0, err
	}
	if !h.PetitAuBout.valid() || !h.PoigneeOwner.valid() {
		return 0, fmt.Errorf("%w: unknown side", ErrInvalidInput)
	}

	points := int(*h.Points)
	attackWins := points >= required

	base := (abs(points-required) + 25) * multiplier
	if !attackWins {
		base = -base
		poignee = -poignee
	}

	petit := 0
	switch h.PetitAuBout {
	case SideAttack:
		petit = -10 * multiplier
		if attackWins {
			petit = 10 * multiplier
		}
	case SideDefense:
		petit = -10 * multiplier
	}

	return base + poignee + petit + chelem, nil
}

// Compute distributes the hand total across the roster. The result follows
// roster order and always sums to zero for a five player roster.
func Compute(h Hand, roster []uuid.UUID) ([]PlayerScore, error) {
	if !containsID(roster, h.TakerID) {
		return nil, fmt.Errorf("%w: taker %s is not seated", ErrInvalidInput, h.TakerID)
	}
	if h.PartnerID != nil && !containsID(roster, *h.PartnerID) {
		return nil, fmt.Errorf("%w: partner %s is not seated", ErrInvalidInput, *h.PartnerID)
	}
	total, err := HandTotal(h)
	if err != nil {
		return nil, err
	}

	// Calling oneself is the same as playing alone.
	alone := h.PartnerID == nil || *h.PartnerID == h.TakerID

	scores := make([]PlayerScore, 0, len(roster))
	for _, id := range roster {
		var score int
		switch {
		case id == h.TakerID && alone:
			score = total * 4
		case id == h.TakerID:
			score = total * 2
		case !alone && *h.PartnerID == id:
			score = total
		default:
			score = -total
		}
		scores = append(scores, PlayerScore{PlayerID: id, Score: score})
	}
	return scores, nil
}

// TakerScore returns the taker's share from a computed distribution.
func TakerScore(h Hand, scores []PlayerScore) (int, bool) {
	for _, s := range scores {
		if s.PlayerID == h.TakerID {
			return s.Score, true
		}
	}
	return 0, false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
