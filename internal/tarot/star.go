package tarot

import "github.com/google/uuid"

const (
	// StarsPerPenalty is the number of stars that trigger one penalty.
	StarsPerPenalty = 3
	// StarPenaltyLoss is taken from the penalised player.
	StarPenaltyLoss = 100
	// StarPenaltyGain is given to every other seated player.
	StarPenaltyGain = 25
)

// StarPenalty returns the score deltas to materialise after a player has
// received their starCount-th star in a session. ok is false when this star
// does not trigger a penalty.
func StarPenalty(playerID uuid.UUID, roster []uuid.UUID, starCount int) (scores []PlayerScore, ok bool) {
	if starCount <= 0 || starCount%StarsPerPenalty != 0 {
		return nil, false
	}
	scores = make([]PlayerScore, 0, len(roster))
	for _, id := range roster {
		score := StarPenaltyGain
		if id == playerID {
			score = -StarPenaltyLoss
		}
		scores = append(scores, PlayerScore{PlayerID: id, Score: score})
	}
	return scores, true
}
