package summary

import (
	"github.com/google/uuid"

	"tarotscore/internal/tarot"
)

const (
	butcherTitle  = "Le Boucher"
	defenderTitle = "L'Éternel Défenseur"
	gamblerTitle  = "Le Flambeur"
)

// awards hands out the session titles. Ties go to the first player in
// seating order.
func awards(session tarot.Session, hands []tarot.Hand, handScores map[uuid.UUID][]tarot.ScoreEntry, names map[uuid.UUID]string) []Award {
	won := make(map[uuid.UUID]int)
	taken := make(map[uuid.UUID]int)
	risky := make(map[uuid.UUID]int)
	for _, h := range hands {
		taken[h.TakerID]++
		if h.Contract == tarot.GardeSans || h.Contract == tarot.GardeContre {
			risky[h.TakerID]++
		}
		if score, ok := tarot.ScoreOf(handScores[h.ID], h.TakerID); ok && score > 0 {
			won[h.TakerID] += score
		}
	}

	out := []Award{}
	if id, total, ok := highest(session.PlayerIDs, won); ok && total > 0 {
		out = append(out, newAward(butcherTitle, "🔪", "A marqué le plus de points en tant que preneur", id, names))
	}

	if len(session.PlayerIDs) > 0 {
		id := session.PlayerIDs[0]
		for _, p := range session.PlayerIDs[1:] {
			if taken[p] < taken[id] {
				id = p
			}
		}
		out = append(out, newAward(defenderTitle, "🛡️", "A pris le moins de donnes", id, names))
	}

	if id, count, ok := highest(session.PlayerIDs, risky); ok && count > 0 {
		out = append(out, newAward(gamblerTitle, "🎲", "A tenté le plus de gardes sans et gardes contre", id, names))
	}
	return out
}

func newAward(title, emoji, description string, id uuid.UUID, names map[uuid.UUID]string) Award {
	return Award{
		Title:       title,
		Emoji:       emoji,
		Description: description,
		PlayerID:    id,
		PlayerName:  names[id],
	}
}

// highest returns the seated player with the largest value.
func highest(playerIDs []uuid.UUID, values map[uuid.UUID]int) (uuid.UUID, int, bool) {
	var best uuid.UUID
	top, found := 0, false
	for _, id := range playerIDs {
		if v := values[id]; !found || v > top {
			best, top, found = id, v, true
		}
	}
	return best, top, found
}
