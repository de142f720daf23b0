package stats

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/tarot"
)

// EloRank is a player's current rating.
type EloRank struct {
	PlayerID    uuid.UUID `json:"playerId"`
	PlayerName  string    `json:"playerName"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"gamesPlayed"`
}

// EloPoint is a rating after one hand.
type EloPoint struct {
	Game   int       `json:"game"`
	HandID uuid.UUID `json:"handId"`
	Rating int       `json:"rating"`
	Date   time.Time `json:"date"`
}

// EloSeries is the rating history of one player.
type EloSeries struct {
	PlayerID   uuid.UUID  `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Points     []EloPoint `json:"points"`
}

// sortedElo returns the rating rows in insertion order.
func sortedElo(entries []tarot.EloEntry) []tarot.EloEntry {
	out := append([]tarot.EloEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}

// EloRanking returns the latest rating of every rated player, best first.
func EloRanking(snap tarot.Snapshot) []EloRank {
	names := snap.PlayerNames()
	ranks := make(map[uuid.UUID]*EloRank)
	for _, e := range sortedElo(snap.Elo) {
		r, ok := ranks[e.PlayerID]
		if !ok {
			r = &EloRank{PlayerID: e.PlayerID, PlayerName: names[e.PlayerID]}
			ranks[e.PlayerID] = r
		}
		r.Rating = e.RatingAfter
		r.GamesPlayed++
	}
	out := make([]EloRank, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out
}

// EloEvolution returns the chronological rating series of every rated
// player. Players without history are absent.
func EloEvolution(snap tarot.Snapshot) []EloSeries {
	names := snap.PlayerNames()
	var order []uuid.UUID
	series := make(map[uuid.UUID]*EloSeries)
	for _, e := range sortedElo(snap.Elo) {
		s, ok := series[e.PlayerID]
		if !ok {
			s = &EloSeries{PlayerID: e.PlayerID, PlayerName: names[e.PlayerID]}
			series[e.PlayerID] = s
			order = append(order, e.PlayerID)
		}
		s.Points = append(s.Points, EloPoint{
			Game:   len(s.Points) + 1,
			HandID: e.HandID,
			Rating: e.RatingAfter,
			Date:   e.CreatedAt,
		})
	}
	out := make([]EloSeries, 0, len(order))
	for _, id := range order {
		out = append(out, *series[id])
	}
	return out
}

// PlayerElo returns the rating rows of one player in insertion order.
func PlayerElo(snap tarot.Snapshot, playerID uuid.UUID) []tarot.EloEntry {
	out := []tarot.EloEntry{}
	for _, e := range sortedElo(snap.Elo) {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out
}
