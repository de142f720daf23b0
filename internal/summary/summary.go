// Package summary builds the end-of-session recap: final ranking,
// highlights and the humorous awards.
package summary

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/tarot"
)

// ErrUnknownSession is returned when the snapshot does not hold the session.
var ErrUnknownSession = errors.New("session not in snapshot")

// minGamesForAwards is the number of completed hands below which no award
// is handed out.
const minGamesForAwards = 3

// RankEntry is a player's final standing.
type RankEntry struct {
	Position   int       `json:"position"`
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
}

// GameHighlight is a remarkable hand of the session.
type GameHighlight struct {
	HandID    uuid.UUID      `json:"handId"`
	Position  int            `json:"position"`
	TakerID   uuid.UUID      `json:"takerId"`
	TakerName string         `json:"takerName"`
	Contract  tarot.Contract `json:"contract"`
	Score     int            `json:"score"`
}

// Highlights are the notable facts of a session.
type Highlights struct {
	MVP                RankEntry       `json:"mvp"`
	LastPlace          RankEntry       `json:"lastPlace"`
	BestGame           *GameHighlight  `json:"bestGame"`
	WorstGame          *GameHighlight  `json:"worstGame"`
	MostPlayedContract *tarot.Contract `json:"mostPlayedContract"`
	Duration           int64           `json:"duration"`
	TotalGames         int             `json:"totalGames"`
	TotalStars         int             `json:"totalStars"`
}

// Award is a humorous title handed to one player.
type Award struct {
	Title       string    `json:"title"`
	Emoji       string    `json:"emoji"`
	Description string    `json:"description"`
	PlayerID    uuid.UUID `json:"playerId"`
	PlayerName  string    `json:"playerName"`
}

// Summary is the recap of one session.
type Summary struct {
	SessionID   uuid.UUID   `json:"sessionId"`
	Ranking     []RankEntry `json:"ranking"`
	ScoreSpread int         `json:"scoreSpread"`
	Highlights  Highlights  `json:"highlights"`
	Awards      []Award     `json:"awards"`
}

// Build summarises sessionID from a snapshot holding its rows.
func Build(snap tarot.Snapshot, sessionID uuid.UUID) (Summary, error) {
	session, ok := snap.SessionByID()[sessionID]
	if !ok {
		return Summary{}, ErrUnknownSession
	}
	snap = snap.FilterSessions(func(id uuid.UUID) bool { return id == sessionID })
	names := snap.PlayerNames()

	hands := snap.CompletedHands()
	handScores := snap.HandScores()

	sum := Summary{
		SessionID: sessionID,
		Ranking:   Rank(session.PlayerIDs, snap.Scores, names),
		Awards:    []Award{},
	}
	if n := len(sum.Ranking); n > 0 {
		sum.ScoreSpread = sum.Ranking[0].Score - sum.Ranking[n-1].Score
		sum.Highlights.MVP = sum.Ranking[0]
		sum.Highlights.LastPlace = sum.Ranking[n-1]
	}

	hl := &sum.Highlights
	hl.TotalGames = len(hands)
	hl.TotalStars = len(snap.Stars)

	counts := make(map[tarot.Contract]int)
	var latest time.Time
	for _, h := range hands {
		counts[h.Contract]++
		if hl.MostPlayedContract == nil || counts[h.Contract] > counts[*hl.MostPlayedContract] {
			c := h.Contract
			hl.MostPlayedContract = &c
		}
		if h.CompletedAt != nil && h.CompletedAt.After(latest) {
			latest = *h.CompletedAt
		}

		score, ok := tarot.ScoreOf(handScores[h.ID], h.TakerID)
		if !ok {
			continue
		}
		game := &GameHighlight{
			HandID: h.ID, Position: h.Position, TakerID: h.TakerID,
			TakerName: names[h.TakerID], Contract: h.Contract, Score: score,
		}
		if hl.BestGame == nil || score > hl.BestGame.Score {
			hl.BestGame = game
		}
		if hl.WorstGame == nil || score < hl.WorstGame.Score {
			hl.WorstGame = game
		}
	}
	if !latest.IsZero() {
		hl.Duration = int64(latest.Sub(session.CreatedAt) / time.Second)
	}

	if len(hands) >= minGamesForAwards {
		sum.Awards = awards(session, hands, handScores, names)
	}
	return sum, nil
}

// Rank orders the seated players by session total, best first. Tied
// players share a position: 1, 1, 3, 4, 4.
func Rank(playerIDs []uuid.UUID, scores []tarot.ScoreEntry, names map[uuid.UUID]string) []RankEntry {
	totals := make(map[uuid.UUID]int, len(playerIDs))
	for _, e := range scores {
		totals[e.PlayerID] += e.Score
	}
	out := make([]RankEntry, 0, len(playerIDs))
	for _, id := range playerIDs {
		out = append(out, RankEntry{PlayerID: id, PlayerName: names[id], Score: totals[id]})
	}
	for i := range out {
		ahead := 0
		for j := range out {
			if out[j].Score > out[i].Score {
				ahead++
			}
		}
		out[i].Position = ahead + 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
