// Package stats derives read-only statistics views from a snapshot of
// hands, score entries, star events and rating history. Callers apply the
// player group filter on the snapshot before calling in.
package stats

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tarotscore/internal/tarot"
)

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	PlayerID     uuid.UUID `json:"playerId"`
	PlayerName   string    `json:"playerName"`
	TotalScore   int       `json:"totalScore"`
	GamesPlayed  int       `json:"gamesPlayed"`
	GamesAsTaker int       `json:"gamesAsTaker"`
	Wins         int       `json:"wins"`
	WinRate      float64   `json:"winRate"`
}

// ContractShare is the number of completed hands played with a contract.
type ContractShare struct {
	Contract   tarot.Contract `json:"contract"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// ContractRate is a player's success with one contract.
type ContractRate struct {
	Contract tarot.Contract `json:"contract"`
	Count    int            `json:"count"`
	Wins     int            `json:"wins"`
	WinRate  float64        `json:"winRate"`
}

// PlayerContracts groups a player's contract success rates.
type PlayerContracts struct {
	PlayerID   uuid.UUID      `json:"playerId"`
	PlayerName string         `json:"playerName"`
	Contracts  []ContractRate `json:"contracts"`
}

// Durations summarises how long completed hands took.
type Durations struct {
	AverageSeconds *float64 `json:"averageSeconds"`
	TotalSeconds   int64    `json:"totalSeconds"`
	Hands          int      `json:"hands"`
}

// Global is the statistics home page.
type Global struct {
	TotalGames           int                `json:"totalGames"`
	TotalSessions        int                `json:"totalSessions"`
	TotalStars           int                `json:"totalStars"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard"`
	ContractDistribution []ContractShare    `json:"contractDistribution"`
	Durations            Durations          `json:"durations"`
}

// BuildGlobal assembles the global statistics view.
func BuildGlobal(snap tarot.Snapshot) Global {
	hands := snap.CompletedHands()
	sessions := make(map[uuid.UUID]struct{})
	for _, h := range hands {
		sessions[h.SessionID] = struct{}{}
	}
	return Global{
		TotalGames:           len(hands),
		TotalSessions:        len(sessions),
		TotalStars:           len(snap.Stars),
		Leaderboard:          Leaderboard(snap),
		ContractDistribution: ContractDistribution(snap),
		Durations:            HandDurations(snap),
	}
}

// takerRecord is the outcome of a completed hand from the taker's seat.
type takerRecord struct {
	hand  tarot.Hand
	score int
}

// takerRecords returns the completed hands that have a taker score entry,
// in chronological order.
func takerRecords(snap tarot.Snapshot) []takerRecord {
	handScores := snap.HandScores()
	var out []takerRecord
	for _, h := range snap.CompletedHands() {
		if score, ok := tarot.ScoreOf(handScores[h.ID], h.TakerID); ok {
			out = append(out, takerRecord{hand: h, score: score})
		}
	}
	return out
}

// Leaderboard ranks players by total score, penalties included.
func Leaderboard(snap tarot.Snapshot) []LeaderboardEntry {
	names := snap.PlayerNames()
	completed := make(map[uuid.UUID]bool)
	for _, h := range snap.Hands {
		completed[h.ID] = h.IsCompleted()
	}

	rows := make(map[uuid.UUID]*LeaderboardEntry)
	row := func(id uuid.UUID) *LeaderboardEntry {
		r, ok := rows[id]
		if !ok {
			r = &LeaderboardEntry{PlayerID: id, PlayerName: names[id]}
			rows[id] = r
		}
		return r
	}

	played := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, e := range snap.Scores {
		r := row(e.PlayerID)
		r.TotalScore += e.Score
		if e.HandID == nil || !completed[*e.HandID] {
			continue
		}
		if played[e.PlayerID] == nil {
			played[e.PlayerID] = make(map[uuid.UUID]struct{})
		}
		played[e.PlayerID][*e.HandID] = struct{}{}
	}
	for _, t := range takerRecords(snap) {
		r := row(t.hand.TakerID)
		r.GamesAsTaker++
		if t.score > 0 {
			r.Wins++
		}
	}

	out := make([]LeaderboardEntry, 0, len(rows))
	for id, r := range rows {
		r.GamesPlayed = len(played[id])
		r.WinRate = rate(r.Wins, r.GamesAsTaker, 1)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out
}

// ContractDistribution counts completed hands per contract.
func ContractDistribution(snap tarot.Snapshot) []ContractShare {
	counts := make(map[tarot.Contract]int)
	total := 0
	for _, h := range snap.Hands {
		if !h.IsCompleted() {
			continue
		}
		counts[h.Contract]++
		total++
	}
	out := make([]ContractShare, 0, len(tarot.Contracts))
	for _, c := range tarot.Contracts {
		out = append(out, ContractShare{Contract: c, Count: counts[c], Percentage: rate(counts[c], total, 2)})
	}
	return out
}

// ContractSuccessRates reports per player and per contract how often the
// player won as taker. Players who never took are left out.
func ContractSuccessRates(snap tarot.Snapshot) []PlayerContracts {
	names := snap.PlayerNames()
	type tally struct{ count, wins int }
	byPlayer := make(map[uuid.UUID]map[tarot.Contract]*tally)
	for _, t := range takerRecords(snap) {
		m := byPlayer[t.hand.TakerID]
		if m == nil {
			m = make(map[tarot.Contract]*tally)
			byPlayer[t.hand.TakerID] = m
		}
		c := m[t.hand.Contract]
		if c == nil {
			c = &tally{}
			m[t.hand.Contract] = c
		}
		c.count++
		if t.score > 0 {
			c.wins++
		}
	}

	out := make([]PlayerContracts, 0, len(byPlayer))
	for id, m := range byPlayer {
		pc := PlayerContracts{PlayerID: id, PlayerName: names[id]}
		for _, c := range tarot.Contracts {
			if t, ok := m[c]; ok {
				pc.Contracts = append(pc.Contracts, ContractRate{Contract: c, Count: t.count, Wins: t.wins, WinRate: rate(t.wins, t.count, 1)})
			}
		}
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerName != out[j].PlayerName {
			return out[i].PlayerName < out[j].PlayerName
		}
		return out[i].PlayerID.String() < out[j].PlayerID.String()
	})
	return out
}

// HandDurations averages completedAt - createdAt over completed hands.
func HandDurations(snap tarot.Snapshot) Durations {
	var d Durations
	for _, h := range snap.Hands {
		if h.CompletedAt == nil {
			continue
		}
		d.TotalSeconds += int64(h.CompletedAt.Sub(h.CreatedAt) / time.Second)
		d.Hands++
	}
	if d.Hands > 0 {
		avg := round(float64(d.TotalSeconds)/float64(d.Hands), 1)
		d.AverageSeconds = &avg
	}
	return d
}

// rate returns part/total as a percentage rounded to places, 0 when total
// is zero.
func rate(part, total int, places int32) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(part)/float64(total)*100, places)
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
