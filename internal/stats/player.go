package stats

import (
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/badge"
	"tarotscore/internal/tarot"
)

const recentScoresLimit = 50

// RecentScore is one hand score used by trend charts.
type RecentScore struct {
	HandID    uuid.UUID      `json:"handId"`
	SessionID uuid.UUID      `json:"sessionId"`
	Contract  tarot.Contract `json:"contract"`
	Score     int            `json:"score"`
	Date      time.Time      `json:"date"`
}

// ScoreRecord is a single remarkable hand.
type ScoreRecord struct {
	Score     int            `json:"score"`
	Contract  tarot.Contract `json:"contract"`
	Date      time.Time      `json:"date"`
	SessionID uuid.UUID      `json:"sessionId"`
}

// StreakRecord is the longest run of won takes.
type StreakRecord struct {
	Length int `json:"length"`
}

// SessionRecord is the player's best session.
type SessionRecord struct {
	SessionID uuid.UUID `json:"sessionId"`
	Score     int       `json:"score"`
	Date      time.Time `json:"date"`
}

// Records are the personal bests of a player. A record with no qualifying
// hand is nil and left out of the JSON.
type Records struct {
	BestScore   *ScoreRecord   `json:"best_score,omitempty"`
	WorstScore  *ScoreRecord   `json:"worst_score,omitempty"`
	WinStreak   *StreakRecord  `json:"win_streak,omitempty"`
	BiggestDiff *ScoreRecord   `json:"biggest_diff,omitempty"`
	BestSession *SessionRecord `json:"best_session,omitempty"`
}

// PlayerStats is the detail page of one player.
type PlayerStats struct {
	LeaderboardEntry
	AverageScore    float64          `json:"averageScore"`
	BestGameScore   int              `json:"bestGameScore"`
	WorstGameScore  int              `json:"worstGameScore"`
	GamesAsPartner  int              `json:"gamesAsPartner"`
	GamesAsDefender int              `json:"gamesAsDefender"`
	Contracts       []ContractRate   `json:"contracts"`
	RecentScores    []RecentScore    `json:"recentScores"`
	TotalStars      int              `json:"totalStars"`
	StarPenalties   int              `json:"starPenalties"`
	Badges          []badge.Status   `json:"badges"`
	EloRating       *int             `json:"eloRating"`
	EloHistory      []tarot.EloEntry `json:"eloHistory"`
	Records         Records          `json:"records"`
}

// handDate is the date a hand is shown with.
func handDate(h tarot.Hand) time.Time {
	if h.CompletedAt != nil {
		return *h.CompletedAt
	}
	return h.CreatedAt
}

// PlayerDetail builds the statistics page of playerID. ok is false when the
// player is unknown.
func PlayerDetail(snap tarot.Snapshot, playerID uuid.UUID) (PlayerStats, bool) {
	names := snap.PlayerNames()
	name, ok := names[playerID]
	if !ok {
		return PlayerStats{}, false
	}
	ps := PlayerStats{
		LeaderboardEntry: LeaderboardEntry{PlayerID: playerID, PlayerName: name},
		Contracts:        []ContractRate{},
		RecentScores:     []RecentScore{},
		EloHistory:       PlayerElo(snap, playerID),
	}
	for _, row := range Leaderboard(snap) {
		if row.PlayerID == playerID {
			ps.LeaderboardEntry = row
			break
		}
	}
	for _, pc := range ContractSuccessRates(snap) {
		if pc.PlayerID == playerID {
			ps.Contracts = pc.Contracts
			break
		}
	}

	handScores := snap.HandScores()
	hands := snap.CompletedHands()

	var played []RecentScore
	sessionTotals := make(map[uuid.UUID]int)
	sessionFirst := make(map[uuid.UUID]time.Time)
	var sessionOrder []uuid.UUID
	sum, streak := 0, 0
	for _, h := range hands {
		score, ok := tarot.ScoreOf(handScores[h.ID], playerID)
		if !ok {
			continue
		}
		date := handDate(h)
		played = append(played, RecentScore{HandID: h.ID, SessionID: h.SessionID, Contract: h.Contract, Score: score, Date: date})
		sum += score

		if ps.Records.BestScore == nil || score > ps.Records.BestScore.Score {
			ps.Records.BestScore = &ScoreRecord{Score: score, Contract: h.Contract, Date: date, SessionID: h.SessionID}
		}
		if ps.Records.WorstScore == nil || score < ps.Records.WorstScore.Score {
			ps.Records.WorstScore = &ScoreRecord{Score: score, Contract: h.Contract, Date: date, SessionID: h.SessionID}
		}

		if _, seen := sessionFirst[h.SessionID]; !seen {
			sessionFirst[h.SessionID] = h.CreatedAt
			sessionOrder = append(sessionOrder, h.SessionID)
		}
		sessionTotals[h.SessionID] += score

		switch {
		case h.TakerID == playerID:
			if score > 0 {
				streak++
				if ps.Records.WinStreak == nil || streak > ps.Records.WinStreak.Length {
					ps.Records.WinStreak = &StreakRecord{Length: streak}
				}
			} else {
				streak = 0
			}
			if diff, err := tarot.Margin(h); err == nil {
				if ps.Records.BiggestDiff == nil || diff > ps.Records.BiggestDiff.Score {
					ps.Records.BiggestDiff = &ScoreRecord{Score: diff, Contract: h.Contract, Date: date, SessionID: h.SessionID}
				}
			}
		case h.IsPartner(playerID):
			ps.GamesAsPartner++
		}
	}

	if len(played) > 0 {
		ps.AverageScore = round(float64(sum)/float64(len(played)), 1)
		ps.BestGameScore = ps.Records.BestScore.Score
		ps.WorstGameScore = ps.Records.WorstScore.Score
	}
	ps.GamesAsDefender = ps.GamesPlayed - ps.GamesAsTaker - ps.GamesAsPartner

	for i := len(played) - 1; i >= 0 && len(ps.RecentScores) < recentScoresLimit; i-- {
		ps.RecentScores = append(ps.RecentScores, played[i])
	}

	for _, id := range sessionOrder {
		total := sessionTotals[id]
		if ps.Records.BestSession == nil || total > ps.Records.BestSession.Score {
			ps.Records.BestSession = &SessionRecord{SessionID: id, Score: total, Date: sessionFirst[id]}
		}
	}

	for _, e := range snap.Stars {
		if e.PlayerID == playerID {
			ps.TotalStars++
		}
	}
	ps.StarPenalties = ps.TotalStars / tarot.StarsPerPenalty

	var owned []tarot.PlayerBadge
	for _, b := range snap.Badges {
		if b.PlayerID == playerID {
			owned = append(owned, b)
		}
	}
	ps.Badges = badge.Statuses(owned)

	if n := len(ps.EloHistory); n > 0 {
		rating := ps.EloHistory[n-1].RatingAfter
		ps.EloRating = &rating
	}
	return ps, true
}
