package badge

import (
	"time"

	"github.com/google/uuid"

	"tarotscore/internal/tarot"
)

// Context is the per-player aggregate every predicate reads from. It is
// built in a single pass over the player's sessions.
type Context struct {
	PlayerID          uuid.UUID
	CompletedGames    int
	SessionsPlayed    int
	TakerScores       []int
	ChelemsWon        int
	GardeContreTaken  int
	GardeSansWon      int
	PetitAuBoutWins   int
	LongestWall       int
	Comeback          bool
	LastPlaceFinishes int
	MarathonSessions  int
	NightOwlHands     int
	CoPlayers         int
	StarEvents        int
}

// BuildContext aggregates the history of playerID. The snapshot must hold
// every session the player sat in along with all of their hands and score
// entries. loc is the timezone of the NightOwl window.
func BuildContext(playerID uuid.UUID, snap tarot.Snapshot, loc *time.Location) *Context {
	if loc == nil {
		loc = time.Local
	}
	c := &Context{PlayerID: playerID}
	handScores := snap.HandScores()
	hands := snap.CompletedHands()

	playedSessions := make(map[uuid.UUID]struct{})
	lastCompleted := make(map[uuid.UUID]time.Time)
	wall := 0
	for _, h := range hands {
		entries := handScores[h.ID]
		if _, ok := tarot.ScoreOf(entries, playerID); !ok {
			continue
		}
		c.CompletedGames++
		playedSessions[h.SessionID] = struct{}{}
		if h.CompletedAt != nil {
			if h.CompletedAt.After(lastCompleted[h.SessionID]) {
				lastCompleted[h.SessionID] = *h.CompletedAt
			}
			if h.CompletedAt.In(loc).Hour() <= nightOwlLastHour {
				c.NightOwlHands++
			}
		}

		takerScore, _ := tarot.ScoreOf(entries, h.TakerID)
		if h.TakerID == playerID {
			c.TakerScores = append(c.TakerScores, takerScore)
			won := takerScore > 0
			if h.Chelem == tarot.ChelemAnnouncedWon {
				c.ChelemsWon++
			}
			switch h.Contract {
			case tarot.GardeContre:
				c.GardeContreTaken++
			case tarot.GardeSans:
				if won {
					c.GardeSansWon++
				}
			}
			if h.PetitAuBout == tarot.SideAttack && won {
				c.PetitAuBoutWins++
			}
		}

		if h.TakerID != playerID && !h.IsPartner(playerID) && takerScore < 0 {
			wall++
			if wall > c.LongestWall {
				c.LongestWall = wall
			}
		} else {
			wall = 0
		}
	}
	c.SessionsPlayed = len(playedSessions)

	coPlayers := make(map[uuid.UUID]struct{})
	sessions := snap.SessionByID()
	for id := range playedSessions {
		s, ok := sessions[id]
		if !ok {
			continue
		}
		for _, p := range s.PlayerIDs {
			if p != playerID {
				coPlayers[p] = struct{}{}
			}
		}
		if last, ok := lastCompleted[id]; ok && last.Sub(s.CreatedAt) > marathonSeconds*time.Second {
			c.MarathonSessions++
		}
	}
	c.CoPlayers = len(coPlayers)

	for _, s := range snap.Sessions {
		if _, ok := playedSessions[s.ID]; !ok {
			continue
		}
		wasLast, final := sessionStandings(s, hands, handScores, snap.Scores, playerID)
		if uniqueExtreme(final, playerID, false) {
			c.LastPlaceFinishes++
		}
		if wasLast && uniqueExtreme(final, playerID, true) {
			c.Comeback = true
		}
	}

	for _, e := range snap.Stars {
		if e.PlayerID == playerID {
			c.StarEvents++
		}
	}
	return c
}

// sessionStandings replays a session hand by hand. It reports whether the
// player was ever strictly last after a completed hand, and returns the
// final totals including star penalties.
func sessionStandings(s tarot.Session, hands []tarot.Hand, handScores map[uuid.UUID][]tarot.ScoreEntry, all []tarot.ScoreEntry, playerID uuid.UUID) (bool, map[uuid.UUID]int) {
	running := make(map[uuid.UUID]int, len(s.PlayerIDs))
	for _, p := range s.PlayerIDs {
		running[p] = 0
	}
	wasLast := false
	for _, h := range hands {
		if h.SessionID != s.ID {
			continue
		}
		for _, e := range handScores[h.ID] {
			running[e.PlayerID] += e.Score
		}
		if uniqueExtreme(running, playerID, false) {
			wasLast = true
		}
	}

	final := make(map[uuid.UUID]int, len(s.PlayerIDs))
	for _, p := range s.PlayerIDs {
		final[p] = 0
	}
	for _, e := range all {
		if e.SessionID == s.ID {
			final[e.PlayerID] += e.Score
		}
	}
	return wasLast, final
}

// uniqueExtreme reports whether playerID holds the maximum (or minimum)
// total alone.
func uniqueExtreme(totals map[uuid.UUID]int, playerID uuid.UUID, highest bool) bool {
	mine, ok := totals[playerID]
	if !ok || len(totals) < 2 {
		return false
	}
	for id, v := range totals {
		if id == playerID {
			continue
		}
		if highest && v >= mine {
			return false
		}
		if !highest && v <= mine {
			return false
		}
	}
	return true
}
