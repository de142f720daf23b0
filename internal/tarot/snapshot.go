package tarot

import (
	"sort"

	"github.com/google/uuid"
)

// Snapshot is an immutable set of rows the aggregators work on.
type Snapshot struct {
	Players  []Player
	Sessions []Session
	Hands    []Hand
	Scores   []ScoreEntry
	Stars    []StarEvent
	Elo      []EloEntry
	Badges   []PlayerBadge
}

// FilterSessions keeps only the rows tied to sessions accepted by keep.
// Players and badges are not session scoped and are kept as is.
func (s Snapshot) FilterSessions(keep func(sessionID uuid.UUID) bool) Snapshot {
	if keep == nil {
		return s
	}
	out := Snapshot{Players: s.Players, Badges: s.Badges}
	for _, v := range s.Sessions {
		if keep(v.ID) {
			out.Sessions = append(out.Sessions, v)
		}
	}
	hands := make(map[uuid.UUID]struct{})
	for _, h := range s.Hands {
		if keep(h.SessionID) {
			out.Hands = append(out.Hands, h)
			hands[h.ID] = struct{}{}
		}
	}
	for _, e := range s.Scores {
		if keep(e.SessionID) {
			out.Scores = append(out.Scores, e)
		}
	}
	for _, e := range s.Stars {
		if keep(e.SessionID) {
			out.Stars = append(out.Stars, e)
		}
	}
	for _, e := range s.Elo {
		if _, ok := hands[e.HandID]; ok {
			out.Elo = append(out.Elo, e)
		}
	}
	return out
}

// InGroup returns a filter accepting the sessions of a player group. A nil
// group accepts every session.
func (s Snapshot) InGroup(groupID *uuid.UUID) func(uuid.UUID) bool {
	if groupID == nil {
		return nil
	}
	ids := make(map[uuid.UUID]struct{})
	for _, v := range s.Sessions {
		if v.GroupID != nil && *v.GroupID == *groupID {
			ids[v.ID] = struct{}{}
		}
	}
	return func(id uuid.UUID) bool {
		_, ok := ids[id]
		return ok
	}
}

// PlayerNames indexes player names by id.
func (s Snapshot) PlayerNames() map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(s.Players))
	for _, p := range s.Players {
		names[p.ID] = p.Name
	}
	return names
}

// SessionByID indexes sessions by id.
func (s Snapshot) SessionByID() map[uuid.UUID]Session {
	out := make(map[uuid.UUID]Session, len(s.Sessions))
	for _, v := range s.Sessions {
		out[v.ID] = v
	}
	return out
}

// CompletedHands returns the completed hands in chronological order:
// creation time, then position within the session.
func (s Snapshot) CompletedHands() []Hand {
	out := make([]Hand, 0, len(s.Hands))
	for _, h := range s.Hands {
		if h.IsCompleted() {
			out = append(out, h)
		}
	}
	SortChronological(out)
	return out
}

// HandScores groups hand score entries by hand id. Penalty entries are
// skipped.
func (s Snapshot) HandScores() map[uuid.UUID][]ScoreEntry {
	out := make(map[uuid.UUID][]ScoreEntry)
	for _, e := range s.Scores {
		if e.HandID != nil {
			out[*e.HandID] = append(out[*e.HandID], e)
		}
	}
	return out
}

// SortChronological orders hands by creation time, then position.
func SortChronological(hands []Hand) {
	sort.SliceStable(hands, func(i, j int) bool {
		if !hands[i].CreatedAt.Equal(hands[j].CreatedAt) {
			return hands[i].CreatedAt.Before(hands[j].CreatedAt)
		}
		return hands[i].Position < hands[j].Position
	})
}

// ScoreOf returns the score of playerID in entries.
func ScoreOf(entries []ScoreEntry, playerID uuid.UUID) (int, bool) {
	for _, e := range entries {
		if e.PlayerID == playerID {
			return e.Score, true
		}
	}
	return 0, false
}
