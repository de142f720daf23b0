package storage

import (
	"sort"

	"tarotscore/internal/tarot"
)

func toSession(s Session) tarot.Session {
	players := append([]SessionPlayer(nil), s.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].Seat < players[j].Seat })
	out := tarot.Session{ID: s.ID, GroupID: s.GroupID, IsActive: s.IsActive, CreatedAt: s.CreatedAt}
	for _, p := range players {
		out.PlayerIDs = append(out.PlayerIDs, p.PlayerID)
	}
	return out
}

func toHand(h Hand) tarot.Hand {
	return tarot.Hand{
		ID:           h.ID,
		SessionID:    h.SessionID,
		Position:     h.Position,
		Contract:     tarot.Contract(h.Contract),
		TakerID:      h.TakerID,
		PartnerID:    h.PartnerID,
		Oudlers:      h.Oudlers,
		Points:       h.Points,
		Poignee:      tarot.Poignee(h.Poignee),
		PoigneeOwner: tarot.Side(h.PoigneeOwner),
		PetitAuBout:  tarot.Side(h.PetitAuBout),
		Chelem:       tarot.Chelem(h.Chelem),
		Status:       tarot.HandStatus(h.Status),
		CreatedAt:    h.CreatedAt,
		CompletedAt:  h.CompletedAt,
	}
}

func fromHand(h tarot.Hand) Hand {
	return Hand{
		ID:           h.ID,
		SessionID:    h.SessionID,
		Position:     h.Position,
		Contract:     string(h.Contract),
		TakerID:      h.TakerID,
		PartnerID:    h.PartnerID,
		Oudlers:      h.Oudlers,
		Points:       h.Points,
		Poignee:      string(h.Poignee),
		PoigneeOwner: string(h.PoigneeOwner),
		PetitAuBout:  string(h.PetitAuBout),
		Chelem:       string(h.Chelem),
		Status:       string(h.Status),
		CreatedAt:    h.CreatedAt,
		CompletedAt:  h.CompletedAt,
	}
}

func toScore(e ScoreEntry) tarot.ScoreEntry {
	return tarot.ScoreEntry{ID: e.ID, SessionID: e.SessionID, HandID: e.HandID, PlayerID: e.PlayerID, Score: e.Score, CreatedAt: e.CreatedAt}
}

func fromScore(e tarot.ScoreEntry) ScoreEntry {
	return ScoreEntry{ID: e.ID, SessionID: e.SessionID, HandID: e.HandID, PlayerID: e.PlayerID, Score: e.Score, CreatedAt: e.CreatedAt}
}

func toStar(e StarEvent) tarot.StarEvent {
	return tarot.StarEvent{ID: e.ID, SessionID: e.SessionID, PlayerID: e.PlayerID, CreatedAt: e.CreatedAt}
}

func toElo(e EloHistory) tarot.EloEntry {
	return tarot.EloEntry{
		Seq:          e.ID,
		PlayerID:     e.PlayerID,
		HandID:       e.HandID,
		RatingBefore: e.RatingBefore,
		RatingAfter:  e.RatingAfter,
		RatingChange: e.RatingChange,
		CreatedAt:    e.CreatedAt,
	}
}

func fromElo(e tarot.EloEntry) EloHistory {
	return EloHistory{
		PlayerID:     e.PlayerID,
		HandID:       e.HandID,
		RatingBefore: e.RatingBefore,
		RatingAfter:  e.RatingAfter,
		RatingChange: e.RatingChange,
		CreatedAt:    e.CreatedAt,
	}
}

func toBadge(b PlayerBadge) tarot.PlayerBadge {
	return tarot.PlayerBadge{PlayerID: b.PlayerID, Badge: b.BadgeType, UnlockedAt: b.UnlockedAt}
}
