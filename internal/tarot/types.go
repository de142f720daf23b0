package tarot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contract is the bid announced by the taker.
type Contract string

const (
	Petite      Contract = "petite"
	Garde       Contract = "garde"
	GardeSans   Contract = "garde_sans"
	GardeContre Contract = "garde_contre"
)

// Contracts lists every contract from the lowest bid to the highest.
var Contracts = []Contract{Petite, Garde, GardeSans, GardeContre}

// Multiplier returns the score multiplier of the contract.
func (c Contract) Multiplier() (int, error) {
	switch c {
	case Petite:
		return 1, nil
	case Garde:
		return 2, nil
	case GardeSans:
		return 4, nil
	case GardeContre:
		return 6, nil
	}
	return 0, fmt.Errorf("%w: unknown contract %q", ErrInvalidInput, string(c))
}

// Valid reports whether c is a known contract.
func (c Contract) Valid() bool {
	_, err := c.Multiplier()
	return err == nil
}

// Poignee is the size of the trump handful shown during a hand.
type Poignee string

const (
	PoigneeNone   Poignee = "none"
	PoigneeSimple Poignee = "simple"
	PoigneeDouble Poignee = "double"
	PoigneeTriple Poignee = "triple"
)

// Bonus returns the flat bonus of the handful.
func (p Poignee) Bonus() (int, error) {
	switch p {
	case PoigneeNone, "":
		return 0, nil
	case PoigneeSimple:
		return 20, nil
	case PoigneeDouble:
		return 30, nil
	case PoigneeTriple:
		return 40, nil
	}
	return 0, fmt.Errorf("%w: unknown poignee %q", ErrInvalidInput, string(p))
}

// Side identifies the attack (taker and partner) or the defence.
type Side string

const (
	SideNone    Side = "none"
	SideAttack  Side = "attack"
	SideDefense Side = "defense"
)

func (s Side) valid() bool {
	switch s {
	case SideNone, "", SideAttack, SideDefense:
		return true
	}
	return false
}

// Chelem is the slam outcome of a hand.
type Chelem string

const (
	ChelemNone            Chelem = "none"
	ChelemAnnouncedWon    Chelem = "announced_won"
	ChelemAnnouncedLost   Chelem = "announced_lost"
	ChelemNotAnnouncedWon Chelem = "not_announced_won"
)

// Bonus returns the flat slam bonus credited to the attack.
func (c Chelem) Bonus() (int, error) {
	switch c {
	case ChelemNone, "":
		return 0, nil
	case ChelemAnnouncedWon:
		return 400, nil
	case ChelemAnnouncedLost:
		return -200, nil
	case ChelemNotAnnouncedWon:
		return 200, nil
	}
	return 0, fmt.Errorf("%w: unknown chelem %q", ErrInvalidInput, string(c))
}

// HandStatus tracks whether a hand has been scored.
type HandStatus string

const (
	InProgress HandStatus = "in_progress"
	Completed  HandStatus = "completed"
)

// SessionSize is the number of players seated in a session.
const SessionSize = 5

// Player is a registered player.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Session is a fixed group of players and its hands.
type Session struct {
	ID        uuid.UUID   `json:"id"`
	GroupID   *uuid.UUID  `json:"groupId,omitempty"`
	PlayerIDs []uuid.UUID `json:"playerIds"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
}

// HasPlayer reports whether id is seated in the session.
func (s Session) HasPlayer(id uuid.UUID) bool {
	for _, p := range s.PlayerIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Hand is one round of play ("donne").
type Hand struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    uuid.UUID  `json:"sessionId"`
	Position     int        `json:"position"`
	Contract     Contract   `json:"contract"`
	TakerID      uuid.UUID  `json:"takerId"`
	PartnerID    *uuid.UUID `json:"partnerId"`
	Oudlers      *int       `json:"oudlers"`
	Points       *float64   `json:"points"`
	Poignee      Poignee    `json:"poignee"`
	PoigneeOwner Side       `json:"poigneeOwner"`
	PetitAuBout  Side       `json:"petitAuBout"`
	Chelem       Chelem     `json:"chelem"`
	Status       HandStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// IsCompleted reports whether the hand has been scored.
func (h Hand) IsCompleted() bool {
	return h.Status == Completed
}

// IsPartner reports whether id was called as partner.
func (h Hand) IsPartner(id uuid.UUID) bool {
	return h.PartnerID != nil && *h.PartnerID == id
}

// ScoreEntry is a score delta for one player. HandID is nil for star
// penalty entries.
type ScoreEntry struct {
	ID        uuid.UUID  `json:"id"`
	SessionID uuid.UUID  `json:"sessionId"`
	HandID    *uuid.UUID `json:"handId"`
	PlayerID  uuid.UUID  `json:"playerId"`
	Score     int        `json:"score"`
	CreatedAt time.Time  `json:"createdAt"`
}

// StarEvent is a penalty marker given to a player during a session.
type StarEvent struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	PlayerID  uuid.UUID `json:"playerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// EloEntry is one row of a player's rating history. Seq orders rows by
// insertion.
type EloEntry struct {
	Seq          int64     `json:"-"`
	PlayerID     uuid.UUID `json:"playerId"`
	HandID       uuid.UUID `json:"handId"`
	RatingBefore int       `json:"ratingBefore"`
	RatingAfter  int       `json:"ratingAfter"`
	RatingChange int       `json:"ratingChange"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PlayerBadge records a badge unlocked by a player.
type PlayerBadge struct {
	PlayerID   uuid.UUID `json:"playerId"`
	Badge      string    `json:"badge"`
	UnlockedAt time.Time `json:"unlockedAt"`
}
