package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tarotscore/internal/tarot"
)

// Store wraps a gorm DB instance and provides helper methods for persisting
// sessions, hands and their derived rows.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePlayer inserts a player.
func (s *Store) CreatePlayer(ctx context.Context, p tarot.Player) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(&Player{ID: p.ID, Name: p.Name}).Error
}

// CreateGroup inserts a player group.
func (s *Store) CreateGroup(ctx context.Context, id uuid.UUID, name string) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(&PlayerGroup{ID: id, Name: name}).Error
}

// PlayersExist reports whether every id belongs to a registered player.
func (s *Store) PlayersExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if s == nil {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&Player{}).Where("id IN ?", ids).Count(&n).Error
	return n == int64(len(ids)), err
}

// GroupExists reports whether the group is registered.
func (s *Store) GroupExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if s == nil {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&PlayerGroup{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CreateSession inserts a session with its seating order.
func (s *Store) CreateSession(ctx context.Context, sess tarot.Session) error {
	if s == nil {
		return nil
	}
	row := Session{ID: sess.ID, GroupID: sess.GroupID, IsActive: sess.IsActive, CreatedAt: sess.CreatedAt}
	for seat, id := range sess.PlayerIDs {
		row.Players = append(row.Players, SessionPlayer{ID: uuid.New(), PlayerID: id, Seat: seat})
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Session loads a session with its seated players.
func (s *Store) Session(ctx context.Context, id uuid.UUID) (tarot.Session, error) {
	if s == nil {
		return tarot.Session{}, gorm.ErrRecordNotFound
	}
	var row Session
	if err := s.db.WithContext(ctx).Preload("Players").First(&row, "id = ?", id).Error; err != nil {
		return tarot.Session{}, err
	}
	return toSession(row), nil
}

// CloseSession marks a session inactive.
func (s *Store) CloseSession(ctx context.Context, id uuid.UUID) error {
	if s == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(map[string]any{"is_active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Hand loads a hand.
func (s *Store) Hand(ctx context.Context, id uuid.UUID) (tarot.Hand, error) {
	if s == nil {
		return tarot.Hand{}, gorm.ErrRecordNotFound
	}
	var row Hand
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return tarot.Hand{}, err
	}
	return toHand(row), nil
}

// SessionHands returns the hands of a session ordered by position.
func (s *Store) SessionHands(ctx context.Context, sessionID uuid.UUID) ([]tarot.Hand, error) {
	if s == nil {
		return nil, nil
	}
	var rows []Hand
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tarot.Hand, 0, len(rows))
	for _, r := range rows {
		out = append(out, toHand(r))
	}
	return out, nil
}

// CreateHand inserts an in-progress hand.
func (s *Store) CreateHand(ctx context.Context, h tarot.Hand) error {
	if s == nil {
		return nil
	}
	row := fromHand(h)
	return s.db.WithContext(ctx).Create(&row).Error
}

// SaveHandResult stores the hand and replaces its score entries and rating
// rows in one transaction.
func (s *Store) SaveHandResult(ctx context.Context, h tarot.Hand, scores []tarot.ScoreEntry, ratings []tarot.EloEntry) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := fromHand(h)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("hand_id = ?", h.ID).Delete(&ScoreEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hand_id = ?", h.ID).Delete(&EloHistory{}).Error; err != nil {
			return err
		}
		if len(scores) > 0 {
			rows := make([]ScoreEntry, 0, len(scores))
			for _, e := range scores {
				rows = append(rows, fromScore(e))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if len(ratings) > 0 {
			rows := make([]EloHistory, 0, len(ratings))
			for _, e := range ratings {
				rows = append(rows, fromElo(e))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteHand removes a hand with its score entries and rating rows.
func (s *Store) DeleteHand(ctx context.Context, id uuid.UUID) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hand_id = ?", id).Delete(&ScoreEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hand_id = ?", id).Delete(&EloHistory{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Hand{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// HandElo returns the rating rows written for a hand.
func (s *Store) HandElo(ctx context.Context, handID uuid.UUID) ([]tarot.EloEntry, error) {
	if s == nil {
		return nil, nil
	}
	var rows []EloHistory
	if err := s.db.WithContext(ctx).Where("hand_id = ?", handID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tarot.EloEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, toElo(r))
	}
	return out, nil
}

// CurrentRatings returns the latest rating of each player that has one.
func (s *Store) CurrentRatings(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(playerIDs))
	if s == nil || len(playerIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PlayerID    uuid.UUID
		RatingAfter int
	}
	err := s.db.WithContext(ctx).
		Model(&EloHistory{}).
		Select("DISTINCT ON (player_id) player_id, rating_after").
		Where("player_id IN ?", playerIDs).
		Order("player_id, id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PlayerID] = r.RatingAfter
	}
	return out, nil
}

// CountStars counts the stars a player received in a session.
func (s *Store) CountStars(ctx context.Context, sessionID, playerID uuid.UUID) (int, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Model(&StarEvent{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Count(&n).Error
	return int(n), err
}

// AddStar stores the star event and any penalty entries together.
func (s *Store) AddStar(ctx context.Context, ev tarot.StarEvent, penalty []tarot.ScoreEntry) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := StarEvent{ID: ev.ID, SessionID: ev.SessionID, PlayerID: ev.PlayerID, CreatedAt: ev.CreatedAt}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(penalty) == 0 {
			return nil
		}
		rows := make([]ScoreEntry, 0, len(penalty))
		for _, e := range penalty {
			rows = append(rows, fromScore(e))
		}
		return tx.Create(&rows).Error
	})
}

// PlayerBadges returns the badges a player already holds.
func (s *Store) PlayerBadges(ctx context.Context, playerID uuid.UUID) ([]tarot.PlayerBadge, error) {
	if s == nil {
		return nil, nil
	}
	var rows []PlayerBadge
	if err := s.db.WithContext(ctx).Where("player_id = ?", playerID).Order("unlocked_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tarot.PlayerBadge, 0, len(rows))
	for _, r := range rows {
		out = append(out, toBadge(r))
	}
	return out, nil
}

// AwardBadges inserts unlocked badges, ignoring ones already held.
func (s *Store) AwardBadges(ctx context.Context, badges []tarot.PlayerBadge) error {
	if s == nil || len(badges) == 0 {
		return nil
	}
	rows := make([]PlayerBadge, 0, len(badges))
	for _, b := range badges {
		rows = append(rows, PlayerBadge{ID: uuid.New(), PlayerID: b.PlayerID, BadgeType: b.Badge, UnlockedAt: b.UnlockedAt})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Snapshot loads every row used by the statistics views.
func (s *Store) Snapshot(ctx context.Context) (tarot.Snapshot, error) {
	if s == nil {
		return tarot.Snapshot{}, nil
	}
	var sessions []Session
	if err := s.db.WithContext(ctx).Preload("Players").Order("created_at").Find(&sessions).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	return s.load(ctx, sessions, nil)
}

// SessionSnapshot loads one session with its hands, scores and stars.
func (s *Store) SessionSnapshot(ctx context.Context, sessionID uuid.UUID) (tarot.Snapshot, error) {
	if s == nil {
		return tarot.Snapshot{}, nil
	}
	var sessions []Session
	if err := s.db.WithContext(ctx).Preload("Players").Where("id = ?", sessionID).Find(&sessions).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	return s.load(ctx, sessions, []uuid.UUID{sessionID})
}

// PlayerHistory loads every session the player sat in, with the rows
// needed to evaluate badges.
func (s *Store) PlayerHistory(ctx context.Context, playerID uuid.UUID) (tarot.Snapshot, error) {
	if s == nil {
		return tarot.Snapshot{}, nil
	}
	seated := s.db.Model(&SessionPlayer{}).Select("session_id").Where("player_id = ?", playerID)
	var sessions []Session
	if err := s.db.WithContext(ctx).Preload("Players").Where("id IN (?)", seated).Order("created_at").Find(&sessions).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	return s.load(ctx, sessions, ids)
}

// load completes a snapshot from the given sessions. A nil sessionIDs loads
// every hand, score, star and rating row.
func (s *Store) load(ctx context.Context, sessions []Session, sessionIDs []uuid.UUID) (tarot.Snapshot, error) {
	if sessionIDs != nil && len(sessionIDs) == 0 {
		return tarot.Snapshot{}, nil
	}
	db := s.db.WithContext(ctx)
	scoped := func(q *gorm.DB) *gorm.DB {
		if sessionIDs == nil {
			return q
		}
		return q.Where("session_id IN ?", sessionIDs)
	}

	var (
		players []Player
		hands   []Hand
		scores  []ScoreEntry
		stars   []StarEvent
		ratings []EloHistory
		badges  []PlayerBadge
	)
	if err := db.Order("name").Find(&players).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	if err := scoped(db.Model(&Hand{})).Order("created_at, position").Find(&hands).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	if err := scoped(db.Model(&ScoreEntry{})).Order("created_at").Find(&scores).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	if err := scoped(db.Model(&StarEvent{})).Order("created_at").Find(&stars).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	handIDs := db.Model(&Hand{}).Select("id")
	if sessionIDs != nil {
		handIDs = handIDs.Where("session_id IN ?", sessionIDs)
	}
	if err := db.Where("hand_id IN (?)", handIDs).Order("id").Find(&ratings).Error; err != nil {
		return tarot.Snapshot{}, err
	}
	if err := db.Order("unlocked_at").Find(&badges).Error; err != nil {
		return tarot.Snapshot{}, err
	}

	snap := tarot.Snapshot{}
	for _, p := range players {
		snap.Players = append(snap.Players, tarot.Player{ID: p.ID, Name: p.Name})
	}
	for _, sess := range sessions {
		snap.Sessions = append(snap.Sessions, toSession(sess))
	}
	for _, h := range hands {
		snap.Hands = append(snap.Hands, toHand(h))
	}
	for _, e := range scores {
		snap.Scores = append(snap.Scores, toScore(e))
	}
	for _, e := range stars {
		snap.Stars = append(snap.Stars, toStar(e))
	}
	for _, e := range ratings {
		snap.Elo = append(snap.Elo, toElo(e))
	}
	for _, b := range badges {
		snap.Badges = append(snap.Badges, toBadge(b))
	}
	return snap, nil
}
