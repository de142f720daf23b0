package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tarotscore/internal/stats"
	"tarotscore/internal/summary"
	"tarotscore/internal/tarot"
)

// EloView bundles the rating ranking and the per-player series.
type EloView struct {
	Ranking   []stats.EloRank   `json:"ranking"`
	Evolution []stats.EloSeries `json:"evolution"`
}

// snapshot loads every row, restricted to a player group when groupID is
// set.
func (s *Service) snapshot(ctx context.Context, groupID *uuid.UUID) (tarot.Snapshot, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return tarot.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap.FilterSessions(snap.InGroup(groupID)), nil
}

// Statistics returns the global statistics.
func (s *Service) Statistics(ctx context.Context, groupID *uuid.UUID) (stats.Global, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return stats.Global{}, err
	}
	return stats.BuildGlobal(snap), nil
}

// ContractStatistics returns contract success rates by player.
func (s *Service) ContractStatistics(ctx context.Context, groupID *uuid.UUID) ([]stats.PlayerContracts, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return stats.ContractSuccessRates(snap), nil
}

// EloStatistics returns the rating ranking and history.
func (s *Service) EloStatistics(ctx context.Context, groupID *uuid.UUID) (EloView, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return EloView{}, err
	}
	var view EloView
	var g errgroup.Group
	g.Go(func() error {
		view.Ranking = stats.EloRanking(snap)
		return nil
	})
	g.Go(func() error {
		view.Evolution = stats.EloEvolution(snap)
		return nil
	})
	_ = g.Wait()
	return view, nil
}

// PlayerStatistics returns the detail page of a player.
func (s *Service) PlayerStatistics(ctx context.Context, playerID uuid.UUID, groupID *uuid.UUID) (stats.PlayerStats, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	ps, ok := stats.PlayerDetail(snap, playerID)
	if !ok {
		return stats.PlayerStats{}, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return ps, nil
}

// SessionSummary returns the recap of a session.
func (s *Service) SessionSummary(ctx context.Context, sessionID uuid.UUID) (summary.Summary, error) {
	snap, err := s.store.SessionSnapshot(ctx, sessionID)
	if err != nil {
		return summary.Summary{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	sum, err := summary.Build(snap, sessionID)
	if errors.Is(err, summary.ErrUnknownSession) {
		return summary.Summary{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return sum, err
}
