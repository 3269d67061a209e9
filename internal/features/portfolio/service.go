package portfolio

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Store persists portfolio balances. *Repository implements it.
type Store interface {
	List(ctx context.Context) ([]Program, error)
	Upsert(ctx context.Context, p Program) error
	SeedIfEmpty(ctx context.Context, programs []Program) (bool, error)
	UpdateBalance(ctx context.Context, code string, balance int64) (bool, error)
	Delete(ctx context.Context, code string) (bool, error)
}

// Service keeps the in-memory Manager and the store in step. Storage is
// written first so a failed write never leaves memory ahead of it.
type Service struct {
	store   Store
	manager *Manager
}

// NewService wires a store to a manager.
func NewService(store Store, manager *Manager) *Service {
	return &Service{store: store, manager: manager}
}

// Manager exposes the resolver for read-only queries.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Load seeds storage from the configured portfolio on first start, then
// replaces the manager's programs with what storage holds.
func (s *Service) Load(ctx context.Context, seed []Program) error {
	seeded, err := s.store.SeedIfEmpty(ctx, normalizePrograms(seed))
	if err != nil {
		return err
	}
	if seeded {
		log.WithField("programs", len(seed)).Info("Portfolio seeded from config file")
	}

	programs, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.manager.SetPrograms(programs)

	log.WithFields(log.Fields{
		"programs":     len(programs),
		"total_points": s.manager.TotalPoints(),
	}).Info("Portfolio loaded")
	return nil
}

// UpdateBalance sets a balance. It returns false when the program is not
// held.
func (s *Service) UpdateBalance(ctx context.Context, code string, balance int64) (bool, error) {
	if balance < 0 {
		return false, common.ErrInvalidBalance
	}
	code = common.NormalizeCode(code)

	if _, ok := s.manager.Program(code); !ok {
		return false, nil
	}
	found, err := s.store.UpdateBalance(ctx, code, balance)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	old := s.manager.Balance(code)
	if _, err := s.manager.UpdateBalance(code, balance); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"program": code,
		"old":     old,
		"new":     balance,
	}).Info("Balance updated")
	return true, nil
}

// AddProgram upserts a program.
func (s *Service) AddProgram(ctx context.Context, p Program) error {
	p.Code = common.NormalizeCode(p.Code)
	if p.Code == "" {
		return common.ErrEmptyCode
	}
	if p.Balance < 0 {
		return common.ErrInvalidBalance
	}
	if p.Name == "" {
		p.Name = s.manager.ProgramName(p.Code)
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		return err
	}
	if err := s.manager.AddProgram(p); err != nil {
		return fmt.Errorf("add program %s: %w", p.Code, err)
	}

	log.WithFields(log.Fields{"program": p.Code, "balance": p.Balance}).Info("Program saved")
	return nil
}

// RemoveProgram deletes a program. It returns false when it was not held.
func (s *Service) RemoveProgram(ctx context.Context, code string) (bool, error) {
	code = common.NormalizeCode(code)

	if _, err := s.store.Delete(ctx, code); err != nil {
		return false, err
	}
	removed := s.manager.RemoveProgram(code)
	if removed {
		log.WithField("program", code).Info("Program removed")
	}
	return removed, nil
}
