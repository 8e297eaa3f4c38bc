package resident

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/db"
)

// Reader abstracts repository operations for the service.
type Reader interface {
	GetByID(ctx context.Context, id string) (Resident, error)
	Search(ctx context.Context, name string, limit int) ([]Resident, error)
}

type Service struct {
	repo Reader
}

func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (Resident, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resident{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Search returns up to limit residents whose name starts with name. Limit
// defaults to 10 and is capped at 50.
func (s *Service) Search(ctx context.Context, name string, limit int) ([]Resident, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []Resident{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.repo.Search(ctx, db.EscapeLike(name), limit)
}

// ResolveParty fills a blotter party from the registry.
func (s *Service) ResolveParty(ctx context.Context, residentID string) (blotter.Party, error) {
	res, err := s.Get(ctx, residentID)
	if err != nil {
		return blotter.Party{}, err
	}
	id := res.ID
	return blotter.Party{
		ResidentID: &id,
		Name:       res.FullName(),
		Address:    res.FullAddress(),
		Contact:    res.Contact,
	}, nil
}
