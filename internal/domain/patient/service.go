package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/platform/apperr"
)

var validPreferredTimes = map[string]bool{
	PreferredMorning: true, PreferredAfternoon: true, PreferredEvening: true,
}

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) validate(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return apperr.Validation("first_name", "is required")
	}
	if p.LastName == "" {
		return apperr.Validation("last_name", "is required")
	}
	if p.DateOfBirth.IsZero() {
		return apperr.Validation("date_of_birth", "is required")
	}
	if p.PreferredTime != nil && !validPreferredTimes[*p.PreferredTime] {
		return apperr.Validation("preferred_time", "must be morning, afternoon or evening")
	}
	if p.Email != nil && *p.Email != "" {
		existing, err := s.patients.GetByEmail(ctx, *p.Email)
		if err != nil && !apperr.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.ID != p.ID {
			return apperr.Validation("email", "already registered to another patient")
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if _, err := s.patients.GetByID(ctx, p.ID); err != nil {
		return err
	}
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, params, limit, offset)
}
