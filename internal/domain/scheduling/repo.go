package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
)

type AppointmentTypeRepository interface {
	Create(ctx context.Context, t *AppointmentType) error
	GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error)
	Update(ctx context.Context, t *AppointmentType) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDate returns all appointments on a date, patient name included.
	ListByDate(ctx context.Context, d date.Date) ([]*Appointment, error)
	ListByDateRange(ctx context.Context, start, end date.Date) ([]*Appointment, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	// CountsByMonth returns per-day appointment counts for a calendar month,
	// keyed by YYYY-MM-DD.
	CountsByMonth(ctx context.Context, year, month int) (map[string]int, error)
}
