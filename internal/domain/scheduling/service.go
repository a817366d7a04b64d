package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/pkg/date"
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

// TxRunner runs fn atomically; in production it wraps fn in a database
// transaction placed in the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// DayLocker serializes bookings for one calendar date. The production
// implementation takes a transaction-scoped advisory lock, making the
// conflict scan and the insert one atomic step against concurrent bookings.
type DayLocker func(ctx context.Context, date string) error

// SlotConfig carries the clinic calendar rules used by the slot engine.
type SlotConfig struct {
	Hours          WeeklyHours
	GranularityMin int
	Exclusions     []Window
}

type Service struct {
	types   AppointmentTypeRepository
	appts   AppointmentRepository
	runTx   TxRunner
	lockDay DayLocker
	slots   SlotConfig
}

func NewService(types AppointmentTypeRepository, appts AppointmentRepository, runTx TxRunner, lockDay DayLocker, slots SlotConfig) *Service {
	if slots.Hours == nil {
		slots.Hours = DefaultWeeklyHours()
	}
	if slots.GranularityMin <= 0 {
		slots.GranularityMin = 30
	}
	return &Service{types: types, appts: appts, runTx: runTx, lockDay: lockDay, slots: slots}
}

// -- AppointmentType --

func (s *Service) CreateType(ctx context.Context, t *AppointmentType) error {
	if t.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if t.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes", "must be positive")
	}
	return s.types.Create(ctx, t)
}

func (s *Service) GetType(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return s.types.GetByID(ctx, id)
}

func (s *Service) UpdateType(ctx context.Context, t *AppointmentType) error {
	if _, err := s.types.GetByID(ctx, t.ID); err != nil {
		return err
	}
	if t.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if t.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes", "must be positive")
	}
	return s.types.Update(ctx, t)
}

func (s *Service) DeleteType(ctx context.Context, id uuid.UUID) error {
	return s.types.Delete(ctx, id)
}

func (s *Service) ListTypes(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error) {
	return s.types.List(ctx, limit, offset)
}

// -- Appointment --

func (s *Service) validateAppointment(a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id", "is required")
	}
	if a.Date.IsZero() {
		return apperr.Validation("date", "is required")
	}
	if a.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes", "must be positive")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return apperr.Validation("status", "invalid status %q", a.Status)
	}
	return nil
}

// CreateAppointment books a slot. The conflict scan and the insert run in one
// transaction serialized per date, so two concurrent requests for overlapping
// slots cannot both pass the scan.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validateAppointment(a); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.lockDay(ctx, a.Date.String()); err != nil {
			return err
		}
		if a.IsScheduled() {
			existing, err := s.appts.ListByDate(ctx, a.Date)
			if err != nil {
				return err
			}
			if err := CheckConflict(a, existing, uuid.Nil); err != nil {
				return err
			}
		}
		return s.appts.Create(ctx, a)
	})
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

// UpdateAppointment revalidates the booking against its (possibly new) date,
// excluding the appointment itself from the conflict scan.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if _, err := s.appts.GetByID(ctx, a.ID); err != nil {
		return err
	}
	if err := s.validateAppointment(a); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.lockDay(ctx, a.Date.String()); err != nil {
			return err
		}
		if a.IsScheduled() {
			existing, err := s.appts.ListByDate(ctx, a.Date)
			if err != nil {
				return err
			}
			if err := CheckConflict(a, existing, a.ID); err != nil {
				return err
			}
		}
		return s.appts.Update(ctx, a)
	})
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appts.Delete(ctx, id)
}

func (s *Service) SearchAppointments(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.Search(ctx, params, limit, offset)
}

// AppointmentsByDateRange groups appointments by date for the calendar view.
func (s *Service) AppointmentsByDateRange(ctx context.Context, start, end date.Date) (map[string][]*Appointment, error) {
	if end.Before(start) {
		return nil, apperr.Validation("end", "must not be before start")
	}
	appts, err := s.appts.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]*Appointment)
	for _, a := range appts {
		key := a.Date.String()
		grouped[key] = append(grouped[key], a)
	}
	return grouped, nil
}

// DayAvailability is the available_slots payload for one date.
type DayAvailability struct {
	Date   date.Date  `json:"date"`
	Open   bool       `json:"open"`
	Reason string     `json:"reason,omitempty"`
	Slots  []SlotView `json:"slots"`
}

// SlotView pairs a slot start time with its 12-hour display form.
type SlotView struct {
	Time    string `json:"time"`
	Display string `json:"display"`
}

// AvailableSlots computes the open slots for one date from the configured
// clinic hours and that date's bookings.
func (s *Service) AvailableSlots(ctx context.Context, d date.Date) (*DayAvailability, error) {
	appts, err := s.appts.ListByDate(ctx, d)
	if err != nil {
		return nil, err
	}

	starts, open := AvailableSlots(d, s.slots.Hours, s.slots.GranularityMin, s.slots.Exclusions, appts)
	out := &DayAvailability{Date: d, Open: open, Slots: []SlotView{}}
	if !open {
		out.Reason = "clinic closed"
		return out, nil
	}
	for _, st := range starts {
		out.Slots = append(out.Slots, SlotView{Time: st.String(), Display: st.Display()})
	}
	return out, nil
}

// AppointmentCounts returns per-day appointment counts for a calendar month.
func (s *Service) AppointmentCounts(ctx context.Context, year, month int) (map[string]int, error) {
	if month < 1 || month > 12 {
		return nil, apperr.Validation("month", "must be between 1 and 12")
	}
	if year < 1 {
		return nil, apperr.Validation("year", "must be positive")
	}
	return s.appts.CountsByMonth(ctx, year, month)
}
