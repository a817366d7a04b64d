package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/internal/platform/db"
	"github.com/smilecare/smilecare/pkg/date"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== AppointmentType Repository ===========

type typeRepoPG struct{ pool *pgxpool.Pool }

func NewTypeRepoPG(pool *pgxpool.Pool) AppointmentTypeRepository { return &typeRepoPG{pool: pool} }

func (r *typeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const typeCols = `id, name, duration_minutes, color_code, description, created_at, updated_at`

func scanType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType
	err := row.Scan(&t.ID, &t.Name, &t.DurationMinutes, &t.ColorCode, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment type")
	}
	return &t, err
}

func (r *typeRepoPG) Create(ctx context.Context, t *AppointmentType) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_types (id, name, duration_minutes, color_code, description)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Name, t.DurationMinutes, t.ColorCode, t.Description)
	return err
}

func (r *typeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return scanType(r.conn(ctx).QueryRow(ctx, `SELECT `+typeCols+` FROM appointment_types WHERE id = $1`, id))
}

func (r *typeRepoPG) Update(ctx context.Context, t *AppointmentType) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_types SET name=$2, duration_minutes=$3, color_code=$4, description=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.DurationMinutes, t.ColorCode, t.Description)
	return err
}

func (r *typeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment type")
	}
	return nil
}

func (r *typeRepoPG) List(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment_types`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+typeCols+` FROM appointment_types ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AppointmentType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// =========== Appointment Repository ===========

type apptRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository { return &apptRepoPG{pool: pool} }

func (r *apptRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `a.id, a.patient_id, p.first_name || ' ' || p.last_name, a.appointment_type_id,
	a.date, a.start_time::text, a.duration_minutes, a.status, a.notes, a.created_at, a.updated_at`

const apptFrom = ` FROM appointments a JOIN patients p ON p.id = a.patient_id`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.AppointmentTypeID,
		&a.Date, &a.StartTime, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	return &a, err
}

func (r *apptRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, appointment_type_id, date, start_time, duration_minutes, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.AppointmentTypeID, a.Date, a.StartTime, a.DurationMinutes, a.Status, a.Notes)
	return err
}

func (r *apptRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
}

func (r *apptRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET patient_id=$2, appointment_type_id=$3, date=$4, start_time=$5,
			duration_minutes=$6, status=$7, notes=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.AppointmentTypeID, a.Date, a.StartTime, a.DurationMinutes, a.Status, a.Notes)
	return err
}

func (r *apptRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment")
	}
	return nil
}

func (r *apptRepoPG) ListByDate(ctx context.Context, d date.Date) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+apptFrom+` WHERE a.date = $1 ORDER BY a.start_time`, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppts(rows)
}

func (r *apptRepoPG) ListByDateRange(ctx context.Context, start, end date.Date) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+apptFrom+` WHERE a.date BETWEEN $1 AND $2 ORDER BY a.date, a.start_time`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppts(rows)
}

func (r *apptRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + apptFrom + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*)` + apptFrom + ` WHERE 1=1`
	var args []interface{}
	idx := 1

	for param, col := range map[string]string{
		"date":    "a.date",
		"status":  "a.status",
		"patient": "a.patient_id",
		"type":    "a.appointment_type_id",
	} {
		if p, ok := params[param]; ok {
			clause := fmt.Sprintf(` AND %s = $%d`, col, idx)
			query += clause
			countQuery += clause
			args = append(args, p)
			idx++
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY a.date DESC, a.start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppts(rows)
	return items, total, err
}

func (r *apptRepoPG) CountsByMonth(ctx context.Context, year, month int) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT date::text, COUNT(*) FROM appointments
		WHERE EXTRACT(YEAR FROM date) = $1 AND EXTRACT(MONTH FROM date) = $2
		GROUP BY date`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

func collectAppts(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
