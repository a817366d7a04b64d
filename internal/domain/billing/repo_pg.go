package billing

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
	"github.com/smilecare/smilecare/pkg/money"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== DentalService Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

const svcCols = `id, code, name, description, default_price::text, is_active, created_at, updated_at`

func scanService(row pgx.Row) (*DentalService, error) {
	var s DentalService
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.DefaultPrice, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("dental service")
	}
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *DentalService) error {
	s.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO dental_services (id, code, name, description, default_price, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.Code, s.Name, s.Description, s.DefaultPrice, s.IsActive)
	return err
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DentalService, error) {
	return scanService(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+svcCols+` FROM dental_services WHERE id = $1`, id))
}

func (r *serviceRepoPG) GetByCode(ctx context.Context, code string) (*DentalService, error) {
	return scanService(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+svcCols+` FROM dental_services WHERE code = $1`, code))
}

func (r *serviceRepoPG) Update(ctx context.Context, s *DentalService) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE dental_services SET code=$2, name=$3, description=$4, default_price=$5, is_active=$6, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Code, s.Name, s.Description, s.DefaultPrice, s.IsActive)
	return err
}

func (r *serviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM dental_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("dental service")
	}
	return nil
}

func (r *serviceRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*DentalService, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE is_active`
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM dental_services`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+svcCols+` FROM dental_services`+where+` ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DentalService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

const invCols = `id, invoice_number, patient_id, created_by, issue_date, due_date, status,
	subtotal::text, tax_rate::text, discount::text, total::text, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.CreatedBy, &inv.IssueDate,
		&inv.DueDate, &inv.Status, &inv.Subtotal, &inv.TaxRate, &inv.Discount, &inv.Total,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invoice")
	}
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, patient_id, created_by, issue_date, due_date,
			status, subtotal, tax_rate, discount, total, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.CreatedBy, inv.IssueDate, inv.DueDate,
		inv.Status, inv.Subtotal, inv.TaxRate, inv.Discount, inv.Total, inv.Notes)
	return err
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+invCols+` FROM invoices WHERE id = $1`, id))
}

func (r *invoiceRepoPG) Lock(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+invCols+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
}

func (r *invoiceRepoPG) Update(ctx context.Context, inv *Invoice) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE invoices SET patient_id=$2, issue_date=$3, due_date=$4, status=$5, subtotal=$6,
			tax_rate=$7, discount=$8, total=$9, notes=$10, updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.PatientID, inv.IssueDate, inv.DueDate, inv.Status, inv.Subtotal,
		inv.TaxRate, inv.Discount, inv.Total, inv.Notes)
	return err
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice")
	}
	return nil
}

func (r *invoiceRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	query := `SELECT ` + invCols + ` FROM invoices WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM invoices WHERE 1=1`
	var args []interface{}
	idx := 1

	for param, col := range map[string]string{
		"status":  "status",
		"patient": "patient_id",
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
	if err := conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY issue_date DESC, invoice_number LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}

func (r *invoiceRepoPG) Stats(ctx context.Context, from, to date.Date) (*Stats, error) {
	st := &Stats{MonthRevenue: money.Zero(), OutstandingAmount: money.Zero()}

	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text, COUNT(*)
		FROM payments
		WHERE status = $1 AND payment_date BETWEEN $2 AND $3`,
		PaymentCompleted, from, to).Scan(&st.MonthRevenue, &st.MonthPayments)
	if err != nil {
		return nil, err
	}

	err = conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices WHERE issue_date BETWEEN $1 AND $2`,
		from, to).Scan(&st.MonthInvoices)
	if err != nil {
		return nil, err
	}

	err = conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text, COUNT(*)
		FROM invoices WHERE status IN ($1, $2)`,
		InvoiceSent, InvoiceOverdue).Scan(&st.OutstandingAmount, &st.OutstandingCount)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// =========== InvoiceItem Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository { return &itemRepoPG{pool: pool} }

const itemCols = `id, invoice_id, service_id, description, quantity, unit_price::text, total_price::text, created_at, updated_at`

func scanItem(row pgx.Row) (*InvoiceItem, error) {
	var it InvoiceItem
	err := row.Scan(&it.ID, &it.InvoiceID, &it.ServiceID, &it.Description, &it.Quantity,
		&it.UnitPrice, &it.TotalPrice, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invoice item")
	}
	return &it, err
}

func (r *itemRepoPG) Create(ctx context.Context, it *InvoiceItem) error {
	it.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO invoice_items (id, invoice_id, service_id, description, quantity, unit_price, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		it.ID, it.InvoiceID, it.ServiceID, it.Description, it.Quantity, it.UnitPrice, it.TotalPrice)
	return err
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceItem, error) {
	return scanItem(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+itemCols+` FROM invoice_items WHERE id = $1`, id))
}

func (r *itemRepoPG) Update(ctx context.Context, it *InvoiceItem) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE invoice_items SET service_id=$2, description=$3, quantity=$4, unit_price=$5, total_price=$6, updated_at=NOW()
		WHERE id = $1`,
		it.ID, it.ServiceID, it.Description, it.Quantity, it.UnitPrice, it.TotalPrice)
	return err
}

func (r *itemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice item")
	}
	return nil
}

func (r *itemRepoPG) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+itemCols+` FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InvoiceItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// =========== Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

const payCols = `id, invoice_id, payment_date, amount::text, method, transaction_id, status, notes, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.PaymentDate, &p.Amount, &p.Method,
		&p.TransactionID, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("payment")
	}
	return &p, err
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO payments (id, invoice_id, payment_date, amount, method, transaction_id, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.InvoiceID, p.PaymentDate, p.Amount, p.Method, p.TransactionID, p.Status, p.Notes)
	return err
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+payCols+` FROM payments WHERE id = $1`, id))
}

func (r *paymentRepoPG) Update(ctx context.Context, p *Payment) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE payments SET payment_date=$2, amount=$3, method=$4, transaction_id=$5, status=$6, notes=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.PaymentDate, p.Amount, p.Method, p.TransactionID, p.Status, p.Notes)
	return err
}

func (r *paymentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment")
	}
	return nil
}

func (r *paymentRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error) {
	query := `SELECT ` + payCols + ` FROM payments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM payments WHERE 1=1`
	var args []interface{}
	idx := 1

	for param, col := range map[string]string{
		"invoice": "invoice_id",
		"status":  "status",
		"method":  "method",
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
	if err := conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY payment_date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *paymentRepoPG) SumCompleted(ctx context.Context, invoiceID uuid.UUID) (money.Amount, error) {
	var sum money.Amount
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE invoice_id = $1 AND status = $2`,
		invoiceID, PaymentCompleted).Scan(&sum)
	return sum, err
}
