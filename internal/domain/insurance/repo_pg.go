package insurance

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

// =========== Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository { return &providerRepoPG{pool: pool} }

const providerCols = `id, name, contact_person, phone, email, address, created_at, updated_at`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.ContactPerson, &p.Phone, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("insurance provider")
	}
	return &p, err
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurance_providers (id, name, contact_person, phone, email, address)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.ContactPerson, p.Phone, p.Email, p.Address)
	return err
}

func (r *providerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return scanProvider(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+providerCols+` FROM insurance_providers WHERE id = $1`, id))
}

func (r *providerRepoPG) Update(ctx context.Context, p *Provider) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE insurance_providers SET name=$2, contact_person=$3, phone=$4, email=$5, address=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.ContactPerson, p.Phone, p.Email, p.Address)
	return err
}

func (r *providerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM insurance_providers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance provider")
	}
	return nil
}

func (r *providerRepoPG) List(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_providers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+providerCols+` FROM insurance_providers ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Policy Repository ===========

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

const policyCols = `id, patient_id, provider_id, policy_number, group_number, primary_holder_name,
	relationship_to_patient, coverage_start_date, coverage_end_date, is_active, created_at, updated_at`

func scanPolicy(row pgx.Row) (*PatientPolicy, error) {
	var p PatientPolicy
	err := row.Scan(&p.ID, &p.PatientID, &p.ProviderID, &p.PolicyNumber, &p.GroupNumber,
		&p.PrimaryHolderName, &p.Relationship, &p.CoverageStart, &p.CoverageEnd, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient insurance")
	}
	return &p, err
}

func (r *policyRepoPG) Create(ctx context.Context, p *PatientPolicy) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_insurances (id, patient_id, provider_id, policy_number, group_number,
			primary_holder_name, relationship_to_patient, coverage_start_date, coverage_end_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.PatientID, p.ProviderID, p.PolicyNumber, p.GroupNumber,
		p.PrimaryHolderName, p.Relationship, p.CoverageStart, p.CoverageEnd, p.IsActive)
	return err
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientPolicy, error) {
	return scanPolicy(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+policyCols+` FROM patient_insurances WHERE id = $1`, id))
}

func (r *policyRepoPG) Update(ctx context.Context, p *PatientPolicy) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patient_insurances SET provider_id=$2, policy_number=$3, group_number=$4,
			primary_holder_name=$5, relationship_to_patient=$6, coverage_start_date=$7,
			coverage_end_date=$8, is_active=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.ProviderID, p.PolicyNumber, p.GroupNumber, p.PrimaryHolderName,
		p.Relationship, p.CoverageStart, p.CoverageEnd, p.IsActive)
	return err
}

func (r *policyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM patient_insurances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient insurance")
	}
	return nil
}

func (r *policyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientPolicy, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+policyCols+` FROM patient_insurances WHERE patient_id = $1 ORDER BY coverage_start_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// =========== Claim Repository ===========

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository { return &claimRepoPG{pool: pool} }

const claimCols = `id, invoice_id, provider_id, claim_number, submission_date, status,
	amount_claimed::text, amount_approved::text, denial_reason, notes, created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.InvoiceID, &c.ProviderID, &c.ClaimNumber, &c.SubmissionDate,
		&c.Status, &c.AmountClaimed, &c.AmountApproved, &c.DenialReason, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("insurance claim")
	}
	return &c, err
}

func (r *claimRepoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurance_claims (id, invoice_id, provider_id, claim_number, submission_date,
			status, amount_claimed, amount_approved, denial_reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.InvoiceID, c.ProviderID, c.ClaimNumber, c.SubmissionDate,
		c.Status, c.AmountClaimed, c.AmountApproved, c.DenialReason, c.Notes)
	return err
}

func (r *claimRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+claimCols+` FROM insurance_claims WHERE id = $1`, id))
}

func (r *claimRepoPG) Lock(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+claimCols+` FROM insurance_claims WHERE id = $1 FOR UPDATE`, id))
}

func (r *claimRepoPG) Update(ctx context.Context, c *Claim) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE insurance_claims SET provider_id=$2, claim_number=$3, submission_date=$4, status=$5,
			amount_claimed=$6, amount_approved=$7, denial_reason=$8, notes=$9, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.ProviderID, c.ClaimNumber, c.SubmissionDate, c.Status,
		c.AmountClaimed, c.AmountApproved, c.DenialReason, c.Notes)
	return err
}

func (r *claimRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM insurance_claims WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance claim")
	}
	return nil
}

func (r *claimRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	query := `SELECT ` + claimCols + ` FROM insurance_claims WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM insurance_claims WHERE 1=1`
	var args []interface{}
	idx := 1

	for param, col := range map[string]string{
		"status":   "status",
		"provider": "provider_id",
		"invoice":  "invoice_id",
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

	query += fmt.Sprintf(` ORDER BY submission_date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
