package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// repo implements vacation.Repository over a querier.
type repo struct {
	q querier
}

func notFound(kind, id string) error {
	return &vacation.NotFoundError{Kind: kind, ID: id}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, email, role, manager_id, area, entitlement,
	location, policy_id, can_request_own, created_at`

func scanEmployee(row scanner) (*vacation.Employee, error) {
	var (
		e         vacation.Employee
		role      string
		managerID sql.NullString
		policyID  sql.NullString
		createdAt string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &role, &managerID, &e.Area, &e.Entitlement,
		&e.Location, &policyID, &e.CanRequestOwnVacation, &createdAt)
	if err != nil {
		return nil, err
	}
	e.Role = vacation.Role(role)
	if managerID.Valid {
		e.ManagerID = &managerID.String
	}
	if policyID.Valid {
		e.PolicyID = &policyID.String
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("employee %s created_at: %w", e.ID, err)
	}
	return &e, nil
}

func (r *repo) GetEmployee(ctx context.Context, id string) (*vacation.Employee, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("employee", id)
	}
	return e, err
}

func (r *repo) ListEmployees(ctx context.Context) ([]vacation.Employee, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *repo) SaveEmployee(ctx context.Context, e vacation.Employee) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			manager_id = excluded.manager_id,
			area = excluded.area,
			entitlement = excluded.entitlement,
			location = excluded.location,
			policy_id = excluded.policy_id,
			can_request_own = excluded.can_request_own
	`, e.ID, e.Name, e.Email, string(e.Role), nullString(deref(e.ManagerID)), e.Area, e.Entitlement,
		e.Location, nullString(deref(e.PolicyID)), e.CanRequestOwnVacation, formatTime(e.CreatedAt))
	if isForeignKeyError(err) {
		return &vacation.ValidationError{Field: "manager_id", Message: "manager or policy does not exist", Cause: err}
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// =============================================================================
// POLICIES
// =============================================================================

func scanPolicy(row scanner) (*vacation.Policy, error) {
	var (
		p      vacation.Policy
		months string
	)
	if err := row.Scan(&p.ID, &p.Name, &months); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(months), &p.Months); err != nil {
		return nil, fmt.Errorf("policy %s months: %w", p.ID, err)
	}
	return &p, nil
}

func (r *repo) GetPolicy(ctx context.Context, id string) (*vacation.Policy, error) {
	p, err := scanPolicy(r.q.QueryRowContext(ctx, "SELECT id, name, months FROM policies WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("policy", id)
	}
	return p, err
}

func (r *repo) ListPolicies(ctx context.Context) ([]vacation.Policy, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, name, months FROM policies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repo) SavePolicy(ctx context.Context, p vacation.Policy) error {
	months := p.Months
	if months == nil {
		months = []time.Month{}
	}
	raw, err := json.Marshal(months)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO policies (id, name, months) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, months = excluded.months
	`, p.ID, p.Name, string(raw))
	if isUniqueConstraintError(err) {
		return &vacation.ValidationError{Field: "name", Message: fmt.Sprintf("policy %q already exists", p.Name), Cause: err}
	}
	return err
}

// =============================================================================
// PERIODS
// =============================================================================

const periodColumns = `id, employee_id, start_date, end_date, days, type_period,
	status, attachment, created_at, updated_at`

func scanPeriod(row scanner) (*vacation.Period, error) {
	var (
		p                    vacation.Period
		start, end           string
		status               string
		attachment           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.EmployeeID, &start, &end, &p.Days, &p.TypePeriod,
		&status, &attachment, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = vacation.Status(status)
	p.Attachment = attachment.String
	if p.Start, err = calendar.ParseDate(start); err != nil {
		return nil, err
	}
	if p.End, err = calendar.ParseDate(end); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) GetPeriod(ctx context.Context, id string) (*vacation.Period, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+periodColumns+" FROM vacation_periods WHERE id = ?", id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("period", id)
	}
	return p, err
}

func (r *repo) ListPeriods(ctx context.Context, f vacation.PeriodFilter) ([]vacation.Period, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	query := "SELECT " + periodColumns + " FROM vacation_periods"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repo) SavePeriod(ctx context.Context, p vacation.Period) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO vacation_periods (`+periodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days = excluded.days,
			type_period = excluded.type_period,
			status = excluded.status,
			attachment = excluded.attachment,
			updated_at = excluded.updated_at
	`, p.ID, p.EmployeeID, p.Start.String(), p.End.String(), p.Days, int(p.TypePeriod),
		string(p.Status), nullString(p.Attachment), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isForeignKeyError(err) {
		return notFound("employee", p.EmployeeID)
	}
	return err
}

func (r *repo) DeletePeriod(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM vacation_periods WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("period", id)
	}
	return nil
}

// =============================================================================
// MODIFICATION REQUESTS
// =============================================================================

const modificationColumns = `id, period_id, requested_by, reason, attachment,
	new_start, new_end, new_days, new_type_period, status, created_at`

func scanModification(row scanner) (*vacation.ModificationRequest, error) {
	var (
		m                 vacation.ModificationRequest
		attachment        sql.NullString
		newStart, newEnd  string
		status, createdAt string
	)
	err := row.Scan(&m.ID, &m.PeriodID, &m.RequestedBy, &m.Reason, &attachment,
		&newStart, &newEnd, &m.NewDays, &m.NewTypePeriod, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	m.Attachment = attachment.String
	m.Status = vacation.RequestStatus(status)
	if m.NewStart, err = calendar.ParseDate(newStart); err != nil {
		return nil, err
	}
	if m.NewEnd, err = calendar.ParseDate(newEnd); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repo) GetModification(ctx context.Context, id string) (*vacation.ModificationRequest, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+modificationColumns+" FROM modification_requests WHERE id = ?", id)
	m, err := scanModification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("modification", id)
	}
	return m, err
}

func (r *repo) ListModifications(ctx context.Context, periodID string) ([]vacation.ModificationRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+modificationColumns+" FROM modification_requests WHERE period_id = ? ORDER BY rowid",
		periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.ModificationRequest
	for rows.Next() {
		m, err := scanModification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *repo) SaveModification(ctx context.Context, m vacation.ModificationRequest) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO modification_requests (`+modificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status
	`, m.ID, m.PeriodID, m.RequestedBy, m.Reason, nullString(m.Attachment),
		m.NewStart.String(), m.NewEnd.String(), m.NewDays, int(m.NewTypePeriod),
		string(m.Status), formatTime(m.CreatedAt))
	if isForeignKeyError(err) {
		return notFound("period", m.PeriodID)
	}
	return err
}

// =============================================================================
// SUSPENSION REQUESTS
// =============================================================================

const suspensionColumns = `id, period_id, requested_by, reason, attachment,
	suspension_type, new_end, status, created_at`

func scanSuspension(row scanner) (*vacation.SuspensionRequest, error) {
	var (
		s                 vacation.SuspensionRequest
		attachment        sql.NullString
		kind              string
		newEnd            sql.NullString
		status, createdAt string
	)
	err := row.Scan(&s.ID, &s.PeriodID, &s.RequestedBy, &s.Reason, &attachment,
		&kind, &newEnd, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	s.Attachment = attachment.String
	s.Type = vacation.SuspensionType(kind)
	s.Status = vacation.RequestStatus(status)
	if newEnd.Valid {
		d, err := calendar.ParseDate(newEnd.String)
		if err != nil {
			return nil, err
		}
		s.NewEnd = &d
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) GetSuspension(ctx context.Context, id string) (*vacation.SuspensionRequest, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+suspensionColumns+" FROM suspension_requests WHERE id = ?", id)
	s, err := scanSuspension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("suspension", id)
	}
	return s, err
}

func (r *repo) ListSuspensions(ctx context.Context, periodID string) ([]vacation.SuspensionRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+suspensionColumns+" FROM suspension_requests WHERE period_id = ? ORDER BY rowid",
		periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.SuspensionRequest
	for rows.Next() {
		s, err := scanSuspension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repo) SaveSuspension(ctx context.Context, s vacation.SuspensionRequest) error {
	var newEnd sql.NullString
	if s.NewEnd != nil {
		newEnd = nullString(s.NewEnd.String())
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO suspension_requests (`+suspensionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status
	`, s.ID, s.PeriodID, s.RequestedBy, s.Reason, nullString(s.Attachment),
		string(s.Type), newEnd, string(s.Status), formatTime(s.CreatedAt))
	if isForeignKeyError(err) {
		return notFound("period", s.PeriodID)
	}
	return err
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (r *repo) AppendAudit(ctx context.Context, e vacation.AuditEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, period_id, actor_id, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.PeriodID, e.ActorID, e.Description, formatTime(e.CreatedAt))
	if isForeignKeyError(err) {
		return notFound("period", e.PeriodID)
	}
	return err
}

func (r *repo) ListAudit(ctx context.Context, periodID string) ([]vacation.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, period_id, actor_id, description, created_at
		FROM audit_log WHERE period_id = ? ORDER BY rowid
	`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.AuditEntry
	for rows.Next() {
		var (
			e         vacation.AuditEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.PeriodID, &e.ActorID, &e.Description, &createdAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
