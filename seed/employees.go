package seed

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/warp/vacation-engine/vacation"
)

// CSV column headers of the staff export.
const (
	ColumnEmail     = "CORREO"
	ColumnName      = "NOMBRES"
	ColumnArea      = "AREA"
	ColumnBossEmail = "CORREO_JEFE"
	ColumnBossName  = "NOMBRE_JEFE"
)

// ImportOptions names the accounts that get elevated roles.
type ImportOptions struct {
	AdminEmail string
	HREmail    string
}

// ImportResult summarizes an import.
type ImportResult struct {
	Employees int `json:"employees"`
	// Ghosts counts bosses created only from the boss columns.
	Ghosts  int      `json:"ghosts"`
	Links   int      `json:"links"`
	Skipped []string `json:"skipped,omitempty"`
}

// EmployeeStore looks up and stores employee records. vacation.Service
// implements it.
type EmployeeStore interface {
	Employee(ctx context.Context, id string) (*vacation.Employee, error)
	SaveEmployee(ctx context.Context, e vacation.Employee) (*vacation.Employee, error)
}

type staffRow struct {
	email, name, area, role string
	boss                    string
}

// ImportEmployees reads the staff CSV and upserts every employee keyed by
// lower-cased email. The delimiter (";" or ",") is detected from the header
// line. Rows without a valid email are skipped. Name, area, role and manager
// come from the file; entitlement, location, policy and the own-leave flag
// of an existing employee are kept. Employees are stored first
// and linked to their managers in a second pass, so row order does not
// matter; a link that would create a reporting cycle is skipped.
func ImportEmployees(ctx context.Context, r io.Reader, store EmployeeStore, opts ImportOptions) (ImportResult, error) {
	var res ImportResult

	raw, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	first, _, _ := bytes.Cut(raw, []byte("\n"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = ','
	if bytes.Contains(first, []byte(";")) {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return res, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return res, errors.New("parse csv: empty file")
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[ColumnEmail]; !ok {
		return res, fmt.Errorf("parse csv: missing %s column", ColumnEmail)
	}
	field := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	users := make(map[string]*staffRow)
	var order []string
	ghosts := make(map[string]bool)
	for line, rec := range records[1:] {
		email := strings.ToLower(field(rec, ColumnEmail))
		if !strings.Contains(email, "@") {
			res.Skipped = append(res.Skipped, fmt.Sprintf("line %d: invalid email %q", line+2, email))
			continue
		}
		u, seen := users[email]
		if !seen {
			u = &staffRow{email: email, role: string(vacation.RoleEmployee)}
			users[email] = u
			order = append(order, email)
		}
		delete(ghosts, email)
		u.name = field(rec, ColumnName)
		u.area = field(rec, ColumnArea)

		boss := strings.ToLower(field(rec, ColumnBossEmail))
		if !strings.Contains(boss, "@") {
			continue
		}
		u.boss = boss
		b, ok := users[boss]
		if !ok {
			name := field(rec, ColumnBossName)
			if name == "" {
				name = fmt.Sprintf("Jefe (%s)", localPart(boss))
			}
			b = &staffRow{email: boss, name: name, area: u.area}
			users[boss] = b
			order = append(order, boss)
			ghosts[boss] = true
		}
		b.role = string(vacation.RoleManager)
	}

	if u, ok := users[strings.ToLower(opts.AdminEmail)]; ok {
		u.role = string(vacation.RoleAdmin)
	}
	if u, ok := users[strings.ToLower(opts.HREmail)]; ok {
		u.role = string(vacation.RoleHR)
	}

	existing := make(map[string]*vacation.Employee, len(order))
	for _, email := range order {
		e, err := store.Employee(ctx, email)
		switch {
		case err == nil:
			existing[email] = e
		case !vacation.IsNotFound(err):
			return res, fmt.Errorf("load %s: %w", email, err)
		}
	}

	base := func(u *staffRow) vacation.Employee {
		name := u.name
		if name == "" {
			name = localPart(u.email)
		}
		e := vacation.Employee{
			ID:    u.email,
			Name:  name,
			Email: u.email,
			Role:  vacation.Role(u.role),
			Area:  u.area,
		}
		if old, ok := existing[u.email]; ok {
			e.Entitlement = old.Entitlement
			e.Location = old.Location
			e.PolicyID = old.PolicyID
			e.CanRequestOwnVacation = old.CanRequestOwnVacation
			e.CreatedAt = old.CreatedAt
		}
		return e
	}

	for _, email := range order {
		if _, err := store.SaveEmployee(ctx, base(users[email])); err != nil {
			return res, fmt.Errorf("save %s: %w", email, err)
		}
		res.Employees++
	}
	res.Ghosts = len(ghosts)

	for _, email := range order {
		u := users[email]
		if u.boss == "" {
			continue
		}
		e := base(u)
		boss := u.boss
		e.ManagerID = &boss
		if _, err := store.SaveEmployee(ctx, e); err != nil {
			if vacation.IsBusinessError(err) {
				res.Skipped = append(res.Skipped, fmt.Sprintf("%s -> %s: %v", email, boss, err))
				continue
			}
			return res, fmt.Errorf("link %s: %w", email, err)
		}
		res.Links++
	}
	return res, nil
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
