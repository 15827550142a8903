package memory

import (
	"context"
	"sort"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// tables is the unlocked state. It implements vacation.Repository and is
// handed to WithTx callbacks directly, under the parent's write lock.
type tables struct {
	employees     map[string]vacation.Employee
	policies      map[string]vacation.Policy
	periods       map[string]vacation.Period
	modifications map[string]vacation.ModificationRequest
	suspensions   map[string]vacation.SuspensionRequest
	audit         []vacation.AuditEntry
	holidays      []calendar.Holiday
	settings      map[string]string
}

func newTables() *tables {
	return &tables{
		employees:     make(map[string]vacation.Employee),
		policies:      make(map[string]vacation.Policy),
		periods:       make(map[string]vacation.Period),
		modifications: make(map[string]vacation.ModificationRequest),
		suspensions:   make(map[string]vacation.SuspensionRequest),
		settings:      make(map[string]string),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.employees {
		c.employees[k] = v
	}
	for k, v := range t.policies {
		c.policies[k] = v
	}
	for k, v := range t.periods {
		c.periods[k] = v
	}
	for k, v := range t.modifications {
		c.modifications[k] = v
	}
	for k, v := range t.suspensions {
		c.suspensions[k] = v
	}
	for k, v := range t.settings {
		c.settings[k] = v
	}
	c.audit = append([]vacation.AuditEntry(nil), t.audit...)
	c.holidays = append([]calendar.Holiday(nil), t.holidays...)
	return c
}

func notFound(kind, id string) error {
	return &vacation.NotFoundError{Kind: kind, ID: id}
}

// Employees

func (t *tables) GetEmployee(_ context.Context, id string) (*vacation.Employee, error) {
	e, ok := t.employees[id]
	if !ok {
		return nil, notFound("employee", id)
	}
	return &e, nil
}

func (t *tables) ListEmployees(context.Context) ([]vacation.Employee, error) {
	out := make([]vacation.Employee, 0, len(t.employees))
	for _, e := range t.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tables) SaveEmployee(_ context.Context, e vacation.Employee) error {
	t.employees[e.ID] = e
	return nil
}

// Policies

func (t *tables) GetPolicy(_ context.Context, id string) (*vacation.Policy, error) {
	p, ok := t.policies[id]
	if !ok {
		return nil, notFound("policy", id)
	}
	return &p, nil
}

func (t *tables) ListPolicies(context.Context) ([]vacation.Policy, error) {
	out := make([]vacation.Policy, 0, len(t.policies))
	for _, p := range t.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tables) SavePolicy(_ context.Context, p vacation.Policy) error {
	t.policies[p.ID] = p
	return nil
}

// Periods

func (t *tables) GetPeriod(_ context.Context, id string) (*vacation.Period, error) {
	p, ok := t.periods[id]
	if !ok {
		return nil, notFound("period", id)
	}
	return &p, nil
}

func (t *tables) ListPeriods(_ context.Context, f vacation.PeriodFilter) ([]vacation.Period, error) {
	var out []vacation.Period
	for _, p := range t.periods {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (t *tables) SavePeriod(_ context.Context, p vacation.Period) error {
	t.periods[p.ID] = p
	return nil
}

func (t *tables) DeletePeriod(_ context.Context, id string) error {
	if _, ok := t.periods[id]; !ok {
		return notFound("period", id)
	}
	delete(t.periods, id)
	for k, m := range t.modifications {
		if m.PeriodID == id {
			delete(t.modifications, k)
		}
	}
	for k, s := range t.suspensions {
		if s.PeriodID == id {
			delete(t.suspensions, k)
		}
	}
	kept := t.audit[:0]
	for _, e := range t.audit {
		if e.PeriodID != id {
			kept = append(kept, e)
		}
	}
	t.audit = kept
	return nil
}

// Change requests

func (t *tables) GetModification(_ context.Context, id string) (*vacation.ModificationRequest, error) {
	m, ok := t.modifications[id]
	if !ok {
		return nil, notFound("modification", id)
	}
	return &m, nil
}

func (t *tables) ListModifications(_ context.Context, periodID string) ([]vacation.ModificationRequest, error) {
	var out []vacation.ModificationRequest
	for _, m := range t.modifications {
		if m.PeriodID == periodID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tables) SaveModification(_ context.Context, m vacation.ModificationRequest) error {
	if _, ok := t.periods[m.PeriodID]; !ok {
		return notFound("period", m.PeriodID)
	}
	t.modifications[m.ID] = m
	return nil
}

func (t *tables) GetSuspension(_ context.Context, id string) (*vacation.SuspensionRequest, error) {
	s, ok := t.suspensions[id]
	if !ok {
		return nil, notFound("suspension", id)
	}
	return &s, nil
}

func (t *tables) ListSuspensions(_ context.Context, periodID string) ([]vacation.SuspensionRequest, error) {
	var out []vacation.SuspensionRequest
	for _, s := range t.suspensions {
		if s.PeriodID == periodID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tables) SaveSuspension(_ context.Context, s vacation.SuspensionRequest) error {
	if _, ok := t.periods[s.PeriodID]; !ok {
		return notFound("period", s.PeriodID)
	}
	t.suspensions[s.ID] = s
	return nil
}

// Audit

func (t *tables) AppendAudit(_ context.Context, e vacation.AuditEntry) error {
	if _, ok := t.periods[e.PeriodID]; !ok {
		return notFound("period", e.PeriodID)
	}
	t.audit = append(t.audit, e)
	return nil
}

func (t *tables) ListAudit(_ context.Context, periodID string) ([]vacation.AuditEntry, error) {
	var out []vacation.AuditEntry
	for _, e := range t.audit {
		if e.PeriodID == periodID {
			out = append(out, e)
		}
	}
	return out, nil
}
