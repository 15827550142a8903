// Package memory is an in-memory vacation store for tests and demos.
// It implements vacation.TxStore and calendar.Provider.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	data *tables
}

func New() *Memory {
	return &Memory{data: newTables()}
}

// WithTx executes fn against the live tables under the write lock. On error
// the tables are restored from a snapshot taken before fn ran.
func (m *Memory) WithTx(ctx context.Context, fn func(vacation.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) GetEmployee(ctx context.Context, id string) (*vacation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetEmployee(ctx, id)
}

func (m *Memory) ListEmployees(ctx context.Context) ([]vacation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListEmployees(ctx)
}

func (m *Memory) SaveEmployee(ctx context.Context, e vacation.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveEmployee(ctx, e)
}

func (m *Memory) GetPolicy(ctx context.Context, id string) (*vacation.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetPolicy(ctx, id)
}

func (m *Memory) ListPolicies(ctx context.Context) ([]vacation.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListPolicies(ctx)
}

func (m *Memory) SavePolicy(ctx context.Context, p vacation.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SavePolicy(ctx, p)
}

func (m *Memory) GetPeriod(ctx context.Context, id string) (*vacation.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetPeriod(ctx, id)
}

func (m *Memory) ListPeriods(ctx context.Context, f vacation.PeriodFilter) ([]vacation.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListPeriods(ctx, f)
}

func (m *Memory) SavePeriod(ctx context.Context, p vacation.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SavePeriod(ctx, p)
}

func (m *Memory) DeletePeriod(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeletePeriod(ctx, id)
}

func (m *Memory) GetModification(ctx context.Context, id string) (*vacation.ModificationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetModification(ctx, id)
}

func (m *Memory) ListModifications(ctx context.Context, periodID string) ([]vacation.ModificationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListModifications(ctx, periodID)
}

func (m *Memory) SaveModification(ctx context.Context, r vacation.ModificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveModification(ctx, r)
}

func (m *Memory) GetSuspension(ctx context.Context, id string) (*vacation.SuspensionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetSuspension(ctx, id)
}

func (m *Memory) ListSuspensions(ctx context.Context, periodID string) ([]vacation.SuspensionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListSuspensions(ctx, periodID)
}

func (m *Memory) SaveSuspension(ctx context.Context, r vacation.SuspensionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveSuspension(ctx, r)
}

func (m *Memory) AppendAudit(ctx context.Context, e vacation.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.AppendAudit(ctx, e)
}

func (m *Memory) ListAudit(ctx context.Context, periodID string) ([]vacation.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListAudit(ctx, periodID)
}

// =============================================================================
// CALENDAR PROVIDER
// =============================================================================

func (m *Memory) Holidays(_ context.Context, location string, year int) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []calendar.Holiday
	for _, h := range m.data.holidays {
		if h.Date.Year() == year && h.AppliesTo(location) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Memory) Settings(context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data.settings))
	for k, v := range m.data.settings {
		out[k] = v
	}
	return out, nil
}

// AddHoliday records a holiday. Location defaults to GENERAL.
func (m *Memory) AddHoliday(h calendar.Holiday) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.Location = calendar.NormalizeLocation(h.Location)
	m.data.holidays = append(m.data.holidays, h)
	sort.SliceStable(m.data.holidays, func(i, j int) bool {
		return m.data.holidays[i].Date.Before(m.data.holidays[j].Date)
	})
}

// SetSetting stores one raw calendar setting.
func (m *Memory) SetSetting(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.settings[key] = value
}
