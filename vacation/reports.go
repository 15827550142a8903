package vacation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/vacation-engine/calendar"
)

// DefaultMissingScheduleThreshold flags employees holding more than this many
// unscheduled days.
const DefaultMissingScheduleThreshold = 10

// =============================================================================
// BALANCE REPORT
// =============================================================================

type BalanceRow struct {
	Employee    Employee        `json:"employee"`
	Balance     BalanceSummary  `json:"balance"`
	Utilization decimal.Decimal `json:"utilization"`
}

type Alerts struct {
	// MissingSchedule lists employees whose remaining balance is above the threshold.
	MissingSchedule []BalanceRow `json:"missing_schedule"`
	// ManagersWithDrafts lists managers with reports' drafts not yet submitted.
	ManagersWithDrafts []ManagerDrafts `json:"managers_with_drafts"`
}

type ManagerDrafts struct {
	Manager Employee `json:"manager"`
	Drafts  int      `json:"drafts"`
}

type Report struct {
	Rows   []BalanceRow `json:"rows"`
	Alerts Alerts       `json:"alerts"`
}

// BuildReport summarizes every employee eligible for leave. Utilization is
// consumed / entitlement rounded to two places.
func BuildReport(employees []Employee, periods []Period, threshold int) Report {
	byEmployee := make(map[string][]Period)
	for _, p := range periods {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}
	index := make(map[string]Employee, len(employees))
	for _, e := range employees {
		index[e.ID] = e
	}

	report := Report{Rows: []BalanceRow{}, Alerts: Alerts{MissingSchedule: []BalanceRow{}, ManagersWithDrafts: []ManagerDrafts{}}}
	drafts := make(map[string]int)
	for _, e := range employees {
		if !e.RequestsOwnLeave() {
			continue
		}
		own := byEmployee[e.ID]
		row := BalanceRow{Employee: e, Balance: Summarize(e, own), Utilization: decimal.Zero}
		if e.Entitlement > 0 {
			row.Utilization = decimal.NewFromInt(int64(row.Balance.Consumed)).
				Div(decimal.NewFromInt(int64(e.Entitlement))).
				Round(2)
		}
		report.Rows = append(report.Rows, row)
		if row.Balance.Remaining > threshold {
			report.Alerts.MissingSchedule = append(report.Alerts.MissingSchedule, row)
		}
		for _, p := range own {
			if p.Status == StatusDraft && e.ManagerID != nil {
				drafts[*e.ManagerID]++
			}
		}
	}

	for managerID, n := range drafts {
		m, ok := index[managerID]
		if !ok {
			continue
		}
		report.Alerts.ManagersWithDrafts = append(report.Alerts.ManagersWithDrafts, ManagerDrafts{Manager: m, Drafts: n})
	}
	sort.Slice(report.Alerts.ManagersWithDrafts, func(i, j int) bool {
		return report.Alerts.ManagersWithDrafts[i].Manager.Name < report.Alerts.ManagersWithDrafts[j].Manager.Name
	})
	return report
}

// =============================================================================
// PLANNED LEAVE
// =============================================================================

type PlannedRow struct {
	Employee Employee `json:"employee"`
	Period   Period   `json:"period"`
}

// PlannedLeave lists approved or in-review periods that have not ended
// before today, ordered by start date.
func PlannedLeave(employees []Employee, periods []Period, today calendar.Date) []PlannedRow {
	index := make(map[string]Employee, len(employees))
	for _, e := range employees {
		index[e.ID] = e
	}
	rows := []PlannedRow{}
	for _, p := range periods {
		if !p.Status.Planned() || p.End.Before(today) {
			continue
		}
		e, ok := index[p.EmployeeID]
		if !ok {
			continue
		}
		rows = append(rows, PlannedRow{Employee: e, Period: p})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Period.Start.Before(rows[j].Period.Start)
	})
	return rows
}

// =============================================================================
// SERVICE ENTRY POINTS - reviewers only
// =============================================================================

func (s *Service) Report(ctx context.Context, actorID string, threshold int) (Report, error) {
	employees, periods, err := s.reportInputs(ctx, actorID, "view reports")
	if err != nil {
		return Report{}, err
	}
	return BuildReport(employees, periods, threshold), nil
}

func (s *Service) Planned(ctx context.Context, actorID string) ([]PlannedRow, error) {
	employees, periods, err := s.reportInputs(ctx, actorID, "view planned leave")
	if err != nil {
		return nil, err
	}
	return PlannedLeave(employees, periods, s.clock.Today()), nil
}

// SystemReport builds the report without an acting user. Background jobs
// only; HTTP callers go through Report.
func (s *Service) SystemReport(ctx context.Context, threshold int) (Report, error) {
	employees, periods, err := s.everything(ctx)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(employees, periods, threshold), nil
}

func (s *Service) reportInputs(ctx context.Context, actorID, op string) ([]Employee, []Period, error) {
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireReviewer(*actor, op, "all employees"); err != nil {
		return nil, nil, err
	}
	return s.everything(ctx)
}

func (s *Service) everything(ctx context.Context) ([]Employee, []Period, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}
	periods, err := s.store.ListPeriods(ctx, PeriodFilter{})
	if err != nil {
		return nil, nil, err
	}
	return employees, periods, nil
}
