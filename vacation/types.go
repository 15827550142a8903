/*
Package vacation is the leave engine: it decides whether a vacation request is
valid, how long it really lasts, whether the employee can afford it, and how it
moves through manager submission and HR review.

PURPOSE:
  Employees hold a fixed annual entitlement of calendar days. A request names a
  start date and a period type (7, 8, 15 or 30 days). The engine turns that into
  a concrete [start, end] range, charges it against the entitlement, and tracks
  it through a small state machine with modifications and suspensions layered on
  top of approved periods.

KEY CONCEPTS:
  - Employee:            Who takes leave (or manages, or reviews)
  - Policy:              The months an employee may START leave in
  - Period:              A requested/approved leave span with its charged days
  - ModificationRequest: A proposal to move an approved period
  - SuspensionRequest:   A proposal to cancel or shorten an approved period
  - AuditEntry:          Append-only history line for a period

PIPELINE (pure functions, no I/O):
  ValidateStartDate ─▶ CheckTypeLimit ─▶ Compute ─▶ CheckOverlap ─▶ balance

  Plan() runs the whole pipeline; Service wraps it in a transaction together
  with permission checks and the audit append.

SEE ALSO:
  - errors.go:    Business error taxonomy
  - planner.go:   The validation pipeline
  - lifecycle.go: Service and the state machine
*/
package vacation

import (
	"strings"
	"time"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// EMPLOYEES AND POLICIES
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR, RoleAdmin:
		return true
	}
	return false
}

// Reviews reports whether the role performs HR review.
func (r Role) Reviews() bool {
	return r == RoleHR || r == RoleAdmin
}

// DefaultEntitlement is the annual allowance in calendar days.
const DefaultEntitlement = 30

// DefaultLocation tags employees created without a location.
const DefaultLocation = "CUSCO"

type Employee struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Role                  Role      `json:"role"`
	ManagerID             *string   `json:"manager_id,omitempty"`
	Area                  string    `json:"area"`
	Entitlement           int       `json:"entitlement"`
	Location              string    `json:"location"`
	PolicyID              *string   `json:"policy_id,omitempty"`
	CanRequestOwnVacation bool      `json:"can_request_own_vacation"`
	CreatedAt             time.Time `json:"created_at"`
}

// RequestsOwnLeave reports whether the employee is eligible to hold leave
// periods of their own. Managers need the explicit flag; reviewers never hold
// balances in this system.
func (e Employee) RequestsOwnLeave() bool {
	switch e.Role {
	case RoleEmployee:
		return true
	case RoleManager:
		return e.CanRequestOwnVacation
	}
	return false
}

// Manages reports whether e is the direct manager of other.
func (e Employee) Manages(other Employee) bool {
	return other.ManagerID != nil && *other.ManagerID == e.ID
}

// Policy restricts the months in which leave may start.
// An empty Months list permits nothing.
type Policy struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Months []time.Month `json:"months"`
}

// Permits reports whether leave may start in month m.
func (p Policy) Permits(m time.Month) bool {
	for _, allowed := range p.Months {
		if allowed == m {
			return true
		}
	}
	return false
}

// MonthNames lists the permitted months for messages.
func (p Policy) MonthNames() string {
	names := make([]string, 0, len(p.Months))
	for _, m := range p.Months {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodType is the requested span in days before weekend extension.
type PeriodType int

const (
	Type7  PeriodType = 7
	Type8  PeriodType = 8
	Type15 PeriodType = 15
	Type30 PeriodType = 30
)

// PeriodTypes lists every accepted period type.
var PeriodTypes = []PeriodType{Type7, Type8, Type15, Type30}

func (t PeriodType) Valid() bool {
	switch t {
	case Type7, Type8, Type15, Type30:
		return true
	}
	return false
}

// Limited reports whether the type is capped at one per calendar year.
func (t PeriodType) Limited() bool {
	return t == Type7 || t == Type8
}

type Status string

const (
	StatusDraft               Status = "draft"
	StatusPendingHR           Status = "pending_hr"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusPendingModification Status = "pending_modification"
	StatusPendingSuspension   Status = "pending_suspension"
	StatusSuspended           Status = "suspended"
)

// ConsumesBalance reports whether a period in this status is charged
// against the entitlement.
func (s Status) ConsumesBalance() bool {
	switch s {
	case StatusDraft, StatusPendingHR, StatusApproved,
		StatusPendingModification, StatusPendingSuspension:
		return true
	}
	return false
}

// BlocksOverlap reports whether a period in this status reserves its dates.
// A period awaiting suspension review does not.
func (s Status) BlocksOverlap() bool {
	switch s {
	case StatusDraft, StatusPendingHR, StatusApproved, StatusPendingModification:
		return true
	}
	return false
}

// Planned reports whether the period counts as scheduled leave for reports.
func (s Status) Planned() bool {
	return s == StatusApproved || s == StatusPendingHR || s == StatusPendingModification
}

type Period struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id"`
	Start      calendar.Date `json:"start"`
	End        calendar.Date `json:"end"`
	Days       int           `json:"days"`
	TypePeriod PeriodType    `json:"type_period"`
	Status     Status        `json:"status"`
	Attachment string        `json:"attachment,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (p Period) Range() calendar.Range {
	return calendar.Range{Start: p.Start, End: p.End}
}

// =============================================================================
// CHANGE REQUESTS
// =============================================================================

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending_review"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type ModificationRequest struct {
	ID            string        `json:"id"`
	PeriodID      string        `json:"period_id"`
	RequestedBy   string        `json:"requested_by"`
	Reason        string        `json:"reason"`
	Attachment    string        `json:"attachment,omitempty"`
	NewStart      calendar.Date `json:"new_start"`
	NewEnd        calendar.Date `json:"new_end"`
	NewDays       int           `json:"new_days"`
	NewTypePeriod PeriodType    `json:"new_type_period"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

type SuspensionType string

const (
	SuspensionTotal   SuspensionType = "total"
	SuspensionPartial SuspensionType = "parcial"
)

type SuspensionRequest struct {
	ID          string         `json:"id"`
	PeriodID    string         `json:"period_id"`
	RequestedBy string         `json:"requested_by"`
	Reason      string         `json:"reason"`
	Attachment  string         `json:"attachment,omitempty"`
	Type        SuspensionType `json:"type"`
	NewEnd      *calendar.Date `json:"new_end,omitempty"`
	Status      RequestStatus  `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditEntry is one append-only history line. Entries are removed only
// together with their period.
type AuditEntry struct {
	ID          string    `json:"id"`
	PeriodID    string    `json:"period_id"`
	ActorID     string    `json:"actor_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
