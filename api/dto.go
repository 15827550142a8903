/*
dto.go - Request bodies for the HTTP API

PURPOSE:
  Defines the JSON structures clients send. Responses reuse the domain types
  directly (vacation.Period, vacation.Outcome, ...), which already carry json
  tags; dates travel as "YYYY-MM-DD" through calendar.Date's text marshaling.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - ErrorResponse: The one error envelope

VALIDATION:
  Decoding rejects malformed JSON and dates (400). Business validation lives in
  the vacation package and surfaces as 422/409.

SEE ALSO:
  - handlers.go: Uses these types
  - errors.go: Error envelope and status mapping
*/
package api

import (
	"time"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// EMPLOYEES AND POLICIES
// =============================================================================

type EmployeeRequest struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Email                 string        `json:"email"`
	Role                  vacation.Role `json:"role"`
	ManagerID             *string       `json:"manager_id"`
	Area                  string        `json:"area"`
	Entitlement           int           `json:"entitlement"`
	Location              string        `json:"location"`
	PolicyID              *string       `json:"policy_id"`
	CanRequestOwnVacation bool          `json:"can_request_own_vacation"`
}

func (r EmployeeRequest) toDomain() vacation.Employee {
	return vacation.Employee{
		ID:                    r.ID,
		Name:                  r.Name,
		Email:                 r.Email,
		Role:                  r.Role,
		ManagerID:             r.ManagerID,
		Area:                  r.Area,
		Entitlement:           r.Entitlement,
		Location:              r.Location,
		PolicyID:              r.PolicyID,
		CanRequestOwnVacation: r.CanRequestOwnVacation,
	}
}

// AssignManagerRequest sets or (with null) clears an employee's manager.
type AssignManagerRequest struct {
	ManagerID *string `json:"manager_id"`
}

type PolicyRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Months []int  `json:"months"`
}

func (r PolicyRequest) toDomain() vacation.Policy {
	months := make([]time.Month, len(r.Months))
	for i, m := range r.Months {
		months[i] = time.Month(m)
	}
	return vacation.Policy{ID: r.ID, Name: r.Name, Months: months}
}

// =============================================================================
// PERIODS
// =============================================================================

// CreatePeriodRequest creates a draft. EmployeeID defaults to the caller.
type CreatePeriodRequest struct {
	EmployeeID string              `json:"employee_id"`
	Start      calendar.Date       `json:"start"`
	TypePeriod vacation.PeriodType `json:"type_period"`
	Attachment string              `json:"attachment"`
}

// CalculateRequest previews the calculator without storing anything.
type CalculateRequest struct {
	EmployeeID string              `json:"employee_id"`
	Start      calendar.Date       `json:"start"`
	TypePeriod vacation.PeriodType `json:"type_period"`
}

type EditPeriodRequest struct {
	Start      calendar.Date       `json:"start"`
	TypePeriod vacation.PeriodType `json:"type_period"`
}

type SubmitRequest struct {
	Document string `json:"document"`
}

type BatchSubmitRequest struct {
	Area      string `json:"area"`
	ManagerID string `json:"manager_id"`
	Document  string `json:"document"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// CHANGE REQUESTS
// =============================================================================

type ModificationRequest struct {
	Start      calendar.Date       `json:"start"`
	TypePeriod vacation.PeriodType `json:"type_period"`
	Reason     string              `json:"reason"`
	Attachment string              `json:"attachment"`
}

type SuspensionRequest struct {
	Type       vacation.SuspensionType `json:"type"`
	NewEnd     *calendar.Date          `json:"new_end"`
	Reason     string                  `json:"reason"`
	Attachment string                  `json:"attachment"`
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayRequest struct {
	Date     calendar.Date `json:"date"`
	Name     string        `json:"name"`
	Location string        `json:"location"`
}

// SettingsRequest maps setting keys to boolean strings ("true"/"false").
type SettingsRequest map[string]string

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
