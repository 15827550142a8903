/*
lifecycle.go - Vacation period state machine

TRANSITIONS:
  draft                --Submit-------------->  pending_hr
  pending_hr           --Approve------------->  approved
  pending_hr           --Reject-------------->  rejected
  approved|rejected    --RequestModification->  pending_modification
  pending_modification --ApproveModification->  approved (new dates)
  pending_modification --RejectModification-->  rejected
  approved             --RequestSuspension--->  pending_suspension
  pending_suspension   --ApproveSuspension--->  suspended (total) | approved (parcial, shortened)
  pending_suspension   --RejectSuspension---->  approved
  draft                --Delete-------------->  (gone)

RULES:
  - Only draft periods are edited or deleted.
  - Create, Edit and RequestModification run the full Plan pipeline.
  - Submit, Approve and Reject do not re-validate.
  - Every successful mutation appends exactly one AuditEntry in the same
    transaction.

SEE ALSO:
  - changes.go: modification and suspension flows
  - planner.go: validation pipeline
*/
package vacation

import (
	"context"
	"strings"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// CREATE / EDIT
// =============================================================================

type CreateRequest struct {
	ActorID    string        `json:"actor_id"`
	EmployeeID string        `json:"employee_id"`
	Start      calendar.Date `json:"start"`
	Type       PeriodType    `json:"type_period"`
	Attachment string        `json:"attachment,omitempty"`
}

// Create validates and stores a new draft period for EmployeeID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Outcome, error) {
	env, err := s.environmentFor(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "create", func(repo Repository) (*Outcome, error) {
		actor, err := repo.GetEmployee(ctx, req.ActorID)
		if err != nil {
			return nil, err
		}
		owner, err := repo.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			return nil, err
		}
		if actor.ID == owner.ID {
			if !owner.RequestsOwnLeave() {
				return nil, deny(*actor, "request leave for", "themselves")
			}
		} else if !actor.Manages(*owner) && !actor.Role.Reviews() {
			return nil, deny(*actor, "request leave for", owner.ID)
		}
		if !owner.RequestsOwnLeave() {
			return nil, invalid("employee_id", "%s is not eligible to hold vacation periods", owner.Name)
		}

		policy, err := policyOf(ctx, repo, *owner)
		if err != nil {
			return nil, err
		}
		periods, err := repo.ListPeriods(ctx, PeriodFilter{EmployeeID: owner.ID})
		if err != nil {
			return nil, err
		}
		calc, err := Plan(PlanInput{
			Employee: *owner,
			Policy:   policy,
			Start:    req.Start,
			Type:     req.Type,
			Today:    env.today,
			Config:   env.config,
			Holidays: env.holidays,
			Periods:  periods,
		})
		if err != nil {
			return nil, err
		}

		now := s.now().UTC()
		p := Period{
			ID:         s.newID(),
			EmployeeID: owner.ID,
			Start:      calc.Start,
			End:        calc.End,
			Days:       calc.Days,
			TypePeriod: req.Type,
			Status:     StatusDraft,
			Attachment: req.Attachment,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repo.SavePeriod(ctx, p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "created in draft: %s", describe(p.Start, p.End, p.Days, p.TypePeriod))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: &p, Calculation: &calc, Audit: entry}, nil
	})
}

type EditRequest struct {
	ActorID  string        `json:"actor_id"`
	PeriodID string        `json:"period_id"`
	Start    calendar.Date `json:"start"`
	Type     PeriodType    `json:"type_period"`
}

// Edit replaces the dates of a draft period. Its own prior charge is
// returned to the balance before the new one is checked.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*Outcome, error) {
	env, err := s.environmentForPeriod(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "edit", func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, req.PeriodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, req.ActorID, p)
		if err != nil {
			return nil, err
		}
		if !canManage(*actor, *owner) {
			return nil, deny(*actor, "edit", p.ID)
		}
		if p.Status != StatusDraft {
			return nil, wrongState("period", p.ID, string(p.Status), "edit")
		}

		policy, err := policyOf(ctx, repo, *owner)
		if err != nil {
			return nil, err
		}
		periods, err := repo.ListPeriods(ctx, PeriodFilter{EmployeeID: owner.ID})
		if err != nil {
			return nil, err
		}
		calc, err := Plan(PlanInput{
			Employee: *owner,
			Policy:   policy,
			Start:    req.Start,
			Type:     req.Type,
			Today:    env.today,
			Config:   env.config,
			Holidays: env.holidays,
			Periods:  periods,
			IgnoreID: p.ID,
		})
		if err != nil {
			return nil, err
		}

		before := describe(p.Start, p.End, p.Days, p.TypePeriod)
		p.Start, p.End, p.Days, p.TypePeriod = calc.Start, calc.End, calc.Days, req.Type
		p.UpdatedAt = s.now().UTC()
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "edited: %s -> %s", before, describe(p.Start, p.End, p.Days, p.TypePeriod))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Calculation: &calc, Audit: entry}, nil
	})
}

// =============================================================================
// SUBMIT / APPROVE / REJECT
// =============================================================================

// SubmitToHR moves a draft to pending_hr. document, when given, replaces the
// period's attachment reference.
func (s *Service) SubmitToHR(ctx context.Context, actorID, periodID, document string) (*Outcome, error) {
	return s.run(ctx, "submit", func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, actorID, p)
		if err != nil {
			return nil, err
		}
		if !canSubmit(*actor, *owner) {
			return nil, deny(*actor, "submit", p.ID)
		}
		return s.submit(ctx, repo, *actor, p, document)
	})
}

func (s *Service) submit(ctx context.Context, repo Repository, actor Employee, p *Period, document string) (*Outcome, error) {
	if p.Status != StatusDraft {
		return nil, wrongState("period", p.ID, string(p.Status), "submit")
	}
	p.Status = StatusPendingHR
	if document != "" {
		p.Attachment = document
	}
	p.UpdatedAt = s.now().UTC()
	if err := repo.SavePeriod(ctx, *p); err != nil {
		return nil, err
	}
	msg := "submitted to HR"
	if document != "" {
		msg += " with document " + document
	}
	entry, err := s.audit(ctx, repo, p.ID, actor.ID, "%s", msg)
	if err != nil {
		return nil, err
	}
	return &Outcome{Period: p, Audit: entry}, nil
}

// BatchSubmit selects the drafts to send to HR in one go. Area restricts to
// employees of that area; ManagerID to that manager's direct reports (and the
// manager's own drafts). Empty fields do not filter.
type BatchSubmit struct {
	ActorID   string `json:"actor_id"`
	Area      string `json:"area,omitempty"`
	ManagerID string `json:"manager_id,omitempty"`
	Document  string `json:"document,omitempty"`
}

// SubmitBatch submits every draft the actor may submit within the selection,
// atomically. Each period gets its own audit entry.
func (s *Service) SubmitBatch(ctx context.Context, req BatchSubmit) ([]Outcome, error) {
	var outcomes []Outcome
	_, err := s.run(ctx, "submit_batch", func(repo Repository) (*Outcome, error) {
		actor, err := repo.GetEmployee(ctx, req.ActorID)
		if err != nil {
			return nil, err
		}
		if actor.Role != RoleManager && !actor.Role.Reviews() {
			return nil, deny(*actor, "submit", "a batch")
		}
		employees, err := repo.ListEmployees(ctx)
		if err != nil {
			return nil, err
		}
		for _, owner := range employees {
			if req.Area != "" && !strings.EqualFold(owner.Area, req.Area) {
				continue
			}
			if req.ManagerID != "" && owner.ID != req.ManagerID &&
				(owner.ManagerID == nil || *owner.ManagerID != req.ManagerID) {
				continue
			}
			if !canSubmit(*actor, owner) {
				continue
			}
			drafts, err := repo.ListPeriods(ctx, PeriodFilter{EmployeeID: owner.ID, Statuses: []Status{StatusDraft}})
			if err != nil {
				return nil, err
			}
			for i := range drafts {
				out, err := s.submit(ctx, repo, *actor, &drafts[i], req.Document)
				if err != nil {
					return nil, err
				}
				outcomes = append(outcomes, *out)
			}
		}
		if len(outcomes) == 0 {
			return nil, invalid("", "no draft periods to submit")
		}
		// run logs the last entry; every entry is in outcomes.
		last := outcomes[len(outcomes)-1]
		return &last, nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Approve moves pending_hr to approved. Reviewers only.
func (s *Service) Approve(ctx context.Context, actorID, periodID string) (*Outcome, error) {
	return s.review(ctx, "approve", actorID, periodID, StatusApproved, "approved by HR")
}

// Reject moves pending_hr to rejected. Reviewers only.
func (s *Service) Reject(ctx context.Context, actorID, periodID, reason string) (*Outcome, error) {
	msg := "rejected by HR"
	if reason != "" {
		msg += ": " + reason
	}
	return s.review(ctx, "reject", actorID, periodID, StatusRejected, msg)
}

func (s *Service) review(ctx context.Context, op, actorID, periodID string, to Status, msg string) (*Outcome, error) {
	return s.run(ctx, op, func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		actor, err := repo.GetEmployee(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if err := requireReviewer(*actor, op, p.ID); err != nil {
			return nil, err
		}
		if p.Status != StatusPendingHR {
			return nil, wrongState("period", p.ID, string(p.Status), op)
		}
		p.Status = to
		p.UpdatedAt = s.now().UTC()
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "%s", msg)
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Audit: entry}, nil
	})
}

// =============================================================================
// DELETE / COMMENT
// =============================================================================

// Delete removes a draft together with its history and change requests.
// The returned entry records the deletion; it is written to the service log
// only, since the period it would reference no longer exists.
func (s *Service) Delete(ctx context.Context, actorID, periodID string) (*Outcome, error) {
	return s.run(ctx, "delete", func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, actorID, p)
		if err != nil {
			return nil, err
		}
		if !canManage(*actor, *owner) {
			return nil, deny(*actor, "delete", p.ID)
		}
		if p.Status != StatusDraft {
			return nil, wrongState("period", p.ID, string(p.Status), "delete")
		}
		if err := repo.DeletePeriod(ctx, p.ID); err != nil {
			return nil, err
		}
		entry := AuditEntry{
			ID:          s.newID(),
			PeriodID:    p.ID,
			ActorID:     actor.ID,
			Description: "deleted draft: " + describe(p.Start, p.End, p.Days, p.TypePeriod),
			CreatedAt:   s.now().UTC(),
		}
		return &Outcome{Period: p, Audit: entry}, nil
	})
}

// AddComment appends a free-text note to a period's history.
func (s *Service) AddComment(ctx context.Context, actorID, periodID, text string) (*Outcome, error) {
	return s.run(ctx, "comment", func(repo Repository) (*Outcome, error) {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, invalid("comment", "a comment cannot be empty")
		}
		p, err := repo.GetPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, actorID, p)
		if err != nil {
			return nil, err
		}
		if !canComment(*actor, *owner) {
			return nil, deny(*actor, "comment on", p.ID)
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "comment (%s): %s", actor.Role, text)
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Audit: entry}, nil
	})
}

// =============================================================================
// READS
// =============================================================================

// Preview validates a start date and computes the resulting span without
// checking overlap or balance.
func (s *Service) Preview(ctx context.Context, employeeID string, start calendar.Date, t PeriodType) (Calculation, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Calculation{}, err
	}
	env, err := s.environment(ctx, e.Location)
	if err != nil {
		return Calculation{}, err
	}
	policy, err := policyOf(ctx, s.store, *e)
	if err != nil {
		return Calculation{}, err
	}
	if err := ValidateStartDate(start, env.today, policy, env.config, env.holidays); err != nil {
		return Calculation{}, err
	}
	return Compute(start, t, env.config, env.holidays)
}

func (s *Service) Balance(ctx context.Context, employeeID string) (BalanceSummary, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	periods, err := s.store.ListPeriods(ctx, PeriodFilter{EmployeeID: e.ID})
	if err != nil {
		return BalanceSummary{}, err
	}
	return Summarize(*e, periods), nil
}

func (s *Service) Periods(ctx context.Context, employeeID string) ([]Period, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListPeriods(ctx, PeriodFilter{EmployeeID: employeeID})
}

func (s *Service) Period(ctx context.Context, periodID string) (*Period, error) {
	return s.store.GetPeriod(ctx, periodID)
}

// History returns the audit trail of a period, oldest first.
func (s *Service) History(ctx context.Context, periodID string) ([]AuditEntry, error) {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, periodID)
}
