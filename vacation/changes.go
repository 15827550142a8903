package vacation

import (
	"context"
	"fmt"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// MODIFICATION FLOW
// =============================================================================

type ModificationInput struct {
	ActorID    string        `json:"actor_id"`
	PeriodID   string        `json:"period_id"`
	Start      calendar.Date `json:"new_start"`
	Type       PeriodType    `json:"new_type_period"`
	Reason     string        `json:"reason"`
	Attachment string        `json:"attachment,omitempty"`
}

// RequestModification proposes new dates for an approved or rejected period.
// The proposal is validated like a new request, with the period's own
// charge returned to the balance and its own dates ignored for overlap.
// The period keeps its dates until the modification is approved.
func (s *Service) RequestModification(ctx context.Context, in ModificationInput) (*Outcome, error) {
	env, err := s.environmentForPeriod(ctx, in.PeriodID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "request_modification", func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, in.PeriodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, in.ActorID, p)
		if err != nil {
			return nil, err
		}
		if !canRequestChange(*actor, *owner) {
			return nil, deny(*actor, "request a modification of", p.ID)
		}
		if p.Status != StatusApproved && p.Status != StatusRejected {
			return nil, wrongState("period", p.ID, string(p.Status), "modify")
		}
		if err := noPendingModification(ctx, repo, p.ID); err != nil {
			return nil, err
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
			Start:    in.Start,
			Type:     in.Type,
			Today:    env.today,
			Config:   env.config,
			Holidays: env.holidays,
			Periods:  periods,
			IgnoreID: p.ID,
		})
		if err != nil {
			return nil, err
		}
		if p.Status == StatusRejected {
			// Pending modification charges and blocks the period's current
			// dates again, which the rejection had released.
			if err := CheckOverlap(owner.ID, p.Start, p.End, periods, p.ID); err != nil {
				return nil, err
			}
			if err := CheckBalance(owner.ID, Available(*owner, periods, p.ID), p.Days); err != nil {
				return nil, err
			}
		}

		now := s.now().UTC()
		m := ModificationRequest{
			ID:            s.newID(),
			PeriodID:      p.ID,
			RequestedBy:   actor.ID,
			Reason:        in.Reason,
			Attachment:    in.Attachment,
			NewStart:      calc.Start,
			NewEnd:        calc.End,
			NewDays:       calc.Days,
			NewTypePeriod: in.Type,
			Status:        RequestPending,
			CreatedAt:     now,
		}
		if err := repo.SaveModification(ctx, m); err != nil {
			return nil, err
		}
		p.Status = StatusPendingModification
		p.UpdatedAt = now
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "modification requested: %s -> %s%s",
			describe(p.Start, p.End, p.Days, p.TypePeriod),
			describe(m.NewStart, m.NewEnd, m.NewDays, m.NewTypePeriod),
			reasonSuffix(in.Reason))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Modification: &m, Calculation: &calc, Audit: entry}, nil
	})
}

// ApproveModification copies the proposed values onto the period. The
// proposal is checked again for overlap and balance, since other requests
// may have been made while it was pending.
func (s *Service) ApproveModification(ctx context.Context, actorID, modificationID string) (*Outcome, error) {
	return s.run(ctx, "approve_modification", func(repo Repository) (*Outcome, error) {
		m, p, actor, err := loadModification(ctx, repo, actorID, modificationID, "approve")
		if err != nil {
			return nil, err
		}
		owner, err := repo.GetEmployee(ctx, p.EmployeeID)
		if err != nil {
			return nil, err
		}
		periods, err := repo.ListPeriods(ctx, PeriodFilter{EmployeeID: owner.ID})
		if err != nil {
			return nil, err
		}
		if err := CheckOverlap(owner.ID, m.NewStart, m.NewEnd, periods, p.ID); err != nil {
			return nil, err
		}
		if err := CheckBalance(owner.ID, Available(*owner, periods, p.ID), m.NewDays); err != nil {
			return nil, err
		}
		p.Start, p.End, p.Days, p.TypePeriod = m.NewStart, m.NewEnd, m.NewDays, m.NewTypePeriod
		p.Status = StatusApproved
		p.UpdatedAt = s.now().UTC()
		m.Status = RequestApproved
		if err := repo.SaveModification(ctx, *m); err != nil {
			return nil, err
		}
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "modification approved: new dates %s",
			describe(p.Start, p.End, p.Days, p.TypePeriod))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Modification: m, Audit: entry}, nil
	})
}

// RejectModification rejects the proposal and the period with it.
func (s *Service) RejectModification(ctx context.Context, actorID, modificationID string) (*Outcome, error) {
	return s.run(ctx, "reject_modification", func(repo Repository) (*Outcome, error) {
		m, p, actor, err := loadModification(ctx, repo, actorID, modificationID, "reject")
		if err != nil {
			return nil, err
		}
		p.Status = StatusRejected
		p.UpdatedAt = s.now().UTC()
		m.Status = RequestRejected
		if err := repo.SaveModification(ctx, *m); err != nil {
			return nil, err
		}
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "modification rejected: proposed %s",
			describe(m.NewStart, m.NewEnd, m.NewDays, m.NewTypePeriod))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Modification: m, Audit: entry}, nil
	})
}

func loadModification(ctx context.Context, repo Repository, actorID, id, op string) (*ModificationRequest, *Period, *Employee, error) {
	m, err := repo.GetModification(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	actor, err := repo.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := requireReviewer(*actor, op+" modification", m.ID); err != nil {
		return nil, nil, nil, err
	}
	if m.Status != RequestPending {
		return nil, nil, nil, wrongState("modification", m.ID, string(m.Status), op)
	}
	p, err := repo.GetPeriod(ctx, m.PeriodID)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.Status != StatusPendingModification {
		return nil, nil, nil, wrongState("period", p.ID, string(p.Status), op+" modification of")
	}
	return m, p, actor, nil
}

func noPendingModification(ctx context.Context, repo Repository, periodID string) error {
	existing, err := repo.ListModifications(ctx, periodID)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.Status == RequestPending {
			return wrongState("period", periodID, "modification "+m.ID+" pending", "modify")
		}
	}
	return nil
}

// =============================================================================
// SUSPENSION FLOW
// =============================================================================

type SuspensionInput struct {
	ActorID    string         `json:"actor_id"`
	PeriodID   string         `json:"period_id"`
	Type       SuspensionType `json:"type"`
	NewEnd     *calendar.Date `json:"new_end,omitempty"`
	Reason     string         `json:"reason"`
	Attachment string         `json:"attachment,omitempty"`
}

// RequestSuspension proposes cancelling (total) or shortening (parcial) an
// approved period. A partial suspension's new end must be on or after the
// start and before the current end.
func (s *Service) RequestSuspension(ctx context.Context, in SuspensionInput) (*Outcome, error) {
	return s.run(ctx, "request_suspension", func(repo Repository) (*Outcome, error) {
		p, err := repo.GetPeriod(ctx, in.PeriodID)
		if err != nil {
			return nil, err
		}
		actor, owner, err := parties(ctx, repo, in.ActorID, p)
		if err != nil {
			return nil, err
		}
		if !canRequestChange(*actor, *owner) {
			return nil, deny(*actor, "request a suspension of", p.ID)
		}
		if p.Status != StatusApproved {
			return nil, wrongState("period", p.ID, string(p.Status), "suspend")
		}
		if err := noPendingSuspension(ctx, repo, p.ID); err != nil {
			return nil, err
		}

		var newEnd *calendar.Date
		switch in.Type {
		case SuspensionTotal:
		case SuspensionPartial:
			if in.NewEnd == nil || in.NewEnd.IsZero() {
				return nil, invalid("new_end", "a partial suspension needs a new end date")
			}
			if in.NewEnd.Before(p.Start) || !in.NewEnd.Before(p.End) {
				return nil, invalid("new_end", "new end %s must be between %s and the day before %s", *in.NewEnd, p.Start, p.End)
			}
			d := *in.NewEnd
			newEnd = &d
		default:
			return nil, invalid("type", "suspension type must be %q or %q", SuspensionTotal, SuspensionPartial)
		}

		now := s.now().UTC()
		sr := SuspensionRequest{
			ID:          s.newID(),
			PeriodID:    p.ID,
			RequestedBy: actor.ID,
			Reason:      in.Reason,
			Attachment:  in.Attachment,
			Type:        in.Type,
			NewEnd:      newEnd,
			Status:      RequestPending,
			CreatedAt:   now,
		}
		if err := repo.SaveSuspension(ctx, sr); err != nil {
			return nil, err
		}
		p.Status = StatusPendingSuspension
		p.UpdatedAt = now
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		what := "total suspension"
		if newEnd != nil {
			what = "partial suspension to end " + newEnd.String()
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "%s requested%s", what, reasonSuffix(in.Reason))
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Suspension: &sr, Audit: entry}, nil
	})
}

// ApproveSuspension suspends the period (total) or shortens it and returns it
// to approved (parcial). A shortened period is charged only its remaining days.
func (s *Service) ApproveSuspension(ctx context.Context, actorID, suspensionID string) (*Outcome, error) {
	return s.run(ctx, "approve_suspension", func(repo Repository) (*Outcome, error) {
		sr, p, actor, err := loadSuspension(ctx, repo, actorID, suspensionID, "approve")
		if err != nil {
			return nil, err
		}
		var msg string
		switch sr.Type {
		case SuspensionPartial:
			if sr.NewEnd == nil {
				return nil, invalid("new_end", "suspension %s has no new end date", sr.ID)
			}
			before := describe(p.Start, p.End, p.Days, p.TypePeriod)
			p.End = *sr.NewEnd
			p.Days = calendar.DaysBetween(p.Start, p.End) + 1
			p.Status = StatusApproved
			msg = fmt.Sprintf("partial suspension approved: %s -> %s", before, describe(p.Start, p.End, p.Days, p.TypePeriod))
		default:
			p.Status = StatusSuspended
			msg = fmt.Sprintf("total suspension approved: %d days returned", p.Days)
		}
		p.UpdatedAt = s.now().UTC()
		sr.Status = RequestApproved
		if err := repo.SaveSuspension(ctx, *sr); err != nil {
			return nil, err
		}
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "%s", msg)
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Suspension: sr, Audit: entry}, nil
	})
}

// RejectSuspension returns the period to approved, unchanged.
func (s *Service) RejectSuspension(ctx context.Context, actorID, suspensionID string) (*Outcome, error) {
	return s.run(ctx, "reject_suspension", func(repo Repository) (*Outcome, error) {
		sr, p, actor, err := loadSuspension(ctx, repo, actorID, suspensionID, "reject")
		if err != nil {
			return nil, err
		}
		p.Status = StatusApproved
		p.UpdatedAt = s.now().UTC()
		sr.Status = RequestRejected
		if err := repo.SaveSuspension(ctx, *sr); err != nil {
			return nil, err
		}
		if err := repo.SavePeriod(ctx, *p); err != nil {
			return nil, err
		}
		entry, err := s.audit(ctx, repo, p.ID, actor.ID, "%s suspension rejected; period stays approved", sr.Type)
		if err != nil {
			return nil, err
		}
		return &Outcome{Period: p, Suspension: sr, Audit: entry}, nil
	})
}

func loadSuspension(ctx context.Context, repo Repository, actorID, id, op string) (*SuspensionRequest, *Period, *Employee, error) {
	sr, err := repo.GetSuspension(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	actor, err := repo.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := requireReviewer(*actor, op+" suspension", sr.ID); err != nil {
		return nil, nil, nil, err
	}
	if sr.Status != RequestPending {
		return nil, nil, nil, wrongState("suspension", sr.ID, string(sr.Status), op)
	}
	p, err := repo.GetPeriod(ctx, sr.PeriodID)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.Status != StatusPendingSuspension {
		return nil, nil, nil, wrongState("period", p.ID, string(p.Status), op+" suspension of")
	}
	return sr, p, actor, nil
}

func noPendingSuspension(ctx context.Context, repo Repository, periodID string) error {
	existing, err := repo.ListSuspensions(ctx, periodID)
	if err != nil {
		return err
	}
	for _, sr := range existing {
		if sr.Status == RequestPending {
			return wrongState("period", periodID, "suspension "+sr.ID+" pending", "suspend")
		}
	}
	return nil
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return ": " + reason
}
