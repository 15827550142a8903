package vacation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// SERVICE - Orchestrates the lifecycle over a TxStore
// =============================================================================

// Service runs every lifecycle operation inside one store transaction and
// appends exactly one audit entry per successful mutation.
type Service struct {
	store    TxStore
	calendar calendar.Provider
	clock    calendar.Clock
	logger   *slog.Logger
	metrics  *Metrics
	newID    func() string
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the source of "today".
func WithClock(c calendar.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIDGenerator overrides uuid generation. Tests use it for stable IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithNow overrides the timestamp source for CreatedAt fields.
func WithNow(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

func NewService(store TxStore, provider calendar.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		calendar: provider,
		clock:    calendar.SystemClock{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome is what a lifecycle operation returns: the entity it touched plus
// the audit entry it appended.
type Outcome struct {
	Period       *Period              `json:"period,omitempty"`
	Modification *ModificationRequest `json:"modification,omitempty"`
	Suspension   *SuspensionRequest   `json:"suspension,omitempty"`
	Calculation  *Calculation         `json:"calculation,omitempty"`
	Audit        AuditEntry           `json:"audit"`
}

// run executes fn in a transaction and records metrics and a log line.
func (s *Service) run(ctx context.Context, op string, fn func(Repository) (*Outcome, error)) (*Outcome, error) {
	started := time.Now()
	var out *Outcome
	err := s.store.WithTx(ctx, func(repo Repository) error {
		var err error
		out, err = fn(repo)
		return err
	})
	s.metrics.observe(op, started, err)
	if err != nil {
		level := slog.LevelError
		if IsBusinessError(err) || IsNotFound(err) || IsPermissionDenied(err) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "vacation operation refused", "operation", op, "error", err)
		return nil, err
	}
	s.logger.Info("vacation operation",
		"operation", op,
		"period_id", out.Audit.PeriodID,
		"actor_id", out.Audit.ActorID,
		"description", out.Audit.Description)
	return out, nil
}

// audit appends one entry for periodID.
func (s *Service) audit(ctx context.Context, repo Repository, periodID, actorID, format string, args ...any) (AuditEntry, error) {
	entry := AuditEntry{
		ID:          s.newID(),
		PeriodID:    periodID,
		ActorID:     actorID,
		Description: fmt.Sprintf(format, args...),
		CreatedAt:   s.now().UTC(),
	}
	if err := repo.AppendAudit(ctx, entry); err != nil {
		return AuditEntry{}, fmt.Errorf("append audit: %w", err)
	}
	return entry, nil
}

// =============================================================================
// ENVIRONMENT - Calendar inputs for one operation
// =============================================================================

type environment struct {
	today    calendar.Date
	config   calendar.Config
	holidays calendar.HolidaySet
}

// environment loads settings and the holidays of the current and next year
// for location. It is read before the transaction opens.
func (s *Service) environment(ctx context.Context, location string) (environment, error) {
	today := s.clock.Today()
	cfg, err := calendar.LoadConfig(ctx, s.calendar)
	if err != nil {
		return environment{}, err
	}
	holidays, err := calendar.Snapshot(ctx, s.calendar, calendar.NormalizeLocation(location), today.Year(), today.Year()+1)
	if err != nil {
		return environment{}, err
	}
	return environment{today: today, config: cfg, holidays: holidays}, nil
}

func (s *Service) environmentFor(ctx context.Context, employeeID string) (environment, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return environment{}, err
	}
	return s.environment(ctx, e.Location)
}

func (s *Service) environmentForPeriod(ctx context.Context, periodID string) (environment, error) {
	p, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return environment{}, err
	}
	return s.environmentFor(ctx, p.EmployeeID)
}

// =============================================================================
// PERMISSIONS
// =============================================================================

// canManage: the owner, their direct manager, or a reviewer.
func canManage(actor, owner Employee) bool {
	return actor.ID == owner.ID || actor.Manages(owner) || actor.Role.Reviews()
}

// canSubmit: the owner's manager, a reviewer, or a manager submitting their own.
func canSubmit(actor, owner Employee) bool {
	if actor.Role.Reviews() || actor.Manages(owner) {
		return true
	}
	return actor.ID == owner.ID && actor.Role == RoleManager
}

// canRequestChange: an admin, or a manager over the owner.
func canRequestChange(actor, owner Employee) bool {
	return actor.Role == RoleAdmin || (actor.Role == RoleManager && actor.Manages(owner))
}

// canComment: the owner's manager or a reviewer.
func canComment(actor, owner Employee) bool {
	return actor.Role.Reviews() || (actor.Role == RoleManager && actor.Manages(owner))
}

func deny(actor Employee, op, target string) error {
	return &PermissionError{ActorID: actor.ID, Operation: op, Target: target}
}

func requireReviewer(actor Employee, op, target string) error {
	if !actor.Role.Reviews() {
		return deny(actor, op, target)
	}
	return nil
}

// parties loads the acting employee and the owner of p.
func parties(ctx context.Context, repo Repository, actorID string, p *Period) (actor, owner *Employee, err error) {
	actor, err = repo.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	owner, err = repo.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		return nil, nil, err
	}
	return actor, owner, nil
}

func policyOf(ctx context.Context, repo Repository, e Employee) (*Policy, error) {
	if e.PolicyID == nil || *e.PolicyID == "" {
		return nil, nil
	}
	return repo.GetPolicy(ctx, *e.PolicyID)
}

func wrongState(entity, id, from, op string) error {
	return &TransitionError{Entity: entity, ID: id, From: from, Operation: op}
}

func describe(start, end calendar.Date, days int, t PeriodType) string {
	return fmt.Sprintf("%s to %s (%d days, type %d)", start, end, days, t)
}
