/*
store.go - Persistence ports for the vacation engine

PURPOSE:
  Defines the interface between the lifecycle service and the database.
  The engine never touches SQL directly; the SQLite store and the in-memory
  store both implement TxStore.

TRANSACTIONS:
  Every lifecycle operation runs "read periods -> validate -> write period ->
  append audit" inside one WithTx call. Implementations must serialize those
  calls (or use serializable isolation) so two concurrent requests for the same
  employee cannot both pass the balance check. If fn returns an error nothing
  it wrote is kept.

NOT FOUND:
  Get* methods return a *NotFoundError (errors.Is(err, ErrNotFound)) rather
  than (nil, nil).

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - store/memory: in-memory for tests and demos

SEE ALSO:
  - lifecycle.go: the only writer
*/
package vacation

import "context"

// =============================================================================
// REPOSITORY - Reads and writes inside one transaction
// =============================================================================

type Repository interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error

	GetPolicy(ctx context.Context, id string) (*Policy, error)
	ListPolicies(ctx context.Context) ([]Policy, error)
	SavePolicy(ctx context.Context, p Policy) error

	GetPeriod(ctx context.Context, id string) (*Period, error)
	// ListPeriods returns matching periods ordered by start date.
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]Period, error)
	SavePeriod(ctx context.Context, p Period) error
	// DeletePeriod removes the period with its audit entries,
	// modification requests and suspension requests.
	DeletePeriod(ctx context.Context, id string) error

	GetModification(ctx context.Context, id string) (*ModificationRequest, error)
	ListModifications(ctx context.Context, periodID string) ([]ModificationRequest, error)
	SaveModification(ctx context.Context, m ModificationRequest) error

	GetSuspension(ctx context.Context, id string) (*SuspensionRequest, error)
	ListSuspensions(ctx context.Context, periodID string) ([]SuspensionRequest, error)
	SaveSuspension(ctx context.Context, s SuspensionRequest) error

	// AppendAudit is the only audit write. There is no update.
	AppendAudit(ctx context.Context, entry AuditEntry) error
	// ListAudit returns a period's entries oldest first.
	ListAudit(ctx context.Context, periodID string) ([]AuditEntry, error)
}

// PeriodFilter narrows ListPeriods. Zero fields match everything.
type PeriodFilter struct {
	EmployeeID string
	Statuses   []Status
}

// Matches reports whether p passes the filter.
func (f PeriodFilter) Matches(p Period) bool {
	if f.EmployeeID != "" && p.EmployeeID != f.EmployeeID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

type TxStore interface {
	Repository

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
