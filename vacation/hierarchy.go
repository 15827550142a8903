package vacation

import (
	"context"
	"strings"
)

// CheckManagerAssignment rejects making managerID the manager of employeeID
// when that would close a loop in the reporting tree. lookup resolves an
// employee by id.
func CheckManagerAssignment(employeeID string, managerID *string, lookup func(id string) (*Employee, error)) error {
	if managerID == nil || *managerID == "" {
		return nil
	}
	if *managerID == employeeID {
		return invalid("manager_id", "an employee cannot manage themselves")
	}
	seen := map[string]bool{employeeID: true}
	for id := *managerID; id != ""; {
		if seen[id] {
			return invalid("manager_id", "assigning %s as manager of %s would create a reporting cycle", *managerID, employeeID)
		}
		seen[id] = true
		m, err := lookup(id)
		if err != nil {
			return err
		}
		if m.ManagerID == nil {
			break
		}
		id = *m.ManagerID
	}
	return nil
}

// SaveEmployee validates and stores an employee record. Defaults: role
// employee, entitlement 30, location CUSCO. The manager chain must stay acyclic.
func (s *Service) SaveEmployee(ctx context.Context, e Employee) (*Employee, error) {
	if strings.TrimSpace(e.Name) == "" {
		return nil, invalid("name", "a name is required")
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Role == "" {
		e.Role = RoleEmployee
	}
	if !e.Role.Valid() {
		return nil, invalid("role", "unknown role %q", e.Role)
	}
	if e.Entitlement == 0 {
		e.Entitlement = DefaultEntitlement
	}
	if e.Entitlement < 0 {
		return nil, invalid("entitlement", "entitlement cannot be negative")
	}
	if e.Location == "" {
		e.Location = DefaultLocation
	}
	e.Location = strings.ToUpper(e.Location)
	if e.Role != RoleManager {
		e.CanRequestOwnVacation = false
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	err := s.store.WithTx(ctx, func(repo Repository) error {
		lookup := func(id string) (*Employee, error) { return repo.GetEmployee(ctx, id) }
		if err := CheckManagerAssignment(e.ID, e.ManagerID, lookup); err != nil {
			return err
		}
		if e.PolicyID != nil && *e.PolicyID != "" {
			if _, err := repo.GetPolicy(ctx, *e.PolicyID); err != nil {
				return err
			}
		}
		return repo.SaveEmployee(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("employee saved", "employee_id", e.ID, "role", e.Role, "manager_id", deref(e.ManagerID))
	return &e, nil
}

// AssignManager changes an employee's manager. Admins only. A nil managerID
// clears it.
func (s *Service) AssignManager(ctx context.Context, actorID, employeeID string, managerID *string) (*Employee, error) {
	var updated Employee
	err := s.store.WithTx(ctx, func(repo Repository) error {
		actor, err := repo.GetEmployee(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.Role != RoleAdmin {
			return deny(*actor, "assign a manager to", employeeID)
		}
		e, err := repo.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		lookup := func(id string) (*Employee, error) { return repo.GetEmployee(ctx, id) }
		if err := CheckManagerAssignment(e.ID, managerID, lookup); err != nil {
			return err
		}
		if managerID != nil && *managerID == "" {
			managerID = nil
		}
		e.ManagerID = managerID
		updated = *e
		return repo.SaveEmployee(ctx, *e)
	})
	if err != nil {
		s.logger.Info("manager assignment refused", "employee_id", employeeID, "error", err)
		return nil, err
	}
	s.logger.Info("manager assigned", "employee_id", employeeID, "manager_id", deref(managerID), "actor_id", actorID)
	return &updated, nil
}

// SavePolicy stores a policy. Months must be 1..12 and non-empty.
func (s *Service) SavePolicy(ctx context.Context, p Policy) (*Policy, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, invalid("name", "a policy name is required")
	}
	if len(p.Months) == 0 {
		return nil, invalid("months", "a policy must permit at least one month")
	}
	for _, m := range p.Months {
		if m < 1 || m > 12 {
			return nil, invalid("months", "month %d is out of range", m)
		}
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	if err := s.store.SavePolicy(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Employee returns one employee record.
func (s *Service) Employee(ctx context.Context, id string) (*Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// Employees lists every employee ordered by name.
func (s *Service) Employees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// Policies lists every start-month policy.
func (s *Service) Policies(ctx context.Context) ([]Policy, error) {
	return s.store.ListPolicies(ctx)
}

// RequireReviewer loads the actor and fails with a PermissionError unless
// they are HR or an admin. Used by administrative surfaces outside the
// lifecycle (holidays, settings).
func (s *Service) RequireReviewer(ctx context.Context, actorID, op string) (*Employee, error) {
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireReviewer(*actor, op, "calendar"); err != nil {
		return nil, err
	}
	return actor, nil
}
