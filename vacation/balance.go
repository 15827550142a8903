package vacation

// Remaining is entitlement minus the days of every balance-consuming period.
// It may be negative; a negative figure blocks new charges but is not itself
// an error.
func Remaining(employee Employee, periods []Period) int {
	return employee.Entitlement - consumed(employee.ID, periods, "")
}

// Available is the balance a request may draw on. The period named by
// ignoreID has its own charge added back, so re-checking an existing period
// never counts it twice.
func Available(employee Employee, periods []Period, ignoreID string) int {
	return employee.Entitlement - consumed(employee.ID, periods, ignoreID)
}

func consumed(employeeID string, periods []Period, ignoreID string) int {
	total := 0
	for _, p := range periods {
		if p.EmployeeID != employeeID || (ignoreID != "" && p.ID == ignoreID) {
			continue
		}
		if p.Status.ConsumesBalance() {
			total += p.Days
		}
	}
	return total
}

// CheckBalance fails with *InsufficientBalanceError when requested exceeds
// available.
func CheckBalance(employeeID string, available, requested int) error {
	if requested > available {
		return &InsufficientBalanceError{EmployeeID: employeeID, Available: available, Requested: requested}
	}
	return nil
}

// =============================================================================
// BALANCE SUMMARY - User-facing view
// =============================================================================

type BalanceSummary struct {
	EmployeeID  string `json:"employee_id"`
	Entitlement int    `json:"entitlement"`
	Consumed    int    `json:"consumed"`
	Approved    int    `json:"approved"`
	Pending     int    `json:"pending"`
	Remaining   int    `json:"remaining"`
}

// Summarize splits consumed days into approved and still-pending.
func Summarize(employee Employee, periods []Period) BalanceSummary {
	s := BalanceSummary{EmployeeID: employee.ID, Entitlement: employee.Entitlement}
	for _, p := range periods {
		if p.EmployeeID != employee.ID || !p.Status.ConsumesBalance() {
			continue
		}
		s.Consumed += p.Days
		if p.Status == StatusApproved {
			s.Approved += p.Days
		} else {
			s.Pending += p.Days
		}
	}
	s.Remaining = s.Entitlement - s.Consumed
	return s
}
