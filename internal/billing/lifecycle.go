package billing

import (
	"fmt"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// ValidateTransition checks a user-driven status change. Automatic
// transitions (the sweep's promotion to Overdue) do not go through here.
//
// Rules:
//   - Draft may move to any status.
//   - Any status may move to Paid; re-marking Paid is an idempotent no-op.
//   - No transition out of Paid is defined (payment reversal is out of scope).
func ValidateTransition(from, to domain.Status) error {
	if from == to {
		return nil // no-op, including Paid -> Paid
	}
	if from == domain.StatusPaid {
		return fmt.Errorf("%w: invoice is already paid", domain.ErrConflict)
	}
	if from == domain.StatusDraft || to == domain.StatusPaid {
		return nil
	}
	switch to {
	case domain.StatusSent, domain.StatusDraft:
		return nil
	case domain.StatusOverdue:
		// Only the sweep promotes invoices to Overdue.
		return fmt.Errorf("%w: overdue status is derived, not user-set", domain.ErrValidation)
	}
	return fmt.Errorf("%w: cannot move from %s to %s", domain.ErrValidation, from, to)
}

// SweepPlan is the outcome of a lifecycle sweep over a set of invoices.
// NewlyOverdue invoices are to be promoted to Overdue in one batch; DueToday
// invoices only trigger reminders and are never mutated.
type SweepPlan struct {
	NewlyOverdue []domain.Invoice
	DueToday     []domain.Invoice
}

// PlanSweep selects, from the given invoices, those past due that must be
// promoted to Overdue and those due today that warrant a reminder. Paid
// invoices never appear in either set; already-Overdue invoices are not
// re-promoted (and so never double-notified).
func PlanSweep(invoices []domain.Invoice, today domain.Date) SweepPlan {
	var plan SweepPlan
	for _, inv := range invoices {
		switch {
		case inv.DueDate.Before(today) && inv.Status != domain.StatusPaid && inv.Status != domain.StatusOverdue:
			plan.NewlyOverdue = append(plan.NewlyOverdue, inv)
		case inv.DueDate.Equal(today) && inv.Status != domain.StatusPaid:
			plan.DueToday = append(plan.DueToday, inv)
		}
	}
	return plan
}
