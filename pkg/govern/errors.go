package govern

import (
	"errors"
	"fmt"

	"github.com/recordwise/aigate/pkg/model"
)

// BudgetError is returned when the cost guard denies admission. Callers
// are expected to catch it and substitute a free local fallback rather
// than surface the failure to end users.
type BudgetError struct {
	Decision model.CostDecision
	Estimate model.CostEstimate
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget denied: %s", e.Decision.Reason)
}

// IsBudgetDenied reports whether err is a budget denial.
func IsBudgetDenied(err error) bool {
	var be *BudgetError
	return errors.As(err, &be)
}
