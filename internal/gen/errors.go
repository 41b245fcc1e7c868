package gen

import (
	"errors"
	"fmt"
)

// GlobalScope is the Bucket value used for failures of the final
// global-constraint validation rather than a specific bucket.
const GlobalScope = "global"

// ErrorCode categorizes generation failures.
type ErrorCode string

const (
	// ErrCodeZeroCandidates indicates a bucket with min_count > 0 had an
	// empty candidate pool after filtering.
	ErrCodeZeroCandidates ErrorCode = "ZERO_CANDIDATES"

	// ErrCodeMinUnreachable indicates the feasible count range fell
	// below the bucket's min_count. The error names the constraint(s)
	// that bound it (pool, max_count, item slots, or budget).
	ErrCodeMinUnreachable ErrorCode = "MIN_UNREACHABLE"

	// ErrCodeBudgetExhausted indicates the repair loop could not reduce
	// a sampled selection under the remaining budget. A uniform draw
	// that passed the cheapest-prefix feasibility probe can still land
	// here when no swap sequence reaches a cheap-enough combination.
	ErrCodeBudgetExhausted ErrorCode = "BUDGET_EXHAUSTED"

	// ErrCodeGlobalBounds indicates the final selection violated a
	// global min/max items or value bound.
	ErrCodeGlobalBounds ErrorCode = "GLOBAL_BOUNDS"
)

// GenerationError is the single failure kind of the generator engine.
// Any GenerationError aborts the whole run; partial picks are discarded.
//
// The message is diagnostic on its own: it names the offending bucket
// (or "global"), the violated numeric constraint, and the computed
// feasible bound that made it unreachable.
type GenerationError struct {
	Code    ErrorCode
	Bucket  string
	Message string

	// Details carries the numeric context as strings for logging.
	Details map[string]string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: bucket %q: %s", e.Code, e.Bucket, e.Message)
}

// AsGenerationError unwraps err into a *GenerationError if it is one.
func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func newZeroCandidatesError(bucket string, minCount int) *GenerationError {
	return &GenerationError{
		Code:    ErrCodeZeroCandidates,
		Bucket:  bucket,
		Message: fmt.Sprintf("zero candidates matched filters, min_count is %d", minCount),
		Details: map[string]string{
			"min_count": fmt.Sprintf("%d", minCount),
		},
	}
}

func newMinUnreachableError(bucket string, minCount, feasibleMax int, boundBy []string) *GenerationError {
	return &GenerationError{
		Code:   ErrCodeMinUnreachable,
		Bucket: bucket,
		Message: fmt.Sprintf("min_count %d unreachable: feasible max is %d (%s-bound)",
			minCount, feasibleMax, joinBounds(boundBy)),
		Details: map[string]string{
			"min_count":    fmt.Sprintf("%d", minCount),
			"feasible_max": fmt.Sprintf("%d", feasibleMax),
			"bound_by":     joinBounds(boundBy),
		},
	}
}

func newBudgetExhaustedError(bucket string, targetCount, remainingBudget int) *GenerationError {
	return &GenerationError{
		Code:   ErrCodeBudgetExhausted,
		Bucket: bucket,
		Message: fmt.Sprintf("cannot pick %d items within remaining budget %d",
			targetCount, remainingBudget),
		Details: map[string]string{
			"target_count":     fmt.Sprintf("%d", targetCount),
			"remaining_budget": fmt.Sprintf("%d", remainingBudget),
		},
	}
}

func newGlobalBoundsError(constraint string, limit, actual int) *GenerationError {
	return &GenerationError{
		Code:   ErrCodeGlobalBounds,
		Bucket: GlobalScope,
		Message: fmt.Sprintf("final selection violates %s %d (got %d)",
			constraint, limit, actual),
		Details: map[string]string{
			"constraint": constraint,
			"limit":      fmt.Sprintf("%d", limit),
			"actual":     fmt.Sprintf("%d", actual),
		},
	}
}

func joinBounds(bounds []string) string {
	out := ""
	for i, b := range bounds {
		if i > 0 {
			out += "+"
		}
		out += b
	}
	return out
}
