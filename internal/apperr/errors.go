package apperr

import (
	"errors"
	"fmt"
)

// Error kinds shared by every service. Wrap them with fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrCouponScope         = errors.New("coupon cannot be used here")
	ErrCouponExpired       = errors.New("coupon expired")
	ErrCouponUsageExceeded = errors.New("coupon usage limit reached")
	ErrRemoteStore         = errors.New("storage failure")
	ErrPaymentCallback     = errors.New("invalid payment callback")
	ErrPurchaseRequired    = errors.New("purchase required")
	ErrIllegalTransition   = errors.New("illegal state transition")
	ErrUnavailable         = errors.New("service unavailable")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Store wraps a data store failure with the operation that produced it.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrRemoteStore, op, err)
}

// StepError reports which step of a multi-step operation failed.
type StepError struct {
	Step int
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
