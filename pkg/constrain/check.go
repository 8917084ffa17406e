package constrain

import (
	"context"
	"fmt"
)

// ValueCheck tests one value. Returning an error means the check could not
// decide; returning a contract.Rejection answers false with a reason.
type ValueCheck interface {
	CheckValue(ctx context.Context, v any) (bool, error)
}

// ValueCheckFunc adapts a function to ValueCheck.
type ValueCheckFunc func(ctx context.Context, v any) (bool, error)

// CheckValue implements ValueCheck.
func (f ValueCheckFunc) CheckValue(ctx context.Context, v any) (bool, error) {
	return f(ctx, v)
}

// Is builds a ValueCheck from a typed function. A value of another type is
// an error, not a failed check.
func Is[T any](fn func(T) bool) ValueCheck {
	return ValueCheckFunc(func(_ context.Context, v any) (bool, error) {
		t, ok := v.(T)
		if !ok {
			var zero T
			return false, fmt.Errorf("value is %T, not %T", v, zero)
		}
		return fn(t), nil
	})
}

// All passes when every check passes, trying them in order.
func All(checks ...ValueCheck) ValueCheck {
	return ValueCheckFunc(func(ctx context.Context, v any) (bool, error) {
		for _, c := range checks {
			ok, err := c.CheckValue(ctx, v)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	})
}
