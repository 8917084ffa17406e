package constrain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/covenant/pkg/contract"
)

var validate = validator.New()

// Tag builds a ValueCheck from a validator tag such as "gte=0,lte=100" or
// "required,email". The tag is checked once against a zero value so that
// unknown validators are reported here rather than on first call.
func Tag(tag string) (ValueCheck, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("validator tag is empty")
	}
	if err := checkTagDefined(tag); err != nil {
		return nil, fmt.Errorf("validator tag %q: %w", tag, err)
	}
	return ValueCheckFunc(func(_ context.Context, v any) (bool, error) {
		err := validate.Var(v, tag)
		if err == nil {
			return true, nil
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return false, contract.Reject("%v fails %q", v, verrs[0].Tag())
		}
		return false, err
	}), nil
}

// MustTag is like Tag but panics on error.
func MustTag(tag string) ValueCheck {
	c, err := Tag(tag)
	if err != nil {
		panic(err)
	}
	return c
}

// checkTagDefined surfaces undefined validators, which validator reports by
// panicking. Other panics come from type-specific tags tried against a string
// and are ignored.
func checkTagDefined(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if msg := fmt.Sprint(r); strings.Contains(msg, "Undefined validation function") {
				err = errors.New(msg)
			}
		}
	}()
	_ = validate.Var("", tag)
	return nil
}
