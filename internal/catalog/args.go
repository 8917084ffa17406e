package catalog

import (
	"fmt"
	"math"

	"github.com/roach88/covenant/pkg/binding"
)

// intArg reads name as an int. Scenario files and CLI literals decode
// numbers as int, int64 or float64, so all three are accepted when integral.
func intArg(args binding.Set, name string) (int, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("argument %q is not bound", name)
	}
	return toInt(name, v)
}

func toInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, outOfRange(name, n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, outOfRange(name, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		// -MinInt is 2^63 (2^31 on 32-bit), exactly representable; MaxInt is not.
		if n < math.MinInt || n >= -float64(math.MinInt) {
			return 0, outOfRange(name, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}

func outOfRange(name string, v any) error {
	return fmt.Errorf("argument %q is out of range for int: %v", name, v)
}

func floatArg(args binding.Set, name string) (float64, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("argument %q is not bound", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
	}
}

func stringArg(args binding.Set, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("argument %q is not bound", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}
