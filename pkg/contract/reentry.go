package contract

import "context"

type activeKey struct{}

// activeFrame is one instance with an invariant check in progress on the
// current call chain. Frames form a linked list through parent contexts.
type activeFrame struct {
	parent   *activeFrame
	instance any
}

// InvariantActive reports whether an invariant-guarded method is already
// running on instance in the call chain carried by ctx.
func InvariantActive(ctx context.Context, instance any) bool {
	f, _ := ctx.Value(activeKey{}).(*activeFrame)
	for ; f != nil; f = f.parent {
		if f.instance == instance {
			return true
		}
	}
	return false
}

func markActive(ctx context.Context, instance any) context.Context {
	parent, _ := ctx.Value(activeKey{}).(*activeFrame)
	return context.WithValue(ctx, activeKey{}, &activeFrame{parent: parent, instance: instance})
}
