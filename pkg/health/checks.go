package health

import (
	"context"
	"fmt"
)

// CorpusCheck is down while no quotes are loaded.
func CorpusCheck(size func() int) Check {
	return func(ctx context.Context) ComponentHealth {
		n := size()
		if n == 0 {
			return ComponentHealth{Status: StatusDown, Message: "no quotes loaded"}
		}
		return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d quotes", n)}
	}
}

// PingCheck reports StatusUp when ping succeeds and failStatus otherwise.
// A nil ping means the dependency is not configured.
func PingCheck(ping func(ctx context.Context) error, failStatus Status) Check {
	return func(ctx context.Context) ComponentHealth {
		if ping == nil {
			return ComponentHealth{Status: StatusUp, Message: "not configured"}
		}
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: failStatus, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}
