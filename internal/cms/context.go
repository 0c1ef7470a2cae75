package cms

import (
	"context"

	"github.com/vertechie/vertechie-learn/internal/rbac"
)

// actorFromContext resolves the audit actor for a mutation. Anonymous admin
// sessions (local auth disabled) are recorded as "admin".
func actorFromContext(ctx context.Context) string {
	if sub := rbac.SubjectFromContext(ctx); sub != "" {
		return sub
	}
	return "admin"
}
