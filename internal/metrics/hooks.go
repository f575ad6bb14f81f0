package metrics

import (
	"context"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// Merge fans every callback out to all hooks in order.
func Merge(hooks ...domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnAssessment: func(ctx context.Context, e *domain.AssessmentEvent) {
			for _, h := range hooks {
				if h.OnAssessment != nil {
					h.OnAssessment(ctx, e)
				}
			}
		},
		OnOracleCall: func(ctx context.Context, e *domain.OracleEvent) {
			for _, h := range hooks {
				if h.OnOracleCall != nil {
					h.OnOracleCall(ctx, e)
				}
			}
		},
		OnQuotaChange: func(blocked bool) {
			for _, h := range hooks {
				if h.OnQuotaChange != nil {
					h.OnQuotaChange(blocked)
				}
			}
		},
	}
}
