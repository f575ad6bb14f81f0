package ports

import (
	"context"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// Scorer is the external scoring oracle.
//
// Implementations must return an error wrapping domain.ErrRateLimited when
// the upstream throttles, and one wrapping domain.ErrMalformedResponse when
// the structured verdict cannot be parsed. Any other error is a generic failure.
type Scorer interface {
	Evaluate(ctx context.Context, question domain.Question, submission domain.Submission) (domain.Evaluation, error)
}
