package globalone

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

type primaryStep func(ctx context.Context) (*domain.Response, error)

type followUpStep func(ctx context.Context, first *domain.Response) (*domain.Response, error)

// useFirstResponse runs primary and then every follow up, whatever the
// primary outcome. Follow up results and errors are logged and dropped.
func useFirstResponse(ctx context.Context, primary primaryStep, followUps ...followUpStep) (*domain.Response, error) {
	first, err := primary(ctx)

	for _, step := range followUps {
		resp, stepErr := step(ctx, first)
		switch {
		case stepErr != nil:
			logging.Warn(ctx, "ignored follow up step failed", zap.Error(stepErr))
		case resp != nil && !resp.Success:
			logging.Warn(ctx, "ignored follow up step declined", zap.String("message", resp.Message))
		}
	}

	return first, err
}
