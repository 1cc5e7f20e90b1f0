package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
)

type StatsOutput struct {
	TotalOutstanding int
	CountByPurpose   map[string]int
}

// Stats returns the outstanding code counts. Requires the passcode.stats/read
// permission.
func (s *Usecase) Stats(ctx context.Context) (*StatsOutput, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, "passcode.stats", "read"); err != nil {
		return nil, err
	}

	st, err := s.otp.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read passcode stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatsOutput{
		TotalOutstanding: st.TotalOutstanding,
		CountByPurpose: lo.MapKeys(st.CountByPurpose, func(_ int, p otp.Purpose) string {
			return p.String()
		}),
	}, nil
}
