package inbound

import (
	"context"

	"github.com/shandysiswandi/gootp/internal/notification/usecase"
)

type uc interface {
	ConsumePasscodeIssued(ctx context.Context, in usecase.ConsumePasscodeIssuedInput) error
}
