package roster

import (
	"context"
	"errors"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

func observe(ctx context.Context, l logger.Logger, entity, operation string, err error, fields ...logger.Field) {
	fields = append(fields, logger.String("entity", entity), logger.String("operation", operation))
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
		l.Debug(ctx, "roster operation completed", fields...)
	case errors.Is(err, model.ErrTransient):
		outcome = metrics.OutcomeError
		l.Error(ctx, "roster operation failed", append(fields, logger.Error(err))...)
	default:
		outcome = metrics.OutcomeError
		l.Warn(ctx, "roster operation rejected", append(fields, logger.Error(err))...)
	}
	metrics.RecordRosterOperation(entity, operation, outcome)
}

// classify keeps domain kinds and tags everything else as transient.
func classify(op string, err error) error {
	if errs.KindOf(err,
		model.ErrInvalidReference,
		model.ErrInvalidState,
		model.ErrNotFound,
		model.ErrConflict,
		model.ErrTransient,
	) != nil {
		return errs.Wrap(op, err)
	}
	return errs.WrapKind(op, model.ErrTransient, err)
}
