package workflow

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"gorm.io/gorm"
)

// ClosePeriod locks a YYYY-MM period and every date before its end.
// Closing a closed period returns it unchanged.
func (e *Engine) ClosePeriod(ctx context.Context, periodId string, actorUserId string) (*models.Period, error) {
	if actorUserId == "" {
		actorUserId, _ = utils.GetActorUserIdFromContext(ctx)
	}
	if strings.TrimSpace(actorUserId) == "" {
		return nil, models.NewUnauthenticatedError("actor identity is required")
	}
	ctx, span := e.tracer.Start(ctx, "ledger.close-period")
	defer span.End()

	var period *models.Period
	err := models.RunInTransaction(ctx, e.db, e.txOptions(), func(tx *gorm.DB) error {
		var err error
		period, err = models.ClosePeriod(tx, periodId, actorUserId, e.opts.Timezone)
		return err
	})
	if err != nil {
		return nil, e.fail(span, "CLOSE_PERIOD", periodId, StateValidated, err)
	}
	e.logger.WithFields(logrus.Fields{
		"field":         "Engine.ClosePeriod",
		"period_id":     period.ID,
		"actor_user_id": actorUserId,
	}).Info("period closed")
	return period, nil
}

func (e *Engine) GetPeriod(ctx context.Context, periodId string) (*models.Period, error) {
	return models.GetPeriod(e.db.WithContext(ctx), periodId)
}

func (e *Engine) ListPeriods(ctx context.Context) ([]*models.Period, error) {
	return models.ListPeriods(e.db.WithContext(ctx))
}
