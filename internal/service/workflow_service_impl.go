package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/stage"
)

type workflowService struct {
	deliveries repository.DeliveryRepo
	catalog    *stage.Catalog
	uow        db.UnitOfWork
	observer   OperationObserver
}

// NewWorkflowService creates the stage-transition engine. Each transition is
// a read-modify-write inside one transaction; across callers the last write
// wins, there is no optimistic-concurrency token.
func NewWorkflowService(
	deliveries repository.DeliveryRepo,
	catalog *stage.Catalog,
	uow db.UnitOfWork,
	observers ...OperationObserver,
) WorkflowService {
	return &workflowService{
		deliveries: deliveries,
		catalog:    catalog,
		uow:        uow,
		observer:   observerOrNoop(observers),
	}
}

func (s *workflowService) RequestTransition(ctx context.Context, env domain.PermissionEnvelope, deliveryID, targetStageID string) (*domain.Delivery, error) {
	start := time.Now()
	d, err := s.requestTransition(ctx, env, deliveryID, targetStageID)
	s.observe(ctx, "stage_transition", start, err, map[string]any{
		"delivery": deliveryID,
		"target":   targetStageID,
	})
	return d, err
}

func (s *workflowService) requestTransition(ctx context.Context, env domain.PermissionEnvelope, deliveryID, targetStageID string) (*domain.Delivery, error) {
	if _, ok := s.catalog.ByID(targetStageID); !ok {
		return nil, fmt.Errorf("stage %q: %w", targetStageID, ErrUnknownStage)
	}
	if !env.CanEditStage(targetStageID) {
		return nil, fmt.Errorf("stage %q: %w", targetStageID, ErrStageNotAllowed)
	}

	var updated *domain.Delivery
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDeliveries := repository.NewSQLiteDeliveryRepo(tx)

		d, err := txDeliveries.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		progress := s.catalog.Progress(targetStageID)
		status := domain.StatusForProgress(progress)
		now := time.Now().UTC()

		if err := txDeliveries.UpdateStage(ctx, d.ID, &targetStageID, progress, status, now); err != nil {
			return err
		}

		d.CurrentStageID = &targetStageID
		d.ProgressPercentage = progress
		d.Status = status
		d.UpdatedAt = now
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *workflowService) AdvanceToNext(ctx context.Context, env domain.PermissionEnvelope, deliveryID string) (*domain.Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	next, ok := s.catalog.Next(d.StageID())
	if !ok {
		return nil, fmt.Errorf("delivery %s: %w", d.DeliveryNumber, ErrNoNextStage)
	}
	// Authorization happens in RequestTransition; no separate pre-check.
	return s.RequestTransition(ctx, env, deliveryID, next.ID)
}

// MarkDelivered is the only operation that produces 100% progress. It checks
// no stage-edit permission: delivery is a terminal action available to every
// role that can see the item.
func (s *workflowService) MarkDelivered(ctx context.Context, env domain.PermissionEnvelope, deliveryID string) (*domain.Delivery, error) {
	start := time.Now()

	var updated *domain.Delivery
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDeliveries := repository.NewSQLiteDeliveryRepo(tx)

		d, err := txDeliveries.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := txDeliveries.MarkDelivered(ctx, d.ID, now); err != nil {
			return err
		}

		d.ProgressPercentage = 100
		d.Status = domain.StatusCompleted
		d.UpdatedAt = now
		updated = d
		return nil
	})

	s.observe(ctx, "mark_delivered", start, err, map[string]any{"delivery": deliveryID})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *workflowService) observe(ctx context.Context, op string, start time.Time, err error, attrs map[string]any) {
	s.observer.Observe(ctx, OperationEvent{
		Op:      op,
		Elapsed: time.Since(start),
		Err:     err,
		Attrs:   attrs,
	})
}
