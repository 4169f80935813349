package service

import (
	"context"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/google/uuid"
)

type deliveryService struct {
	deliveries repository.DeliveryRepo
}

func NewDeliveryService(deliveries repository.DeliveryRepo) DeliveryService {
	return &deliveryService{deliveries: deliveries}
}

func (s *deliveryService) Create(ctx context.Context, d *domain.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = domain.StatusPending
	}
	if d.Priority == "" {
		d.Priority = domain.PriorityNormal
	}
	return s.deliveries.Create(ctx, d)
}

func (s *deliveryService) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	return s.deliveries.GetByID(ctx, id)
}

func (s *deliveryService) GetByNumber(ctx context.Context, laboratoryID, deliveryNumber string) (*domain.Delivery, error) {
	return s.deliveries.GetByNumber(ctx, laboratoryID, deliveryNumber)
}

func (s *deliveryService) ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Delivery, error) {
	return s.deliveries.ListByLaboratory(ctx, laboratoryID)
}

func (s *deliveryService) ListVisible(ctx context.Context, laboratoryID string, env domain.PermissionEnvelope, opts FilterOptions) ([]*domain.Delivery, error) {
	items, err := s.deliveries.ListByLaboratory(ctx, laboratoryID)
	if err != nil {
		return nil, err
	}
	return FilterVisible(items, env, opts), nil
}

func (s *deliveryService) Update(ctx context.Context, d *domain.Delivery) error {
	d.UpdatedAt = time.Now().UTC()
	return s.deliveries.Update(ctx, d)
}

func (s *deliveryService) Assign(ctx context.Context, deliveryID, employeeID string) error {
	return s.deliveries.Assign(ctx, deliveryID, employeeID, time.Now().UTC())
}

func (s *deliveryService) Unassign(ctx context.Context, deliveryID, employeeID string) error {
	return s.deliveries.Unassign(ctx, deliveryID, employeeID)
}

func (s *deliveryService) Delete(ctx context.Context, id string) error {
	return s.deliveries.Delete(ctx, id)
}
