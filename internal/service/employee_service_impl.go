package service

import (
	"context"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/google/uuid"
)

type employeeService struct {
	employees repository.EmployeeRepo
}

func NewEmployeeService(employees repository.EmployeeRepo) EmployeeService {
	return &employeeService{employees: employees}
}

func (s *employeeService) Create(ctx context.Context, e *domain.Employee) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.RoleName == "" {
		e.RoleName = "technician"
	}
	return s.employees.Create(ctx, e)
}

func (s *employeeService) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *employeeService) ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Employee, error) {
	return s.employees.ListByLaboratory(ctx, laboratoryID)
}

func (s *employeeService) Update(ctx context.Context, e *domain.Employee) error {
	e.UpdatedAt = time.Now().UTC()
	return s.employees.Update(ctx, e)
}

type laboratoryService struct {
	laboratories repository.LaboratoryRepo
}

func NewLaboratoryService(laboratories repository.LaboratoryRepo) LaboratoryService {
	return &laboratoryService{laboratories: laboratories}
}

func (s *laboratoryService) Create(ctx context.Context, l *domain.Laboratory) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	return s.laboratories.Create(ctx, l)
}

func (s *laboratoryService) GetDefault(ctx context.Context) (*domain.Laboratory, error) {
	return s.laboratories.GetDefault(ctx)
}
