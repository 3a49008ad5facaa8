package services

import (
	"context"

	"github.com/civitrack/apiserver/types"
)

// DepartmentRepository defines persistence operations for departments.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id int) (types.Department, error)
	List(ctx context.Context) ([]types.Department, error)
	Create(ctx context.Context, dept types.Department) (types.Department, error)
	Update(ctx context.Context, dept types.Department) (types.Department, error)
	Delete(ctx context.Context, id int) error
}

// DepartmentService encapsulates department use-cases.
type DepartmentService struct {
	repo DepartmentRepository
}

func NewDepartmentService(repo DepartmentRepository) *DepartmentService {
	return &DepartmentService{repo: repo}
}

func (s *DepartmentService) Get(ctx context.Context, id int) (types.Department, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DepartmentService) List(ctx context.Context) ([]types.Department, error) {
	return s.repo.List(ctx)
}

func (s *DepartmentService) Create(ctx context.Context, name, description string) (types.Department, error) {
	return s.repo.Create(ctx, types.Department{Name: name, Description: description})
}

// Update applies a partial update: empty fields keep their prior value.
func (s *DepartmentService) Update(ctx context.Context, id int, name, description string) (types.Department, error) {
	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Department{}, err
	}
	if name != "" {
		dept.Name = name
	}
	if description != "" {
		dept.Description = description
	}
	return s.repo.Update(ctx, dept)
}

// Delete removes a department unless complaints still reference it, in
// which case the repository reports ErrInUse.
func (s *DepartmentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
