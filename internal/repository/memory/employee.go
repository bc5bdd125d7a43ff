package memory

import (
	"context"
	"sort"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{store: s}
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	emp, ok := r.store.state.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return cloneEmployee(emp), nil
}

func (r *employeeRepository) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, emp := range r.store.state.employees {
		if emp.UserID != nil && *emp.UserID == userID {
			return cloneEmployee(emp), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) ListActive(_ context.Context) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool { return e.IsActive() }), nil
}

func (r *employeeRepository) ListByRole(_ context.Context, role employee.Role, departmentID *string) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool {
		if !e.IsActive() || e.Role != role {
			return false
		}
		return departmentID == nil || e.DepartmentID == *departmentID
	}), nil
}

func (r *employeeRepository) filter(keep func(employee.Employee) bool) []employee.Employee {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []employee.Employee
	for _, emp := range r.store.state.employees {
		if keep(emp) {
			out = append(out, cloneEmployee(emp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}
