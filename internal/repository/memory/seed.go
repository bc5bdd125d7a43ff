package memory

import (
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// SeedDemo fills an empty store with one department and one holder of every
// approval role, for local runs with STORAGE_DRIVER=memory.
func SeedDemo(s *Store) []employee.Employee {
	hired := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	people := []struct {
		code, name, dept string
		gender           employee.Gender
		role             employee.Role
	}{
		{"T-001", "Maria Santos", "dept-science", employee.Female, employee.RoleTeacher},
		{"T-002", "Jose Reyes", "dept-science", employee.Male, employee.RoleEmployee},
		{"H-001", "Ana Cruz", "dept-science", employee.Female, employee.RoleDeptHead},
		{"R-001", "Liza Garcia", "dept-hr", employee.Female, employee.RoleHR},
		{"D-001", "Ramon Dizon", "dept-office", employee.Male, employee.RoleDirector},
		{"X-001", "Carmen Lopez", "dept-office", employee.Female, employee.RoleExecutive},
	}

	out := make([]employee.Employee, 0, len(people))
	for _, p := range people {
		uid := newID()
		out = append(out, s.PutEmployee(employee.Employee{
			UserID:       &uid,
			EmployeeCode: p.code,
			FullName:     p.name,
			Email:        p.code + "@example.edu",
			DepartmentID: p.dept,
			Gender:       p.gender,
			Role:         p.role,
			Status:       employee.StatusActive,
			HireDate:     hired,
			Balances: employee.Balances{
				employee.CreditVacation:         decimal.NewFromInt(15),
				employee.CreditSick:             decimal.NewFromInt(15),
				employee.CreditSpecialPrivilege: decimal.NewFromInt(3),
				employee.CreditCTO:              decimal.NewFromInt(16),
			},
		}))
	}
	return out
}
