package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           string
	UserID       *string
	EmployeeCode string
	FullName     string
	Email        string
	DepartmentID string
	Gender       Gender
	SoloParent   bool
	Role         Role
	Status       Status
	HireDate     time.Time
	Balances     Balances
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the employee account can file or receive credits.
func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type Role string

const (
	RoleEmployee  Role = "employee"
	RoleTeacher   Role = "teacher"
	RoleDeptHead  Role = "dept_head"
	RoleHR        Role = "hr"
	RoleDirector  Role = "director"
	RoleExecutive Role = "executive"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleTeacher, RoleDeptHead, RoleHR, RoleDirector, RoleExecutive, RoleAdmin:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// CreditType names a balance column on the employee record.
type CreditType string

const (
	CreditVacation         CreditType = "vacation"
	CreditSick             CreditType = "sick"
	CreditSpecialPrivilege CreditType = "special_privilege"
	CreditCTO              CreditType = "cto"
	CreditServiceCredit    CreditType = "service_credit"
	CreditMaternity        CreditType = "maternity"
	CreditPaternity        CreditType = "paternity"
	CreditSoloParent       CreditType = "solo_parent"
)

// AllCreditTypes returns every balance the ledger tracks, in display order.
func AllCreditTypes() []CreditType {
	return []CreditType{
		CreditVacation,
		CreditSick,
		CreditSpecialPrivilege,
		CreditCTO,
		CreditServiceCredit,
		CreditMaternity,
		CreditPaternity,
		CreditSoloParent,
	}
}

func (c CreditType) IsValid() bool {
	for _, t := range AllCreditTypes() {
		if t == c {
			return true
		}
	}
	return false
}

// Balances holds one quantity per credit type. CTO is in hours, the rest in days.
type Balances map[CreditType]decimal.Decimal

// Get returns the balance for c, zero when absent.
func (b Balances) Get(c CreditType) decimal.Decimal {
	if v, ok := b[c]; ok {
		return v
	}
	return decimal.Zero
}

func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
