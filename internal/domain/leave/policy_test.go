package leave

import (
	"testing"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeEmployee(gender employee.Gender, role employee.Role) employee.Employee {
	return employee.Employee{
		Gender:   gender,
		Role:     role,
		Status:   employee.StatusActive,
		Balances: employee.Balances{},
	}
}

func TestCreditPolicy_Resolve(t *testing.T) {
	p := DefaultPolicy()

	cto, err := p.Resolve(TypeCTO)
	require.NoError(t, err)
	assert.Equal(t, UnitHours, cto.Unit)
	assert.False(t, cto.AllowsUnpaidFallback)
	assert.True(t, cto.DeductedAtSubmission())

	emergency, err := p.Resolve(TypeEmergency)
	require.NoError(t, err)
	assert.Equal(t, employee.CreditVacation, emergency.Credit)
	assert.False(t, emergency.DeductedAtSubmission())

	_, err = p.Resolve("sabbatical")
	assert.ErrorIs(t, err, ErrUnknownLeaveType)
}

func TestPolicyEntry_Required(t *testing.T) {
	p := DefaultPolicy()
	vl, _ := p.Resolve(TypeVacation)
	cto, _ := p.Resolve(TypeCTO)

	assert.True(t, vl.Required(3).Equal(decimal.NewFromInt(3)))
	assert.True(t, cto.Required(3).Equal(decimal.NewFromInt(24)))
}

func TestCreditPolicy_CheckEligibility(t *testing.T) {
	p := DefaultPolicy()
	maternity, _ := p.Resolve(TypeMaternity)
	soloParent, _ := p.Resolve(TypeSoloParent)
	serviceCredit, _ := p.Resolve(TypeServiceCredit)
	vacation, _ := p.Resolve(TypeVacation)

	tests := []struct {
		name    string
		emp     employee.Employee
		entry   PolicyEntry
		wantErr bool
	}{
		{"maternity female", activeEmployee(employee.Female, employee.RoleEmployee), maternity, false},
		{"maternity male", activeEmployee(employee.Male, employee.RoleEmployee), maternity, true},
		{"solo parent without flag", activeEmployee(employee.Male, employee.RoleEmployee), soloParent, true},
		{"service credit teacher", activeEmployee(employee.Male, employee.RoleTeacher), serviceCredit, false},
		{"service credit staff", activeEmployee(employee.Male, employee.RoleEmployee), serviceCredit, true},
		{"inactive", employee.Employee{Gender: employee.Male, Status: employee.StatusInactive}, vacation, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckEligibility(tt.emp, tt.entry)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotEligible)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	flagged := activeEmployee(employee.Female, employee.RoleEmployee)
	flagged.SoloParent = true
	assert.NoError(t, p.CheckEligibility(flagged, soloParent))
}

func TestCreditPolicy_Available(t *testing.T) {
	p := DefaultPolicy()
	emp := activeEmployee(employee.Female, employee.RoleEmployee)
	emp.Balances[employee.CreditSick] = decimal.NewFromInt(2)

	var got []LeaveType
	for _, e := range p.Available(emp) {
		got = append(got, e.Type)
	}

	assert.Equal(t, []LeaveType{TypeSick, TypeSpecialLeaveWomen, TypeEmergency, TypeStudy}, got)
}

func TestNewCreditPolicy_LastEntryWins(t *testing.T) {
	p := NewCreditPolicy(
		PolicyEntry{Type: TypeStudy, DisplayName: "Study"},
		PolicyEntry{Type: TypeStudy, DisplayName: "Study Leave"},
	)

	entries := p.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Study Leave", entries[0].DisplayName)
}
