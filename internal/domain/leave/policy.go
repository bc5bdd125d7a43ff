package leave

import (
	"fmt"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// LeaveType is the closed set of leave identifiers. The same set is declared
// as the leave_type enum in the schema migrations.
type LeaveType string

const (
	TypeVacation          LeaveType = "vacation"
	TypeSick              LeaveType = "sick"
	TypeSpecialPrivilege  LeaveType = "special_privilege"
	TypeCTO               LeaveType = "cto"
	TypeServiceCredit     LeaveType = "service_credit"
	TypeMaternity         LeaveType = "maternity"
	TypePaternity         LeaveType = "paternity"
	TypeSoloParent        LeaveType = "solo_parent"
	TypeSpecialLeaveWomen LeaveType = "special_leave_women"
	TypeEmergency         LeaveType = "emergency"
	TypeStudy             LeaveType = "study"
	TypeUnpaid            LeaveType = "unpaid"
)

// Unit is the denomination of a credit balance.
type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

// HoursPerDay converts weekdays into CTO hours.
const HoursPerDay = 8

// PolicyEntry is one row of the credit policy table.
type PolicyEntry struct {
	Type                 LeaveType
	DisplayName          string
	Credit               employee.CreditType // empty when the type consumes no balance
	RequiresCredits      bool
	Unit                 Unit
	Gender               *employee.Gender
	RequiresSoloParent   bool
	EligibleRoles        []employee.Role // empty means any role
	AlwaysShow           bool
	AllowsUnpaidFallback bool
}

// Required converts a weekday count into the quantity drawn from the balance.
func (p PolicyEntry) Required(weekdays int) decimal.Decimal {
	days := decimal.NewFromInt(int64(weekdays))
	if p.Unit == UnitHours {
		return days.Mul(decimal.NewFromInt(HoursPerDay))
	}
	return days
}

// DeductedAtSubmission reports whether credits are taken when the request is
// filed rather than when the final stage approves it.
func (p PolicyEntry) DeductedAtSubmission() bool {
	return p.RequiresCredits && p.Unit == UnitHours
}

// CreditPolicy is an immutable lookup table keyed by leave type.
type CreditPolicy struct {
	entries map[LeaveType]PolicyEntry
	order   []LeaveType
}

func NewCreditPolicy(entries ...PolicyEntry) *CreditPolicy {
	p := &CreditPolicy{entries: make(map[LeaveType]PolicyEntry, len(entries))}
	for _, e := range entries {
		if _, dup := p.entries[e.Type]; !dup {
			p.order = append(p.order, e.Type)
		}
		p.entries[e.Type] = e
	}
	return p
}

func genderPtr(g employee.Gender) *employee.Gender { return &g }

// DefaultPolicy returns the institution's leave table.
func DefaultPolicy() *CreditPolicy {
	return NewCreditPolicy(
		PolicyEntry{Type: TypeVacation, DisplayName: "Vacation Leave", Credit: employee.CreditVacation, RequiresCredits: true, Unit: UnitDays, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeSick, DisplayName: "Sick Leave", Credit: employee.CreditSick, RequiresCredits: true, Unit: UnitDays, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeSpecialPrivilege, DisplayName: "Special Leave Privilege", Credit: employee.CreditSpecialPrivilege, RequiresCredits: true, Unit: UnitDays, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeCTO, DisplayName: "Compensatory Time Off", Credit: employee.CreditCTO, RequiresCredits: true, Unit: UnitHours, AllowsUnpaidFallback: false},
		PolicyEntry{Type: TypeServiceCredit, DisplayName: "Service Credit", Credit: employee.CreditServiceCredit, RequiresCredits: true, Unit: UnitDays, EligibleRoles: []employee.Role{employee.RoleTeacher}, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeMaternity, DisplayName: "Maternity Leave", Credit: employee.CreditMaternity, RequiresCredits: true, Unit: UnitDays, Gender: genderPtr(employee.Female), AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypePaternity, DisplayName: "Paternity Leave", Credit: employee.CreditPaternity, RequiresCredits: true, Unit: UnitDays, Gender: genderPtr(employee.Male), AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeSoloParent, DisplayName: "Solo Parent Leave", Credit: employee.CreditSoloParent, RequiresCredits: true, Unit: UnitDays, RequiresSoloParent: true, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeSpecialLeaveWomen, DisplayName: "Special Leave Benefits for Women", Unit: UnitDays, Gender: genderPtr(employee.Female), AlwaysShow: true},
		PolicyEntry{Type: TypeEmergency, DisplayName: "Emergency Leave", Credit: employee.CreditVacation, RequiresCredits: true, Unit: UnitDays, AlwaysShow: true, AllowsUnpaidFallback: true},
		PolicyEntry{Type: TypeStudy, DisplayName: "Study Leave", Unit: UnitDays, AlwaysShow: true},
		PolicyEntry{Type: TypeUnpaid, DisplayName: "Leave Without Pay", Unit: UnitDays, AlwaysShow: true},
	)
}

// Resolve returns the policy for t or ErrUnknownLeaveType.
func (p *CreditPolicy) Resolve(t LeaveType) (PolicyEntry, error) {
	e, ok := p.entries[t]
	if !ok {
		return PolicyEntry{}, fmt.Errorf("%w: %q", ErrUnknownLeaveType, t)
	}
	return e, nil
}

// Entries returns every policy row in declaration order.
func (p *CreditPolicy) Entries() []PolicyEntry {
	out := make([]PolicyEntry, 0, len(p.order))
	for _, t := range p.order {
		out = append(out, p.entries[t])
	}
	return out
}

// CheckEligibility applies the gender, solo-parent, role and account status
// restrictions of entry to emp.
func (p *CreditPolicy) CheckEligibility(emp employee.Employee, entry PolicyEntry) error {
	if !emp.IsActive() {
		return fmt.Errorf("%w: account is not active", ErrNotEligible)
	}
	if entry.Gender != nil && emp.Gender != *entry.Gender {
		return fmt.Errorf("%w: %s is restricted to %s employees", ErrNotEligible, entry.DisplayName, *entry.Gender)
	}
	if entry.RequiresSoloParent && !emp.SoloParent {
		return fmt.Errorf("%w: %s requires solo parent status", ErrNotEligible, entry.DisplayName)
	}
	if len(entry.EligibleRoles) > 0 {
		allowed := false
		for _, r := range entry.EligibleRoles {
			if r == emp.Role {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s is not available for role %s", ErrNotEligible, entry.DisplayName, emp.Role)
		}
	}
	return nil
}

// Available lists the types emp may pick from: eligible, and either free of
// credits, always shown, or backed by a positive balance.
func (p *CreditPolicy) Available(emp employee.Employee) []PolicyEntry {
	var out []PolicyEntry
	for _, e := range p.Entries() {
		if e.Type == TypeUnpaid {
			continue
		}
		if p.CheckEligibility(emp, e) != nil {
			continue
		}
		if !e.RequiresCredits || e.AlwaysShow || emp.Balances.Get(e.Credit).IsPositive() {
			out = append(out, e)
		}
	}
	return out
}
