package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/ejohntemperatura/Thesis-sub000/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

// Monday 2 March 2026, 09:00 UTC.
var testNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []leave.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e leave.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []leave.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]leave.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// faultyCredits fails the next failApply balance writes, every write to
// failCredit, and history appends whose source matches failSource.
type faultyCredits struct {
	leave.CreditRepository

	mu         sync.Mutex
	failApply  int
	failCredit employee.CreditType
	failSource leave.HistorySource
}

func (f *faultyCredits) ApplyDelta(ctx context.Context, employeeID string, credit employee.CreditType, delta decimal.Decimal) (decimal.Decimal, error) {
	if f.failCredit != "" && credit == f.failCredit {
		return decimal.Zero, errors.New("balance column locked")
	}
	f.mu.Lock()
	if f.failApply > 0 {
		f.failApply--
		f.mu.Unlock()
		return decimal.Zero, leave.ErrNegativeBalance
	}
	f.mu.Unlock()
	return f.CreditRepository.ApplyDelta(ctx, employeeID, credit, delta)
}

func (f *faultyCredits) AppendHistory(ctx context.Context, entry leave.CreditHistoryEntry) (leave.CreditHistoryEntry, error) {
	if f.failSource != "" && entry.Source == f.failSource {
		return leave.CreditHistoryEntry{}, errors.New("history table unavailable")
	}
	return f.CreditRepository.AppendHistory(ctx, entry)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     *memory.Store
	repos     Repositories
	clock     *testClock
	publisher *recordingPublisher
	signer    *jwt.JWTService
	svc       *LeaveServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	clock := &testClock{now: testNow}
	store.SetClock(clock.Now)

	env := &testEnv{
		store: store,
		repos: Repositories{
			Employees: memory.NewEmployeeRepository(store),
			Credits:   memory.NewCreditRepository(store),
			Requests:  memory.NewLeaveRequestRepository(store),
			Accruals:  memory.NewAccrualRepository(store),
			Markers:   memory.NewSubmissionMarkerRepository(store),
			Tx:        memory.NewTxManager(store),
		},
		clock:     clock,
		publisher: &recordingPublisher{},
		signer:    jwt.NewJWTService(testSecret, time.Hour),
	}
	env.rebuild()
	return env
}

// rebuild constructs the service again after repos were swapped.
func (e *testEnv) rebuild() {
	e.svc = NewLeaveService(leave.DefaultPolicy(), e.repos, e.signer, e.publisher, Config{
		SubmissionWindow: time.Minute,
		NegotiationTTL:   5 * time.Minute,
		Location:         time.UTC,
		Now:              e.clock.Now,
	})
}

type employeeOpt func(*employee.Employee)

func withRole(r employee.Role) employeeOpt {
	return func(e *employee.Employee) { e.Role = r }
}

func withDepartment(d string) employeeOpt {
	return func(e *employee.Employee) { e.DepartmentID = d }
}

func withGender(g employee.Gender) employeeOpt {
	return func(e *employee.Employee) { e.Gender = g }
}

func withBalance(c employee.CreditType, amount string) employeeOpt {
	return func(e *employee.Employee) { e.Balances[c] = decimal.RequireFromString(amount) }
}

func inactive() employeeOpt {
	return func(e *employee.Employee) { e.Status = employee.StatusInactive }
}

func (e *testEnv) addEmployee(t *testing.T, name string, opts ...employeeOpt) leave.Actor {
	t.Helper()
	userID := "user-" + name
	emp := employee.Employee{
		UserID:       &userID,
		EmployeeCode: name,
		FullName:     name,
		Email:        name + "@example.edu",
		DepartmentID: "dept-science",
		Gender:       employee.Female,
		Role:         employee.RoleEmployee,
		Status:       employee.StatusActive,
		HireDate:     testNow.AddDate(-3, 0, 0),
		Balances:     employee.Balances{},
	}
	for _, opt := range opts {
		opt(&emp)
	}
	saved := e.store.PutEmployee(emp)
	return leave.Actor{UserID: userID, EmployeeID: saved.ID, Role: saved.Role}
}

// approvers registers one approver per stage in dept-science.
func (e *testEnv) approvers(t *testing.T) map[leave.Stage]leave.Actor {
	t.Helper()
	return map[leave.Stage]leave.Actor{
		leave.StageDeptHead: e.addEmployee(t, "head", withRole(employee.RoleDeptHead)),
		leave.StageHR:       e.addEmployee(t, "hr", withRole(employee.RoleHR), withDepartment("dept-hr")),
		leave.StageDirector: e.addEmployee(t, "director", withRole(employee.RoleDirector), withDepartment("dept-office")),
		leave.StageFinal:    e.addEmployee(t, "exec", withRole(employee.RoleExecutive), withDepartment("dept-office")),
	}
}

func (e *testEnv) balance(t *testing.T, employeeID string, c employee.CreditType) decimal.Decimal {
	t.Helper()
	emp, err := e.repos.Employees.GetByID(context.Background(), employeeID)
	require.NoError(t, err)
	return emp.Balances.Get(c)
}

func (e *testEnv) history(t *testing.T, employeeID string) []leave.CreditHistoryEntry {
	t.Helper()
	h, err := e.repos.Credits.ListHistory(context.Background(), employeeID, nil)
	require.NoError(t, err)
	return h
}

// submit files a request and requires it to be persisted.
func (e *testEnv) submit(t *testing.T, actor leave.Actor, req leave.SubmitRequest) leave.LeaveRequestResponse {
	t.Helper()
	res, err := e.svc.Submit(context.Background(), actor, req)
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	return *res.Request
}

func (e *testEnv) approve(t *testing.T, approver leave.Actor, requestID string, stage leave.Stage) leave.LeaveRequestResponse {
	t.Helper()
	resp, err := e.svc.Decide(context.Background(), approver, leave.DecisionRequest{
		RequestID: requestID,
		Stage:     stage,
		Decision:  leave.DecisionApprove,
	})
	require.NoError(t, err)
	return resp
}

func rangeRequest(t leave.LeaveType, start, end string) leave.SubmitRequest {
	return leave.SubmitRequest{LeaveType: t, StartDate: start, EndDate: end, Reason: "family matters"}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}
