// Package memory provides in-process repositories for tests and local
// development (STORAGE_DRIVER=memory).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/google/uuid"
)

type accrualKey struct {
	EmployeeID string
	CreditType employee.CreditType
	Period     string
}

// ledgerState is everything a transaction may roll back.
type ledgerState struct {
	employees   map[string]employee.Employee
	requests    map[string]leave.LeaveRequest
	approvals   map[string][]leave.Approval
	history     []leave.CreditHistoryEntry
	accrualRuns map[accrualKey]leave.AccrualRun
}

func (s ledgerState) clone() ledgerState {
	out := ledgerState{
		employees:   make(map[string]employee.Employee, len(s.employees)),
		requests:    make(map[string]leave.LeaveRequest, len(s.requests)),
		approvals:   make(map[string][]leave.Approval, len(s.approvals)),
		history:     append([]leave.CreditHistoryEntry(nil), s.history...),
		accrualRuns: make(map[accrualKey]leave.AccrualRun, len(s.accrualRuns)),
	}
	for k, v := range s.employees {
		out.employees[k] = cloneEmployee(v)
	}
	for k, v := range s.requests {
		out.requests[k] = cloneRequest(v)
	}
	for k, v := range s.approvals {
		out.approvals[k] = append([]leave.Approval(nil), v...)
	}
	for k, v := range s.accrualRuns {
		out.accrualRuns[k] = v
	}
	return out
}

// Store is a single in-memory database. Transactions are serialized and
// restored from a snapshot when fn fails, which gives the same isolation the
// row locks provide in PostgreSQL.
type Store struct {
	txMu sync.Mutex

	mu            sync.RWMutex
	state         ledgerState
	markers       map[string]time.Time
	notifications []*notification.Notification
	preferences   map[string]notification.NotificationPreference

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: ledgerState{
			employees:   make(map[string]employee.Employee),
			requests:    make(map[string]leave.LeaveRequest),
			approvals:   make(map[string][]leave.Approval),
			accrualRuns: make(map[accrualKey]leave.AccrualRun),
		},
		markers:     make(map[string]time.Time),
		preferences: make(map[string]notification.NotificationPreference),
		now:         time.Now,
	}
}

// SetClock overrides the clock used for marker expiry and timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutEmployee inserts or replaces an employee record, including balances.
func (s *Store) PutEmployee(emp employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emp.ID == "" {
		emp.ID = newID()
	}
	if emp.Balances == nil {
		emp.Balances = employee.Balances{}
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = s.now()
	}
	emp.UpdatedAt = s.now()
	s.state.employees[emp.ID] = cloneEmployee(emp)
	return cloneEmployee(emp)
}

type txKey struct{}

type txManager struct {
	store *Store
}

func NewTxManager(s *Store) leave.TxManager {
	return &txManager{store: s}
}

func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s := m.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	restore := func() {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		restore()
		return err
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func cloneEmployee(e employee.Employee) employee.Employee {
	e.Balances = e.Balances.Clone()
	return e
}

func cloneRequest(r leave.LeaveRequest) leave.LeaveRequest {
	r.SelectedDates = append([]time.Time(nil), r.SelectedDates...)
	r.Approvals = append([]leave.Approval(nil), r.Approvals...)
	return r
}

func sortRequests(reqs []leave.LeaveRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}
