package leave

import (
	"fmt"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
)

type LeaveRequestStatus string

const (
	StatusPending          LeaveRequestStatus = "pending"
	StatusDeptHeadApproved LeaveRequestStatus = "dept_head_approved"
	StatusHRApproved       LeaveRequestStatus = "hr_approved"
	StatusDirectorApproved LeaveRequestStatus = "director_approved"
	StatusApproved         LeaveRequestStatus = "approved"
	StatusRejected         LeaveRequestStatus = "rejected"
	StatusCancelled        LeaveRequestStatus = "cancelled"
)

func (s LeaveRequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Stage string

const (
	StageDeptHead Stage = "dept_head"
	StageHR       Stage = "hr"
	StageDirector Stage = "director"
	StageFinal    Stage = "final"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Transition is one row of the approval table.
type Transition struct {
	Stage Stage
	Role  employee.Role
	From  LeaveRequestStatus
	To    LeaveRequestStatus
}

var transitions = []Transition{
	{Stage: StageDeptHead, Role: employee.RoleDeptHead, From: StatusPending, To: StatusDeptHeadApproved},
	{Stage: StageHR, Role: employee.RoleHR, From: StatusDeptHeadApproved, To: StatusHRApproved},
	{Stage: StageDirector, Role: employee.RoleDirector, From: StatusHRApproved, To: StatusDirectorApproved},
	{Stage: StageFinal, Role: employee.RoleExecutive, From: StatusDirectorApproved, To: StatusApproved},
}

// Stages returns the approval stages in order.
func Stages() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// TransitionFor returns the table row for stage.
func TransitionFor(stage Stage) (Transition, bool) {
	for _, t := range transitions {
		if t.Stage == stage {
			return t, true
		}
	}
	return Transition{}, false
}

// CurrentStage returns the stage that may act on a request in status s.
func CurrentStage(s LeaveRequestStatus) (Transition, bool) {
	for _, t := range transitions {
		if t.From == s {
			return t, true
		}
	}
	return Transition{}, false
}

// IsFinal reports whether approving this stage completes the request.
func (t Transition) IsFinal() bool {
	return t.To == StatusApproved
}

// OutOfSequenceError is returned when a stage acts before its turn.
type OutOfSequenceError struct {
	Attempted Stage
	Expected  Stage // empty when the request is terminal
	Status    LeaveRequestStatus
}

func (e *OutOfSequenceError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("stage %s cannot act on a %s request", e.Attempted, e.Status)
	}
	return fmt.Sprintf("stage %s is out of sequence: request is %s, awaiting %s", e.Attempted, e.Status, e.Expected)
}

func (e *OutOfSequenceError) Unwrap() error {
	return ErrOutOfSequence
}
