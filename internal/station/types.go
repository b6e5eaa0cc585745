package station

import (
	"fmt"
	"time"
)

// ExecutionState is the controller-wide program execution state.
type ExecutionState string

const (
	StateUnknown ExecutionState = "unknown"
	StateIdle    ExecutionState = "idle"
	StateRunning ExecutionState = "running"
	StateStopped ExecutionState = "stopped"
)

// ExecutionMode selects how the program counter advances once started.
type ExecutionMode string

const (
	ModeContinuous ExecutionMode = "continuous"
	ModeStepOver   ExecutionMode = "step_over"
	ModeStepIn     ExecutionMode = "step_in"
)

// ExecutionCycle selects how many times the main procedure runs.
type ExecutionCycle string

const (
	CycleOnce    ExecutionCycle = "once"
	CycleForever ExecutionCycle = "forever"
)

// RegainMode selects how the robot regains its programmed path on start.
type RegainMode string

// RegainContinue is the only regain behavior the control plane requests.
const RegainContinue RegainMode = "continue"

// StopMode selects the boundary at which execution halts.
type StopMode string

const (
	StopInstruction StopMode = "instruction"
	StopCycle       StopMode = "cycle"
	StopImmediate   StopMode = "immediate"
)

// StartOptions carries the execution parameters for Controller.Start.
type StartOptions struct {
	Regain RegainMode
	Mode   ExecutionMode
	Cycle  ExecutionCycle
}

// ResultCode is the host's verdict on a start request.
type ResultCode int

const (
	ResultOK ResultCode = iota
	ResultBusy
	ResultRegainRequired
	ResultError
)

func (c ResultCode) String() string {
	switch c {
	case ResultOK:
		return "Ok"
	case ResultBusy:
		return "Busy"
	case ResultRegainRequired:
		return "RegainRequired"
	case ResultError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// OK reports whether the start request was accepted by the host.
func (c ResultCode) OK() bool { return c == ResultOK }

// TaskInfo is a read-only snapshot of one program task, produced fresh on
// every query.
type TaskInfo struct {
	Name    string
	Type    string
	Enabled bool
	State   ExecutionState
}

// PointerPosition locates a program or motion pointer inside task source.
type PointerPosition struct {
	Module   string
	Routine  string
	BeginRow int
	BeginCol int
	EndRow   int
	EndCol   int
}

// LogMessage is one controller event-log entry. Sequence numbers are monotonic
// within a category, not globally.
type LogMessage struct {
	Sequence  int
	Timestamp time.Time
	Title     string
	Body      string
	Category  string
	Type      string
}
