package virtual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simforge/simbridge/internal/station"
)

const entryRoutine = "main"

type taskState struct {
	name     string
	taskType string
	enabled  bool
	modules  []string
	pointer  station.PointerPosition
	motion   station.PointerPosition
	hasPP    bool
}

// Controller is an in-memory device controller. One backing instance is shared
// by every session connected to it, so state survives reconnects the way it
// does on a real controller.
type Controller struct {
	name string

	// The mastership lease. Capacity one; holding the token is holding the
	// lease, and waiters block in AcquireMastership until it is returned.
	lease chan struct{}

	mu       sync.Mutex
	state    station.ExecutionState
	tasks    []*taskState
	joints   []float64
	files    map[string][]byte
	catOrder []string
	logs     map[string][]station.LogMessage
	logSeq   map[string]int
	failCats map[string]bool

	unreachable  atomic.Bool
	failPointers atomic.Bool
}

func newController(name string) *Controller {
	c := &Controller{
		name:     name,
		lease:    make(chan struct{}, 1),
		state:    station.StateIdle,
		joints:   []float64{0, -30, 30, 0, 45, 0},
		files:    make(map[string][]byte),
		logs:     make(map[string][]station.LogMessage),
		logSeq:   make(map[string]int),
		failCats: make(map[string]bool),
	}
	c.tasks = []*taskState{{
		name:     "T_ROB1",
		taskType: "normal",
		enabled:  true,
	}}
	c.AppendLog("System", "info", "Controller started", "Virtual controller "+name+" initialized.")
	return c
}

func (c *Controller) Name() string { return c.name }

// Close ends the session. The backing controller state is shared, so there is
// nothing to tear down.
func (c *Controller) Close() error { return nil }

// SetUnreachable makes future Connect calls against this controller fail.
func (c *Controller) SetUnreachable(v bool) { c.unreachable.Store(v) }

// FailPointers makes pointer reads fail, modeling tasks whose pointer is not
// set or not readable.
func (c *Controller) FailPointers(v bool) { c.failPointers.Store(v) }

// SetJoints replaces the reported joint pose.
func (c *Controller) SetJoints(values []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joints = append([]float64(nil), values...)
}

// AddTask registers an additional task.
func (c *Controller) AddTask(name, taskType string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, &taskState{name: name, taskType: taskType, enabled: enabled})
}

func (c *Controller) AcquireMastership(ctx context.Context) (station.ReleaseFunc, error) {
	select {
	case c.lease <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire mastership: %w", ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-c.lease })
	}, nil
}

func (c *Controller) ExecutionState(ctx context.Context) (station.ExecutionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, nil
}

func (c *Controller) JointAngles(ctx context.Context) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.joints...), nil
}

func (c *Controller) Tasks(ctx context.Context) ([]station.TaskInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	infos := make([]station.TaskInfo, 0, len(c.tasks))
	for _, t := range c.tasks {
		infos = append(infos, c.snapshotLocked(t))
	}
	return infos, nil
}

func (c *Controller) Task(ctx context.Context, name string) (station.TaskInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findTaskLocked(name)
	if t == nil {
		return station.TaskInfo{}, fmt.Errorf("task %q: %w", name, station.ErrTaskNotFound)
	}
	return c.snapshotLocked(t), nil
}

func (c *Controller) ProgramPointer(ctx context.Context, task string) (station.PointerPosition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findTaskLocked(task)
	if t == nil {
		return station.PointerPosition{}, fmt.Errorf("task %q: %w", task, station.ErrTaskNotFound)
	}
	if c.failPointers.Load() || !t.hasPP {
		return station.PointerPosition{}, fmt.Errorf("task %q: program pointer not set", task)
	}
	return t.pointer, nil
}

func (c *Controller) MotionPointer(ctx context.Context, task string) (station.PointerPosition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findTaskLocked(task)
	if t == nil {
		return station.PointerPosition{}, fmt.Errorf("task %q: %w", task, station.ErrTaskNotFound)
	}
	if c.failPointers.Load() || !t.hasPP {
		return station.PointerPosition{}, fmt.Errorf("task %q: motion pointer not set", task)
	}
	return t.motion, nil
}

func (c *Controller) PutFile(ctx context.Context, localPath, remoteName string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("transfer %s: %w", remoteName, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[remoteName] = data
	return nil
}

func (c *Controller) LoadModule(ctx context.Context, task, remoteName string, replace bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findTaskLocked(task)
	if t == nil {
		return fmt.Errorf("task %q: %w", task, station.ErrTaskNotFound)
	}
	if c.state == station.StateRunning {
		return fmt.Errorf("load into %q: controller is executing", task)
	}
	data, ok := c.files[remoteName]
	if !ok {
		return fmt.Errorf("load %s: %w", remoteName, station.ErrFileNotFound)
	}
	if !strings.Contains(string(data), "MODULE") {
		c.appendLogLocked("Operational", "error", "Module load failed",
			fmt.Sprintf("Syntax error in %s: no MODULE declaration.", remoteName))
		return fmt.Errorf("load %s: syntax error, no MODULE declaration", remoteName)
	}

	module := strings.TrimSuffix(remoteName, filepath.Ext(remoteName))
	if replace {
		t.modules = removeString(t.modules, module)
	}
	t.modules = append(t.modules, module)
	t.pointer = entryPointer(module)
	t.motion = entryPointer(module)
	t.hasPP = true
	c.appendLogLocked("Operational", "info", "Module loaded",
		fmt.Sprintf("Module %s loaded into task %s.", module, task))
	return nil
}

func (c *Controller) Start(ctx context.Context, opts station.StartOptions) (station.ResultCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == station.StateRunning {
		return station.ResultBusy, nil
	}
	hasProgram := false
	for _, t := range c.tasks {
		if t.enabled && len(t.modules) > 0 {
			hasProgram = true
		}
	}
	if !hasProgram {
		c.appendLogLocked("Operational", "error", "Start rejected", "No program loaded in any enabled task.")
		return station.ResultError, nil
	}
	c.state = station.StateRunning
	c.appendLogLocked("Operational", "info", "Program started",
		fmt.Sprintf("Execution started, mode %s, cycle %s.", opts.Mode, opts.Cycle))
	return station.ResultOK, nil
}

func (c *Controller) Stop(ctx context.Context, mode station.StopMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == station.StateRunning {
		c.state = station.StateStopped
		c.appendLogLocked("Operational", "info", "Program stopped",
			fmt.Sprintf("Execution stopped at %s boundary.", mode))
	}
	return nil
}

func (c *Controller) ResetPointer(ctx context.Context, task string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findTaskLocked(task)
	if t == nil {
		return fmt.Errorf("task %q: %w", task, station.ErrTaskNotFound)
	}
	if c.state == station.StateRunning {
		return fmt.Errorf("reset pointer on %q: controller is executing", task)
	}
	module := "McpModule"
	if len(t.modules) > 0 {
		module = t.modules[len(t.modules)-1]
	}
	t.pointer = entryPointer(module)
	t.hasPP = true
	c.appendLogLocked("Operational", "info", "Pointer reset",
		fmt.Sprintf("Program pointer of task %s moved to %s.%s.", task, module, entryRoutine))
	return nil
}

func (c *Controller) LogCategories(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.catOrder...), nil
}

// FailLogCategory makes reads of the named category fail, modeling a log
// domain the controller refuses to enumerate.
func (c *Controller) FailLogCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCats[category] = true
}

func (c *Controller) LogMessages(ctx context.Context, category string) ([]station.LogMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCats[category] {
		return nil, fmt.Errorf("log category %q unavailable", category)
	}
	msgs, ok := c.logs[category]
	if !ok {
		return nil, fmt.Errorf("log category %q not found", category)
	}
	return append([]station.LogMessage(nil), msgs...), nil
}

// AppendLog records an event, creating the category on first use.
func (c *Controller) AppendLog(category, msgType, title, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLogLocked(category, msgType, title, body)
}

func (c *Controller) appendLogLocked(category, msgType, title, body string) {
	if _, ok := c.logs[category]; !ok {
		c.catOrder = append(c.catOrder, category)
		c.logs[category] = nil
	}
	c.logSeq[category]++
	c.logs[category] = append(c.logs[category], station.LogMessage{
		Sequence:  c.logSeq[category],
		Timestamp: time.Now(),
		Title:     title,
		Body:      body,
		Category:  category,
		Type:      msgType,
	})
}

func (c *Controller) findTaskLocked(name string) *taskState {
	for _, t := range c.tasks {
		if t.name == name {
			return t
		}
	}
	return nil
}

func (c *Controller) snapshotLocked(t *taskState) station.TaskInfo {
	return station.TaskInfo{
		Name:    t.name,
		Type:    t.taskType,
		Enabled: t.enabled,
		State:   c.state,
	}
}

func entryPointer(module string) station.PointerPosition {
	return station.PointerPosition{
		Module:   module,
		Routine:  entryRoutine,
		BeginRow: 1,
		BeginCol: 1,
		EndRow:   1,
		EndCol:   1,
	}
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
