package virtual

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simforge/simbridge/internal/station"
)

func testController(t *testing.T) *Controller {
	t.Helper()
	return NewStation("S").AddController("vc-1", "VC_Test")
}

// stageModule writes code to a local file and transfers it into the
// controller's working area under remoteName.
func stageModule(t *testing.T, c *Controller, remoteName, code string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), remoteName)
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		t.Fatalf("write staging file: %v", err)
	}
	if err := c.PutFile(context.Background(), path, remoteName); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
}

func TestConnectUnknownAndUnreachable(t *testing.T) {
	ctx := context.Background()
	st := NewStation("S")
	c := st.AddController("vc-1", "VC_Test")

	if _, err := st.Connect(ctx, station.ControllerRef{SystemID: "nope"}); !errors.Is(err, station.ErrNotReachable) {
		t.Errorf("unknown ref error = %v, want ErrNotReachable", err)
	}

	c.SetUnreachable(true)
	if _, err := st.Connect(ctx, station.ControllerRef{SystemID: "vc-1"}); !errors.Is(err, station.ErrNotReachable) {
		t.Errorf("unreachable error = %v, want ErrNotReachable", err)
	}

	c.SetUnreachable(false)
	if _, err := st.Connect(ctx, station.ControllerRef{SystemID: "vc-1"}); err != nil {
		t.Errorf("Connect returned error: %v", err)
	}
}

func TestExecutionStateMachine(t *testing.T) {
	ctx := context.Background()
	c := testController(t)

	state, _ := c.ExecutionState(ctx)
	if state != station.StateIdle {
		t.Fatalf("initial state = %s, want idle", state)
	}

	// Start with no program loaded is refused.
	code, err := c.Start(ctx, station.StartOptions{})
	if err != nil || code.OK() {
		t.Fatalf("empty start: code=%s err=%v, want non-OK code", code, err)
	}

	stageModule(t, c, "McpModule.mod", "MODULE McpModule\nENDMODULE")
	if err := c.LoadModule(ctx, "T_ROB1", "McpModule.mod", true); err != nil {
		t.Fatalf("LoadModule: %v", err)
	}

	code, err = c.Start(ctx, station.StartOptions{Mode: station.ModeContinuous, Cycle: station.CycleOnce})
	if err != nil || !code.OK() {
		t.Fatalf("start: code=%s err=%v", code, err)
	}
	state, _ = c.ExecutionState(ctx)
	if state != station.StateRunning {
		t.Fatalf("state after start = %s, want running", state)
	}

	// Starting again reports busy without touching the state.
	code, _ = c.Start(ctx, station.StartOptions{})
	if code != station.ResultBusy {
		t.Errorf("second start code = %s, want Busy", code)
	}

	// Loading and pointer resets are refused while running.
	if err := c.LoadModule(ctx, "T_ROB1", "McpModule.mod", true); err == nil {
		t.Error("LoadModule while running should fail")
	}
	if err := c.ResetPointer(ctx, "T_ROB1"); err == nil {
		t.Error("ResetPointer while running should fail")
	}

	if err := c.Stop(ctx, station.StopInstruction); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	state, _ = c.ExecutionState(ctx)
	if state != station.StateStopped {
		t.Fatalf("state after stop = %s, want stopped", state)
	}

	if err := c.ResetPointer(ctx, "T_ROB1"); err != nil {
		t.Fatalf("ResetPointer after stop: %v", err)
	}
	pp, err := c.ProgramPointer(ctx, "T_ROB1")
	if err != nil {
		t.Fatalf("ProgramPointer: %v", err)
	}
	if pp.Module != "McpModule" || pp.Routine != "main" {
		t.Errorf("pointer after reset = %+v", pp)
	}
}

func TestLoadModuleFailures(t *testing.T) {
	ctx := context.Background()
	c := testController(t)

	if err := c.LoadModule(ctx, "T_ROB9", "x.mod", true); !errors.Is(err, station.ErrTaskNotFound) {
		t.Errorf("unknown task error = %v, want ErrTaskNotFound", err)
	}
	if err := c.LoadModule(ctx, "T_ROB1", "missing.mod", true); !errors.Is(err, station.ErrFileNotFound) {
		t.Errorf("missing file error = %v, want ErrFileNotFound", err)
	}

	stageModule(t, c, "bad.mod", "not a rapid module")
	if err := c.LoadModule(ctx, "T_ROB1", "bad.mod", true); err == nil {
		t.Fatal("syntax error should fail the load")
	}
	// The failure must leave a diagnostic event behind.
	msgs, err := c.LogMessages(ctx, "Operational")
	if err != nil {
		t.Fatalf("LogMessages: %v", err)
	}
	found := false
	for _, m := range msgs {
		if m.Type == "error" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error event after a failed load")
	}
}

func TestMastershipBlocksUntilReleased(t *testing.T) {
	ctx := context.Background()
	c := testController(t)

	release, err := c.AcquireMastership(ctx)
	if err != nil {
		t.Fatalf("AcquireMastership: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r2, err := c.AcquireMastership(context.Background())
		if err == nil {
			r2()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lease granted while first was held")
	case <-time.After(100 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second lease never granted after release")
	}

	// Release is idempotent.
	release()
}

func TestMastershipHonorsContext(t *testing.T) {
	c := testController(t)

	release, err := c.AcquireMastership(context.Background())
	if err != nil {
		t.Fatalf("AcquireMastership: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.AcquireMastership(ctx); err == nil {
		t.Fatal("expected context deadline to abort acquisition")
	}
}

func TestLogSequencesArePerCategory(t *testing.T) {
	ctx := context.Background()
	c := testController(t)

	c.AppendLog("Motion", "info", "a", "")
	c.AppendLog("Motion", "info", "b", "")
	c.AppendLog("IO", "info", "c", "")

	motion, err := c.LogMessages(ctx, "Motion")
	if err != nil {
		t.Fatalf("LogMessages: %v", err)
	}
	if motion[0].Sequence != 1 || motion[1].Sequence != 2 {
		t.Errorf("motion sequences = %d,%d, want 1,2", motion[0].Sequence, motion[1].Sequence)
	}
	ioMsgs, _ := c.LogMessages(ctx, "IO")
	if ioMsgs[0].Sequence != 1 {
		t.Errorf("io sequence = %d, want independent counter starting at 1", ioMsgs[0].Sequence)
	}

	cats, _ := c.LogCategories(ctx)
	want := []string{"System", "Motion", "IO"}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("category[%d] = %s, want %s (discovery order)", i, cats[i], want[i])
		}
	}
}

func TestReplaceModeSwapsModule(t *testing.T) {
	ctx := context.Background()
	c := testController(t)

	stageModule(t, c, "McpModule.mod", "MODULE McpModule\nENDMODULE")
	if err := c.LoadModule(ctx, "T_ROB1", "McpModule.mod", true); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := c.LoadModule(ctx, "T_ROB1", "McpModule.mod", true); err != nil {
		t.Fatalf("replace load: %v", err)
	}
}
