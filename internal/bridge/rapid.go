package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/simforge/simbridge/internal/httpwire"
	"github.com/simforge/simbridge/internal/station"
)

const (
	defaultModuleName = "McpModule"
	defaultTaskName   = "T_ROB1"
)

type uploadRequest struct {
	Code            string `json:"code"`
	ModuleName      string `json:"moduleName"`
	TaskName        string `json:"taskName"`
	ReplaceExisting *bool  `json:"replaceExisting"`
}

// handleRapidUpload writes the submitted code to a transient local file,
// transfers it to the controller's working area and loads it into the target
// task under mastership. The local file is removed on every outcome.
func (s *Server) handleRapidUpload(ctx context.Context, req *httpwire.Request) result {
	var body uploadRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return errBadRequest("InvalidBody", "Request body must be a JSON object.").result()
	}
	if body.Code == "" {
		return errBadRequest("MissingCode", "Field 'code' is required.").result()
	}

	moduleName := body.ModuleName
	if moduleName == "" {
		moduleName = defaultModuleName
	}
	taskName := body.TaskName
	if taskName == "" {
		taskName = defaultTaskName
	}
	replace := true
	if body.ReplaceExisting != nil {
		replace = *body.ReplaceExisting
	}

	c, apiErr := s.resolveController(ctx)
	if apiErr != nil {
		return apiErr.result()
	}
	defer c.Close()

	// Uploading over a running program is refused outright, before any file
	// work happens.
	state, err := c.ExecutionState(ctx)
	if err != nil {
		s.logger.Error("execution state read failed", "controller", c.Name(), "error", err)
		return errInternal("Failed to read controller execution state.").result()
	}
	if state == station.StateRunning {
		return (&apiError{409, "ExecutionRunning",
			"A RAPID program is currently executing; stop it before uploading."}).result()
	}

	if _, err := c.Task(ctx, taskName); err != nil {
		if errors.Is(err, station.ErrTaskNotFound) {
			return errTaskNotFound(taskName).result()
		}
		s.logger.Error("task lookup failed", "task", taskName, "error", err)
		return errInternal("Failed to look up the target task.").result()
	}

	tmp, err := os.CreateTemp("", "simbridge-*.mod")
	if err != nil {
		return errInternal("Failed to create a local staging file.").result()
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, writeErr := tmp.WriteString(body.Code)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		return errInternal("Failed to write the local staging file.").result()
	}

	remoteName := moduleName + ".mod"
	if err := c.PutFile(ctx, tmpPath, remoteName); err != nil {
		s.logger.Error("module transfer failed", "module", moduleName, "error", err)
		return errInternal("Failed to transfer the module to the controller.").result()
	}

	loadErr := withMastership(ctx, c, func() error {
		return c.LoadModule(ctx, taskName, remoteName, replace)
	})
	if loadErr != nil {
		s.logger.Warn("module load failed",
			"module", moduleName,
			"task", taskName,
			"error", loadErr,
		)
		return result{status: 422, payload: uploadFailureResponse{
			Success:    false,
			Error:      "LoadFailed",
			Message:    fmt.Sprintf("Failed to load module '%s' into task '%s': %v", moduleName, taskName, loadErr),
			RecentLogs: s.diagnosticSummary(ctx, c),
		}}
	}

	return result{status: 200, payload: uploadResponse{
		Success:    true,
		Message:    fmt.Sprintf("Module '%s' loaded into task '%s'.", moduleName, taskName),
		ModuleName: moduleName,
		TaskName:   taskName,
	}}
}

type executeRequest struct {
	Action        string `json:"action"`
	TaskName      string `json:"taskName"`
	ExecutionMode string `json:"executionMode"`
	Cycle         string `json:"cycle"`
	StopMode      string `json:"stopMode"`
}

// startOptions translates the request's textual hints into execution
// parameters. Regain is always "continue"; anything unrecognized falls back
// to the continuous/once defaults.
func startOptions(req executeRequest) station.StartOptions {
	opts := station.StartOptions{
		Regain: station.RegainContinue,
		Mode:   station.ModeContinuous,
		Cycle:  station.CycleOnce,
	}
	switch req.ExecutionMode {
	case "step_over":
		opts.Mode = station.ModeStepOver
	case "step_in":
		opts.Mode = station.ModeStepIn
	}
	if req.Cycle == "forever" {
		opts.Cycle = station.CycleForever
	}
	return opts
}

func stopMode(req executeRequest) station.StopMode {
	switch req.StopMode {
	case "cycle":
		return station.StopCycle
	case "immediate":
		return station.StopImmediate
	default:
		return station.StopInstruction
	}
}

func (s *Server) handleRapidExecute(ctx context.Context, req *httpwire.Request) result {
	var body executeRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return errBadRequest("InvalidBody", "Request body must be a JSON object.").result()
	}
	if body.Action != "start" && body.Action != "stop" && body.Action != "resetpp" {
		return errBadRequest("InvalidAction",
			fmt.Sprintf("Invalid action '%s', expected 'start', 'stop' or 'resetpp'.", body.Action)).result()
	}

	c, apiErr := s.resolveController(ctx)
	if apiErr != nil {
		return apiErr.result()
	}
	defer c.Close()

	var message string
	switch body.Action {
	case "start":
		var code station.ResultCode
		err := withMastership(ctx, c, func() error {
			var startErr error
			code, startErr = c.Start(ctx, startOptions(body))
			return startErr
		})
		if err != nil {
			s.logger.Error("program start failed", "controller", c.Name(), "error", err)
			return errInternal("Failed to start program execution.").result()
		}
		if !code.OK() {
			return result{status: 422, payload: errorResponse{
				Success: false,
				Error:   "StartRejected",
				Message: fmt.Sprintf("Controller refused to start execution: %s.", code),
			}}
		}
		message = "Program execution started."

	case "stop":
		err := withMastership(ctx, c, func() error {
			return c.Stop(ctx, stopMode(body))
		})
		if err != nil {
			s.logger.Error("program stop failed", "controller", c.Name(), "error", err)
			return errInternal("Failed to stop program execution.").result()
		}
		message = "Program execution stopped."

	case "resetpp":
		taskName := body.TaskName
		if taskName == "" {
			taskName = defaultTaskName
		}
		if _, err := c.Task(ctx, taskName); err != nil {
			if errors.Is(err, station.ErrTaskNotFound) {
				return errTaskNotFound(taskName).result()
			}
			s.logger.Error("task lookup failed", "task", taskName, "error", err)
			return errInternal("Failed to look up the target task.").result()
		}
		err := withMastership(ctx, c, func() error {
			return c.ResetPointer(ctx, taskName)
		})
		if err != nil {
			s.logger.Warn("pointer reset failed", "task", taskName, "error", err)
			return (&apiError{422, "ResetRejected",
				fmt.Sprintf("Controller refused to reset the program pointer: %v", err)}).result()
		}
		message = fmt.Sprintf("Program pointer of task '%s' reset to its entry point.", taskName)
	}

	return result{status: 200, payload: executeResponse{
		Success:         true,
		Message:         message,
		ExecutionStatus: s.executionStatus(ctx, c),
	}}
}

// executionStatus reads the post-operation execution state. Failures collapse
// to "unknown" rather than failing a request whose operation already
// succeeded.
func (s *Server) executionStatus(ctx context.Context, c station.Controller) string {
	state, err := c.ExecutionState(ctx)
	if err != nil {
		s.logger.Warn("execution state read failed", "controller", c.Name(), "error", err)
		return string(station.StateUnknown)
	}
	return string(state)
}

func (s *Server) handleRapidStatus(ctx context.Context, req *httpwire.Request) result {
	c, apiErr := s.resolveController(ctx)
	if apiErr != nil {
		return apiErr.result()
	}
	defer c.Close()

	tasks, err := c.Tasks(ctx)
	if err != nil {
		s.logger.Error("task enumeration failed", "controller", c.Name(), "error", err)
		return errInternal("Failed to enumerate controller tasks.").result()
	}

	payload := rapidStatusResponse{
		Success:                   true,
		ControllerExecutionStatus: s.executionStatus(ctx, c),
		Tasks:                     make([]taskPayload, 0, len(tasks)),
	}
	for _, t := range tasks {
		tp := taskPayload{
			Name:            t.Name,
			ExecutionStatus: string(t.State),
			Type:            t.Type,
			Enabled:         t.Enabled,
		}
		// Pointer reads are best effort: a task whose pointer cannot be read
		// is reported without it.
		if pp, err := c.ProgramPointer(ctx, t.Name); err == nil {
			tp.ProgramPointer = pointerOf(pp)
		} else {
			s.logger.Debug("program pointer unavailable", "task", t.Name, "error", err)
		}
		if mp, err := c.MotionPointer(ctx, t.Name); err == nil {
			tp.MotionPointer = pointerOf(mp)
		} else {
			s.logger.Debug("motion pointer unavailable", "task", t.Name, "error", err)
		}
		payload.Tasks = append(payload.Tasks, tp)
	}
	return result{status: 200, payload: payload}
}

func pointerOf(p station.PointerPosition) *pointerPayload {
	return &pointerPayload{
		Module:  p.Module,
		Routine: p.Routine,
		Range:   fmt.Sprintf("%d:%d-%d:%d", p.BeginRow, p.BeginCol, p.EndRow, p.EndCol),
	}
}
