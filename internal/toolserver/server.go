// Package toolserver exposes the control plane to MCP clients. Every tool is
// a thin request/response mapper: one HTTP call, then the JSON re-rendered as
// human-readable text. All state lives behind the control plane.
package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolStationStatus = "get_station_status"
	toolRobotJoints   = "get_robot_joints"
	toolSimulation    = "control_simulation"
	toolRapidUpload   = "upload_rapid_program"
	toolRapidExecute  = "execute_rapid_program"
	toolRapidStatus   = "get_rapid_status"
	toolRapidErrors   = "get_rapid_errors"
)

// Config holds configuration for the tool server.
type Config struct {
	Name    string
	Version string
	// BaseURL is the control plane's address, e.g. http://127.0.0.1:9847.
	BaseURL string
}

// Server wraps the mcp-go server with the control-plane mapping.
type Server struct {
	server *server.MCPServer
	client *planeClient
	logger *slog.Logger
}

// New creates and configures the MCP tool server.
func New(cfg Config, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s := &Server{
		server: mcpServer,
		client: newPlaneClient(cfg.BaseURL),
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve starts the tool server on stdio.
func (s *Server) Serve() error {
	s.logger.Info("starting MCP tool server on stdio")
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool(toolStationStatus,
		mcp.WithDescription("Get the current simulation station status"),
	), s.handleStationStatus)

	s.server.AddTool(mcp.NewTool(toolRobotJoints,
		mcp.WithDescription("Read the robot's current joint values in degrees"),
	), s.handleRobotJoints)

	s.server.AddTool(mcp.NewTool(toolSimulation,
		mcp.WithDescription("Start or stop the simulation"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Either 'start' or 'stop'"),
		),
	), s.handleSimulation)

	s.server.AddTool(mcp.NewTool(toolRapidUpload,
		mcp.WithDescription("Upload a RAPID module to the controller"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("RAPID module source code"),
		),
		mcp.WithString("module_name",
			mcp.Description("Module name, defaults to McpModule"),
		),
		mcp.WithString("task_name",
			mcp.Description("Target task, defaults to T_ROB1"),
		),
		mcp.WithBoolean("replace_existing",
			mcp.Description("Replace an existing module of the same name, defaults to true"),
		),
	), s.handleRapidUpload)

	s.server.AddTool(mcp.NewTool(toolRapidExecute,
		mcp.WithDescription("Control RAPID program execution"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of 'start', 'stop' or 'resetpp'"),
		),
		mcp.WithString("task_name",
			mcp.Description("Task for resetpp, defaults to T_ROB1"),
		),
		mcp.WithString("execution_mode",
			mcp.Description("'continuous' (default), 'step_over' or 'step_in'"),
		),
		mcp.WithString("cycle",
			mcp.Description("'once' (default) or 'forever'"),
		),
		mcp.WithString("stop_mode",
			mcp.Description("'instruction' (default), 'cycle' or 'immediate'"),
		),
	), s.handleRapidExecute)

	s.server.AddTool(mcp.NewTool(toolRapidStatus,
		mcp.WithDescription("Get RAPID task and execution status"),
	), s.handleRapidStatus)

	s.server.AddTool(mcp.NewTool(toolRapidErrors,
		mcp.WithDescription("Get recent controller event-log messages"),
	), s.handleRapidErrors)
}

func (s *Server) handleStationStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, status, err := s.client.get(ctx, "/status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}

	var b strings.Builder
	if active, _ := payload["hasActiveStation"].(bool); !active {
		b.WriteString("No station is currently open.")
	} else {
		fmt.Fprintf(&b, "Station: %v\n", payload["stationName"])
		fmt.Fprintf(&b, "Simulation running: %v\n", payload["isSimulationRunning"])
		fmt.Fprintf(&b, "Virtual controllers: %v", payload["virtualControllerCount"])
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRobotJoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, status, err := s.client.get(ctx, "/joints")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}

	joints, _ := payload["joints"].(map[string]any)
	names := make([]string, 0, len(joints))
	for name := range joints {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Current joint values (degrees):\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %v\n", name, joints[name])
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSimulation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, status, err := s.client.post(ctx, "/simulation", map[string]any{"action": action})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}
	return mcp.NewToolResultText(message(payload, status)), nil
}

func (s *Server) handleRapidUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{
		"code":            code,
		"replaceExisting": request.GetBool("replace_existing", true),
	}
	if v := request.GetString("module_name", ""); v != "" {
		body["moduleName"] = v
	}
	if v := request.GetString("task_name", ""); v != "" {
		body["taskName"] = v
	}

	payload, status, err := s.client.post(ctx, "/rapid/upload", body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		text := message(payload, status)
		if logs, ok := payload["recentLogs"].([]any); ok && len(logs) > 0 {
			text += "\nRecent controller logs:\n" + renderLogList(logs)
		}
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(message(payload, status)), nil
}

func (s *Server) handleRapidExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{"action": action}
	for arg, field := range map[string]string{
		"task_name":      "taskName",
		"execution_mode": "executionMode",
		"cycle":          "cycle",
		"stop_mode":      "stopMode",
	} {
		if v := request.GetString(arg, ""); v != "" {
			body[field] = v
		}
	}

	payload, status, err := s.client.post(ctx, "/rapid/execute", body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\nExecution status: %v",
		message(payload, status), payload["executionStatus"])), nil
}

func (s *Server) handleRapidStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, status, err := s.client.get(ctx, "/rapid/status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Controller execution status: %v\n", payload["controllerExecutionStatus"])
	tasks, _ := payload["tasks"].([]any)
	for _, raw := range tasks {
		task, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Task %v: status=%v type=%v enabled=%v\n",
			task["name"], task["executionStatus"], task["type"], task["enabled"])
		if pp, ok := task["programPointer"].(map[string]any); ok {
			fmt.Fprintf(&b, "  program pointer: %v.%v at %v\n", pp["module"], pp["routine"], pp["range"])
		}
		if mp, ok := task["motionPointer"].(map[string]any); ok {
			fmt.Fprintf(&b, "  motion pointer: %v.%v at %v\n", mp["module"], mp["routine"], mp["range"])
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRapidErrors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, status, err := s.client.get(ctx, "/rapid/errors")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != 200 {
		return mcp.NewToolResultError(message(payload, status)), nil
	}

	messages, _ := payload["messages"].([]any)
	if len(messages) == 0 {
		return mcp.NewToolResultText("No controller event-log messages."), nil
	}
	return mcp.NewToolResultText("Recent controller event-log messages (newest first):\n" +
		renderLogList(messages)), nil
}

func renderLogList(entries []any) string {
	var b strings.Builder
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  [%v/%v #%v] %v: %v\n",
			entry["category"], entry["type"], entry["sequence"], entry["title"], entry["body"])
	}
	return b.String()
}
