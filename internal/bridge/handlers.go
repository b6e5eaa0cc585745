package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/simforge/simbridge/internal/httpwire"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *Server) handleHealth(ctx context.Context, req *httpwire.Request) result {
	return result{status: 200, payload: healthResponse{
		Status:    "ok",
		Timestamp: timestamp(),
	}}
}

// handleStatus reports the station summary. A missing station is a valid
// answer here, not a 404: the endpoint exists to ask that question.
func (s *Server) handleStatus(ctx context.Context, req *httpwire.Request) result {
	st, ok := s.host.ActiveStation()
	if !ok {
		return result{status: 200, payload: statusResponse{}}
	}
	return result{status: 200, payload: statusResponse{
		HasActiveStation:       true,
		StationName:            st.Name(),
		IsSimulationRunning:    st.SimulationRunning(),
		VirtualControllerCount: len(st.ControllerRefs()),
	}}
}

// round3 rounds to exactly three decimal places regardless of host precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (s *Server) handleJoints(ctx context.Context, req *httpwire.Request) result {
	c, apiErr := s.resolveController(ctx)
	if apiErr != nil {
		return apiErr.result()
	}
	defer c.Close()

	var angles []float64
	err := withMastership(ctx, c, func() error {
		var err error
		angles, err = c.JointAngles(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("joint read failed", "controller", c.Name(), "error", err)
		return errInternal("Failed to read joint values from the controller.").result()
	}

	joints := make(map[string]float64, len(angles))
	for i, v := range angles {
		joints[fmt.Sprintf("j%d", i+1)] = round3(v)
	}
	return result{status: 200, payload: jointsResponse{
		Success:   true,
		Timestamp: timestamp(),
		Joints:    joints,
	}}
}

type simulationRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleSimulation(ctx context.Context, req *httpwire.Request) result {
	var body simulationRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return errBadRequest("InvalidBody", "Request body must be a JSON object.").result()
	}

	st, apiErr := s.resolveStation()
	if apiErr != nil {
		return apiErr.result()
	}

	switch body.Action {
	case "start":
		if st.SimulationRunning() {
			return result{status: 200, payload: simulationResponse{
				Success:   true,
				Message:   "Simulation is already running.",
				IsRunning: true,
			}}
		}
		if err := st.StartSimulation(ctx); err != nil {
			s.logger.Error("simulation start failed", "station", st.Name(), "error", err)
			return errInternal("Failed to start the simulation.").result()
		}
		return result{status: 200, payload: simulationResponse{
			Success:   true,
			Message:   "Simulation started.",
			IsRunning: true,
		}}
	case "stop":
		if !st.SimulationRunning() {
			return result{status: 200, payload: simulationResponse{
				Success:   true,
				Message:   "Simulation is not running.",
				IsRunning: false,
			}}
		}
		if err := st.StopSimulation(ctx); err != nil {
			s.logger.Error("simulation stop failed", "station", st.Name(), "error", err)
			return errInternal("Failed to stop the simulation.").result()
		}
		return result{status: 200, payload: simulationResponse{
			Success:   true,
			Message:   "Simulation stopped.",
			IsRunning: false,
		}}
	default:
		return errBadRequest("InvalidAction",
			fmt.Sprintf("Invalid action '%s', expected 'start' or 'stop'.", body.Action)).result()
	}
}
