// Package virtual provides an in-memory simulation host implementing the
// station interfaces. It backs local development when no external host is
// wired and gives tests a controllable double with real mastership and
// execution-state semantics.
package virtual

import (
	"context"
	"fmt"
	"sync"

	"github.com/simforge/simbridge/internal/station"
)

// Host holds at most one open station.
type Host struct {
	mu      sync.RWMutex
	station *Station
}

// NewHost returns a host with no open station.
func NewHost() *Host {
	return &Host{}
}

// NewDefaultHost returns a host with one open station containing a single
// reachable controller with the conventional T_ROB1 task. This is what the
// server binary runs against out of the box.
func NewDefaultHost(stationName string) *Host {
	st := NewStation(stationName)
	st.AddController("vc-1", "VC_"+stationName)
	h := NewHost()
	h.Open(st)
	return h
}

// Open makes st the active station, replacing any previous one.
func (h *Host) Open(st *Station) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.station = st
}

// CloseStation closes the active station, if any.
func (h *Host) CloseStation() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.station = nil
}

// ActiveStation implements station.Host.
func (h *Host) ActiveStation() (station.Station, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.station == nil {
		return nil, false
	}
	return h.station, true
}

// Station is an in-memory simulation workspace.
type Station struct {
	name string

	mu          sync.Mutex
	simRunning  bool
	refs        []station.ControllerRef
	controllers map[string]*Controller
}

// NewStation returns an empty station with the given name.
func NewStation(name string) *Station {
	return &Station{
		name:        name,
		controllers: make(map[string]*Controller),
	}
}

func (s *Station) Name() string { return s.name }

// AddController registers a reachable controller under systemID and returns
// it for further configuration.
func (s *Station) AddController(systemID, name string) *Controller {
	c := newController(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, station.ControllerRef{SystemID: systemID, Name: name})
	s.controllers[systemID] = c
	return c
}

// AddRef registers a controller entry without a backing controller. Connecting
// to it fails; a ref with an empty SystemID is malformed and skipped by the
// resolver. Used to model stale and broken station entries.
func (s *Station) AddRef(ref station.ControllerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
}

func (s *Station) SimulationRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simRunning
}

func (s *Station) StartSimulation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simRunning = true
	return nil
}

func (s *Station) StopSimulation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simRunning = false
	return nil
}

func (s *Station) ControllerRefs() []station.ControllerRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]station.ControllerRef, len(s.refs))
	copy(refs, s.refs)
	return refs
}

// Connect implements station.Station. The returned session shares the
// controller's state; Close releases nothing beyond the session itself.
func (s *Station) Connect(ctx context.Context, ref station.ControllerRef) (station.Controller, error) {
	s.mu.Lock()
	c, ok := s.controllers[ref.SystemID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("connect %q: %w", ref.SystemID, station.ErrNotReachable)
	}
	if c.unreachable.Load() {
		return nil, fmt.Errorf("connect %q: %w", ref.SystemID, station.ErrNotReachable)
	}
	return c, nil
}
