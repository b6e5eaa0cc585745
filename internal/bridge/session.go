package bridge

import (
	"context"

	"github.com/simforge/simbridge/internal/station"
)

// resolveStation returns the open station or the NoActiveProject fault.
// Never cached: the host may replace the station between requests.
func (s *Server) resolveStation() (station.Station, *apiError) {
	st, ok := s.host.ActiveStation()
	if !ok {
		return nil, errNoActiveProject()
	}
	return st, nil
}

// resolveController locates a connectable controller in the open station.
// Entries are tried in station order; an entry with an empty SystemID is
// malformed and skipped without counting as an attempt; the first successful
// connection wins and later entries are never tried. Connection failures are
// logged, not surfaced. The caller owns the returned controller and must
// Close it.
func (s *Server) resolveController(ctx context.Context) (station.Controller, *apiError) {
	st, apiErr := s.resolveStation()
	if apiErr != nil {
		return nil, apiErr
	}

	for _, ref := range st.ControllerRefs() {
		if ref.SystemID == "" {
			s.logger.Debug("skipping malformed controller entry", "name", ref.Name)
			continue
		}
		c, err := st.Connect(ctx, ref)
		if err != nil {
			s.logger.Warn("controller connection failed",
				"system_id", ref.SystemID,
				"name", ref.Name,
				"error", err,
			)
			continue
		}
		return c, nil
	}
	return nil, errNoController()
}
