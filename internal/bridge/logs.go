package bridge

import (
	"context"
	"sort"
	"time"

	"github.com/simforge/simbridge/internal/httpwire"
	"github.com/simforge/simbridge/internal/station"
)

const (
	maxLogMessages  = 50
	maxSummaryLines = 5
)

// collectLogs pulls every message from every log category on c, in category
// discovery order. A category whose enumeration fails is skipped; aggregation
// never fails the request.
func (s *Server) collectLogs(ctx context.Context, c station.Controller) []station.LogMessage {
	categories, err := c.LogCategories(ctx)
	if err != nil {
		s.logger.Warn("log category enumeration failed", "controller", c.Name(), "error", err)
		return nil
	}

	var all []station.LogMessage
	for _, category := range categories {
		msgs, err := c.LogMessages(ctx, category)
		if err != nil {
			s.logger.Warn("log category read failed", "category", category, "error", err)
			continue
		}
		all = append(all, msgs...)
	}
	return all
}

// handleRapidErrors returns the newest messages across all categories,
// ordered by sequence number descending and capped at 50. Sequence numbers
// are only monotonic within a category, so the global order is approximate;
// callers rely on it being stable and newest-leaning, not exact.
func (s *Server) handleRapidErrors(ctx context.Context, req *httpwire.Request) result {
	c, apiErr := s.resolveController(ctx)
	if apiErr != nil {
		return apiErr.result()
	}
	defer c.Close()

	all := s.collectLogs(ctx, c)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Sequence > all[j].Sequence
	})
	if len(all) > maxLogMessages {
		all = all[:maxLogMessages]
	}

	payload := errorsResponse{Success: true, Messages: make([]logPayload, 0, len(all))}
	for _, m := range all {
		payload.Messages = append(payload.Messages, logPayloadOf(m))
	}
	return result{status: 200, payload: payload}
}

// diagnosticSummary builds the short log excerpt attached to upload
// failures: at most five entries in category-then-discovery order, not
// recency order.
func (s *Server) diagnosticSummary(ctx context.Context, c station.Controller) []logPayload {
	all := s.collectLogs(ctx, c)
	if len(all) > maxSummaryLines {
		all = all[:maxSummaryLines]
	}
	out := make([]logPayload, 0, len(all))
	for _, m := range all {
		out = append(out, logPayloadOf(m))
	}
	return out
}

func logPayloadOf(m station.LogMessage) logPayload {
	return logPayload{
		Sequence:  m.Sequence,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		Title:     m.Title,
		Body:      m.Body,
		Category:  m.Category,
		Type:      m.Type,
	}
}
