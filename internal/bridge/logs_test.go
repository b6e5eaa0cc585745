package bridge

import (
	"context"
	"fmt"
	"testing"

	"github.com/simforge/simbridge/internal/station/virtual"
)

func TestErrorsCappedAndNewestFirst(t *testing.T) {
	host, c := defaultHost(t)
	for i := 0; i < 40; i++ {
		c.AppendLog("Operational", "info", fmt.Sprintf("op %d", i), "body")
	}
	for i := 0; i < 40; i++ {
		c.AppendLog("Motion", "warning", fmt.Sprintf("motion %d", i), "body")
	}
	srv := startTestServer(t, host)

	res := doRequest(t, srv.Addr(), "GET", "/rapid/errors", "")
	if res.status != 200 {
		t.Fatalf("status = %d, want 200", res.status)
	}
	messages := res.body["messages"].([]any)
	if len(messages) != 50 {
		t.Fatalf("got %d messages, want cap of 50", len(messages))
	}

	prev := int(^uint(0) >> 1)
	for i, raw := range messages {
		seq := int(raw.(map[string]any)["sequence"].(float64))
		if seq > prev {
			t.Fatalf("message %d has sequence %d after %d, want descending", i, seq, prev)
		}
		prev = seq
	}
}

func TestErrorsSkipsFailingCategory(t *testing.T) {
	host, c := defaultHost(t)
	c.AppendLog("Operational", "info", "keep me", "body")
	c.FailLogCategory("System")
	srv := startTestServer(t, host)

	res := doRequest(t, srv.Addr(), "GET", "/rapid/errors", "")
	if res.status != 200 {
		t.Fatalf("status = %d, want 200 despite a failing category", res.status)
	}
	messages := res.body["messages"].([]any)
	if len(messages) == 0 {
		t.Fatal("expected messages from the healthy category")
	}
	for _, raw := range messages {
		if raw.(map[string]any)["category"] == "System" {
			t.Error("messages from the failing category should be absent")
		}
	}
}

func TestErrorsWithoutController(t *testing.T) {
	host := virtual.NewHost()
	host.Open(virtual.NewStation("Empty"))
	srv := startTestServer(t, host)

	res := doRequest(t, srv.Addr(), "GET", "/rapid/errors", "")
	if res.status != 404 {
		t.Fatalf("status = %d, want 404", res.status)
	}
}

func TestDiagnosticSummaryCapAndOrder(t *testing.T) {
	host, c := defaultHost(t)
	for i := 0; i < 4; i++ {
		c.AppendLog("Operational", "error", fmt.Sprintf("op %d", i), "body")
	}
	c.AppendLog("Motion", "error", "late but different category", "body")

	srv := New(Config{Addr: "127.0.0.1:0"}, host, nil)
	summary := srv.diagnosticSummary(context.Background(), c)
	if len(summary) != 5 {
		t.Fatalf("summary length = %d, want 5", len(summary))
	}
	// Category-then-discovery order: the seeded System entry first, then the
	// Operational entries; the Motion entry falls past the cap.
	if summary[0].Category != "System" {
		t.Errorf("first entry category = %s, want System", summary[0].Category)
	}
	for _, entry := range summary[1:] {
		if entry.Category != "Operational" {
			t.Errorf("unexpected category %s in summary", entry.Category)
		}
	}
}
