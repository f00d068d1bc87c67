package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/feed", "200"))

	RecordHTTPRequest("GET", "/api/v1/feed", 200, 15*time.Millisecond)
	RecordHTTPRequest("GET", "/api/v1/feed", 200, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/feed", "200"))
	if after-before != 2 {
		t.Errorf("counter moved by %v, want 2", after-before)
	}
}

func TestRecordEvents(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{name: "success", err: nil, result: "ok"},
		{name: "failure", err: errors.New("nats: timeout"), result: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := EventsPublished.WithLabelValues("content.created", tt.result)
			con := EventsConsumed.WithLabelValues("engagement.refreshed", tt.result)
			p0, c0 := testutil.ToFloat64(pub), testutil.ToFloat64(con)

			RecordEventPublished("content.created", tt.err)
			RecordEventConsumed("engagement.refreshed", tt.err)

			if got := testutil.ToFloat64(pub) - p0; got != 1 {
				t.Errorf("published delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(con) - c0; got != 1 {
				t.Errorf("consumed delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordInteraction(t *testing.T) {
	c := Interactions.WithLabelValues("like", "create", "conflict")
	before := testutil.ToFloat64(c)
	RecordInteraction("like", "create", "conflict")
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}
