package observability

import (
	"testing"
	"time"

	"github.com/danmuck/blefrag/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("host-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordFrameSent("host-a")
	RecordFrameReceived("host-a")
	RecordStreamAssembled("host-a", 128)
	RecordStreamsEvicted("host-a", 0)
	evictedBefore := testutil.ToFloat64(cursorsEvicted.WithLabelValues("host-a"))
	RecordCursorsEvicted("host-a", 2)
	if got := testutil.ToFloat64(cursorsEvicted.WithLabelValues("host-a")); got != evictedBefore+2 {
		t.Fatalf("cursor eviction counter got=%v want=%v", got, evictedBefore+2)
	}

	before := testutil.ToFloat64(framesDropped.WithLabelValues("host-a", DropMalformed))
	RecordFrameDropped("host-a", DropMalformed)
	if got := testutil.ToFloat64(framesDropped.WithLabelValues("host-a", DropMalformed)); got != before+1 {
		t.Fatalf("dropped counter got=%v want=%v", got, before+1)
	}

	SetStreamsResident("host-a", 3)
	if got := testutil.ToFloat64(streamsResident.WithLabelValues("host-a")); got != 3 {
		t.Fatalf("resident gauge got=%v", got)
	}
}
