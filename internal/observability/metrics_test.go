package observability

import (
	"testing"
	"time"

	"github.com/danmuck/hybridmp/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("admin", "GET", "/health", 200, 12*time.Millisecond)

	rec := Prometheus()
	before := testutil.ToFloat64(packetsDropped.WithLabelValues(TransportPS, "3", DropOverflow))
	rec.PacketSent(TransportPS, 3)
	rec.PacketReceived(TransportTDM, 3)
	rec.PacketDropped(TransportPS, 3, DropOverflow)
	rec.ProbeSent(3)

	after := testutil.ToFloat64(packetsDropped.WithLabelValues(TransportPS, "3", DropOverflow))
	if after-before != 1 {
		t.Fatalf("expected one overflow drop recorded, got %v", after-before)
	}

	var nop NopRecorder
	nop.PacketSent(TransportPS, 0)
	nop.PacketDropped(TransportTDM, 0, DropUnhandled)
}
