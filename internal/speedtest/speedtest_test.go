package speedtest

import (
	"testing"

	"github.com/fenderle/arris-scraper/internal/units"
)

const sampleOutput = `{
  "type": "result",
  "timestamp": "2024-05-01T12:00:00Z",
  "ping": {"jitter": 0.8, "latency": 11.5},
  "packetLoss": 0.5,
  "download": {"bandwidth": 11250000, "bytes": 90000000, "elapsed": 8000, "latency": {"iqm": 19.2}},
  "upload": {"bandwidth": 5000000, "bytes": 40000000, "elapsed": 8000, "latency": {"iqm": 24.7}},
  "isp": "Example ISP",
  "server": {"id": 4711, "name": "Example Server", "location": "Frankfurt"},
  "result": {"id": "abc-123", "url": "https://www.speedtest.net/result/c/abc-123"}
}`

func TestParseResult(t *testing.T) {
	res, err := parseResult([]byte(sampleOutput))
	if err != nil {
		t.Fatal(err)
	}

	if res.PingLatency.Magnitude != 11.5 || res.PingLatency.Unit != units.Millisecond {
		t.Errorf("ping latency = %v", res.PingLatency)
	}
	if res.PacketLoss.Magnitude != 0.5 || res.PacketLoss.Unit != units.PercentUnit {
		t.Errorf("packet loss = %v", res.PacketLoss)
	}

	// 11250000 byte/s is 90 Mbit/s.
	mbps, err := res.DownloadBandwidth.In(units.MbitPerSec)
	if err != nil {
		t.Fatal(err)
	}
	if mbps != 90.0 {
		t.Errorf("download bandwidth = %g Mbit/s, want 90", mbps)
	}

	if res.ISP != "Example ISP" || res.ServerID != 4711 {
		t.Errorf("metadata = %q/%d", res.ISP, res.ServerID)
	}
	if res.ResultURL != "https://www.speedtest.net/result/c/abc-123" {
		t.Errorf("result url = %q", res.ResultURL)
	}
}

func TestParseResultWrongType(t *testing.T) {
	if _, err := parseResult([]byte(`{"type": "log", "message": "starting"}`)); err == nil {
		t.Error("non-result payload must be an error")
	}
}

func TestParseResultGarbage(t *testing.T) {
	if _, err := parseResult([]byte("segfault")); err == nil {
		t.Error("malformed output must be an error")
	}
}
