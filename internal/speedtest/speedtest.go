// Package speedtest wraps the Ookla speedtest binary.
package speedtest

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/valyala/fastjson"

	"github.com/fenderle/arris-scraper/internal/units"
)

// Result is one completed speedtest run.
type Result struct {
	PingLatency        units.Quantity
	PingJitter         units.Quantity
	PacketLoss         units.Quantity
	DownloadBandwidth  units.Quantity
	DownloadBytes      units.Quantity
	DownloadElapsed    units.Quantity
	DownloadLatencyIQM units.Quantity
	UploadBandwidth    units.Quantity
	UploadBytes        units.Quantity
	UploadElapsed      units.Quantity
	UploadLatencyIQM   units.Quantity
	ISP                string
	ServerID           int
	ServerName         string
	ServerLocation     string
	ResultID           string
	ResultURL          string
}

type Runner struct {
	path string
}

func NewRunner(path string) *Runner {
	return &Runner{path: path}
}

// Run executes the binary and parses its JSON output.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cmd := exec.CommandContext(ctx, r.path, "--accept-license", "--accept-gdpr", "-f", "json")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("speedtest: running %s: %w", r.path, err)
	}
	return parseResult(out)
}

func parseResult(data []byte) (*Result, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("speedtest: parsing output: %w", err)
	}
	if typ := string(v.GetStringBytes("type")); typ != "result" {
		return nil, fmt.Errorf("speedtest: unexpected payload type %q", typ)
	}

	return &Result{
		PingLatency:        units.New(v.GetFloat64("ping", "latency"), units.Millisecond),
		PingJitter:         units.New(v.GetFloat64("ping", "jitter"), units.Millisecond),
		PacketLoss:         units.New(v.GetFloat64("packetLoss"), units.PercentUnit),
		DownloadBandwidth:  units.New(v.GetFloat64("download", "bandwidth"), units.BytePerSec),
		DownloadBytes:      units.New(v.GetFloat64("download", "bytes"), units.Byte),
		DownloadElapsed:    units.New(v.GetFloat64("download", "elapsed"), units.Millisecond),
		DownloadLatencyIQM: units.New(v.GetFloat64("download", "latency", "iqm"), units.Millisecond),
		UploadBandwidth:    units.New(v.GetFloat64("upload", "bandwidth"), units.BytePerSec),
		UploadBytes:        units.New(v.GetFloat64("upload", "bytes"), units.Byte),
		UploadElapsed:      units.New(v.GetFloat64("upload", "elapsed"), units.Millisecond),
		UploadLatencyIQM:   units.New(v.GetFloat64("upload", "latency", "iqm"), units.Millisecond),
		ISP:                string(v.GetStringBytes("isp")),
		ServerID:           v.GetInt("server", "id"),
		ServerName:         string(v.GetStringBytes("server", "name")),
		ServerLocation:     string(v.GetStringBytes("server", "location")),
		ResultID:           string(v.GetStringBytes("result", "id")),
		ResultURL:          string(v.GetStringBytes("result", "url")),
	}, nil
}
