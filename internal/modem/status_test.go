package modem

import (
	"strings"
	"testing"

	"github.com/fenderle/arris-scraper/internal/htmltable"
	"github.com/fenderle/arris-scraper/internal/units"
)

const statusPage = `<html><body>
<table>
<tr><td>Downstream</td><td>DCID</td><td>Freq</td><td>Power</td><td>SNR</td><td>Modulation</td><td>Octets</td><td>Correcteds</td><td>Uncorrectables</td></tr>
<tr><td>Downstream 1</td><td>33</td><td>567000000 Hz</td><td>1.1 dBmV</td><td>38.9 dB</td><td>256QAM</td><td>123456789</td><td>15</td><td>2</td></tr>
</table>
<table><tr><td>filler</td></tr></table>
<table>
<tr><td>Receiver</td><td></td><td>Width</td><td>Subcarriers</td><td>First</td><td>Last</td><td>RxMER Pilot</td><td>RxMER PLC</td><td>RxMER Data</td></tr>
<tr><td>Downstream 193</td><td>4K</td><td>96.0</td><td>7600</td><td>151.0</td><td>245.0</td><td>40.1</td><td>40.5</td><td>39.9</td></tr>
</table>
<table><tr><td>filler</td></tr></table>
<table>
<tr><td>Upstream</td><td>UCID</td><td>Freq</td><td>Power</td><td>Channel Type</td><td>Symbol Rate</td><td>Modulation</td></tr>
<tr><td>Upstream 1</td><td>3</td><td>733000000 Hz</td><td>5.7 dBmV</td><td>ATDMA</td><td>5120 kSym/s</td><td>64QAM</td></tr>
</table>
</body></html>`

func TestParseUpstream(t *testing.T) {
	channels, err := parseUpstream(parseFixture(t, statusPage), DefaultLayout.Upstream)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(channels))
	}

	ch := channels[0]
	if ch.UCID != 3 {
		t.Errorf("UCID = %d, want 3", ch.UCID)
	}
	if ch.Freq.Magnitude != 733.0 || ch.Freq.Unit != units.MHz {
		t.Errorf("freq = %v, want 733 MHz", ch.Freq)
	}
	if ch.Power.Magnitude != 5.7 || ch.Power.Unit != units.DBmV {
		t.Errorf("power = %v, want 5.7 dBmV", ch.Power)
	}
	if ch.ChannelType != "ATDMA" {
		t.Errorf("channel type = %q", ch.ChannelType)
	}
	if ch.SymbolRate.Magnitude != 5120 || ch.SymbolRate.Unit != units.KSymPerSec {
		t.Errorf("symbol rate = %v, want 5120 kSym/s", ch.SymbolRate)
	}
	if ch.Modulation != "64QAM" {
		t.Errorf("modulation = %q", ch.Modulation)
	}
}

func TestParseDownstream(t *testing.T) {
	channels, err := parseDownstream(parseFixture(t, statusPage), DefaultLayout.Downstream)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(channels))
	}

	ch := channels[0]
	if ch.DCID != 33 {
		t.Errorf("DCID = %d, want 33", ch.DCID)
	}
	if ch.Freq.Magnitude != 567.0 || ch.Freq.Unit != units.MHz {
		t.Errorf("freq = %v, want 567 MHz", ch.Freq)
	}
	if ch.SNR.Magnitude != 38.9 || ch.SNR.Unit != units.DB {
		t.Errorf("snr = %v, want 38.9 dB", ch.SNR)
	}
	if ch.Octets != 123456789 || ch.Corrected != 15 || ch.Uncorrected != 2 {
		t.Errorf("counters = %d/%d/%d", ch.Octets, ch.Corrected, ch.Uncorrected)
	}
}

func TestParseOFDM(t *testing.T) {
	streams, err := parseOFDM(parseFixture(t, statusPage), DefaultLayout.OFDM)
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 1 {
		t.Fatalf("got %d streams, want 1", len(streams))
	}

	s := streams[0]
	if s.DCID != 193 {
		t.Errorf("DCID = %d, want 193", s.DCID)
	}
	if s.FFTType != "4K" {
		t.Errorf("fft type = %q", s.FFTType)
	}
	if s.ChannelWidth.Magnitude != 96.0 || s.ChannelWidth.Unit != units.MHz {
		t.Errorf("width = %v, want 96 MHz", s.ChannelWidth)
	}
	if s.SubcarrierCount != 7600 {
		t.Errorf("subcarriers = %d", s.SubcarrierCount)
	}
	if s.RxMERData.Magnitude != 39.9 || s.RxMERData.Unit != units.DB {
		t.Errorf("RxMER data = %v, want 39.9 dB", s.RxMERData)
	}
}

func TestParseStatusMissingTable(t *testing.T) {
	tables, err := htmltable.Parse(strings.NewReader("<html><body><p>no tables</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}

	// Absent tables are "no data", not an error (some firmware omits
	// the OFDM table).
	channels, err := parseUpstream(tables, DefaultLayout.Upstream)
	if err != nil {
		t.Fatal(err)
	}
	if channels != nil {
		t.Errorf("expected nil channels, got %v", channels)
	}
}

func TestParseStatusBadNumber(t *testing.T) {
	page := strings.Replace(statusPage, "<td>33</td>", "<td>n/a</td>", 1)
	tables, err := htmltable.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseDownstream(tables, DefaultLayout.Downstream); err == nil {
		t.Error("malformed numeric cell must be a hard failure")
	}
}
