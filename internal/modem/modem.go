// Package modem talks to an Arris cable modem's embedded web UI and
// turns its status and event-log pages into typed records.
package modem

import (
	"time"

	"github.com/fenderle/arris-scraper/internal/units"
)

// Event is one event-log entry. Identity is structural: two events are
// the same entry iff all four fields match.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventID     int       `json:"event_id"`
	Level       int       `json:"level"`
	Description string    `json:"description"`
}

// Equal reports whether both events denote the same log entry.
func (e Event) Equal(other Event) bool {
	return e.Timestamp.Equal(other.Timestamp) &&
		e.EventID == other.EventID &&
		e.Level == other.Level &&
		e.Description == other.Description
}

// USChannel is one bonded upstream channel.
type USChannel struct {
	UCID        int
	Freq        units.Quantity
	Power       units.Quantity
	ChannelType string
	SymbolRate  units.Quantity
	Modulation  string
}

// DSChannel is one bonded downstream SC-QAM channel.
type DSChannel struct {
	DCID        int
	Freq        units.Quantity
	Power       units.Quantity
	SNR         units.Quantity
	Modulation  string
	Octets      int
	Corrected   int
	Uncorrected int
}

// DSOFDMStream is one downstream OFDM channel with its per-subcarrier
// quality metrics.
type DSOFDMStream struct {
	DCID            int
	FFTType         string
	ChannelWidth    units.Quantity
	SubcarrierCount int
	SubcarrierFirst units.Quantity
	SubcarrierLast  units.Quantity
	RxMERPilot      units.Quantity
	RxMERPLC        units.Quantity
	RxMERData       units.Quantity
}

// Status is a single point-in-time snapshot of all channel tables.
// A nil slice means the firmware did not render that table.
type Status struct {
	US     []USChannel
	DS     []DSChannel
	DSOFDM []DSOFDMStream
}
