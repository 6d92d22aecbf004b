package modem

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fenderle/arris-scraper/internal/htmltable"
	"github.com/fenderle/arris-scraper/internal/units"
)

// Status fetches and parses the channel tables. A table missing from
// the page yields a nil slice (some models omit OFDM); a row failing
// numeric parsing is an error, since it means the positional column
// contract no longer holds and silent continuation would emit wrong
// data under the wrong field.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	body, err := c.fetchPage(ctx, statusPath)
	if err != nil {
		return nil, err
	}
	tables, err := htmltable.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("modem: parsing status page: %w", err)
	}

	ds, err := parseDownstream(tables, c.layout.Downstream)
	if err != nil {
		return nil, err
	}
	us, err := parseUpstream(tables, c.layout.Upstream)
	if err != nil {
		return nil, err
	}
	ofdm, err := parseOFDM(tables, c.layout.OFDM)
	if err != nil {
		return nil, err
	}

	return &Status{US: us, DS: ds, DSOFDM: ofdm}, nil
}

func parseUpstream(tables [][][]string, index int) ([]USChannel, error) {
	rows := htmltable.Rows(tables, index, 7, func(row []string) bool { return row[1] == "UCID" })
	if rows == nil {
		return nil, nil
	}

	channels := make([]USChannel, 0, len(rows))
	for _, cells := range rows {
		ucid, err := strconv.Atoi(cells[1])
		if err != nil {
			return nil, fmt.Errorf("modem: upstream UCID %q: %w", cells[1], err)
		}
		freq, err := cellQuantity(cells[2], units.MHz)
		if err != nil {
			return nil, fmt.Errorf("modem: upstream channel %d: %w", ucid, err)
		}
		power, err := cellQuantity(cells[3], units.DBmV)
		if err != nil {
			return nil, fmt.Errorf("modem: upstream channel %d: %w", ucid, err)
		}
		symbolRate, err := cellQuantity(cells[5], units.KSymPerSec)
		if err != nil {
			return nil, fmt.Errorf("modem: upstream channel %d: %w", ucid, err)
		}

		channels = append(channels, USChannel{
			UCID:        ucid,
			Freq:        freq,
			Power:       power,
			ChannelType: cells[4],
			SymbolRate:  symbolRate,
			Modulation:  cells[6],
		})
	}
	return channels, nil
}

func parseDownstream(tables [][][]string, index int) ([]DSChannel, error) {
	rows := htmltable.Rows(tables, index, 9, func(row []string) bool { return row[1] == "DCID" })
	if rows == nil {
		return nil, nil
	}

	channels := make([]DSChannel, 0, len(rows))
	for _, cells := range rows {
		dcid, err := strconv.Atoi(cells[1])
		if err != nil {
			return nil, fmt.Errorf("modem: downstream DCID %q: %w", cells[1], err)
		}
		freq, err := cellQuantity(cells[2], units.MHz)
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d: %w", dcid, err)
		}
		power, err := cellQuantity(cells[3], units.DBmV)
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d: %w", dcid, err)
		}
		snr, err := cellQuantity(cells[4], units.DB)
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d: %w", dcid, err)
		}
		octets, err := strconv.Atoi(cells[6])
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d octets: %w", dcid, err)
		}
		corrected, err := strconv.Atoi(cells[7])
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d corrected: %w", dcid, err)
		}
		uncorrected, err := strconv.Atoi(cells[8])
		if err != nil {
			return nil, fmt.Errorf("modem: downstream channel %d uncorrected: %w", dcid, err)
		}

		channels = append(channels, DSChannel{
			DCID:        dcid,
			Freq:        freq,
			Power:       power,
			SNR:         snr,
			Modulation:  cells[5],
			Octets:      octets,
			Corrected:   corrected,
			Uncorrected: uncorrected,
		})
	}
	return channels, nil
}

func parseOFDM(tables [][][]string, index int) ([]DSOFDMStream, error) {
	// The OFDM table's header row has an empty second cell.
	rows := htmltable.Rows(tables, index, 9, func(row []string) bool { return row[1] == "" })
	if rows == nil {
		return nil, nil
	}

	streams := make([]DSOFDMStream, 0, len(rows))
	for _, cells := range rows {
		dcid, err := strconv.Atoi(strings.TrimPrefix(cells[0], "Downstream "))
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM DCID %q: %w", cells[0], err)
		}
		subcarriers, err := strconv.Atoi(cells[3])
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d subcarriers: %w", dcid, err)
		}

		// OFDM cells carry bare numbers; units are implied by column.
		width, err := numericQuantity(cells[2], units.MHz)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d width: %w", dcid, err)
		}
		first, err := numericQuantity(cells[4], units.MHz)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d first subcarrier: %w", dcid, err)
		}
		last, err := numericQuantity(cells[5], units.MHz)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d last subcarrier: %w", dcid, err)
		}
		merPilot, err := numericQuantity(cells[6], units.DB)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d RxMER pilot: %w", dcid, err)
		}
		merPLC, err := numericQuantity(cells[7], units.DB)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d RxMER PLC: %w", dcid, err)
		}
		merData, err := numericQuantity(cells[8], units.DB)
		if err != nil {
			return nil, fmt.Errorf("modem: OFDM stream %d RxMER data: %w", dcid, err)
		}

		streams = append(streams, DSOFDMStream{
			DCID:            dcid,
			FFTType:         cells[1],
			ChannelWidth:    width,
			SubcarrierCount: subcarriers,
			SubcarrierFirst: first,
			SubcarrierLast:  last,
			RxMERPilot:      merPilot,
			RxMERPLC:        merPLC,
			RxMERData:       merData,
		})
	}
	return streams, nil
}

// cellQuantity parses a unit-suffixed cell like "733000000 Hz" and
// normalizes it to the canonical unit for its column.
func cellQuantity(cell string, canonical units.Unit) (units.Quantity, error) {
	q, err := units.Parse(cell)
	if err != nil {
		return units.Quantity{}, err
	}
	return q.Convert(canonical)
}

// numericQuantity parses a bare numeric cell, tagging it with the unit
// the column implies.
func numericQuantity(cell string, unit units.Unit) (units.Quantity, error) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return units.Quantity{}, err
	}
	return units.New(f, unit), nil
}
