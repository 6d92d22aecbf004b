package modem

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fenderle/arris-scraper/internal/htmltable"
)

// eventTimeLayout is the modem's timestamp format, stamped in the
// configured local timezone.
const eventTimeLayout = "01/02/2006 15:04"

// Events fetches and parses the event log, oldest entry first, with
// timestamps repaired where the modem logged before its clock synced.
// Trailing entries that cannot be placed on the timeline are dropped.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	body, err := c.fetchPage(ctx, eventsPath)
	if err != nil {
		return nil, err
	}
	tables, err := htmltable.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("modem: parsing event page: %w", err)
	}

	events, err := parseEventTable(tables, c.layout.EventLog, c.loc)
	if err != nil {
		return nil, err
	}
	return repairTimestamps(events), nil
}

func parseEventTable(tables [][][]string, index int, loc *time.Location) ([]Event, error) {
	rows := htmltable.Rows(tables, index, 4, func(row []string) bool { return row[0] == "Date Time" })

	events := make([]Event, 0, len(rows))
	for _, cells := range rows {
		ts, err := time.ParseInLocation(eventTimeLayout, cells[0], loc)
		if err != nil {
			return nil, fmt.Errorf("modem: event timestamp %q: %w", cells[0], err)
		}
		id, err := strconv.Atoi(cells[1])
		if err != nil {
			return nil, fmt.Errorf("modem: event id %q: %w", cells[1], err)
		}
		level, err := strconv.Atoi(cells[2])
		if err != nil {
			return nil, fmt.Errorf("modem: event level %q: %w", cells[2], err)
		}

		events = append(events, Event{
			Timestamp:   ts.UTC(),
			EventID:     id,
			Level:       level,
			Description: cells[3],
		})
	}
	return events, nil
}
