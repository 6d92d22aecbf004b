// Package export pushes normalized modem records to the configured
// sinks. The core parsers hand it fully-typed records; mapping numeric
// levels onto a human-readable severity scale happens here, not there.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fenderle/arris-scraper/internal/modem"
)

type LokiExporter struct {
	url    string
	job    string
	source string
	client *http.Client
}

func NewLokiExporter(url, job, source string) *LokiExporter {
	return &LokiExporter{
		url:    url,
		job:    job,
		source: source,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

// Push sends events to Loki's push API, one stream per severity level.
// Loki answers 400 for entries older than ones it already has, which
// happens whenever a poll overlaps a previous push, so 400 counts as
// success.
func (l *LokiExporter) Push(ctx context.Context, events []modem.Event) error {
	if len(events) == 0 {
		return nil
	}

	byLevel := map[int][][2]string{}
	for _, ev := range events {
		ts := strconv.FormatInt(ev.Timestamp.UnixNano(), 10)
		line := fmt.Sprintf("%s [%d]: %s", SeverityName(ev.Level), ev.EventID, ev.Description)
		byLevel[ev.Level] = append(byLevel[ev.Level], [2]string{ts, line})
	}

	payload := lokiPayload{}
	for level, values := range byLevel {
		payload.Streams = append(payload.Streams, lokiStream{
			Stream: map[string]string{
				"job":    l.job,
				"source": l.source,
				"level":  strconv.Itoa(level),
			},
			Values: values,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("loki: encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url+"/loki/api/v1/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("loki: push failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("loki: push failed: HTTP status %d", resp.StatusCode)
	}
	return nil
}

// SeverityName maps the modem's numeric DOCSIS event priority to its
// name. Unknown codes keep their number.
func SeverityName(level int) string {
	switch level {
	case 1:
		return "emergency"
	case 2:
		return "alert"
	case 3:
		return "critical"
	case 4:
		return "error"
	case 5:
		return "warning"
	case 6:
		return "notice"
	case 7:
		return "information"
	case 8:
		return "debug"
	}
	return fmt.Sprintf("level%d", level)
}
