package modem

import "time"

// The modem buffers log entries generated before it has synchronized
// to network time and stamps them with a 1970 placeholder; entries
// logged after sync carry correct absolute time. repairTimestamps
// reconstructs plausible timestamps for each contiguous run of
// placeholder entries from the run's internal deltas, anchoring its
// end one second before the first valid timestamp that follows. A
// trailing run with no valid successor has no anchor and is dropped.
//
// The input is assumed oldest-first and is not modified; repairs yield
// a new slice.
func repairTimestamps(events []Event) []Event {
	repaired := make([]Event, 0, len(events))
	var invalid []Event

	for _, ev := range events {
		if isEpochPlaceholder(ev.Timestamp) {
			invalid = append(invalid, ev)
			continue
		}
		if len(invalid) > 0 {
			repaired = append(repaired, anchorGroup(invalid, ev.Timestamp)...)
			invalid = invalid[:0]
		}
		repaired = append(repaired, ev)
	}

	return repaired
}

// isEpochPlaceholder reports whether ts is the modem's pre-sync
// placeholder. Placeholders are 1970 in the modem's local time, which
// lands in 1969 UTC for zones east of UTC.
func isEpochPlaceholder(ts time.Time) bool {
	return ts.Year() <= 1970
}

// anchorGroup rebuilds the timestamps of a placeholder run so its last
// entry sits one second before next, preserving the run's relative
// spacing exactly.
func anchorGroup(group []Event, next time.Time) []Event {
	deltas := make([]time.Duration, len(group)-1)
	var total time.Duration
	for i := 1; i < len(group); i++ {
		deltas[i-1] = group[i].Timestamp.Sub(group[i-1].Timestamp)
		total += deltas[i-1]
	}

	current := next.Add(-time.Second).Add(-total)
	out := make([]Event, len(group))
	for i, ev := range group {
		if i > 0 {
			current = current.Add(deltas[i-1])
		}
		ev.Timestamp = current
		out[i] = ev
	}
	return out
}
