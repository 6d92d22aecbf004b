package modem

import (
	"testing"
	"time"
)

func event(ts time.Time, id int, desc string) Event {
	return Event{Timestamp: ts, EventID: id, Level: 6, Description: desc}
}

func epoch(offset time.Duration) time.Time {
	return time.Unix(0, 0).UTC().Add(offset)
}

func TestRepairValidLogUnchanged(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []Event{
		event(base, 1, "a"),
		event(base.Add(time.Minute), 2, "b"),
		event(base.Add(2*time.Minute), 3, "c"),
	}

	out := repairTimestamps(in)
	if len(out) != len(in) {
		t.Fatalf("got %d events, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Equal(in[i]) {
			t.Errorf("event %d changed: %v != %v", i, out[i], in[i])
		}
	}
}

func TestRepairAnchorsGroup(t *testing.T) {
	valid := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []Event{
		event(epoch(0), 1, "boot"),
		event(epoch(2*time.Minute), 2, "ranging"),
		event(epoch(5*time.Minute), 3, "registered"),
		event(valid, 4, "time synced"),
	}

	out := repairTimestamps(in)
	if len(out) != 4 {
		t.Fatalf("got %d events, want 4", len(out))
	}

	// Total delta is 5 minutes; the group ends one second before the
	// valid entry and keeps its 2m/3m spacing.
	end := valid.Add(-time.Second)
	start := end.Add(-5 * time.Minute)
	want := []time.Time{start, start.Add(2 * time.Minute), end}
	for i, w := range want {
		if !out[i].Timestamp.Equal(w) {
			t.Errorf("event %d at %v, want %v", i, out[i].Timestamp, w)
		}
	}
	if !out[3].Timestamp.Equal(valid) {
		t.Errorf("valid entry moved to %v", out[3].Timestamp)
	}
}

func TestRepairSingleEntryGroup(t *testing.T) {
	valid := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []Event{
		event(epoch(0), 1, "boot"),
		event(valid, 2, "time synced"),
	}

	out := repairTimestamps(in)
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	if want := valid.Add(-time.Second); !out[0].Timestamp.Equal(want) {
		t.Errorf("single-entry group anchored at %v, want %v", out[0].Timestamp, want)
	}
}

func TestRepairDropsTrailingGroup(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []Event{
		event(base, 1, "a"),
		event(epoch(0), 2, "unanchored"),
		event(epoch(time.Minute), 3, "unanchored"),
	}

	out := repairTimestamps(in)
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	if out[0].EventID != 1 {
		t.Errorf("kept wrong event: %v", out[0])
	}
}

func TestRepairEmptyLog(t *testing.T) {
	if out := repairTimestamps(nil); len(out) != 0 {
		t.Errorf("expected empty result, got %v", out)
	}
}

func TestRepairInputNotMutated(t *testing.T) {
	valid := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []Event{
		event(epoch(0), 1, "boot"),
		event(valid, 2, "time synced"),
	}

	repairTimestamps(in)
	if !in[0].Timestamp.Equal(epoch(0)) {
		t.Errorf("input mutated: %v", in[0].Timestamp)
	}
}

func TestEpochPlaceholderEastOfUTC(t *testing.T) {
	// 1970 local midnight east of UTC converts to 1969 UTC and must
	// still count as a placeholder.
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(1970, 1, 1, 0, 0, 0, 0, loc).UTC()
	if !isEpochPlaceholder(ts) {
		t.Errorf("%v not recognized as placeholder", ts)
	}
}
