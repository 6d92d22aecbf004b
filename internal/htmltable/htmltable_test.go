package htmltable

import (
	"strings"
	"testing"
)

const statusPage = `<html><body>
<h1>Status</h1>
<table>
<tr><th>Downstream</th><th>DCID</th><th>Freq</th></tr>
<tr><td>Downstream 1</td><td>1</td><td><b>567000000 Hz</b></td></tr>
<tr><td>Downstream 2</td><td>2</td><td> 573000000 Hz </td></tr>
</table>
<table>
<tr><td>single</td></tr>
</table>
</body></html>`

func TestParse(t *testing.T) {
	tables, err := Parse(strings.NewReader(statusPage))
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if len(tables[0]) != 3 {
		t.Fatalf("got %d rows, want 3", len(tables[0]))
	}
	// Nested markup and padding must not leak into cell text.
	if got := tables[0][1][2]; got != "567000000 Hz" {
		t.Errorf("cell = %q, want %q", got, "567000000 Hz")
	}
	if got := tables[0][2][2]; got != "573000000 Hz" {
		t.Errorf("cell = %q, want %q", got, "573000000 Hz")
	}
}

func TestRows(t *testing.T) {
	tables, err := Parse(strings.NewReader(statusPage))
	if err != nil {
		t.Fatal(err)
	}

	isHeader := func(row []string) bool { return row[1] == "DCID" }

	rows := Rows(tables, 0, 3, isHeader)
	if len(rows) != 2 {
		t.Fatalf("got %d data rows, want 2", len(rows))
	}
	if rows[0][1] != "1" || rows[1][1] != "2" {
		t.Errorf("unexpected rows: %v", rows)
	}

	// Short rows are skipped.
	if rows := Rows(tables, 1, 3, func([]string) bool { return false }); len(rows) != 0 {
		t.Errorf("short rows not skipped: %v", rows)
	}

	// Out-of-range index is silent.
	if rows := Rows(tables, 9, 3, isHeader); rows != nil {
		t.Errorf("expected nil for out-of-range index, got %v", rows)
	}
}
