// Package units provides a small dimension-checked quantity model for
// the measurements found on DOCSIS status pages.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension identifies what kind of thing a unit measures. Conversion
// is only defined between units of the same dimension.
type Dimension int

const (
	Frequency Dimension = iota
	Level
	Ratio
	SymbolRate
	Percent
	Duration
	DataRate
	DataSize
)

func (d Dimension) String() string {
	switch d {
	case Frequency:
		return "frequency"
	case Level:
		return "level"
	case Ratio:
		return "ratio"
	case SymbolRate:
		return "symbol rate"
	case Percent:
		return "percent"
	case Duration:
		return "duration"
	case DataRate:
		return "data rate"
	case DataSize:
		return "data size"
	}
	return "unknown"
}

// Unit is a unit tag with a scale factor relative to its dimension's
// base unit.
type Unit struct {
	Symbol string
	Dim    Dimension
	Scale  float64
}

var (
	Hz  = Unit{"Hz", Frequency, 1}
	KHz = Unit{"kHz", Frequency, 1e3}
	MHz = Unit{"MHz", Frequency, 1e6}
	GHz = Unit{"GHz", Frequency, 1e9}

	DBmV = Unit{"dBmV", Level, 1}
	DB   = Unit{"dB", Ratio, 1}

	SymPerSec  = Unit{"Sym/s", SymbolRate, 1}
	KSymPerSec = Unit{"kSym/s", SymbolRate, 1e3}

	PercentUnit = Unit{"%", Percent, 1}

	Millisecond = Unit{"ms", Duration, 1e-3}
	Second      = Unit{"s", Duration, 1}

	BitPerSec  = Unit{"bit/s", DataRate, 1}
	KbitPerSec = Unit{"kbit/s", DataRate, 1e3}
	MbitPerSec = Unit{"Mbit/s", DataRate, 1e6}
	BytePerSec = Unit{"byte/s", DataRate, 8}

	Byte = Unit{"byte", DataSize, 1}
)

var unitsBySymbol = map[string]Unit{}

func init() {
	for _, u := range []Unit{
		Hz, KHz, MHz, GHz,
		DBmV, DB,
		SymPerSec, KSymPerSec,
		PercentUnit,
		Millisecond, Second,
		BitPerSec, KbitPerSec, MbitPerSec, BytePerSec,
		Byte,
	} {
		unitsBySymbol[strings.ToLower(u.Symbol)] = u
	}
}

// LookupUnit resolves a unit symbol as it appears in modem table cells.
// Matching is case-insensitive.
func LookupUnit(symbol string) (Unit, bool) {
	u, ok := unitsBySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	return u, ok
}

// Quantity is a magnitude with a unit tag.
type Quantity struct {
	Magnitude float64
	Unit      Unit
}

func New(magnitude float64, unit Unit) Quantity {
	return Quantity{Magnitude: magnitude, Unit: unit}
}

// Parse parses a magnitude with a unit suffix, e.g. "733000000 Hz" or
// "5.7 dBmV". A trailing "%" without a space is also accepted.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	var number, symbol string
	if fields := strings.Fields(s); len(fields) == 2 {
		number, symbol = fields[0], fields[1]
	} else if strings.HasSuffix(s, "%") {
		number, symbol = strings.TrimSpace(strings.TrimSuffix(s, "%")), "%"
	} else {
		return Quantity{}, fmt.Errorf("units: cannot parse quantity %q", s)
	}

	unit, ok := LookupUnit(symbol)
	if !ok {
		return Quantity{}, fmt.Errorf("units: unknown unit %q in %q", symbol, s)
	}
	magnitude, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("units: bad magnitude in %q: %w", s, err)
	}
	return Quantity{Magnitude: magnitude, Unit: unit}, nil
}

// Convert returns q expressed in the unit to. Converting across
// dimensions is an error.
func (q Quantity) Convert(to Unit) (Quantity, error) {
	if q.Unit.Dim != to.Dim {
		return Quantity{}, fmt.Errorf("units: cannot convert %s to %s", q.Unit.Dim, to.Dim)
	}
	return Quantity{Magnitude: q.Magnitude * q.Unit.Scale / to.Scale, Unit: to}, nil
}

// In is Convert returning just the magnitude.
func (q Quantity) In(to Unit) (float64, error) {
	c, err := q.Convert(to)
	if err != nil {
		return 0, err
	}
	return c.Magnitude, nil
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Magnitude, q.Unit.Symbol)
}
