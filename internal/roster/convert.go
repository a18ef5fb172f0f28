package roster

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Conversion is a pure value transform applied to data cells of a column.
type Conversion int

const (
	// ConvertNone leaves values untouched.
	ConvertNone Conversion = iota
	// ConvertDate turns date serials into calendar dates.
	ConvertDate
	// ConvertInt turns numeric values and numeric text into integers.
	ConvertInt
)

var conversionNames = map[Conversion]string{
	ConvertNone: "none",
	ConvertDate: "date",
	ConvertInt:  "int",
}

func (c Conversion) String() string {
	if name, ok := conversionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Conversion(%d)", int(c))
}

// ParseConversion maps a profile name to a Conversion. The empty string is none.
func ParseConversion(name string) (Conversion, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ConvertNone, nil
	case "date":
		return ConvertDate, nil
	case "int", "integer":
		return ConvertInt, nil
	}
	return ConvertNone, fmt.Errorf("unknown conversion %q — use date or int", name)
}

// notApplicable is the marker rosters use for "no value" in numeric columns.
const notApplicable = "n/a"

// Apply converts v. Blank input is returned unchanged by every conversion,
// and values already in the converted type pass through.
func (c Conversion) Apply(v any, date1904 bool) any {
	if s, ok := v.(string); ok && s == "" {
		return v
	}
	switch c {
	case ConvertDate:
		return toDate(v, date1904)
	case ConvertInt:
		if s, ok := v.(string); ok && s == notApplicable {
			return v
		}
		if n, ok := toInt(v); ok {
			return n
		}
		return v
	}
	return v
}

func toDate(v any, date1904 bool) any {
	var serial float64
	switch x := v.(type) {
	case time.Time:
		return x
	case float64:
		serial = x
	case int:
		serial = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return v
		}
		serial = f
	default:
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t
}

// toInt truncates fractional values toward zero.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f), true
		}
	}
	return 0, false
}
