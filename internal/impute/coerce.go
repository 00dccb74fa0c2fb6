package impute

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Reasons attached to a CoercionEvent.
const (
	ReasonEmpty      = "empty"
	ReasonNullMarker = "null marker"
	ReasonNotNumeric = "not numeric"
	ReasonNaN        = "not a number"
)

// nullMarkers are text tokens read as missing (compared lower-cased).
var nullMarkers = map[string]struct{}{
	"null": {}, "none": {}, "nil": {}, "nan": {}, "na": {}, "n/a": {}, "<na>": {}, "-": {},
}

// NumberFormat describes how numeric text is written.
// The zero value is strict: '.' decimal point, no digit grouping.
type NumberFormat struct {
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped before parsing when set.
	ThousandsSeparator rune
	// Auto detects the separators per value ("1.234,5", "1,5", "1,234.5").
	Auto bool
}

// Coerce converts v with the strict number format.
func Coerce(v any) (float64, bool) {
	f, _, ok := NumberFormat{}.Coerce(v)
	return f, ok
}

// Coerce converts v to a float64. When ok is false the value is missing and
// reason says why; reason is empty for a nil input.
func (nf NumberFormat) Coerce(v any) (f float64, reason string, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, "", false
	case float64:
		return checkNaN(x)
	case float32:
		return checkNaN(float64(x))
	case string:
		return nf.parseText(x)
	case []byte:
		return nf.parseText(string(x))
	case json.Number:
		return nf.parseText(x.String())
	case bool:
		if x {
			return 1, "", true
		}
		return 0, "", true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, ReasonNotNumeric, false
	}
	return checkNaN(f)
}

func checkNaN(f float64) (float64, string, bool) {
	if math.IsNaN(f) {
		return 0, ReasonNaN, false
	}
	return f, "", true
}

func (nf NumberFormat) parseText(s string) (float64, string, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, ReasonEmpty, false
	}
	if _, ok := nullMarkers[strings.ToLower(raw)]; ok {
		return 0, ReasonNullMarker, false
	}
	raw = nf.normalize(raw)
	if isHexLiteral(raw) {
		return 0, ReasonNotNumeric, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, ReasonNotNumeric, false
	}
	// Out-of-range text keeps the ±Inf or 0 that ParseFloat returns.
	return checkNaN(f)
}

// isHexLiteral reports Go hex syntax ("0x1p3") that ParseFloat would accept.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// normalize rewrites raw so strconv.ParseFloat sees '.' as the decimal point
// and no grouping characters.
func (nf NumberFormat) normalize(raw string) string {
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	if nf.Auto && dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
		if thou == 0 {
			for _, sep := range []rune{',', '.', ' '} {
				if sep != dec {
					raw = strings.ReplaceAll(raw, string(sep), "")
				}
			}
		}
	}
	if dec == 0 {
		dec = '.'
	}
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	return raw
}
