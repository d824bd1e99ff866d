package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cobrancas/internal/core"
)

// number matches json.Number from encoding/json and goccy/go-json.
type number interface {
	Float64() (float64, error)
	String() string
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

var frequencyLabels = map[string]core.Frequency{
	"monthly":         core.Monthly,
	"mensal":          core.Monthly,
	"mensalmente":     core.Monthly,
	"weekly":          core.Weekly,
	"semanal":         core.Weekly,
	"semanalmente":    core.Weekly,
	"once":            core.Once,
	"unica":           core.Once,
	"unico":           core.Once,
	"pagamento unico": core.Once,
	"a vista":         core.Once,
}

// ParseFrequency maps a frequency label (English or Portuguese, any case or
// accentuation) to a Frequency. Unknown labels map to core.Monthly.
func ParseFrequency(s string) core.Frequency {
	if f, ok := LookupFrequency(s); ok {
		return f
	}
	return core.Monthly
}

// LookupFrequency is ParseFrequency without the fallback.
func LookupFrequency(s string) (core.Frequency, bool) {
	f, ok := frequencyLabels[fold(s)]
	return f, ok
}

// fold lowercases s, strips diacritics and collapses separators.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = strings.NewReplacer("_", " ", "-", " ").Replace(out)
	return strings.Join(strings.Fields(out), " ")
}

func isPresent(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return true
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case number:
		return x.String(), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return toString(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	default:
		return "", false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		return toDecimal(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := core.ParseDecimal(x)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

// toInt truncates fractional values; values beyond int32 are rejected.
func toInt(v any) (int, bool) {
	d, ok := toDecimal(v)
	if !ok {
		return 0, false
	}
	d = d.Truncate(0)
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func toDate(v any) (core.Date, bool) {
	var d core.Date
	switch x := v.(type) {
	case core.Date:
		d = x
	case time.Time:
		d = core.DateOf(x)
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d = core.DateOf(t)
				break
			}
		}
	}
	if d.IsEmpty() || d.Validate() != nil {
		return core.Date{}, false
	}
	if d.IsDegenerate() {
		return core.Date{}, false
	}
	return core.NewDate(d.Year(), d.Month(), d.Day()), true
}
