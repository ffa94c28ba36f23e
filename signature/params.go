package signature

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Params are merchant-defined fields passed through the gateway unchanged
// and included in every signature.
type Params map[string]any

// Pairs serializes p as key=value strings sorted by the whole string,
// not by key. The order is observable in both signatures and links.
func (p Params) Pairs() []string {
	if len(p) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+FormatValue(v))
	}
	sort.Strings(pairs)
	return pairs
}

// WithPrefix returns a copy of p whose keys are joined to prefix with "_".
func (p Params) WithPrefix(prefix string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[prefix+"_"+k] = v
	}
	return out
}

// FormatValue renders a scalar the way the gateway expects to see it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Amount:
		return val.String()
	case decimal.Decimal:
		return decimalString(val)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
