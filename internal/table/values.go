package table

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IsAbsent reports whether v is nil, a nil pointer or an invalid nullable decimal.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	if d, ok := v.(decimal.NullDecimal); ok {
		return !d.Valid
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func deref(v any) any {
	if IsAbsent(v) {
		return nil
	}
	switch x := v.(type) {
	case decimal.NullDecimal:
		return x.Decimal
	case *decimal.Decimal:
		return *x
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// Text renders a value for display and free-text matching. Numbers are
// converted to their decimal text; absent values are empty.
func Text(v any) string {
	v = deref(v)
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprint(v)
}

// ContainsFold reports whether any field contains query ignoring case. nil
// fields never match. An empty query matches.
func ContainsFold(query string, fields ...*string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), q) {
			return true
		}
	}
	return false
}

// MatchText is ContainsFold over arbitrary values converted with Text.
// Absent values never match.
func MatchText(query string, values ...any) bool {
	fields := make([]*string, 0, len(values))
	for _, v := range values {
		if IsAbsent(v) {
			continue
		}
		s := Text(v)
		fields = append(fields, &s)
	}
	return ContainsFold(query, fields...)
}

// CompareValues orders two present values of the kinds used by records.
// Strings compare case-insensitively. Mismatched kinds compare as text.
func CompareValues(a, b any) int {
	a, b = deref(a), deref(b)

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			if c := cmp.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	return cmp.Compare(Text(a), Text(b))
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
