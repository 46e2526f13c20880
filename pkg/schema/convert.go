package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/itchyny/timefmt-go"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// compiled STRING formats, keyed by the format text
var formatPatterns sync.Map

// Convert converts value to the Go type of fieldType. A nil value converts to nil.
//
// The format is a strftime layout for DATE and DATETIME and a regular expression for STRING.
// Numeric types ignore it.
func Convert(fieldType FieldType, value any, format string) (any, error) {
	if value == nil {
		return nil, nil
	}

	var (
		out any
		err error
	)
	switch fieldType {
	case TypeString:
		out, err = toString(value, format)
	case TypeInt:
		out, err = toInt(value)
	case TypeFloat:
		out, err = toFloat(value)
	case TypeDatetime:
		out, err = toTime(value, format)
	case TypeDate:
		out, err = toTime(value, format)
		if t, ok := out.(time.Time); ok && err == nil {
			out = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
	default:
		return nil, fmt.Errorf("%w: unknown field type %s", ErrConversion, fieldType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v (%T) to %s: %v", ErrConversion, value, value, fieldType, err)
	}
	return out, nil
}

func toString(value any, format string) (any, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if format == "" {
		return s, nil
	}

	re, err := formatPattern(format)
	if err != nil {
		return nil, err
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("no match for %q", format)
	}
	if len(m) > 1 {
		return m[1], nil
	}
	return m[0], nil
}

func formatPattern(format string) (*regexp.Regexp, error) {
	if re, ok := formatPatterns.Load(format); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(format)
	if err != nil {
		return nil, fmt.Errorf("bad format: %w", err)
	}
	formatPatterns.Store(format, re)
	return re, nil
}

var errNotFinite = errors.New("not a finite number")

// numeric returns the value as an int64 when it is integral and as a float64 otherwise.
// The boolean result is false when a string holds no number at all. NaN and infinities
// are errors.
func numeric(value any) (int64, float64, bool, bool, error) {
	i, f, integral, ok, err := anyNumber(value)
	if err == nil && ok && !integral && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, 0, false, false, errNotFinite
	}
	return i, f, integral, ok, err
}

func anyNumber(value any) (int64, float64, bool, bool, error) {
	switch v := value.(type) {
	case json.Number:
		return numericString(v.String())
	case string:
		return numericString(v)
	case []byte:
		return numericString(string(v))
	case bool:
		return 0, 0, false, false, fmt.Errorf("booleans are not numbers")
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), 0, true, true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, float64(u), false, true, nil
		}
		return int64(u), 0, true, true, nil
	case reflect.Float32, reflect.Float64:
		return 0, rv.Float(), false, true, nil
	}
	return 0, 0, false, false, fmt.Errorf("unsupported type")
}

func numericString(s string) (int64, float64, bool, bool, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, 0, true, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	switch {
	case err == nil:
		return 0, f, false, true, nil
	case errors.Is(err, strconv.ErrRange):
		return 0, 0, false, false, err
	}

	cleaned := nonNumeric.ReplaceAllString(s, "")
	if strings.IndexFunc(cleaned, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		return 0, 0, false, false, nil
	}
	if i, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return i, 0, true, true, nil
	}
	f, err = strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, 0, false, false, err
	}
	return 0, f, false, true, nil
}

func toInt(value any) (any, error) {
	i, f, integral, ok, err := numeric(value)
	if err != nil || !ok {
		return nil, err
	}
	if integral {
		return i, nil
	}
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("out of range")
	}
	return int64(f), nil
}

func toFloat(value any) (any, error) {
	i, f, integral, ok, err := numeric(value)
	if err != nil || !ok {
		return nil, err
	}
	if integral {
		return float64(i), nil
	}
	return f, nil
}

func toTime(value any, format string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case []byte:
		return parseTime(string(v), format)
	case string:
		return parseTime(v, format)
	}

	i, f, integral, ok, err := numeric(value)
	if err != nil || !ok {
		return nil, err
	}
	if integral {
		return time.Unix(i, 0).UTC(), nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), nil
}

func parseTime(s, format string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if format != "" {
		return timefmt.Parse(s, format)
	}
	return dateparse.ParseIn(s, time.UTC)
}
