package evidence

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Value is an observed metric value: either a number or a string.
type Value struct {
	num *float64
	str *string
}

func NumberValue(n float64) Value {
	return Value{num: &n}
}

func StringValue(s string) Value {
	return Value{str: &s}
}

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool {
	return v.num != nil
}

// Number returns the numeric value. Only meaningful when IsNumber is true.
func (v Value) Number() float64 {
	if v.num == nil {
		return 0
	}
	return *v.num
}

// String returns the display form: the string itself, or the shortest exact
// decimal form for numbers.
func (v Value) String() string {
	switch {
	case v.num != nil:
		return strconv.FormatFloat(*v.num, 'f', -1, 64)
	case v.str != nil:
		return *v.str
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.num != nil:
		return json.Marshal(*v.num)
	case v.str != nil:
		return json.Marshal(*v.str)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.num = &n
		v.str = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.str = &s
		v.num = nil
		return nil
	}
	return fmt.Errorf("observed value must be a number or a string")
}

// Evidence is one observed value for a metric key. Immutable once recorded:
// collectors return it by value and nothing downstream writes to it.
type Evidence struct {
	MetricKey   string    `json:"metric_key"`
	Value       Value     `json:"observed_value"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// New stamps an Evidence record with the current time.
func New(metricKey string, value Value, source string) Evidence {
	return Evidence{
		MetricKey:   metricKey,
		Value:       value,
		Source:      source,
		CollectedAt: time.Now().UTC(),
	}
}
