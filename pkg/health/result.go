package health

import (
	"bytes"
	"encoding/json"
	"time"
)

// Detail is one key/value entry in a check's details.
type Detail struct {
	Key   string
	Value any
}

// D constructs a Detail entry.
func D(key string, value any) Detail {
	return Detail{Key: key, Value: value}
}

// Details is an ordered set of free-form key/value pairs attached to a
// check result. Order is insertion order and survives JSON encoding,
// which a plain map would not guarantee.
type Details []Detail

// Get returns the value for key, if present.
func (d Details) Get(key string) (any, bool) {
	for _, entry := range d {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Float returns the value for key coerced to float64, if present and numeric.
func (d Details) Float(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String returns the value for key as a string, if present.
func (d Details) String(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON encodes the details as a JSON object preserving entry order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CheckResult is the immutable outcome of a single check invocation.
type CheckResult struct {
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	Level          Level     `json:"level"`
	Message        string    `json:"message"`
	Details        Details   `json:"details"`
	Timestamp      time.Time `json:"timestamp"`
	RecoveryAction string    `json:"recovery_action,omitempty"`
}

// Seconds renders a duration as fractional seconds in JSON.
type Seconds time.Duration

// Duration returns the wrapped time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// MarshalJSON encodes the duration as a float in seconds.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(s).Seconds())
}

// Report is the aggregated outcome of running a set of providers.
type Report struct {
	OverallStatus Status        `json:"overall_status"`
	Level         Level         `json:"level"`
	Checks        []CheckResult `json:"checks"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      Seconds       `json:"duration"`
}

// JSON returns the indented JSON encoding of the report.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
