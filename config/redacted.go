package config

import (
	"encoding/json"
	"fmt"
)

// RedactedString is a string that never prints its value.
type RedactedString string

// String implements fmt.Stringer.
func (r RedactedString) String() string {
	return fmt.Sprintf("<redacted-%d-chars>", len(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r RedactedString) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// MarshalJSON implements json.Marshaler.
func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r RedactedString) MarshalBinary() ([]byte, error) {
	return []byte(r.String()), nil
}
