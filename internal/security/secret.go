// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret holds sensitive material such as database passwords and credential
// hashes. Formatting, JSON and text encoding all redact the value.
type Secret []byte

// FromString wraps s in a Secret.
func FromString(s string) Secret { return Secret([]byte(s)) }

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted, including %#v.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// GoString keeps %#v redacted for callers that bypass Format.
func (s Secret) GoString() string { return redacted }

// Reveal returns the plain value. Only call it at the point where the value
// is handed to a driver or hash comparison, never for output.
func (s Secret) Reveal() string { return string(s) }

// IsEmpty reports whether the secret holds no bytes.
func (s Secret) IsEmpty() bool { return len(s) == 0 }

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// UnmarshalText lets config decoders fill a Secret from plain text.
func (s *Secret) UnmarshalText(b []byte) error {
	*s = Secret(append([]byte(nil), b...))
	return nil
}

// Value implements driver.Valuer. Hashes are stored as text.
func (s Secret) Value() (driver.Value, error) { return string(s), nil }

// Scan implements sql.Scanner.
func (s *Secret) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
	case []byte:
		*s = Secret(append([]byte(nil), v...))
	case string:
		*s = Secret([]byte(v))
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
	return nil
}
