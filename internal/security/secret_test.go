// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedactionAndJSON(t *testing.T) {
	s := FromString("supersecret")
	for _, verb := range []string{"%v", "%s", "%+v", "%#v", "%q"} {
		if got := fmt.Sprintf(verb, s); got != "[SECRET]" {
			t.Fatalf("unexpected %s output: %q", verb, got)
		}
	}
	b, err := json.Marshal(struct{ Password Secret }{s})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if strings.Contains(string(b), "supersecret") {
		t.Fatalf("secret leaked through json: %s", b)
	}
	if s.Reveal() != "supersecret" {
		t.Fatalf("Reveal returned %q", s.Reveal())
	}
}

func TestSecretZero(t *testing.T) {
	s := FromString("abc123")
	(&s).Zero()
	for i, c := range []byte(s) {
		if c != 0 {
			t.Fatalf("expected zeroed byte at index %d, got %d", i, c)
		}
	}
	var nilSecret *Secret
	nilSecret.Zero()
}

func TestSecretScanAndValue(t *testing.T) {
	var s Secret
	if err := s.Scan([]byte("hash")); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	v, err := s.Value()
	if err != nil || v != "hash" {
		t.Fatalf("Value = %v, %v", v, err)
	}
	if err := s.Scan(nil); err != nil || !s.IsEmpty() {
		t.Fatalf("Scan nil should empty the secret, got %v (%v)", []byte(s), err)
	}
	if err := s.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
}

func TestSecretUnmarshalText(t *testing.T) {
	var s Secret
	if err := s.UnmarshalText([]byte("pw")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if s.Reveal() != "pw" {
		t.Fatalf("got %q", s.Reveal())
	}
}
