package buildvars

import "testing"

func TestVersionOrDefault(t *testing.T) {
	prev := Version
	defer func() { Version = prev }()

	Version = ""
	if got := VersionOrDefault("dev"); got != "dev" {
		t.Fatalf("got %q; want dev", got)
	}
	Version = "1.2.3"
	if got := VersionOrDefault("dev"); got != "1.2.3" {
		t.Fatalf("got %q; want 1.2.3", got)
	}
}
