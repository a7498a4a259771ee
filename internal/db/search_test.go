package db

import (
	"context"
	"reflect"
	"testing"
)

func TestTokenizeSearchQuery(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Alice", []string{"alice"}},
		{"  SN-1   Sensor ", []string{"sn-1", "sensor"}},
		{"a\tb\nc", []string{"a", "b", "c"}},
	}
	for _, c := range cases {
		if got := TokenizeSearchQuery(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("TokenizeSearchQuery(%q) = %v; want %v", c.in, got, c.want)
		}
	}
}

func TestSearchAccounts(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		mustCreateAccount(t, s, "alice", "admin")
		mustCreateAccount(t, s, "bob", "viewer")
		mustCreateAccount(t, s, "alfred", "viewer")

		got, err := s.SearchAccounts(ctx, "AL")
		if err != nil {
			t.Fatalf("SearchAccounts failed: %v", err)
		}
		if len(got) != 2 || got[0].Username != "alfred" || got[1].Username != "alice" {
			t.Fatalf("unexpected result: %v", got)
		}

		got, _ = s.SearchAccounts(ctx, "al viewer")
		if len(got) != 1 || got[0].Username != "alfred" {
			t.Fatalf("all tokens must match: %v", got)
		}

		got, _ = s.SearchAccounts(ctx, "")
		if len(got) != 3 {
			t.Fatalf("empty query should return all accounts, got %d", len(got))
		}
	})
}

func TestSearchEdges(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		alice := mustCreateAccount(t, s, "alice")
		e1 := mustCreateEdge(t, s, "SN-100", "sensor")
		mustCreateEdge(t, s, "SN-200", "gateway")
		mustCreateEdge(t, s, "GW-7", "gateway")
		mustSetOwner(t, s, e1, &alice)

		got, err := s.SearchEdges(ctx, "sn")
		if err != nil {
			t.Fatalf("SearchEdges failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 SN edges, got %v", got)
		}

		got, _ = s.SearchEdges(ctx, "ALICE")
		if len(got) != 1 || got[0].ID != e1 || got[0].OwnerUsername != "alice" {
			t.Fatalf("owner search failed: %+v", got)
		}

		got, _ = s.SearchEdges(ctx, "gateway sn")
		if len(got) != 1 || got[0].SerialNumber != "SN-200" {
			t.Fatalf("unexpected result: %+v", got)
		}

		got, _ = s.SearchEdges(ctx, " ")
		if len(got) != 3 {
			t.Fatalf("blank query should list every edge, got %d", len(got))
		}
	})
}
