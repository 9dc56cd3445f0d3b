package router

import (
	"errors"
	"sync"
	"testing"

	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/pattern"
)

func noopHandler(c *common.Context) error {
	return c.Text(200, "ok")
}

func TestRegisterInvalidPattern(t *testing.T) {
	table := NewRouteTable()

	_, err := table.Register("GET", "/files/*rest/extra", nil, noopHandler)
	if err == nil {
		t.Fatal("Expected registration of an invalid pattern to fail")
	}
	if !errors.Is(err, pattern.ErrInvalidPattern) {
		t.Errorf("Expected ErrInvalidPattern, got %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected failed registration to leave the table empty, got %d routes", table.Len())
	}
}

func TestLookupOrderMethodThenAll(t *testing.T) {
	table := NewRouteTable()

	id1, _ := table.Register("GET", "/a", nil, noopHandler)
	id2, _ := table.Register(MethodAll, "/b", nil, noopHandler)
	id3, _ := table.Register("GET", "/c", nil, noopHandler)
	id4, _ := table.Register(MethodAll, "/d", nil, noopHandler)

	routes := table.Lookup("GET")
	got := make([]RouteID, 0, len(routes))
	for _, r := range routes {
		got = append(got, r.ID)
	}

	// Method-specific bucket first, then the ALL bucket, each in
	// registration order.
	expected := []RouteID{id1, id3, id2, id4}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d candidates, got %d", len(expected), len(got))
	}
	for i, id := range expected {
		if got[i] != id {
			t.Errorf("Expected candidate %d to be route %d, got %d", i, id, got[i])
		}
	}
}

func TestMatchFallsBackToAllBucket(t *testing.T) {
	table := NewRouteTable()

	_, _ = table.Register("POST", "/things", nil, noopHandler)
	allID, _ := table.Register(MethodAll, "/things", nil, noopHandler)

	m, err := table.Match("GET", "/things")
	if err != nil {
		t.Fatalf("Expected a match via the ALL bucket, got %v", err)
	}
	if m.Route.ID != allID {
		t.Errorf("Expected ALL-bucket route %d, got %d", allID, m.Route.ID)
	}
}

func TestMatchNotFound(t *testing.T) {
	table := NewRouteTable()
	_, _ = table.Register("GET", "/present", nil, noopHandler)

	_, err := table.Match("GET", "/absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMatchEmptyPathNormalizedToRoot(t *testing.T) {
	table := NewRouteTable()
	rootID, _ := table.Register("GET", "/", nil, noopHandler)

	m, err := table.Match("GET", "")
	if err != nil {
		t.Fatalf("Expected empty path to match the root route, got %v", err)
	}
	if m.Route.ID != rootID {
		t.Errorf("Expected root route %d, got %d", rootID, m.Route.ID)
	}
}

func TestRegistrationOrderPrecedence(t *testing.T) {
	// Registration order is the tie-break, not specificity: the earlier
	// route wins for every ordering.
	t.Run("param before literal", func(t *testing.T) {
		table := NewRouteTable()
		paramID, _ := table.Register("GET", "/users/:id", nil, noopHandler)
		_, _ = table.Register("GET", "/users/new", nil, noopHandler)

		m, err := table.Match("GET", "/users/new")
		if err != nil {
			t.Fatal(err)
		}
		if m.Route.ID != paramID {
			t.Errorf("Expected earlier-registered param route to win, got route %d", m.Route.ID)
		}
		if m.Params["id"] != "new" {
			t.Errorf("Expected id=%q, got %q", "new", m.Params["id"])
		}
	})

	t.Run("literal before param", func(t *testing.T) {
		table := NewRouteTable()
		literalID, _ := table.Register("GET", "/users/new", nil, noopHandler)
		_, _ = table.Register("GET", "/users/:id", nil, noopHandler)

		m, err := table.Match("GET", "/users/new")
		if err != nil {
			t.Fatal(err)
		}
		if m.Route.ID != literalID {
			t.Errorf("Expected earlier-registered literal route to win, got route %d", m.Route.ID)
		}
		if len(m.Params) != 0 {
			t.Errorf("Expected no captured params, got %v", m.Params)
		}
	})
}

func TestMatchConstraintFallsThrough(t *testing.T) {
	table := NewRouteTable()
	_, _ = table.Register("GET", "/users/:id{[0-9]+}", nil, noopHandler)
	wordID, _ := table.Register("GET", "/users/:slug", nil, noopHandler)

	m, err := table.Match("GET", "/users/alice")
	if err != nil {
		t.Fatalf("Expected the unconstrained route to match, got %v", err)
	}
	if m.Route.ID != wordID {
		t.Errorf("Expected route %d, got %d", wordID, m.Route.ID)
	}
	if m.Params["slug"] != "alice" {
		t.Errorf("Expected slug=%q, got %q", "alice", m.Params["slug"])
	}
}

func TestDuplicatePatternsEarlierWins(t *testing.T) {
	table := NewRouteTable()
	first, _ := table.Register("GET", "/dup", nil, noopHandler)
	_, _ = table.Register("GET", "/dup", nil, noopHandler)

	m, err := table.Match("GET", "/dup")
	if err != nil {
		t.Fatal(err)
	}
	if m.Route.ID != first {
		t.Errorf("Expected the earlier duplicate to win, got route %d", m.Route.ID)
	}
}

func TestExactLiteralMatchYieldsEmptyParams(t *testing.T) {
	table := NewRouteTable()
	patterns := []string{"/", "/users", "/users/profile/settings", "/api/v2/health"}
	for _, p := range patterns {
		if _, err := table.Register("GET", p, nil, noopHandler); err != nil {
			t.Fatalf("Register(%q): %v", p, err)
		}
	}

	for _, p := range patterns {
		m, err := table.Match("GET", p)
		if err != nil {
			t.Errorf("Expected %q to match, got %v", p, err)
			continue
		}
		if m.Route.Pattern.String() != p {
			t.Errorf("Expected %q to match its own route, got %q", p, m.Route.Pattern.String())
		}
		if len(m.Params) != 0 {
			t.Errorf("Expected empty params for %q, got %v", p, m.Params)
		}
	}
}

func TestConcurrentRegisterAndMatch(t *testing.T) {
	// Late registration must never expose a half-built table to in-flight
	// matches: every match sees a self-consistent snapshot.
	table := NewRouteTable()
	_, _ = table.Register("GET", "/stable", nil, noopHandler)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = table.Register("GET", "/late/:n", nil, noopHandler)
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := table.Match("GET", "/stable"); err != nil {
				t.Errorf("Expected /stable to stay matchable during registration, got %v", err)
				return
			}
		}
	}()

	wg.Wait()

	if _, err := table.Match("GET", "/late/1"); err != nil {
		t.Errorf("Expected late registration to become visible, got %v", err)
	}
}
