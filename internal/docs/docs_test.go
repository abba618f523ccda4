package docs

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics()
	want := map[string]bool{"boards": false, "moving": false, "sharing": false, "config": false}
	for _, tp := range topics {
		if _, ok := want[tp]; ok {
			want[tp] = true
		}
	}
	for tp, seen := range want {
		if !seen {
			t.Fatalf("expected topic %q in %v", tp, topics)
		}
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Moving ")
	if !ok || !strings.Contains(body, "--over") {
		t.Fatalf("unexpected moving topic: %v %q", ok, body)
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("expected path-like topics to be rejected")
	}
	if _, ok := Get("nope"); ok {
		t.Fatalf("expected unknown topic to be missing")
	}
}
