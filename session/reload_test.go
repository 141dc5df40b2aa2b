package session

import (
	"testing"

	"github.com/crmarques/mgmtbridge/tree"
)

func headers(pairs ...any) tree.Node {
	node := tree.NewObject()
	for idx := 0; idx+1 < len(pairs); idx += 2 {
		switch value := pairs[idx+1].(type) {
		case bool:
			node.Set(pairs[idx].(string), tree.BoolValue(value))
		case string:
			node.Set(pairs[idx].(string), tree.StringValue(value))
		}
	}
	return node
}

func TestRequirementFromHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  tree.Node
		expected Requirement
	}{
		{name: "none", headers: tree.Node{}, expected: RequirementNone},
		{name: "reload_flag", headers: headers(HeaderRequiresReload, true), expected: RequirementReload},
		{name: "restart_flag", headers: headers(HeaderRequiresRestart, true), expected: RequirementRestart},
		{name: "process_state_reload", headers: headers(HeaderProcessState, ProcessStateReloadRequired), expected: RequirementReload},
		{name: "process_state_restart_wins", headers: headers(HeaderRequiresReload, true, HeaderProcessState, ProcessStateRestartRequired), expected: RequirementRestart},
		{name: "false_flag", headers: headers(HeaderRequiresReload, false), expected: RequirementNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RequirementFromHeaders(tt.headers); got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestReloadStatePropagatesOnlyWhenGrowing(t *testing.T) {
	t.Parallel()

	state := NewReloadState()
	if state.Propagate() != nil || state.Stale() {
		t.Fatal("expected empty state to propagate nothing")
	}

	state.Observe("server-one", headers(HeaderRequiresReload, true))
	if pending := state.Propagate(); len(pending) != 1 {
		t.Fatalf("expected first server to propagate, got %+v", pending)
	}
	state.Observe("server-one", headers(HeaderRequiresReload, true))
	if pending := state.Propagate(); pending != nil {
		t.Fatalf("expected no propagation for an unchanged set, got %+v", pending)
	}

	state.Observe("server-one", headers(HeaderRequiresRestart, true))
	state.Observe("server-one", headers(HeaderRequiresReload, true))
	if pending := state.Pending(); pending[0].Requirement != RequirementRestart {
		t.Fatalf("expected restart to be kept, got %+v", pending)
	}

	state.Observe("server-two", headers(HeaderProcessState, ProcessStateReloadRequired))
	pending := state.Propagate()
	if len(pending) != 2 || pending[0].Name != "server-one" || pending[1].Name != "server-two" {
		t.Fatalf("expected both servers in name order, got %+v", pending)
	}

	state.ResetServer("server-two")
	state.ResetServer("unknown")
	state.Observe("server-three", headers(HeaderRequiresReload, true))
	if pending := state.Propagate(); len(pending) != 2 {
		t.Fatalf("expected propagation after a reset server was replaced, got %+v", pending)
	}

	state.Reset()
	if state.Stale() || len(state.Pending()) != 0 {
		t.Fatal("expected reset to clear state")
	}
}
