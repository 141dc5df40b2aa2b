package session

import (
	"slices"
	"sort"
	"sync"

	"github.com/crmarques/mgmtbridge/tree"
)

// Response header keys announcing that a change only takes effect after a
// reload or restart.
const (
	HeaderRequiresReload  = "operation-requires-reload"
	HeaderRequiresRestart = "operation-requires-restart"
	HeaderProcessState    = "process-state"

	ProcessStateReloadRequired  = "reload-required"
	ProcessStateRestartRequired = "restart-required"
)

type Requirement int

const (
	RequirementNone Requirement = iota
	RequirementReload
	RequirementRestart
)

func (r Requirement) String() string {
	switch r {
	case RequirementReload:
		return "reload-required"
	case RequirementRestart:
		return "restart-required"
	default:
		return "running"
	}
}

// RequirementFromHeaders reads the strongest requirement announced by a
// response's headers.
func RequirementFromHeaders(headers tree.Node) Requirement {
	requirement := RequirementNone
	if restart, _ := headers.Get(HeaderRequiresRestart).AsBool(); restart {
		requirement = RequirementRestart
	}
	if requirement == RequirementNone {
		if reload, _ := headers.Get(HeaderRequiresReload).AsBool(); reload {
			requirement = RequirementReload
		}
	}

	switch state, _ := headers.Get(HeaderProcessState).AsString(); state {
	case ProcessStateRestartRequired:
		requirement = RequirementRestart
	case ProcessStateReloadRequired:
		requirement = max(requirement, RequirementReload)
	}
	return requirement
}

type ServerState struct {
	Name        string
	Requirement Requirement
}

// ReloadState tracks the servers whose configuration is stale for one
// session. Propagate reports the pending set only when it has grown since
// the last report.
type ReloadState struct {
	mu        sync.Mutex
	servers   map[string]Requirement
	lastFired int
}

func NewReloadState() *ReloadState {
	return &ReloadState{servers: map[string]Requirement{}}
}

// Observe records the requirement announced for server. A weaker
// requirement never replaces a stronger one.
func (r *ReloadState) Observe(server string, headers tree.Node) {
	requirement := RequirementFromHeaders(headers)
	if requirement == RequirementNone {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current := r.servers[server]; requirement > current {
		r.servers[server] = requirement
	}
}

// Stale reports whether any server awaits a reload or restart.
func (r *ReloadState) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.servers) > 0
}

func (r *ReloadState) Pending() []ServerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingLocked()
}

// Propagate returns the pending servers when more are pending than at the
// previous call that returned a non-nil result.
func (r *ReloadState) Propagate() []ServerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.servers) == 0 || len(r.servers) <= r.lastFired {
		return nil
	}
	r.lastFired = len(r.servers)
	return r.pendingLocked()
}

func (r *ReloadState) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.servers)
	r.lastFired = 0
}

// ResetServer forgets server, typically after it was reloaded.
func (r *ReloadState) ResetServer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[name]; !ok {
		return
	}
	delete(r.servers, name)
	r.lastFired = max(r.lastFired-1, 0)
}

func (r *ReloadState) pendingLocked() []ServerState {
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]ServerState, 0, len(names))
	for _, name := range names {
		states = append(states, ServerState{Name: name, Requirement: r.servers[name]})
	}
	return slices.Clip(states)
}
