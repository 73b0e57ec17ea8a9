package domain

// Status describes the cached environment relative to the current inputs.
type Status int

const (
	// StatusOkay means the cache entry matches the current inputs.
	StatusOkay Status = iota
	// StatusStale means an entry exists but was built from different inputs.
	StatusStale
	// StatusUnknown means there is no usable entry.
	StatusUnknown
)

// ExitCode returns the process exit code reported by the status command.
func (s Status) ExitCode() int {
	return int(s)
}

// String returns the human-readable status line.
func (s Status) String() string {
	switch s {
	case StatusOkay:
		return "Environment is up to date"
	case StatusStale:
		return "Environment is STALE"
	default:
		return "Environment not built or otherwise broken"
	}
}

// Outcome tells how a Done result was reached.
type Outcome int

const (
	// OutcomeCached means the environment was served from the cache.
	OutcomeCached Outcome = iota
	// OutcomeRebuilt means the builder ran during this invocation.
	OutcomeRebuilt
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	if o == OutcomeRebuilt {
		return "rebuilt"
	}
	return "cache hit"
}

// State is a step of the orchestration state machine.
type State int

const (
	// StateIdle is the state before a request is handled.
	StateIdle State = iota
	// StateFingerprinting computes the identity of the current inputs.
	StateFingerprinting
	// StateCacheHit means a matching entry was found.
	StateCacheHit
	// StateCacheMiss means no matching entry was found.
	StateCacheMiss
	// StateBuilding runs the builder while holding the lock.
	StateBuilding
	// StateBuildSucceeded means the builder produced a snapshot.
	StateBuildSucceeded
	// StateStoring persists the snapshot.
	StateStoring
	// StateDone is terminal and successful.
	StateDone
	// StateBuildFailed means the builder did not produce a snapshot.
	StateBuildFailed
	// StateFailed is terminal and unsuccessful.
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateFingerprinting: "fingerprinting",
	StateCacheHit:       "cache-hit",
	StateCacheMiss:      "cache-miss",
	StateBuilding:       "building",
	StateBuildSucceeded: "build-succeeded",
	StateStoring:        "storing",
	StateDone:           "done",
	StateBuildFailed:    "build-failed",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends an invocation.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
