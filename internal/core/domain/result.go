package domain

// Result is what a successful orchestration hands to its caller.
type Result struct {
	Fingerprint Fingerprint
	Snapshot    *Snapshot
	WatchList   WatchList
	Outcome     Outcome
	// Path lists the states walked, starting at StateIdle.
	Path []State
}
