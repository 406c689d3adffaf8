/*
Explicit all-or-nothing execution for multi-step state changes.

The runtime gives us no ambient transaction boundary, so components that take
part in an atomic operation expose a snapshot of their mutable state and the
scope restores every participant, in reverse order, when any step fails.
*/

package txn

// Snapshotter is implemented by components whose state must survive a failed
// atomic operation unchanged. Snapshot captures the current state and returns
// the closure that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Run snapshots every participant, executes fn, and on error restores all
// participants in reverse registration order before returning the error
// unchanged. On success no restore runs.
func Run(fn func() error, participants ...Snapshotter) error {
	restores := make([]func(), 0, len(participants))
	for _, p := range participants {
		restores = append(restores, p.Snapshot())
	}

	if err := fn(); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}
