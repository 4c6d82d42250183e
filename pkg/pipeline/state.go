package pipeline

import (
	"context"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/state"
)

// StateView is a department snapshot in initial-gazette shape. When a date
// lookup matches more than one gazette, Ministries is empty and Candidates
// lists the versions to choose from.
type StateView struct {
	Version    state.Version             `json:"version"`
	Ministries []gazette.MinistryListing `json:"ministers"`
	Candidates []state.Version           `json:"candidates,omitempty"`
}

// Ambiguous reports whether the view lists candidates instead of a state.
func (view *StateView) Ambiguous() bool {
	return len(view.Candidates) > 1
}

// LatestState returns the most recently committed department state.
func (processor *Processor) LatestState(ctx context.Context) (*StateView, error) {
	snapshot, err := processor.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return newStateView(snapshot), nil
}

// StateOn returns the department state saved for date. Several gazettes can
// share a date; then the versions are returned as candidates. No snapshot
// for date is state.ErrSnapshotNotFound.
func (processor *Processor) StateOn(ctx context.Context, date string) (*StateView, error) {
	versions, err := processor.store.SnapshotsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	switch len(versions) {
	case 0:
		return nil, state.ErrSnapshotNotFound
	case 1:
		return processor.StateAt(ctx, versions[0])
	}
	return &StateView{Ministries: []gazette.MinistryListing{}, Candidates: versions}, nil
}

// StateAt returns the department state saved under version.
func (processor *Processor) StateAt(ctx context.Context, version state.Version) (*StateView, error) {
	snapshot, err := processor.store.LoadSnapshot(ctx, version)
	if err != nil {
		return nil, err
	}
	return newStateView(snapshot), nil
}

func newStateView(snapshot *state.Snapshot) *StateView {
	return &StateView{
		Version:    snapshot.Version(),
		Ministries: snapshot.Listings(),
	}
}
