package repository

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithInitialSnapshot seeds the store instead of the empty snapshot.
func WithInitialSnapshot(s *Snapshot) Option {
	return func(st *SnapshotStore) {
		if s != nil {
			st.initial = s
		}
	}
}

// WithEmptySnapshotID names the empty snapshot published at construction.
func WithEmptySnapshotID(id string) Option {
	return func(st *SnapshotStore) {
		if id != "" {
			st.emptyID = id
		}
	}
}
