package follower

import "time"

// State is a snapshot taken after one polling iteration.
type State struct {
	Epoch      int64
	Primary    int64
	Secondary  int64
	LastSynced *int64
	Syncs      int64
	LastSyncAt time.Time
}

func (s *State) InSync() bool {
	return s.Primary == s.Secondary
}
