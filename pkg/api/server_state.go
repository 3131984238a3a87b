package api

import (
	"net/http"
	"time"

	"github.com/rigsync/rig-follower/pkg/rig"
	"github.com/rigsync/rig-follower/pkg/utils/httputil"
)

type stateResponse struct {
	Epoch      int64      `json:"epoch"`
	Primary    int64      `json:"primaryHz"`
	Secondary  int64      `json:"secondaryHz"`
	LastSynced *int64     `json:"lastSyncedHz,omitempty"`
	InSync     bool       `json:"inSync"`
	Syncs      int64      `json:"syncs"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	Display    string     `json:"display"`
}

func (s *Server) apiState(rw http.ResponseWriter, r *http.Request) {
	state := s.follower.State().Value()
	if state == nil {
		httputil.RespondError(rw, http.StatusServiceUnavailable, "not synchronized yet")
		return
	}

	resp := stateResponse{
		Epoch:      state.Epoch,
		Primary:    state.Primary,
		Secondary:  state.Secondary,
		LastSynced: state.LastSynced,
		InSync:     state.InSync(),
		Syncs:      state.Syncs,
		Display:    rig.FormatHz(state.Primary),
	}
	if !state.LastSyncAt.IsZero() {
		resp.LastSyncAt = &state.LastSyncAt
	}
	httputil.RespondJSON(rw, http.StatusOK, resp)
}
