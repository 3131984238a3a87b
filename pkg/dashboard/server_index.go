package dashboard

import (
	"net/http"

	"github.com/rigsync/rig-follower/pkg/follower"
	"github.com/rigsync/rig-follower/pkg/rig"
)

type rigRow struct {
	Role      string
	Frequency string
}

type dataIndex struct {
	Ready      bool
	State      *follower.State
	Rigs       []rigRow
	LastSynced string
}

func (s *Server) index(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}

	data := &dataIndex{}
	if state := s.follower.State().Value(); state != nil {
		data.Ready = true
		data.State = state
		data.Rigs = []rigRow{
			{Role: "primary", Frequency: rig.FormatHz(state.Primary)},
			{Role: "secondary", Frequency: rig.FormatHz(state.Secondary)},
		}
		if state.LastSynced != nil {
			data.LastSynced = rig.FormatHz(*state.LastSynced)
		}
	}
	s.template(rw, "index.html", data)
}

func (s *Server) styles(rw http.ResponseWriter, r *http.Request) {
	s.asset(rw, "styles.css", "text/css; charset=utf-8")
}
