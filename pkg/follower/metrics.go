package follower

import (
	"sync"

	"github.com/rigsync/rig-follower/pkg/utils/promutil"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	state *State
	lock  *sync.RWMutex

	epoch      *promutil.MetricDesc
	syncs      *promutil.MetricDesc
	frequency  *promutil.MetricDesc
	lastSynced *promutil.MetricDesc
	inSync     *promutil.MetricDesc
}

func newMetrics(r prometheus.Registerer) *metrics {
	m := &metrics{
		state: nil,
		lock:  new(sync.RWMutex),

		epoch: promutil.NewMetricDesc(prometheus.Opts{
			Namespace: "rig_follower",
			Subsystem: "sync",
			Name:      "epoch",
			Help:      "Number of completed polling iterations.",
		}),
		syncs: promutil.NewMetricDesc(prometheus.Opts{
			Namespace: "rig_follower",
			Subsystem: "sync",
			Name:      "total",
			Help:      "Number of frequency writes to the secondary rig.",
		}),
		frequency: promutil.NewMetricDesc(prometheus.Opts{
			Namespace: "rig_follower",
			Name:      "frequency_hz",
			Help:      "Frequency last read from the rig.",
		}),
		lastSynced: promutil.NewMetricDesc(prometheus.Opts{
			Namespace: "rig_follower",
			Name:      "last_synced_hz",
			Help:      "Frequency last written to the secondary rig.",
		}),
		inSync: promutil.NewMetricDesc(prometheus.Opts{
			Namespace: "rig_follower",
			Name:      "in_sync",
			Help:      "Describes whether both rigs reported the same frequency.",
		}),
	}
	r.MustRegister(m)
	return m
}

func (m *metrics) Describe(ch chan<- *prometheus.Desc) {}

func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	state := m.get()
	if state == nil {
		return
	}

	ch <- m.epoch.Counter(float64(state.Epoch), nil)
	ch <- m.syncs.Counter(float64(state.Syncs), nil)
	ch <- m.frequency.GaugeHz(state.Primary, prometheus.Labels{"rig": "primary"})
	ch <- m.frequency.GaugeHz(state.Secondary, prometheus.Labels{"rig": "secondary"})
	ch <- m.inSync.GaugeBool(state.InSync(), nil)
	if state.LastSynced != nil {
		ch <- m.lastSynced.GaugeHz(*state.LastSynced, nil)
	}
}

func (m *metrics) get() *State {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state
}

func (m *metrics) update(state *State) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.state = state
}
