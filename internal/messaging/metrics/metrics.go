package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks message ingestion. Methods are no-ops on a nil receiver.
type Metrics struct {
	FramesReceived  *prometheus.CounterVec
	MessagesHandled *prometheus.CounterVec
	Reconnects      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutri_messaging_frames_received_total",
			Help: "Frames read from the messaging provider by result (accepted, invalid)",
		}, []string{"result"}),
		MessagesHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutri_messaging_messages_handled_total",
			Help: "Messages processed by workers by outcome (ok, error)",
		}, []string{"outcome"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "nutri_messaging_reconnects_total",
			Help: "Reconnect attempts to the messaging provider",
		}),
	}
}

func (m *Metrics) RecordFrame(accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "invalid"
	}
	m.FramesReceived.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHandled(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MessagesHandled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}
