package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// classifications counts admin messages by classified kind.
	classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_classifications_total",
			Help: "Admin chat messages by classified kind.",
		},
		[]string{"kind"},
	)

	// scheduleCommands counts schedule submissions by outcome
	// (committed|replayed|rejected reason|error).
	scheduleCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_commands_total",
			Help: "Schedule commands by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(classifications, scheduleCommands)
}
