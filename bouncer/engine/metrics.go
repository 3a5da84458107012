package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "bouncer_evaluate_duration_sec",
	Help: "Total duration of full account evaluation runs",
})

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_events_received",
	Help: "Number of content events entering the pre-filter gate",
}, []string{"type"})

var candidatesPromoted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_candidates_promoted",
	Help: "Number of accounts promoted to classification candidates",
}, []string{"type"})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_verdicts",
	Help: "Number of positive verdicts, by evaluator",
}, []string{"evaluator"})

var ruleErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_rule_errors",
	Help: "Number of evaluator failures treated as negative verdicts",
}, []string{"evaluator"})

var accountFetches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bouncer_account_fetches",
	Help: "Number of account metadata reads (API calls)",
})
