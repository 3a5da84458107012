package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tickCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bouncer_ticks",
	Help: "Number of scheduler ticks started",
})

var tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "bouncer_tick_duration_sec",
	Help: "Total duration of one scheduler tick (poll plus all queue drains)",
})
