package queues

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queueProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_queue_items_processed",
	Help: "Number of queue items handled during ticks, by queue",
}, []string{"queue"})

var queueRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_queue_item_retries",
	Help: "Number of queue items re-queued after a transient failure",
}, []string{"queue"})
