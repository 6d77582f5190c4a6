package tasks

import "github.com/prometheus/client_golang/prometheus"

const (
	resultApplied  = "applied"
	resultRejected = "rejected"
	resultNotFound = "not_found"
	resultDeclined = "declined"
	resultError    = "error"
)

var (
	taskOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_task_operations_total",
			Help: "Task store commands by outcome",
		},
		[]string{"op", "result"},
	)

	tasksCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "todo_tasks",
			Help: "Tasks in the collection by completion state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(taskOperationsTotal, tasksCurrent)
}

func observeOp(op, result string) {
	taskOperationsTotal.WithLabelValues(op, result).Inc()
}

func recordCounts(tasks []Task) {
	var done int
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	tasksCurrent.WithLabelValues(string(FilterCompleted)).Set(float64(done))
	tasksCurrent.WithLabelValues(string(FilterPending)).Set(float64(len(tasks) - done))
}
