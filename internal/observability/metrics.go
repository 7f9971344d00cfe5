package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesTotal counts vote operations by action and result.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_votes_total",
		Help: "Total number of vote operations by action and result",
	}, []string{"action", "result"})

	// CommentsTotal counts comment lifecycle operations by action and result.
	CommentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_comments_total",
		Help: "Total number of comment operations by action and result",
	}, []string{"action", "result"})

	// NotificationsTotal counts enqueued notifications by kind and result.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quorum_notifications_total",
		Help: "Total number of notifications by kind and result",
	}, []string{"kind", "result"})
)

// ResultLabel maps an operation error to the "result" label value.
func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
