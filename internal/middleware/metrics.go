package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name. Cache and rate
// limit paths fail open, so this counter is the main signal that Redis is
// degraded.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis command errors.",
	},
	[]string{"command"},
)

// AuthFailures counts rejected authentications by reason.
var AuthFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_auth_failures_total",
		Help: "Total number of failed authentication attempts.",
	},
	[]string{"reason"},
)

// PostMutations counts write operations against posts by kind.
var PostMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_post_mutations_total",
		Help: "Total number of post create/update/delete/publish operations.",
	},
	[]string{"operation"},
)
