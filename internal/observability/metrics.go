// Package observability provides prometheus metrics for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected API credentials by failure kind
	// (bad_credentials, bad_token, unconfirmed).
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_auth_failures_total",
		Help: "Total number of rejected API authentication attempts by kind",
	}, []string{"kind"})

	// MailDispatched counts background email sends by template and outcome.
	MailDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_mail_dispatched_total",
		Help: "Total number of background email dispatch attempts by template and outcome",
	}, []string{"template", "outcome"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// TokensIssued counts minted tokens by namespace (auth, confirm,
	// change_email, reset_password).
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_tokens_issued_total",
		Help: "Total number of signed tokens minted by namespace",
	}, []string{"namespace"})
)
