package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. HTTP traffic metrics live in the middleware package;
// these count what the requests did.
var (
	// EngagementToggles counts ledger mutations by kind (like|view) and
	// result (liked|unliked|recorded|duplicate|error).
	EngagementToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_toggles_total",
			Help: "Engagement ledger mutations by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// OTPRequests counts code requests by action and result.
	OTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "One-time code requests by action and result.",
		},
		[]string{"action", "result"},
	)

	// OTPVerifications counts verification attempts by result.
	OTPVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "One-time code verifications by result.",
		},
		[]string{"result"},
	)

	// SMSBreakerState is 0 closed, 1 half-open, 2 open.
	SMSBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sms_breaker_state",
			Help: "SMS circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(EngagementToggles, OTPRequests, OTPVerifications, SMSBreakerState)
}
