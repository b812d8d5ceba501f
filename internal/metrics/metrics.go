package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalTokens atomic.Int64

var (
	GenerateRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_generate_requests_total",
		Help: "Total number of generation requests",
	})

	GenerateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgeai_generate_duration_seconds",
		Help:    "End-to-end generation latency",
		Buckets: prometheus.DefBuckets,
	})

	GeneratedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_generated_tokens_total",
		Help: "Total number of tokens produced by the software engine",
	})

	TierAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_tier_attempts_total",
		Help: "Backend tier attempts, by tier name",
	}, []string{"tier"})

	TierFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_tier_failures_total",
		Help: "Backend tier failures, by tier name and reason",
	}, []string{"tier", "reason"})

	TierSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeai_tier_success_total",
		Help: "Generations served, by winning tier",
	}, []string{"tier"})

	FallbackSubstitutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_fallback_substitutions_total",
		Help: "Decode outputs replaced by the templated fallback",
	})

	StepAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgeai_step_attempts",
		Help:    "Forward-pass attempts consumed per generation",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
	})

	ParameterStoreBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgeai_parameter_store_bytes",
		Help: "Bytes held by parameter store tensors",
	})

	VocabularySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edgeai_vocabulary_size",
		Help: "Number of entries in the active vocabulary",
	})

	UnknownTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_unknown_tokens_total",
		Help: "Prompt words encoded as the unknown token",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edgeai_history_write_errors_total",
		Help: "Failed generation-history writes",
	})
)

// RecordGeneration records one completed generation. Tier-level
// outcomes are recorded by the cascade as it runs.
func RecordGeneration(tokens int, duration time.Duration) {
	GenerateRequestsTotal.Inc()
	GenerateDuration.Observe(duration.Seconds())
	if tokens > 0 {
		GeneratedTokensTotal.Add(float64(tokens))
		totalTokens.Add(int64(tokens))
	}
}

// RecordTierAttempt records that the cascade invoked a tier.
func RecordTierAttempt(tier string) {
	TierAttemptsTotal.WithLabelValues(tier).Inc()
}

// RecordTierFailure records a tier that was skipped or errored.
// reason is a short stable label such as "unavailable", "empty" or
// "error".
func RecordTierFailure(tier, reason string) {
	TierFailuresTotal.WithLabelValues(tier, reason).Inc()
}

// RecordTierSuccess records the tier that produced usable output.
func RecordTierSuccess(tier string) {
	TierSuccessTotal.WithLabelValues(tier).Inc()
}

// RecordFallbackSubstitution records a decode discarded for degeneracy.
func RecordFallbackSubstitution() {
	FallbackSubstitutionsTotal.Inc()
}

// RecordStepAttempts records forward-pass attempts for one generation.
func RecordStepAttempts(attempts int) {
	StepAttempts.Observe(float64(attempts))
}

// RecordParameterStore records the resident size of the built store.
func RecordParameterStore(bytes int64) {
	ParameterStoreBytes.Set(float64(bytes))
}

// RecordVocabulary records the active vocabulary size.
func RecordVocabulary(size int) {
	VocabularySize.Set(float64(size))
}

// RecordUnknownTokens records words that fell back to the unknown id
// during encoding.
func RecordUnknownTokens(count int) {
	if count > 0 {
		UnknownTokensTotal.Add(float64(count))
	}
}

// RecordHistoryWriteError records a failed history append.
func RecordHistoryWriteError() {
	HistoryWriteErrorsTotal.Inc()
}

// TotalTokens returns the process-lifetime token count.
func TotalTokens() int64 {
	return totalTokens.Load()
}
