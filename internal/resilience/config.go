package resilience

import (
	"time"
)

// FromRetryConfig builds a RetryConfig from configured values. Zero values
// keep the defaults.
func FromRetryConfig(maxAttempts int, initialBackoff time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoff > 0 {
		cfg.InitialBackoff = initialBackoff
	}
	return cfg
}

// FromBreakerConfig builds a BreakerConfig from configured values. Zero
// values keep the defaults.
func FromBreakerConfig(failureThreshold int, resetTimeout time.Duration) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeout > 0 {
		cfg.ResetTimeout = resetTimeout
	}
	return cfg
}
