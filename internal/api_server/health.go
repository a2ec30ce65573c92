package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/romanconv/romanconv/pkg/roman"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// HealthChecker is implemented by anything that can veto readiness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) error

func (f HealthCheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// ConverterCheck fails if the converter does not round-trip its boundary values.
var ConverterCheck = HealthCheckerFunc(func(context.Context) error {
	for _, n := range []int{roman.MinValue, roman.MaxValue} {
		numeral, err := roman.ToRoman(n)
		if err != nil {
			return err
		}
		back, err := roman.FromRoman(numeral)
		if err != nil {
			return err
		}
		if back != n {
			return fmt.Errorf("converter round trip of %d returned %d", n, back)
		}
	}
	return nil
})

const defaultReadinessTimeout = 2 * time.Second

// ReadinessHandler answers 200 when every check passes within timeout and 503
// otherwise. Failures are logged; the body is always empty.
func ReadinessHandler(log logrus.FieldLogger, timeout time.Duration, checks ...HealthChecker) http.Handler {
	if timeout <= 0 {
		timeout = defaultReadinessTimeout
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		status := http.StatusOK
		for i, c := range lo.Compact(checks) {
			if err := c.CheckHealth(ctx); err != nil {
				log.WithError(err).Warnf("readiness check %d failed", i)
				status = http.StatusServiceUnavailable
				break
			}
		}
		w.WriteHeader(status)
	})
}

// LivenessHandler always answers 200.
func LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
