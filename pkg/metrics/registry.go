package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg, returning the collector already registered under
// the same descriptor when constructors run more than once.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
