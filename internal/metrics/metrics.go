// Package metrics holds the Prometheus registry and instruments for the
// server. Everything is registered against a private registry so tests
// never collide with the default one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all EventForge metrics
const namespace = "eventforge"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// RegistrationsTotal counts event registration attempts by outcome
// (registered, full, duplicate, unregistered).
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_registrations_total",
		Help:      "Total number of event registration attempts by outcome",
	},
	[]string{"outcome"},
)

// Init registers the runtime and process collectors. Call once at
// startup; calling it twice panics on duplicate registration.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
