package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingComputeTotal counts pricing pipeline runs by trigger.
	PricingComputeTotal *prometheus.CounterVec
	// DraftMutationTotal counts draft edits by kind and operation.
	DraftMutationTotal *prometheus.CounterVec
	// DraftSubmitTotal counts draft submissions to the CRM backend by outcome.
	DraftSubmitTotal *prometheus.CounterVec
	// CatalogLookupTotal counts product lookups proxied to the CRM backend.
	CatalogLookupTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_compute_total",
			Help:      "Count of full pricing pipeline recomputations by trigger.",
		}, []string{"trigger"})
		DraftMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_mutation_total",
			Help:      "Count of draft mutations by document kind and operation.",
		}, []string{"kind", "op"})
		DraftSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_submit_total",
			Help:      "Count of draft submissions to the CRM backend by outcome.",
		}, []string{"kind", "result"})
		CatalogLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookup_total",
			Help:      "Count of catalog lookups proxied to the CRM backend by outcome.",
		}, []string{"result"})

		reg.MustRegister(PricingComputeTotal, DraftMutationTotal, DraftSubmitTotal, CatalogLookupTotal)
	})
}
