package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Leads successfully created, partitioned by origin (api, import, open form)
	leadsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"source"},
	)

	// Leads auto-assigned through a center routing rule, partitioned by rule type
	leadsRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_routed_total",
			Help: "Total number of leads auto-assigned by a routing rule",
		},
		[]string{"rule_type"},
	)

	// Leads handed to a counselor by a center manager
	leadsAssignedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_leads_assigned_total",
			Help: "Total number of manual lead assignments",
		},
	)
)

// leadCreationSource maps a lead's created_from value to a metric label
func leadCreationSource(createdFrom *string) string {
	if createdFrom == nil || *createdFrom == "" {
		return "api"
	}
	return *createdFrom
}
