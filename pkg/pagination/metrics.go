package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_pagination_pages_total",
		Help: "Pages fetched by endpoint",
	}, []string{"endpoint"})

	elementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_pagination_elements_total",
		Help: "Elements decoded by endpoint",
	}, []string{"endpoint"})

	decodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_pagination_decode_failures_total",
		Help: "Elements dropped because they failed to decode, by endpoint",
	}, []string{"endpoint"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_pagination_fetch_errors_total",
		Help: "Page requests that failed, by endpoint",
	}, []string{"endpoint"})

	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_pagination_exhausted_total",
		Help: "Traversals that reached the end of their collection, by endpoint",
	}, []string{"endpoint"})
)
