package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	_ "github.com/Sternrassler/guildkit/pkg/rest"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler(t *testing.T) {
	counter := promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "guildkit_metrics_handler_test_total",
		Help: "Registered by TestHandler",
	})
	defer Registry.Unregister(counter)
	counter.Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"guildkit_metrics_handler_test_total 3",
		"guildkit_rest_queue_depth",
		"guildkit_rest_circuit_state",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition is missing %q", name)
		}
	}
}
