package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != name || len(f.GetMetric()) == 0 {
			continue
		}
		m := f.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			return float64(m.GetHistogram().GetSampleCount())
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewWithoutRegistry(t *testing.T) {
	c := New(nil)
	if c.Registry() == nil {
		t.Fatal("registry should not be nil")
	}
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("test_counter", 5)
	c.IncCounter("test_counter", 3)
	c.SetGauge("test_gauge", 42)
	c.ObserveHistogram("test_histogram", 0.25)
	c.ObserveHistogram("test_histogram", 1.5)

	if got := gather(t, reg, "test_counter"); got != 8 {
		t.Errorf("counter = %v, want 8", got)
	}
	if got := gather(t, reg, "test_gauge"); got != 42 {
		t.Errorf("gauge = %v, want 42", got)
	}
	if got := gather(t, reg, "test_histogram"); got != 2 {
		t.Errorf("histogram samples = %v, want 2", got)
	}
}

func TestCollectorReusesRegisteredMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).IncCounter("shared_total", 1)
	New(reg).IncCounter("shared_total", 2)
	if got := gather(t, reg, "shared_total"); got != 3 {
		t.Errorf("counter = %v, want 3", got)
	}
}

func TestHandler(t *testing.T) {
	c := New(nil)
	c.IncCounter("served_total", 1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "served_total 1") {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}
