package perf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/odyssey-erp/odyssey-pricing/internal/jobs"
	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

type flakyBuilder struct {
	calls    int
	failEach int
	items    int
}

func (f *flakyBuilder) RebuildAll(ctx context.Context) (int, error) {
	f.calls++
	if f.failEach > 0 && f.calls%f.failEach == 0 {
		return 0, errors.New("timeout")
	}
	return f.items, nil
}

func TestPOSWarmupThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	builder := &flakyBuilder{failEach: 20, items: 400}
	job := jobs.NewPOSPriceWarmupJob(builder, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	task, err := jobs.NewPOSPriceWarmupTask("perf")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	failures := 0
	for i := 0; i < 60; i++ {
		if err := job.Handle(context.Background(), task); err != nil {
			failures++
		}
	}
	if failures != 3 {
		t.Fatalf("expected 3 injected failures, got %d", failures)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "odyssey_jobs_total", map[string]string{"job": jobs.TaskPOSPriceWarmup, "status": "success"})
	failure := metricValue(t, families, "odyssey_jobs_total", map[string]string{"job": jobs.TaskPOSPriceWarmup, "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no warmup executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("warmup success ratio too low: %f", ratio)
	}

	warmed := metricValue(t, families, "odyssey_pos_prices_warmed", nil)
	if warmed != 400 {
		t.Fatalf("expected 400 warmed prices, got %f", warmed)
	}

	duration := histogramMean(t, families, "odyssey_job_duration_seconds", map[string]string{"job": jobs.TaskPOSPriceWarmup})
	if duration > 0.5 {
		t.Fatalf("warmup duration above budget: %f", duration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
