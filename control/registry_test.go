package control

import (
	"testing"
	"time"
)

func TestRegistryStatsMergesMetricsAndDebugProbes(t *testing.T) {
	r := NewRegistry()
	r.Metrics.Set("ops.total", 3)
	r.RegisterDebugProbe("custom", func() any { return "ok" })

	stats := r.Stats()
	if stats["ops.total"] != 3 {
		t.Fatalf("Stats missing metric, got %v", stats)
	}
	if stats["debug.custom"] != "ok" {
		t.Fatalf("Stats missing debug probe under debug. prefix, got %v", stats)
	}
	if _, ok := stats["debug.platform.cpus"]; !ok {
		t.Fatalf("Stats missing platform probe registered at construction, got %v", stats)
	}
}

func TestSetConfigTriggersReloadHooks(t *testing.T) {
	r := NewRegistry()
	reloaded := make(chan struct{}, 1)
	r.OnReload(func() { reloaded <- struct{}{} })
	r.SetConfig(map[string]any{"workers": 4})

	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Fatalf("reload hook never fired")
	}
	if got := r.GetConfig()["workers"]; got != 4 {
		t.Fatalf("GetConfig()[workers] = %v, want 4", got)
	}
}
