// File: control/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Registry composes the config store, metrics registry and debug
// probes into the single facade ioctx.Context reports diagnostics
// through (see ioctx.Context.AttachControl).
package control

// Registry is the engine's ambient control plane: one place to read
// config, publish metrics, and register debug probes, mirroring the
// hioload-ws server's control-plane composition at a per-engine
// granularity instead of per-server.
type Registry struct {
	Config  *ConfigStore
	Metrics *MetricsRegistry
	Debug   *DebugProbes
}

// NewRegistry constructs an empty Registry with platform debug probes
// already registered.
func NewRegistry() *Registry {
	r := &Registry{
		Config:  NewConfigStore(),
		Metrics: NewMetricsRegistry(),
		Debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(r.Debug)
	return r
}

// Stats is a convenience snapshot combining metrics and debug probe
// output, with every probe name prefixed by "debug.".
func (r *Registry) Stats() map[string]any {
	out := r.Metrics.GetSnapshot()
	for k, v := range r.Debug.DumpState() {
		out["debug."+k] = v
	}
	return out
}

// SetConfig merges newCfg and triggers every registered reload hook.
func (r *Registry) SetConfig(newCfg map[string]any) {
	r.Config.SetConfig(newCfg)
}

// GetConfig returns a snapshot of the current configuration.
func (r *Registry) GetConfig() map[string]any {
	return r.Config.GetSnapshot()
}

// RegisterDebugProbe adds a named debug hook.
func (r *Registry) RegisterDebugProbe(name string, fn func() any) {
	r.Debug.RegisterProbe(name, fn)
}

// OnReload registers fn to run whenever SetConfig is called.
func (r *Registry) OnReload(fn func()) {
	r.Config.OnReload(fn)
}
