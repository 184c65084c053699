// File: ioctx/control.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package ioctx

import "github.com/ohhmm/asio/control"

// AttachControl wires reg into this context: the current outstanding
// work count, runner count and stopped flag become debug probes on
// reg, and each Run pushes its handler count into reg's metrics
// registry when it returns; both are readable via reg.Stats().
func (c *Context) AttachControl(reg *control.Registry) {
	c.control = reg
	reg.RegisterDebugProbe("ioctx.work_count", func() any { return c.workCount.Load() })
	reg.RegisterDebugProbe("ioctx.runners", func() any { return c.runners.Load() })
	reg.RegisterDebugProbe("ioctx.stopped", func() any { return c.stopped.Load() })
}

func (c *Context) reportRan(n int) {
	if c.control == nil {
		return
	}
	c.control.Metrics.Set("ioctx.handlers_run_total", n)
}
