// Package control is the engine's ambient control plane: a
// Registry composing a ConfigStore, a MetricsRegistry and
// DebugProbes into the single facade ioctx.Context.AttachControl
// wires in, and the socket service could report through the same way.
//
// Each of the three pieces is independently usable and has a
// different read/write shape:
//   - ConfigStore: written occasionally (SetConfig), read for a
//     snapshot, with reload listeners fired on every write.
//   - MetricsRegistry: written often (Set), read for a snapshot of
//     whatever was last pushed.
//   - DebugProbes: written once at startup (RegisterProbe), read on
//     demand -- the probe recomputes its value every DumpState call.
//
// Author: momentics <momentics@gmail.com>
package control
