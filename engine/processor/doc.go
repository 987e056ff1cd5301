// Package processor implements the graph's schedulable unit, the Node.
//
// A Node wraps a node-type specific Impl and owns everything the graph
// needs to schedule it: identity, port layout, enable/bypass/mute flags,
// gain ramps, MIDI input shaping and the MIDI program model.
//
// Thread rules:
//   - Flags, gains, key range, transpose and MIDI channel filter are atomics
//     and may be set from any goroutine.
//   - Port layout and parameters are guarded by the node's property lock and
//     change only on the control thread.
//   - Process runs on the render thread and never locks or allocates.
//   - Work that may block (program load/save, port reset) is posted to the
//     control loop and re-checks the node is still alive before running.
package processor
