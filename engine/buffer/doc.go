// Package buffer provides the multi-channel audio buffers the render
// dispatcher hands to processors, plus a pool of channel blocks used by the
// render-sequence compiler. Hot-path methods never allocate: they work on
// capacity reserved when the buffer was sized on the control thread.
package buffer
