// Package graph holds processor nodes and the connections between their
// ports, compiles them into a render sequence and runs that sequence once
// per audio block.
//
// All methods except RenderBlock and Render belong to the control thread
// and are not safe for concurrent use. The render thread never sees the
// node or connection lists: it only runs the last published sequence,
// which is swapped in atomically after each compile. Retired sequences
// keep their scratch buffers and removed nodes alive until the render
// thread has finished every block that could still be using them.
package graph
