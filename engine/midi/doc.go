// Package midi holds the frame-stamped MIDI event buffers that flow between
// nodes during rendering and the Pipe that hands a node its set of buffers.
//
// Messages are gomidi messages stored in a preallocated byte arena, so
// adding, filtering and clearing events in the render callback never
// allocates once a buffer has been sized.
package midi
