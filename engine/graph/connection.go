package graph

import (
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// Connection is a directed arc from an output port to an input port.
// Ports are absolute indices into each node's port list.
type Connection struct {
	SourceNode uint32
	SourcePort uint32
	DestNode   uint32
	DestPort   uint32
}

// AddConnection connects an output port to an input port and schedules a
// rebuild. It returns false, leaving the graph unchanged, when either
// port is missing or has the wrong direction, the port types cannot
// connect, the connection exists, or it would close a cycle.
func (g *Graph) AddConnection(srcNode, srcPort, dstNode, dstPort uint32) bool {
	if !g.CanConnect(srcNode, srcPort, dstNode, dstPort) {
		return false
	}

	g.connections = append(g.connections, Connection{
		SourceNode: srcNode,
		SourcePort: srcPort,
		DestNode:   dstNode,
		DestPort:   dstPort,
	})
	g.triggerRebuild()

	return true
}

// CanConnect reports whether AddConnection would accept the arc.
func (g *Graph) CanConnect(srcNode, srcPort, dstNode, dstPort uint32) bool {
	c := Connection{SourceNode: srcNode, SourcePort: srcPort, DestNode: dstNode, DestPort: dstPort}
	if !g.IsConnectionLegal(c) {
		return false
	}

	if srcNode == dstNode || g.hasConnection(c) {
		return false
	}

	return !g.IsAnInputTo(dstNode, srcNode, len(g.nodes))
}

// IsConnectionLegal checks c against the nodes' current port layouts:
// both ports exist, the source is an output, the destination an input,
// and the port types can connect.
func (g *Graph) IsConnectionLegal(c Connection) bool {
	src, dst := g.byID[c.SourceNode], g.byID[c.DestNode]
	if src == nil || dst == nil {
		return false
	}

	if c.SourceNode == c.DestNode && c.SourcePort == c.DestPort {
		return false
	}

	sp, ok := src.Port(c.SourcePort)
	if !ok || sp.Input {
		return false
	}

	dp, ok := dst.Port(c.DestPort)
	if !ok || !dp.Input {
		return false
	}

	return port.CanConnect(sp.Type, dp.Type)
}

func (g *Graph) hasConnection(c Connection) bool {
	for _, o := range g.connections {
		if o == c {
			return true
		}
	}

	return false
}

// RemoveConnection removes the connection at index.
func (g *Graph) RemoveConnection(index int) bool {
	if index < 0 || index >= len(g.connections) {
		return false
	}

	g.connections = append(g.connections[:index], g.connections[index+1:]...)
	g.triggerRebuild()

	return true
}

// RemoveConnectionMatching removes the connection equal to c.
func (g *Graph) RemoveConnectionMatching(c Connection) bool {
	for i, o := range g.connections {
		if o == c {
			return g.RemoveConnection(i)
		}
	}

	return false
}

// RemoveIllegalConnections drops every connection that is no longer legal
// for the current port layouts and reports whether any was removed.
func (g *Graph) RemoveIllegalConnections() bool {
	if !g.removeWhere(func(c Connection) bool { return !g.IsConnectionLegal(c) }) {
		return false
	}

	g.triggerRebuild()

	return true
}

// DisconnectNode removes every connection touching a node but keeps the
// node.
func (g *Graph) DisconnectNode(id uint32) bool {
	if !g.removeWhere(func(c Connection) bool { return touches(c, id) }) {
		return false
	}

	g.triggerRebuild()

	return true
}

func touches(c Connection, id uint32) bool {
	return c.SourceNode == id || c.DestNode == id
}

func (g *Graph) removeWhere(drop func(Connection) bool) bool {
	kept := g.connections[:0]
	for _, c := range g.connections {
		if !drop(c) {
			kept = append(kept, c)
		}
	}

	removed := len(kept) != len(g.connections)
	clear(g.connections[len(kept):])
	g.connections = kept

	return removed
}

// IsConnected reports whether any connection runs directly from src to
// dst.
func (g *Graph) IsConnected(src, dst uint32) bool {
	for _, c := range g.connections {
		if c.SourceNode == src && c.DestNode == dst {
			return true
		}
	}

	return false
}

// IsAnInputTo reports whether src feeds dst directly or through other
// nodes. The search follows paths of at most recursionCheck+1 arcs; pass
// NumNodes for an exact answer.
func (g *Graph) IsAnInputTo(src, dst uint32, recursionCheck int) bool {
	seen := map[uint32]bool{}
	return g.isAnInputTo(src, dst, recursionCheck, seen)
}

func (g *Graph) isAnInputTo(src, dst uint32, depth int, seen map[uint32]bool) bool {
	if seen[dst] {
		return false
	}
	seen[dst] = true

	for _, c := range g.connections {
		if c.DestNode != dst {
			continue
		}
		if c.SourceNode == src {
			return true
		}
		if depth > 0 && g.isAnInputTo(src, c.SourceNode, depth-1, seen) {
			return true
		}
	}

	return false
}

// NumConnections returns the number of connections.
func (g *Graph) NumConnections() int { return len(g.connections) }

// Connection returns the connection at index.
func (g *Graph) Connection(index int) (Connection, bool) {
	if index < 0 || index >= len(g.connections) {
		return Connection{}, false
	}

	return g.connections[index], true
}

// Connections returns a copy of all connections.
func (g *Graph) Connections() []Connection {
	out := make([]Connection, len(g.connections))
	copy(out, g.connections)

	return out
}

// ConnectionsFor returns the connections touching a node.
func (g *Graph) ConnectionsFor(id uint32) []Connection {
	var out []Connection
	for _, c := range g.connections {
		if touches(c, id) {
			out = append(out, c)
		}
	}

	return out
}

// portType returns the type of a node port, or port.Unknown.
func portType(n *processor.Node, index uint32) port.Type {
	p, ok := n.Port(index)
	if !ok {
		return port.Unknown
	}

	return p.Type
}
