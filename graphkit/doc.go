// Package graphkit provides the graph subroutines used by the graph
// linearizations: connected components, cycle detection, minimum spanning
// tree and shortest path.
//
// The subroutines are reached through the Toolkit interface so callers can
// substitute their own implementation. Gonum is the default and is backed by
// gonum.org/v1/gonum/graph.
//
// All results are deterministic: node lists are sorted by id and ties are
// broken by id wherever the underlying library leaves the order open.
package graphkit
