// Package linearize imposes a locality-preserving 1-D order over records.
//
// Strategies:
//
//   - identity and random (seeded) permutations
//   - attribute sort (stable; temporal columns are numeric after loading)
//   - Z-order over a normalised 2-D or k-D subspace
//   - greedy nearest-neighbour chains over a KD-tree or HNSW index
//   - graph orderings of an edge list: degree reduction (basic, weighted),
//     spanning-tree preorder, edge-unaware and random node orders
//
// A Config names the strategy through a closed Kind and carries its
// parameters; ParseKind is the only place strategy names are resolved.
package linearize
