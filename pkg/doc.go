// Package pkg provides the core libraries for turbodep structured decoding.
//
// # Overview
//
// Turbodep turns per-part scores for a dependency parse into well-formed
// trees. The pkg directory is organized along the decoding data flow:
//
//  1. [parts] - Part vocabulary (arcs, labels, siblings, grandparents)
//  2. [factorgraph] - Factor graph construction and the LP-MAP solver contract
//  3. [mst] - Maximum spanning tree extraction (Chu-Liu-Edmonds)
//  4. [prune] - Matrix-tree marginals and head-candidate masks
//  5. [decode] - Decoder, batch runner, options
//  6. [cache] - Pruning-mask caches (memory, file, Redis)
//  7. [treeviz] - Graphviz rendering of decoded trees
//
// # Architecture
//
// The typical flow through a decode:
//
//	scored part vocabulary
//	         ↓
//	    [prune] package (marginals → arc mask, optional)
//	         ↓
//	    [factorgraph] package (variables + factors → LP-MAP solver)
//	         ↓
//	    [mst] package (posteriors → tree projection)
//	         ↓
//	    heads, labels, posteriors per part
//
// # Quick Start
//
// Build a vocabulary, decode a batch and extract trees:
//
//	list := parts.NewList(numRelations)
//	for _, a := range candidates {
//	    _ = list.Add(parts.Arc(a.Head, a.Modifier))
//	}
//	// ... labeled arcs and higher-order parts ...
//	if err := list.Finalize(length); err != nil {
//	    return err
//	}
//
//	runner, err := decode.NewRunner(ctx, decode.Options{SingleRoot: true}, solver)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//
//	results, err := runner.DecodeBatch(ctx, []decode.Instance{
//	    {Length: length, List: list, Scores: scores},
//	})
//
// The solver is pluggable: anything implementing [factorgraph.Solver] works,
// as long as it preserves variable and factor declaration order.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/mst/...      # Specific package
//	go test -run Example       # Examples only
//
// [parts]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/parts
// [factorgraph]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/factorgraph
// [mst]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/mst
// [prune]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/prune
// [decode]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/decode
// [cache]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/cache
// [treeviz]: https://pkg.go.dev/github.com/jbrry/turbodep/pkg/treeviz
package pkg
