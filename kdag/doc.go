// Package kdag provides the step registry and dependency graph of a build.
//
// # Overview
//
// Every build step declares the item kinds it consumes and produces. kdag
// derives the dependency graph from those declarations: there is an edge from
// step A to step B whenever A produces a kind that B consumes. Edges are never
// declared by hand.
//
// # Basic Usage
//
//	builder := kdag.NewBuilder()
//
//	builder.MustRegister(kstep.Feature("secrets-feature", "camel-aws-secrets-manager"))
//	builder.MustRegister(kstep.Step{
//	    Name:     "summary",
//	    Consumes: []kitem.ItemKind{kitem.Feature.Name()},
//	    Produces: []kitem.ItemKind{Summary.Name()},
//	    Fn:       summarize,
//	})
//
//	dag := builder.MustBuild()
//	for _, id := range dag.Order() {
//	    fmt.Println(id)
//	}
//
// # Validation
//
// Registration rejects invalid names, duplicate names (*DuplicateStepError) and
// steps that consume a kind they produce (*SelfLoopError). A failed
// registration leaves the builder untouched.
//
// Build rejects cycles with *CyclicDependencyError. Cycles are found with a
// depth-first search over steps in lexicographic order; the reported cycle is
// the lexicographically smallest one found, so the message is stable.
//
// All errors wrap sentinel errors (ErrDuplicateStep, ErrSelfLoop,
// ErrCycleDetected, ...) that can be checked with errors.Is().
//
// # Ordering
//
// The execution order is a topological order computed with Kahn's algorithm.
// Among steps that are ready at the same time, the one registered first comes
// first. Registration order therefore fully determines the order, which keeps
// build outputs reproducible.
//
// Levels groups steps by dependency depth for parallel execution: steps in the
// same level have no path between them.
//
// # Thread Safety
//
// Builder is NOT safe for concurrent use. The DAG returned by Build is
// immutable and safe to share.
package kdag
