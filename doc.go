// Package kbuild is a build-time step registry and execution pipeline.
//
// Extensions contribute steps. Each step declares the item kinds it consumes
// and produces; the pipeline derives the dependency graph from those
// declarations, runs every step exactly once with producers before consumers,
// and aggregates the emitted items into a BuildResult for the packaging stage.
//
// Most extensions only announce a feature from an init function:
//
//	func init() {
//	    kbuild.MustRegister(kstep.Feature("aws-secrets-manager", "camel-aws-secrets-manager"))
//	}
//
// A build driver then runs the default registry:
//
//	res, err := kbuild.DefaultRegistry().Run(ctx, kbuild.WithLogr(log))
//	var failed *kbuild.BuildFailedError
//	if errors.As(err, &failed) {
//	    // res holds the output of every step that succeeded
//	}
//
// A failing step never aborts the build. Steps consuming its output are
// skipped, every other step still runs, and all failures are reported at once.
package kbuild
