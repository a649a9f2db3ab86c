// Package core holds steps every build runs. Importing it registers them with
// the default registry.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/birdayz/kbuild"
	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

const SummaryStepName = "feature-summary"

// FeatureSummary carries the sorted, distinct feature names of a build.
var FeatureSummary = kitem.NewKind[[]string]("FeatureSummary")

// SummaryStep consumes every Feature and emits one FeatureSummary.
func SummaryStep() kstep.Step {
	return kstep.Step{
		Name:     SummaryStepName,
		Consumes: []kitem.ItemKind{kitem.Feature.Name()},
		Produces: []kitem.ItemKind{FeatureSummary.Name()},
		Fn: func(_ context.Context, in kstep.Inputs) ([]kitem.Item, error) {
			return kstep.Emit(FeatureSummary, summarize(kstep.Values(in, kitem.Feature)))
		},
	}
}

func summarize(features []string) []string {
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// InstalledFeatures renders the line printed at the end of a build.
func InstalledFeatures(res *kbuild.BuildResult) string {
	var names []string
	for _, s := range FeatureSummary.Values(res.Items(FeatureSummary.Name())) {
		names = append(names, s...)
	}
	if names == nil {
		names = summarize(res.Features())
	}
	return fmt.Sprintf("Installed features: [%s]", strings.Join(names, ", "))
}

// Extension registers SummaryStep.
type Extension struct{}

func (Extension) Name() string {
	return "core"
}

func (Extension) Register(r *kbuild.Registry) error {
	return r.Register(SummaryStep())
}

func init() {
	kbuild.MustRegisterExtension(Extension{})
}
