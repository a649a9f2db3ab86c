// Package awssecretsmanager is the build-time half of the AWS Secrets Manager
// integration. Importing it for side effects registers its steps with the
// default registry.
package awssecretsmanager

import (
	"github.com/birdayz/kbuild"
)

const (
	// FeatureName is announced to the packaging stage.
	FeatureName = "camel-aws-secrets-manager"
	StepName    = "aws-secrets-manager-feature"
)

// Extension contributes a single step that emits FeatureName.
type Extension struct{}

func (Extension) Name() string {
	return "aws-secrets-manager"
}

func (Extension) Register(r *kbuild.Registry) error {
	return r.RegisterFeature(StepName, FeatureName)
}

func init() {
	kbuild.MustRegisterExtension(Extension{})
}
