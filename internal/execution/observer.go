package execution

import (
	"time"

	"github.com/go-logr/logr"
)

// Observer receives step lifecycle events. Implementations must be safe for
// concurrent use when the scheduler runs with parallelism > 1.
type Observer interface {
	StepStarted(step string)
	StepSucceeded(step string, produced int, d time.Duration)
	StepFailed(step string, err error, d time.Duration)
	StepSkipped(step string, cause error)
}

// BuildObserver is optionally implemented by observers that want the final
// result of a build.
type BuildObserver interface {
	BuildFinished(res *BuildResult, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) StepStarted(string) {}
func (NopObserver) StepSucceeded(string, int, time.Duration) {}
func (NopObserver) StepFailed(string, error, time.Duration) {}
func (NopObserver) StepSkipped(string, error) {}

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) StepStarted(step string) {
	for _, o := range m {
		o.StepStarted(step)
	}
}

func (m MultiObserver) StepSucceeded(step string, produced int, d time.Duration) {
	for _, o := range m {
		o.StepSucceeded(step, produced, d)
	}
}

func (m MultiObserver) StepFailed(step string, err error, d time.Duration) {
	for _, o := range m {
		o.StepFailed(step, err, d)
	}
}

func (m MultiObserver) StepSkipped(step string, cause error) {
	for _, o := range m {
		o.StepSkipped(step, cause)
	}
}

func (m MultiObserver) BuildFinished(res *BuildResult, err error) {
	for _, o := range m {
		if bo, ok := o.(BuildObserver); ok {
			bo.BuildFinished(res, err)
		}
	}
}

// LogObserver logs step events to a logr.Logger.
type LogObserver struct {
	log logr.Logger
}

func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (l *LogObserver) StepStarted(step string) {
	l.log.V(1).Info("Step started", "step", step)
}

func (l *LogObserver) StepSucceeded(step string, produced int, d time.Duration) {
	l.log.V(1).Info("Step succeeded", "step", step, "produced", produced, "duration", d)
}

func (l *LogObserver) StepFailed(step string, err error, d time.Duration) {
	l.log.Error(err, "Step failed", "step", step, "duration", d)
}

func (l *LogObserver) StepSkipped(step string, cause error) {
	l.log.Info("Step skipped", "step", step, "cause", cause.Error())
}

func (l *LogObserver) BuildFinished(res *BuildResult, err error) {
	if err != nil {
		l.log.Error(err, "Build finished with failures", "steps", len(res.Outcomes()))
		return
	}
	l.log.Info("Build finished", "steps", len(res.Outcomes()), "features", res.Features())
}
