// Package kevents publishes build lifecycle events to a Kafka topic.
package kevents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"

	"github.com/birdayz/kbuild"
	"github.com/birdayz/kbuild/kserde"
)

type EventType string

const (
	EventStepStarted   EventType = "STEP_STARTED"
	EventStepSucceeded EventType = "STEP_SUCCEEDED"
	EventStepFailed    EventType = "STEP_FAILED"
	EventStepSkipped   EventType = "STEP_SKIPPED"
	EventBuildFinished EventType = "BUILD_FINISHED"
)

// Event is the JSON payload of every record. Records are keyed by build id so
// all events of one build land on the same partition in order.
type Event struct {
	BuildID    string    `json:"buildId"`
	Type       EventType `json:"type"`
	Step       string    `json:"step,omitempty"`
	Produced   int       `json:"produced,omitempty"`
	DurationMS int64     `json:"durationMs,omitempty"`
	Error      string    `json:"error,omitempty"`
	Features   []string  `json:"features,omitempty"`
	Succeeded  *bool     `json:"succeeded,omitempty"`
	Time       time.Time `json:"time"`
}

var EventSerde = kserde.JSON[Event]()

// Producer is the subset of *kgo.Client used by the publisher.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
}

// Publisher is a kbuild.Observer that produces one record per step transition
// and one when the build finishes. Produce errors never fail the build; they
// are collected and returned by Close.
type Publisher struct {
	producer Producer
	topic    string
	buildID  string
	log      logr.Logger
	ctx      context.Context
	now      func() time.Time

	mu   sync.Mutex
	errs error
}

type PublisherOption func(*Publisher)

var WithLogr = func(log logr.Logger) PublisherOption {
	return func(p *Publisher) {
		p.log = log
	}
}

// NewPublisher creates a publisher for one build. ctx bounds every produce
// call.
func NewPublisher(ctx context.Context, producer Producer, topic, buildID string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		buildID:  buildID,
		log:      logr.Discard(),
		ctx:      ctx,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) publish(ev Event) {
	ev.BuildID = p.buildID
	ev.Time = p.now().UTC()

	key, err := kserde.String.Serializer(p.buildID)
	if err != nil {
		p.addErr(err)
		return
	}
	value, err := EventSerde.Serializer(ev)
	if err != nil {
		p.addErr(err)
		return
	}

	p.producer.Produce(p.ctx, &kgo.Record{
		Topic: p.topic,
		Key:   key,
		Value: value,
	}, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error(err, "Failed to publish build event", "type", ev.Type, "step", ev.Step)
			p.addErr(fmt.Errorf("publish %s %s: %w", ev.Type, ev.Step, err))
		}
	})
}

func (p *Publisher) addErr(err error) {
	p.mu.Lock()
	p.errs = multierr.Append(p.errs, err)
	p.mu.Unlock()
}

func (p *Publisher) StepStarted(step string) {
	p.publish(Event{Type: EventStepStarted, Step: step})
}

func (p *Publisher) StepSucceeded(step string, produced int, d time.Duration) {
	p.publish(Event{Type: EventStepSucceeded, Step: step, Produced: produced, DurationMS: d.Milliseconds()})
}

func (p *Publisher) StepFailed(step string, err error, d time.Duration) {
	p.publish(Event{Type: EventStepFailed, Step: step, Error: err.Error(), DurationMS: d.Milliseconds()})
}

func (p *Publisher) StepSkipped(step string, cause error) {
	p.publish(Event{Type: EventStepSkipped, Step: step, Error: cause.Error()})
}

func (p *Publisher) BuildFinished(res *kbuild.BuildResult, err error) {
	ok := err == nil
	ev := Event{Type: EventBuildFinished, Features: res.Features(), Succeeded: &ok}
	if err != nil {
		ev.Error = err.Error()
	}
	p.publish(ev)
}

// Close flushes buffered records and returns every publish error.
func (p *Publisher) Close(ctx context.Context) error {
	flushErr := p.producer.Flush(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	return multierr.Append(p.errs, flushErr)
}

var (
	_ kbuild.Observer      = (*Publisher)(nil)
	_ kbuild.BuildObserver = (*Publisher)(nil)
	_ Producer             = (*kgo.Client)(nil)
)
