package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fastpubsub/fastpubsub/internal/metrics"
	"github.com/fastpubsub/fastpubsub/internal/obslog"
	"github.com/fastpubsub/fastpubsub/obs"
)

// pollInterval bounds the pull rate when a subscription's stream is empty.
const pollInterval = 500 * time.Millisecond

// ErrorClassifier sorts an error raised by a BusClient call into retryable
// or fatal. gcppubsub supplies the real implementation (unwrapping gRPC
// status codes); DefaultClassifier below is the zero-value fallback used
// when none is configured.
type ErrorClassifier func(err error) ErrorClass

// DefaultClassifier treats every error as retryable. It exists so a
// PollTask is usable without wiring a bus-specific classifier; unknown
// errors keep the loop running with a warning.
func DefaultClassifier(err error) ErrorClass { return ClassRetryable }

// PollTask drives one subscriber's pull loop: pull, translate, dispatch a
// child task per message, ack/nack on outcome, classify pull failures.
type PollTask struct {
	subscriber *Subscriber
	bus        BusClient
	classify   ErrorClassifier
	apm        obs.Provider
	log        zerolog.Logger

	ready   atomic.Bool
	running atomic.Bool

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewPollTask constructs a poll task for subscriber against bus. classifier
// and apm may be nil, in which case DefaultClassifier and a no-op OTel
// provider are used.
func NewPollTask(subscriber *Subscriber, bus BusClient, classifier ErrorClassifier, apm obs.Provider) *PollTask {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	if apm == nil {
		apm = obs.NewOTelProvider("fastpubsub")
	}
	return &PollTask{
		subscriber: subscriber,
		bus:        bus,
		classify:   classifier,
		apm:        apm,
		log:        obslog.Component("poll"),
		shutdownCh: make(chan struct{}),
	}
}

// Ready reports task_ready: at least one successful pull since the last
// error.
func (t *PollTask) Ready() bool { return t.ready.Load() }

// Alive reports task_alive: the loop is active.
func (t *PollTask) Alive() bool { return t.running.Load() }

// Shutdown signals the loop to exit at its next suspension point. Safe to
// call multiple times.
func (t *PollTask) Shutdown() {
	t.shutdownOnce.Do(func() { close(t.shutdownCh) })
}

// Run executes the poll loop until ctx is cancelled or Shutdown is called.
// It opens a structured child task-group for in-flight consume calls and
// awaits it on the way out.
func (t *PollTask) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	t.running.Store(true)
	defer t.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return t.drainAndReturn(group, ctx.Err())
		case <-t.shutdownCh:
			return t.drainAndReturn(group, nil)
		default:
		}

		start := time.Now()
		received, err := t.bus.Pull(groupCtx, t.subscriber.ProjectID, t.subscriber.SubscriptionName, t.subscriber.Control.MaxMessages)
		metrics.ObservePullDuration(t.subscriber.Name, time.Since(start).Seconds())

		if err != nil {
			if stop := t.onException(err); stop {
				return t.drainAndReturn(group, err)
			}
			continue
		}

		t.ready.Store(true)
		metrics.SetReady(t.subscriber.Name, true)

		for _, r := range received {
			msg := Translate(t.subscriber.TopicName, t.subscriber.SubscriptionName, r)
			group.Go(func() error {
				t.consume(groupCtx, msg)
				return nil
			})
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return t.drainAndReturn(group, ctx.Err())
		case <-t.shutdownCh:
			return t.drainAndReturn(group, nil)
		}
	}
}

func (t *PollTask) drainAndReturn(group *errgroup.Group, cause error) error {
	_ = group.Wait()
	t.running.Store(false)
	return cause
}

// consume runs the full middleware chain for one message and acks/nacks
// based on the outcome. Acknowledgement failures are logged, never
// propagated.
func (t *PollTask) consume(ctx context.Context, msg Message) {
	txCtx, end := t.apm.BackgroundTransaction(ctx, t.subscriber.Name)
	defer end()
	txCtx = t.apm.BindDistributedTraceContext(txCtx, msg.Attributes)

	msgLog := obslog.WithMessage(t.log, t.subscriber.Name, msg.Topic, msg.ID, t.apm.TraceID(txCtx), t.apm.SpanID(txCtx))

	chain := t.subscriber.BuildCallstack()
	err := chain(txCtx, msg)

	switch {
	case err == nil, IsDrop(err):
		if ackErr := t.bus.Ack(txCtx, t.subscriber.ProjectID, t.subscriber.SubscriptionName, []string{msg.AckToken}); ackErr != nil {
			msgLog.Warn().Err(ackErr).Msg("ack failed")
		}
		metrics.RecordMessage(t.subscriber.Name, "ack")
	default:
		if nackErr := t.bus.Nack(txCtx, t.subscriber.ProjectID, t.subscriber.SubscriptionName, []string{msg.AckToken}); nackErr != nil {
			msgLog.Warn().Err(nackErr).Msg("nack failed")
		}
		metrics.RecordMessage(t.subscriber.Name, "nack")
		if !IsRetry(err) {
			msgLog.Error().Err(err).Msg("handler failed")
		}
	}
}

// onException classifies a Pull failure. It returns true when the task
// should stop running (fatal), false when it should keep looping
// (retryable).
func (t *PollTask) onException(err error) bool {
	switch t.classify(err) {
	case ClassFatal:
		t.ready.Store(false)
		metrics.SetReady(t.subscriber.Name, false)
		t.log.Error().Err(err).Str("subscriber", t.subscriber.Name).Msg("fatal bus error, stopping poll task")
		return true
	default:
		t.ready.Store(false)
		metrics.SetReady(t.subscriber.Name, false)
		t.log.Warn().Err(err).Str("subscriber", t.subscriber.Name).Msg("retryable bus error, continuing")
		return false
	}
}
