package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fastpubsub/fastpubsub/internal/config"
	"github.com/fastpubsub/fastpubsub/internal/obslog"
	"github.com/fastpubsub/fastpubsub/obs"
)

// Broker is the top-level façade: it validates project identity, owns a
// single root Router, filters subscribers by an optional selection list,
// and orchestrates the subscription builder and task manager.
type Broker struct {
	ProjectID string

	root       *Router
	bus        BusClient
	builder    *SubscriptionBuilder
	manager    *TaskManager
	classifier ErrorClassifier
	apm        obs.Provider
	log        zerolog.Logger
}

// NewBroker validates projectID and constructs a Broker wired to root, bus,
// and an optional error classifier / APM provider (nil picks the package
// defaults).
func NewBroker(projectID string, root *Router, bus BusClient, emulator bool, classifier ErrorClassifier, apm obs.Provider) (*Broker, error) {
	trimmed := strings.TrimSpace(projectID)
	if trimmed == "" {
		return nil, ErrInvalidProjectID
	}

	root.propagateProjectID(trimmed)

	return &Broker{
		ProjectID:  trimmed,
		root:       root,
		bus:        bus,
		builder:    NewSubscriptionBuilder(bus, emulator),
		manager:    NewTaskManager(),
		classifier: classifier,
		apm:        apm,
		log:        obslog.Component("broker"),
	}, nil
}

// Start filters the router's registered subscribers against an optional
// allow-list, reconciles bus resources for each retained subscriber, hands
// them to the task manager, and starts the manager. A nil selectedAliases
// falls back to the FASTPUBSUB_SUBSCRIBERS environment variable; an empty
// selection runs every registered subscriber.
func (b *Broker) Start(ctx context.Context, selectedAliases []string) error {
	if selectedAliases == nil {
		selectedAliases = config.SelectedSubscribers()
	}

	all := b.root.Subscribers()

	want := make(map[string]bool, len(selectedAliases))
	for _, a := range selectedAliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		want[a] = true
	}

	retained := all
	if len(want) > 0 {
		retained = make(map[string]*Subscriber, len(want))
		for alias := range want {
			if s, ok := all[alias]; ok {
				retained[alias] = s
			} else {
				b.log.Warn().Str("alias", alias).Msg("selected subscriber not found, skipping")
			}
		}
	}

	if len(retained) == 0 {
		return ErrNoSubscribersSelected
	}

	for _, s := range retained {
		if err := b.builder.Build(ctx, s); err != nil {
			return fmt.Errorf("building subscription %q: %w", s.SubscriptionName, err)
		}
		b.manager.CreateTask(NewPollTask(s, b.bus, b.classifier, b.apm))
	}

	return b.manager.Start(ctx)
}

// Shutdown waits for orderly cancellation of every poll task.
func (b *Broker) Shutdown() error {
	return b.manager.Shutdown()
}

// Alive reports false if the liveness map is empty or any task is not
// alive.
func (b *Broker) Alive() bool {
	alive := b.manager.Alive()
	if len(alive) == 0 {
		return false
	}
	for _, v := range alive {
		if !v {
			return false
		}
	}
	return true
}

// Ready mirrors Alive for readiness.
func (b *Broker) Ready() bool {
	ready := b.manager.Ready()
	if len(ready) == 0 {
		return false
	}
	for _, v := range ready {
		if !v {
			return false
		}
	}
	return true
}

// Info returns an opaque snapshot of aggregated task state.
func (b *Broker) Info() map[string]any {
	return map[string]any{
		"project_id": b.ProjectID,
		"alive":      b.manager.Alive(),
		"ready":      b.manager.Ready(),
	}
}

// Router returns the broker's root router, for registering subscribers and
// publishers before Start is called.
func (b *Broker) Router() *Router { return b.root }
