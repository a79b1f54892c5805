package core

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskManager is the fleet of poll tasks running under one structured
// cancellation scope. It exposes aggregated readiness/liveness and an
// orderly shutdown.
type TaskManager struct {
	mu    sync.Mutex
	tasks []*PollTask

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewTaskManager returns an empty manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{}
}

// CreateTask stores t for the manager to run on Start. Calling
// this after Start has no defined ordering guarantee with in-flight tasks
// and is discouraged but not rejected.
func (m *TaskManager) CreateTask(t *PollTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
}

// Start enters the task group and spawns every poll task's Run within it.
// It returns once all tasks are spawned, not when they exit.
func (m *TaskManager) Start(ctx context.Context) error {
	m.mu.Lock()
	tasks := append([]*PollTask{}, m.tasks...)
	m.mu.Unlock()

	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)
	m.mu.Lock()
	m.group = group
	m.cancel = cancel
	m.mu.Unlock()

	for _, t := range tasks {
		t := t
		group.Go(func() error {
			// A task's terminal error stays inside that task: returning it
			// here would cancel the group context and take down siblings.
			// The task has already logged and classified it.
			_ = t.Run(groupCtx)
			return nil
		})
	}
	return nil
}

// Alive returns each managed task's liveness (task_alive) keyed by
// subscriber name.
func (m *TaskManager) Alive() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.tasks))
	for _, t := range m.tasks {
		out[t.subscriber.Name] = t.Alive()
	}
	return out
}

// Ready returns each managed task's readiness (task_ready) keyed by
// subscriber name.
func (m *TaskManager) Ready() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.tasks))
	for _, t := range m.tasks {
		out[t.subscriber.Name] = t.Ready()
	}
	return out
}

// Shutdown signals every task to exit, cancels the group, and waits for it
// to drain.
func (m *TaskManager) Shutdown() error {
	m.mu.Lock()
	tasks := append([]*PollTask{}, m.tasks...)
	cancel := m.cancel
	group := m.group
	m.mu.Unlock()

	for _, t := range tasks {
		t.Shutdown()
	}
	if cancel != nil {
		cancel()
	}
	if group != nil {
		return group.Wait()
	}
	return nil
}
