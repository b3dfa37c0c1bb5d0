package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/google/btree"
)

type entry struct {
	alarm  time.Time
	seq    uint64
	client actor.Ref
	name   string
	period time.Duration
	msg    any
}

func (e *entry) recurring() bool {
	return e.period > 0
}

func less(a, b *entry) bool {
	if !a.alarm.Equal(b.alarm) {
		return a.alarm.Before(b.alarm)
	}
	return a.seq < b.seq
}

// Manager is an actor that owns a set of pending timers.
// Everything but Tell and Pending runs on the manager loop.
type Manager struct {
	id      actor.ID
	name    string
	mailbox *actor.Mailbox[any]
	extract Extractor
	handle  Handler
	now     func() time.Time
	logger  *slog.Logger
	instr   Instrumentation

	pending *btree.BTreeG[*entry]
	seq     uint64
	count   atomic.Int64
	running atomic.Bool
	done    chan struct{}
}

// New creates a manager. Its loop starts with Run.
func New(name string, opts ...Option) *Manager {
	m := &Manager{
		name:    name,
		mailbox: actor.NewMailbox[any](),
		pending: btree.NewG(2, less),
		done:    make(chan struct{}),
	}
	defaults(m)
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("timer", name)
	return m
}

func (m *Manager) ID() actor.ID {
	return m.id
}

func (m *Manager) Name() string {
	return m.name
}

// Pending returns the number of scheduled timers.
func (m *Manager) Pending() int {
	return int(m.count.Load())
}

// Done is closed when the loop has ended.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Tell enqueues a command or an application message. Create commands are validated first.
func (m *Manager) Tell(msg any) error {
	if cmd, ok := m.extract(msg); ok {
		if err := Validate(cmd); err != nil {
			return err
		}
	}
	if err := m.mailbox.Enqueue(msg); err != nil {
		return fmt.Errorf("timer %q: %w", m.name, err)
	}
	return nil
}

// Run waits for messages and alarms until an Abort command, a handler returning false,
// or the end of ctx. Only the latter is reported, as an error wrapping actor.ErrInterrupted.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("timer %q: %w", m.name, actor.ErrRunning)
	}
	defer func() {
		m.mailbox.Close()
		close(m.done)
	}()
	m.logger.Debug("timer manager started")

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("timer %q: %w: %w", m.name, actor.ErrInterrupted, ctx.Err())
		}
		// Commands already queued are applied before alarms are checked, so a cancel
		// sent before an alarm wins even when the loop was busy at alarm time.
		if !m.drain(ctx) {
			m.logger.Debug("timer manager stopped", "pending", m.pending.Len())
			return nil
		}

		var wake <-chan time.Time
		var alarm *time.Timer
		if next, ok := m.pending.Min(); ok {
			d := next.alarm.Sub(m.now())
			if d <= 0 {
				m.fireDue()
				continue
			}
			alarm = time.NewTimer(d)
			wake = alarm.C
		}

		msg, ok, err := m.mailbox.Poll(ctx, wake)
		if alarm != nil {
			alarm.Stop()
		}
		if errors.Is(err, actor.ErrStopped) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("timer %q: %w: %w", m.name, actor.ErrInterrupted, err)
		}
		if !ok {
			continue
		}
		if !m.dispatch(ctx, msg) {
			m.logger.Debug("timer manager stopped", "pending", m.pending.Len())
			return nil
		}
	}
}

// drain dispatches the queued messages. It reports false when one of them ends the loop.
func (m *Manager) drain(ctx context.Context) bool {
	for ctx.Err() == nil {
		msg, ok := m.mailbox.TryDequeue()
		if !ok {
			return true
		}
		if !m.dispatch(ctx, msg) {
			return false
		}
	}
	return true
}

func (m *Manager) dispatch(ctx context.Context, msg any) bool {
	cmd, ok := m.extract(msg)
	if !ok {
		return m.handle(ctx, msg)
	}

	switch cmd.Kind {
	case KindCreate:
		m.create(cmd)
	case KindCancel:
		m.cancel(cmd.Client, cmd.Name)
	case KindAbort:
		return false
	default:
		m.logger.Warn("unknown timer command", "kind", cmd.Kind)
	}
	return true
}

func (m *Manager) create(cmd Command) {
	if cmd.Client == nil {
		m.logger.Warn("timer without client", "name", cmd.Name)
		return
	}
	alarm := cmd.At
	if alarm.IsZero() {
		alarm = m.now().Add(cmd.After)
	}
	e := &entry{
		alarm:  alarm,
		client: cmd.Client,
		name:   cmd.Name,
		msg:    cmd.Message,
	}
	if cmd.Recurring {
		e.period = cmd.Period
	}
	m.insert(e)
	m.logger.Debug("timer scheduled", "name", e.name, "client", e.client.Name(), "alarm", e.alarm, "period", e.period)
	m.updateCount()
}

func (m *Manager) insert(e *entry) {
	m.seq++
	e.seq = m.seq
	m.pending.ReplaceOrInsert(e)
}

func (m *Manager) cancel(client actor.Ref, name string) {
	if client == nil {
		return
	}
	var found *entry
	m.pending.Ascend(func(e *entry) bool {
		if e.client.ID() == client.ID() && e.name == name {
			found = e
			return false
		}
		return true
	})
	if found == nil {
		return
	}
	m.pending.Delete(found)
	m.logger.Debug("timer cancelled", "name", name, "client", client.Name())
	m.updateCount()
}

// fireDue delivers every timer whose alarm has passed, then reschedules the recurring ones.
// A timer whose delivery fails is dropped.
func (m *Manager) fireDue() {
	now := m.now()
	var due []*entry
	for {
		e, ok := m.pending.Min()
		if !ok || e.alarm.After(now) {
			break
		}
		m.pending.DeleteMin()
		due = append(due, e)
	}

	stopped := make(map[actor.ID]bool)
	for _, e := range due {
		if stopped[e.client.ID()] {
			continue
		}
		err := e.client.Tell(e.msg)
		m.instr.TimerFired(m.name)
		switch {
		case errors.Is(err, actor.ErrStopped):
			m.logger.Debug("client stopped, dropping its timers", "client", e.client.Name())
			stopped[e.client.ID()] = true
			continue
		case err != nil:
			m.logger.Warn("timer delivery failed, dropping timer", "name", e.name, "client", e.client.Name(), "err", err)
			continue
		}
		if e.recurring() {
			e.alarm = e.alarm.Add(e.period)
			m.insert(e)
		}
	}

	if len(stopped) > 0 {
		m.drop(stopped)
	}
	m.updateCount()
}

func (m *Manager) drop(clients map[actor.ID]bool) {
	var victims []*entry
	m.pending.Ascend(func(e *entry) bool {
		if clients[e.client.ID()] {
			victims = append(victims, e)
		}
		return true
	})
	for _, e := range victims {
		m.pending.Delete(e)
	}
}

func (m *Manager) updateCount() {
	n := m.pending.Len()
	m.count.Store(int64(n))
	m.instr.TimersPending(m.name, n)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
