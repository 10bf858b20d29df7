// Package emergency implements the automatic circuit breaker: a
// time-windowed aggregation of critical reports per subject that
// pauses the subject the instant the live count reaches the
// threshold. The asymmetry is deliberate — triggering is automatic
// because speed matters, clearing is a privileged manual action
// because deliberate control matters for resuming operation.
//
// Live counts are always recomputed from raw timestamped reports with
// lazy pruning; there is no decaying counter to drift at window
// boundaries.
package emergency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/auth"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/registry"
)

// Defaults. The window and threshold are fixed per deployment, set at
// construction from the profile.
const (
	DefaultValidityWindow = time.Hour
	DefaultPauseThreshold = 3
)

// Event describes a committed emergency state change.
type Event struct {
	Action  string // "report", "pause", "clear"
	Report  *contracts.CriticalReport
	Episode *contracts.PauseEpisode
	Subject string
	Actor   string
	At      time.Time
}

// EventHook observes committed events. Hooks run inside the monitor's
// critical section and must not call back into the monitor.
type EventHook func(Event)

// subjectState is the monitor-owned per-subject record.
type subjectState struct {
	reports []contracts.CriticalReport // ordered by ReportedAt
	paused  bool
	episode *contracts.PauseEpisode // current or most recent
}

// Monitor aggregates critical reports and owns per-subject emergency
// state. The registry is a read-only cross-reference for reporter
// eligibility; the monitor never touches the consensus engine.
type Monitor struct {
	mu        sync.Mutex
	view      registry.ActivityView
	subjects  map[string]*subjectState
	sink      contracts.PauseSink
	window    time.Duration
	threshold int
	clock     func() time.Time
	hooks     []EventHook
	logger    *slog.Logger
}

// NewMonitor creates a monitor with the given validity window and
// pause threshold. Zero values fall back to the defaults.
func NewMonitor(view registry.ActivityView, sink contracts.PauseSink, window time.Duration, threshold int) *Monitor {
	if window <= 0 {
		window = DefaultValidityWindow
	}
	if threshold <= 0 {
		threshold = DefaultPauseThreshold
	}
	return &Monitor{
		view:      view,
		subjects:  make(map[string]*subjectState),
		sink:      sink,
		window:    window,
		threshold: threshold,
		clock:     time.Now,
		logger:    slog.Default().With("component", "emergency"),
	}
}

// WithClock overrides the clock for deterministic testing.
func (m *Monitor) WithClock(clock func() time.Time) *Monitor {
	m.clock = clock
	return m
}

// OnEvent registers a hook for committed events.
func (m *Monitor) OnEvent(h EventHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// ReportCritical records a report and recomputes the subject's live
// count. Reports from the same reporter are NOT deduplicated: report
// volume, not distinct reporters, is the emergency signal, and a
// single watchdog observing three separate critical conditions can
// legitimately trip the breaker. If the live count reaches the
// threshold while the subject is unpaused, the pause fires through
// the sink synchronously; a sink failure rolls the report back.
func (m *Monitor) ReportCritical(ctx context.Context, subject, reporter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.view.IsActive(reporter) {
		return fmt.Errorf("reporter %q: %w", reporter, contracts.ErrUnauthorized)
	}

	now := m.clock()
	st := m.subjects[subject]
	if st == nil {
		st = &subjectState{}
		m.subjects[subject] = st
	}

	report := contracts.CriticalReport{Reporter: reporter, Subject: subject, ReportedAt: now}
	st.reports = append(st.reports, report)

	live := m.liveCount(st, now)
	if live >= m.threshold && !st.paused {
		if err := m.sink.OnEmergencyPause(ctx, subject); err != nil {
			st.reports = st.reports[:len(st.reports)-1]
			m.logger.Error("pause sink rejected emergency pause; report rolled back",
				"subject", subject, "reporter", reporter, "error", err)
			return fmt.Errorf("pause subject %q: %w", subject, err)
		}
		st.paused = true
		st.episode = &contracts.PauseEpisode{
			Subject:     subject,
			TriggeredAt: now,
			ReportCount: live,
		}
		m.logger.Warn("emergency pause triggered",
			"subject", subject, "live_reports", live, "reporter", reporter)
		m.emit(Event{Action: "report", Report: &report, Subject: subject, Actor: reporter, At: now})
		m.emit(Event{Action: "pause", Episode: st.episode, Subject: subject, Actor: reporter, At: now})
		return nil
	}

	m.emit(Event{Action: "report", Report: &report, Subject: subject, Actor: reporter, At: now})
	return nil
}

// ClearEmergency resets a paused subject. Manager role required;
// clearing never happens automatically and never via consensus.
// Historical reports are not deleted, so the live count after a clear
// restarts from whatever is still inside the window.
func (m *Monitor) ClearEmergency(ctx context.Context, subject string, caller auth.Principal) error {
	_ = ctx
	if caller == nil || !caller.HasRole(auth.RoleManager) {
		return fmt.Errorf("clear emergency for %q: %w", subject, contracts.ErrUnauthorized)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.subjects[subject]
	if st == nil || !st.paused {
		return fmt.Errorf("subject %q: %w", subject, contracts.ErrNotPaused)
	}

	now := m.clock()
	st.paused = false
	if st.episode != nil {
		st.episode.ClearedAt = &now
		st.episode.ClearedBy = caller.ID()
	}
	m.logger.Info("emergency cleared", "subject", subject, "caller", caller.ID())
	m.emit(Event{Action: "clear", Episode: st.episode, Subject: subject, Actor: caller.ID(), At: now})
	return nil
}

// State returns a read-only snapshot for a subject. Unknown subjects
// yield an unpaused state with no live reports.
func (m *Monitor) State(subject string) contracts.EmergencyState {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	out := contracts.EmergencyState{Subject: subject, WindowEnd: now}
	st := m.subjects[subject]
	if st == nil {
		out.LiveReports = []contracts.CriticalReport{}
		return out
	}
	m.prune(st, now)
	out.Paused = st.paused
	out.LiveReports = append([]contracts.CriticalReport{}, m.live(st, now)...)
	return out
}

// LiveCount returns the number of reports for subject currently
// inside the validity window.
func (m *Monitor) LiveCount(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.subjects[subject]
	if st == nil {
		return 0
	}
	return m.liveCount(st, m.clock())
}

// liveCount recomputes the live total from timestamps. Pruning is a
// storage optimization only — counting never trusts anything but the
// cutoff comparison. Must be called with mu held.
func (m *Monitor) liveCount(st *subjectState, now time.Time) int {
	m.prune(st, now)
	return len(m.live(st, now))
}

// live returns the suffix of reports newer than the window cutoff.
// Must be called with mu held.
func (m *Monitor) live(st *subjectState, now time.Time) []contracts.CriticalReport {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(st.reports) && !st.reports[i].ReportedAt.After(cutoff) {
		i++
	}
	return st.reports[i:]
}

// prune drops reports that fell out of the window. Reports are
// append-ordered, so the stale ones form a prefix. Must be called
// with mu held.
func (m *Monitor) prune(st *subjectState, now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(st.reports) && !st.reports[i].ReportedAt.After(cutoff) {
		i++
	}
	if i > 0 {
		st.reports = st.reports[i:]
	}
}

// emit delivers an event to all hooks. Must be called with mu held.
func (m *Monitor) emit(ev Event) {
	for _, h := range m.hooks {
		h(ev)
	}
}
