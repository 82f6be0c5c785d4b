// Package engagement converts heterogeneous user-activity signals into a
// single weighted score and fires a one-shot callback when a configured
// threshold is crossed.
package engagement

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/domain/models"
)

// Activity weights. These are policy constants the product team tuned; they
// are pinned by tests and must not drift.
const (
	PointsMessageSent  = 1.0
	PointsCodeExecuted = 2.0
	PointsScroll       = 0.5
	PointsInteraction  = 0.5
	PointsTimeBonus    = 0.5
)

// Default debounce windows and time-bonus interval.
const (
	DefaultScrollDebounce    = 3 * time.Second
	DefaultInteractDebounce  = 2 * time.Second
	DefaultTimeBonusInterval = 5 * time.Minute
)

// Followup names the action unlocked when the threshold is reached.
type Followup string

const (
	// FollowupQuiz unlocks a quiz prompt.
	FollowupQuiz Followup = "quiz"
	// FollowupPractice unlocks a practice prompt.
	FollowupPractice Followup = "practice"
)

// UnlockPolicy chooses which follow-up fires on threshold. Exactly one
// follow-up fires per tracking session.
type UnlockPolicy func(kind models.SessionKind) Followup

// SessionKindPolicy unlocks a quiz for lesson sessions and a practice prompt
// otherwise.
func SessionKindPolicy(kind models.SessionKind) Followup {
	if kind == models.KindLesson {
		return FollowupQuiz
	}
	return FollowupPractice
}

// CoinFlipPolicy chooses between quiz and practice with even odds. Kept for
// parity with the original product behavior; prefer SessionKindPolicy.
func CoinFlipPolicy(models.SessionKind) Followup {
	if rand.Intn(2) == 0 {
		return FollowupQuiz
	}
	return FollowupPractice
}

// Callbacks are invoked by the tracker on threshold events. Nil callbacks
// are skipped.
type Callbacks struct {
	OnThreshold      func()
	OnQuizUnlock     func()
	OnPracticeUnlock func()
}

// Broadcaster fans engagement events out to sibling tabs.
type Broadcaster interface {
	Broadcast(ctx context.Context, eventType models.SyncEventType, payload interface{})
}

// Tracker accumulates weighted activity into a score for one session.
// The threshold latch is one-way: once set, the threshold callback never
// fires again until an explicit reset.
type Tracker struct {
	mu sync.Mutex

	sessionID string
	kind      models.SessionKind
	threshold float64
	policy    UnlockPolicy
	callbacks Callbacks
	bus       Broadcaster
	archiver  *Archiver
	logger    zerolog.Logger

	score            float64
	thresholdReached bool
	events           []models.ActivityEvent
	startedAt        time.Time
	tracking         bool

	scrollDeb   *debouncer
	interactDeb *debouncer

	bonusInterval time.Duration
	bonusStop     chan struct{}
}

// TrackerConfig holds the configuration for a tracker.
type TrackerConfig struct {
	SessionID        string
	Kind             models.SessionKind
	Threshold        float64
	Policy           UnlockPolicy
	Callbacks        Callbacks
	Bus              Broadcaster
	Archiver         *Archiver
	ScrollDebounce   time.Duration
	InteractDebounce time.Duration
	// TimeBonusInterval is how often the sustained-activity bonus accrues
	// while tracking.
	TimeBonusInterval time.Duration
	Logger            zerolog.Logger
}

// NewTracker creates an idle tracker. Call StartTracking to begin.
func NewTracker(cfg *TrackerConfig) *Tracker {
	policy := cfg.Policy
	if policy == nil {
		policy = SessionKindPolicy
	}
	scrollDeb := cfg.ScrollDebounce
	if scrollDeb == 0 {
		scrollDeb = DefaultScrollDebounce
	}
	interactDeb := cfg.InteractDebounce
	if interactDeb == 0 {
		interactDeb = DefaultInteractDebounce
	}
	bonusInterval := cfg.TimeBonusInterval
	if bonusInterval == 0 {
		bonusInterval = DefaultTimeBonusInterval
	}

	t := &Tracker{
		sessionID:     cfg.SessionID,
		kind:          cfg.Kind,
		threshold:     cfg.Threshold,
		policy:        policy,
		callbacks:     cfg.Callbacks,
		bus:           cfg.Bus,
		archiver:      cfg.Archiver,
		bonusInterval: bonusInterval,
		logger:        cfg.Logger.With().Str("component", "engagement").Str("session_id", cfg.SessionID).Logger(),
	}
	t.scrollDeb = newDebouncer(scrollDeb, func() {
		t.TrackActivity(context.Background(), models.ActivityScroll, PointsScroll)
	})
	t.interactDeb = newDebouncer(interactDeb, func() {
		t.TrackActivity(context.Background(), models.ActivityInteraction, PointsInteraction)
	})
	return t
}

// StartTracking resets score, latch, and event log, then begins accruing the
// sustained-activity bonus. Calling it again replaces, never stacks, the
// previous timers so activity is not double-counted.
func (t *Tracker) StartTracking() {
	t.mu.Lock()
	t.stopInternalsLocked()

	t.score = 0
	t.thresholdReached = false
	t.events = nil
	t.startedAt = time.Now().UTC()
	t.tracking = true

	stop := make(chan struct{})
	t.bonusStop = stop
	t.mu.Unlock()

	go t.bonusLoop(stop)
}

// StopTracking halts timers and debouncers. The score survives; callers that
// need a clean slate call ResetTracking.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	t.stopInternalsLocked()
	t.tracking = false
	events := make([]models.ActivityEvent, len(t.events))
	copy(events, t.events)
	t.mu.Unlock()

	if t.archiver != nil {
		t.archiver.Enqueue(events)
	}
}

// ResetTracking stops tracking and clears all accumulated state.
func (t *Tracker) ResetTracking() {
	t.StopTracking()

	t.mu.Lock()
	t.score = 0
	t.thresholdReached = false
	t.events = nil
	t.startedAt = time.Time{}
	t.mu.Unlock()
}

// stopInternalsLocked cancels the bonus ticker and debouncers. Caller holds mu.
func (t *Tracker) stopInternalsLocked() {
	if t.bonusStop != nil {
		close(t.bonusStop)
		t.bonusStop = nil
	}
	t.scrollDeb.Stop()
	t.interactDeb.Stop()
}

// bonusLoop accrues the sustained-activity bonus while tracking continues.
func (t *Tracker) bonusLoop(stop chan struct{}) {
	ticker := time.NewTicker(t.bonusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.TrackActivity(context.Background(), models.ActivityTimeBonus, PointsTimeBonus)
		}
	}
}

// TrackMessageSent records a chat message sent to a tutor.
func (t *Tracker) TrackMessageSent(ctx context.Context) {
	t.TrackActivity(ctx, models.ActivityMessageSent, PointsMessageSent)
}

// TrackCodeExecuted records a code execution in the editor sandbox.
func (t *Tracker) TrackCodeExecuted(ctx context.Context) {
	t.TrackActivity(ctx, models.ActivityCodeExecuted, PointsCodeExecuted)
}

// SignalScroll feeds a raw scroll signal into the debouncer. Only one
// trailing activity fires per inactivity window.
func (t *Tracker) SignalScroll() {
	t.scrollDeb.Signal()
}

// SignalInteraction feeds a raw mouse/key/click signal into the debouncer.
func (t *Tracker) SignalInteraction() {
	t.interactDeb.Signal()
}

// TrackActivity is the single mutation point: it appends an event, increments
// the score, and fires the threshold callback plus exactly one follow-up the
// first time the score reaches the threshold. Ignored when not tracking.
func (t *Tracker) TrackActivity(ctx context.Context, activityType models.ActivityType, points float64) {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return
	}

	t.events = append(t.events, models.ActivityEvent{
		SessionID: t.sessionID,
		Type:      activityType,
		Points:    points,
		Timestamp: time.Now().UTC(),
	})
	t.score += points

	crossed := false
	var followup Followup
	if t.score >= t.threshold && !t.thresholdReached {
		t.thresholdReached = true
		crossed = true
		followup = t.policy(t.kind)
	}
	score := t.score
	t.mu.Unlock()

	if t.bus != nil {
		t.bus.Broadcast(ctx, models.EventEngagementUpdated, map[string]interface{}{
			"sessionId": t.sessionID,
			"score":     score,
		})
	}

	if !crossed {
		return
	}

	t.logger.Info().Float64("score", score).Str("followup", string(followup)).Msg("engagement threshold reached")

	if t.callbacks.OnThreshold != nil {
		t.callbacks.OnThreshold()
	}
	if t.bus != nil {
		t.bus.Broadcast(ctx, models.EventThresholdReached, map[string]interface{}{
			"sessionId": t.sessionID,
			"score":     score,
		})
	}

	switch followup {
	case FollowupQuiz:
		if t.callbacks.OnQuizUnlock != nil {
			t.callbacks.OnQuizUnlock()
		}
		if t.bus != nil {
			t.bus.Broadcast(ctx, models.EventQuizUnlocked, map[string]interface{}{"sessionId": t.sessionID})
		}
	case FollowupPractice:
		if t.callbacks.OnPracticeUnlock != nil {
			t.callbacks.OnPracticeUnlock()
		}
		if t.bus != nil {
			t.bus.Broadcast(ctx, models.EventPracticeUnlocked, map[string]interface{}{"sessionId": t.sessionID})
		}
	}
}

// Score returns the current accumulated score.
func (t *Tracker) Score() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.score
}

// ThresholdReached reports whether the latch is set.
func (t *Tracker) ThresholdReached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.thresholdReached
}

// Analytics derives a read-only summary of the tracking session without
// mutating state.
func (t *Tracker) Analytics() models.EngagementAnalytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[models.ActivityType]int)
	for _, e := range t.events {
		counts[e.Type]++
	}

	var duration time.Duration
	if !t.startedAt.IsZero() {
		duration = time.Since(t.startedAt)
	}

	perMinute := 0.0
	if minutes := duration.Minutes(); minutes > 0 {
		perMinute = t.score / minutes
	}

	return models.EngagementAnalytics{
		Score:             t.score,
		Threshold:         t.threshold,
		ThresholdReached:  t.thresholdReached,
		TrackingDuration:  duration,
		EventCounts:       counts,
		PointsPerMinute:   perMinute,
		TotalEvents:       len(t.events),
		TrackingStartedAt: t.startedAt,
	}
}
