// Package engagement_test provides unit tests for the engagement package.
package engagement_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/tests/mocks"
)

func newTracker(t *testing.T, cfg *engagement.TrackerConfig) *engagement.Tracker {
	t.Helper()

	if cfg.SessionID == "" {
		cfg.SessionID = "session-1"
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 10
	}
	// Keep the background timers out of the way unless a test wants them.
	if cfg.TimeBonusInterval == 0 {
		cfg.TimeBonusInterval = time.Hour
	}
	cfg.Logger = zerolog.Nop()

	tracker := engagement.NewTracker(cfg)
	t.Cleanup(tracker.StopTracking)
	return tracker
}

func TestActivityWeights(t *testing.T) {
	assert.Equal(t, 1.0, engagement.PointsMessageSent)
	assert.Equal(t, 2.0, engagement.PointsCodeExecuted)
	assert.Equal(t, 0.5, engagement.PointsScroll)
	assert.Equal(t, 0.5, engagement.PointsInteraction)
	assert.Equal(t, 0.5, engagement.PointsTimeBonus)
}

func TestTracker_AccumulatesWeightedScore(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackMessageSent(ctx)
	tracker.TrackMessageSent(ctx)
	tracker.TrackCodeExecuted(ctx)

	assert.Equal(t, 4.0, tracker.Score())
	assert.False(t, tracker.ThresholdReached())
}

func TestTracker_IgnoresActivityWhenIdle(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{})

	tracker.TrackMessageSent(context.Background())

	assert.Equal(t, 0.0, tracker.Score())
}

func TestThreshold_FiresExactlyOnce(t *testing.T) {
	var thresholdCalls, quizCalls, practiceCalls int32

	tracker := newTracker(t, &engagement.TrackerConfig{
		Kind:      models.KindLesson,
		Threshold: 3,
		Callbacks: engagement.Callbacks{
			OnThreshold:      func() { atomic.AddInt32(&thresholdCalls, 1) },
			OnQuizUnlock:     func() { atomic.AddInt32(&quizCalls, 1) },
			OnPracticeUnlock: func() { atomic.AddInt32(&practiceCalls, 1) },
		},
	})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackCodeExecuted(ctx) // 2.0
	assert.Equal(t, int32(0), atomic.LoadInt32(&thresholdCalls))

	tracker.TrackCodeExecuted(ctx) // 4.0, crosses
	tracker.TrackCodeExecuted(ctx)
	tracker.TrackMessageSent(ctx)

	assert.True(t, tracker.ThresholdReached())
	assert.Equal(t, int32(1), atomic.LoadInt32(&thresholdCalls))
	// Exactly one follow-up fires, chosen by the policy.
	assert.Equal(t, int32(1), atomic.LoadInt32(&quizCalls)+atomic.LoadInt32(&practiceCalls))
}

func TestSessionKindPolicy(t *testing.T) {
	assert.Equal(t, engagement.FollowupQuiz, engagement.SessionKindPolicy(models.KindLesson))
	assert.Equal(t, engagement.FollowupPractice, engagement.SessionKindPolicy(models.KindPractice))
}

func TestCoinFlipPolicy_ReturnsKnownFollowup(t *testing.T) {
	for i := 0; i < 20; i++ {
		followup := engagement.CoinFlipPolicy(models.KindLesson)
		assert.Contains(t, []engagement.Followup{engagement.FollowupQuiz, engagement.FollowupPractice}, followup)
	}
}

func TestPracticeSession_UnlocksPractice(t *testing.T) {
	var quizCalls, practiceCalls int32

	tracker := newTracker(t, &engagement.TrackerConfig{
		Kind:      models.KindPractice,
		Threshold: 1,
		Callbacks: engagement.Callbacks{
			OnQuizUnlock:     func() { atomic.AddInt32(&quizCalls, 1) },
			OnPracticeUnlock: func() { atomic.AddInt32(&practiceCalls, 1) },
		},
	})

	tracker.StartTracking()
	tracker.TrackMessageSent(context.Background())

	assert.Equal(t, int32(0), atomic.LoadInt32(&quizCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&practiceCalls))
}

func TestStartTracking_ResetsStateAndLatch(t *testing.T) {
	var thresholdCalls int32

	tracker := newTracker(t, &engagement.TrackerConfig{
		Kind:      models.KindLesson,
		Threshold: 1,
		Callbacks: engagement.Callbacks{
			OnThreshold: func() { atomic.AddInt32(&thresholdCalls, 1) },
		},
	})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackMessageSent(ctx)
	require.True(t, tracker.ThresholdReached())
	require.Equal(t, int32(1), atomic.LoadInt32(&thresholdCalls))

	// Restart replaces everything; the latch can fire again.
	tracker.StartTracking()
	assert.Equal(t, 0.0, tracker.Score())
	assert.False(t, tracker.ThresholdReached())

	tracker.TrackMessageSent(ctx)
	assert.Equal(t, int32(2), atomic.LoadInt32(&thresholdCalls))
}

func TestStopTracking_PreservesScore(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackCodeExecuted(ctx)
	tracker.StopTracking()

	assert.Equal(t, 2.0, tracker.Score())

	// Activity after stop is ignored.
	tracker.TrackMessageSent(ctx)
	assert.Equal(t, 2.0, tracker.Score())
}

func TestResetTracking_ClearsEverything(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{Threshold: 1})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackMessageSent(ctx)
	require.True(t, tracker.ThresholdReached())

	tracker.ResetTracking()

	assert.Equal(t, 0.0, tracker.Score())
	assert.False(t, tracker.ThresholdReached())
	assert.Equal(t, 0, tracker.Analytics().TotalEvents)
}

func TestStopTracking_ArchivesEventLog(t *testing.T) {
	var archivedEvents int64
	collection := &mocks.MockEngagementCollection{}
	collection.On("AddBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		batch := args.Get(1).([]models.ActivityEvent)
		atomic.AddInt64(&archivedEvents, int64(len(batch)))
	}).Return(nil)

	archiver := engagement.NewArchiver(10, collection, zerolog.Nop())
	archiver.Start(1)
	t.Cleanup(archiver.Stop)

	tracker := newTracker(t, &engagement.TrackerConfig{Archiver: archiver})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackMessageSent(ctx)
	tracker.TrackCodeExecuted(ctx)
	tracker.StopTracking()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&archivedEvents) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestScrollSignals_Debounced(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{
		ScrollDebounce: 20 * time.Millisecond,
	})

	tracker.StartTracking()
	for i := 0; i < 5; i++ {
		tracker.SignalScroll()
	}

	// A burst collapses to one trailing-edge activity.
	assert.Eventually(t, func() bool {
		return tracker.Score() == engagement.PointsScroll
	}, time.Second, 5*time.Millisecond)

	// Score stays put once the window has fired.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, engagement.PointsScroll, tracker.Score())
}

func TestInteractionSignals_Debounced(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{
		InteractDebounce: 20 * time.Millisecond,
	})

	tracker.StartTracking()
	tracker.SignalInteraction()
	tracker.SignalInteraction()
	tracker.SignalInteraction()

	assert.Eventually(t, func() bool {
		return tracker.Score() == engagement.PointsInteraction
	}, time.Second, 5*time.Millisecond)
}

func TestTimeBonus_AccruesWhileTracking(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{
		TimeBonusInterval: 20 * time.Millisecond,
	})

	tracker.StartTracking()

	assert.Eventually(t, func() bool {
		return tracker.Score() >= engagement.PointsTimeBonus
	}, time.Second, 5*time.Millisecond)

	tracker.StopTracking()
	score := tracker.Score()

	// The ticker stops with tracking.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, score, tracker.Score())
}

func TestAnalytics_Summarizes(t *testing.T) {
	tracker := newTracker(t, &engagement.TrackerConfig{})
	ctx := context.Background()

	tracker.StartTracking()
	tracker.TrackMessageSent(ctx)
	tracker.TrackMessageSent(ctx)
	tracker.TrackCodeExecuted(ctx)

	analytics := tracker.Analytics()

	assert.Equal(t, 4.0, analytics.Score)
	assert.Equal(t, 10.0, analytics.Threshold)
	assert.False(t, analytics.ThresholdReached)
	assert.Equal(t, 3, analytics.TotalEvents)
	assert.Equal(t, 2, analytics.EventCounts[models.ActivityMessageSent])
	assert.Equal(t, 1, analytics.EventCounts[models.ActivityCodeExecuted])
	assert.False(t, analytics.TrackingStartedAt.IsZero())
}

func TestManager_OneTrackerPerSession(t *testing.T) {
	manager, err := engagement.NewManager(&engagement.ManagerConfig{
		Threshold: 10,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	first, err := manager.Get("session-1", models.KindLesson)
	require.NoError(t, err)
	second, err := manager.Get("session-1", models.KindLesson)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, ok := manager.Lookup("session-1")
	assert.True(t, ok)
	_, ok = manager.Lookup("session-2")
	assert.False(t, ok)

	manager.Evict("session-1")
	_, ok = manager.Lookup("session-1")
	assert.False(t, ok)
}

func TestManager_RequiresPositiveThreshold(t *testing.T) {
	_, err := engagement.NewManager(&engagement.ManagerConfig{Threshold: 0})
	assert.Error(t, err)
}
