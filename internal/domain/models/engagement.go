// Package models contains domain models for the Tutor Session Service.
package models

import "time"

// ActivityType classifies a user-activity signal feeding the engagement score.
type ActivityType string

const (
	// ActivityMessageSent is a chat message sent to a tutor.
	ActivityMessageSent ActivityType = "message_sent"
	// ActivityCodeExecuted is a code snippet run in the editor sandbox.
	ActivityCodeExecuted ActivityType = "code_executed"
	// ActivityScroll is a debounced scroll signal.
	ActivityScroll ActivityType = "scroll"
	// ActivityInteraction is a debounced mouse/key/click signal.
	ActivityInteraction ActivityType = "interaction"
	// ActivityTimeBonus is the sustained-activity bonus awarded every five minutes.
	ActivityTimeBonus ActivityType = "time_bonus"
)

// ActivityEvent is one entry in the append-only engagement log. The log is
// used for analytics only; scoring is purely incremental.
type ActivityEvent struct {
	SessionID string       `json:"sessionId" bson:"sessionId"`
	Type      ActivityType `json:"type" bson:"type"`
	Points    float64      `json:"points" bson:"points"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
}

// SessionKind drives which follow-up is unlocked when the engagement
// threshold is reached.
type SessionKind string

const (
	// KindLesson sessions unlock a quiz on threshold.
	KindLesson SessionKind = "lesson"
	// KindPractice sessions unlock a practice prompt on threshold.
	KindPractice SessionKind = "practice"
)

// EngagementAnalytics is a read-only summary derived from tracker state.
type EngagementAnalytics struct {
	Score             float64              `json:"score"`
	Threshold         float64              `json:"threshold"`
	ThresholdReached  bool                 `json:"thresholdReached"`
	TrackingDuration  time.Duration        `json:"trackingDurationNs"`
	EventCounts       map[ActivityType]int `json:"eventCounts"`
	PointsPerMinute   float64              `json:"pointsPerMinute"`
	TotalEvents       int                  `json:"totalEvents"`
	TrackingStartedAt time.Time            `json:"trackingStartedAt"`
}
