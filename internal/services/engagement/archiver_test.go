package engagement_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/tests/mocks"
	"github.com/javatutor/session-service/tests/testutils"
)

func testBatch(n int) []models.ActivityEvent {
	batch := make([]models.ActivityEvent, n)
	for i := range batch {
		batch[i] = testutils.NewTestActivityEvent(models.ActivityMessageSent, engagement.PointsMessageSent)
	}
	return batch
}

func TestArchiver_DrainsBatches(t *testing.T) {
	var batches int64
	collection := &mocks.MockEngagementCollection{}
	collection.On("AddBatch", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		atomic.AddInt64(&batches, 1)
	}).Return(nil)

	archiver := engagement.NewArchiver(10, collection, zerolog.Nop())
	archiver.Start(2)
	t.Cleanup(archiver.Stop)

	archiver.Enqueue(testBatch(3))
	archiver.Enqueue(testBatch(1))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&batches) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestArchiver_EmptyBatchIgnored(t *testing.T) {
	collection := &mocks.MockEngagementCollection{}

	archiver := engagement.NewArchiver(10, collection, zerolog.Nop())

	archiver.Enqueue(nil)
	archiver.Enqueue([]models.ActivityEvent{})

	assert.Equal(t, 0, archiver.QueueSize())
}

func TestArchiver_FullQueueDropsBatch(t *testing.T) {
	collection := &mocks.MockEngagementCollection{}

	// No workers running, so the queue only drains on Stop.
	archiver := engagement.NewArchiver(2, collection, zerolog.Nop())

	archiver.Enqueue(testBatch(1))
	archiver.Enqueue(testBatch(1))
	archiver.Enqueue(testBatch(1)) // dropped

	assert.Equal(t, 2, archiver.QueueSize())
}

func TestArchiver_ErrorsAreAdvisory(t *testing.T) {
	var calls int64
	collection := &mocks.MockEngagementCollection{}
	collection.On("AddBatch", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		atomic.AddInt64(&calls, 1)
	}).Return(assert.AnError)

	archiver := engagement.NewArchiver(10, collection, zerolog.Nop())
	archiver.Start(1)
	t.Cleanup(archiver.Stop)

	archiver.Enqueue(testBatch(1))
	archiver.Enqueue(testBatch(1))

	// Both batches are attempted despite the first failing.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) == 2
	}, time.Second, 10*time.Millisecond)
}
