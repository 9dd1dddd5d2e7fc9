package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"
	"github.com/slotwise/scheduler/libs/kafkax"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

var outboxColumns = []string{"id", "event_id", "aggregate_type", "aggregate_id", "event_type", "payload", "traceparent", "tracestate", "created_at"}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublishBatchSendsAndMarks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(1), "evt-1", "meeting", "m-1", MeetingScheduled, []byte(`{"a":1}`), "", "", now).
			AddRow(int64(2), "evt-2", "meeting", "m-2", MeetingCancelled, []byte(`{"a":2}`), "", "", now))
	mock.ExpectExec("UPDATE outbox_events").
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	p := NewPublisher(mock, NewRepository(), testLogger(), PublisherConfig{Brokers: "kafka:9092", BatchSize: 10})
	w := &fakeWriter{}
	n, err := p.PublishBatch(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, w.msgs, 2)
	assert.Equal(t, MeetingScheduled, w.msgs[0].Topic)
	assert.Equal(t, "m-1", string(w.msgs[0].Key))
	assert.Equal(t, "evt-2", kafkax.HeaderValue(w.msgs[1].Headers, "event_id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatchWriteFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(7), "evt-7", "meeting", "m-7", MeetingCompleted, []byte(`{}`), "", "", time.Now()))
	mock.ExpectRollback()

	p := NewPublisher(mock, NewRepository(), testLogger(), PublisherConfig{Brokers: "kafka:9092"})
	_, err = p.PublishBatch(context.Background(), &fakeWriter{err: errors.New("broker down")})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatchEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").WithArgs(50).WillReturnRows(pgxmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	p := NewPublisher(mock, NewRepository(), testLogger(), PublisherConfig{Brokers: "kafka:9092"})
	w := &fakeWriter{}
	n, err := p.PublishBatch(context.Background(), w)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWithoutBrokersReturns(t *testing.T) {
	p := NewPublisher(nil, NewRepository(), testLogger(), PublisherConfig{})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher without brokers should return immediately")
	}
}

func TestMeetingEventPayload(t *testing.T) {
	start := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	evt, err := MeetingEvent(MeetingScheduled, model.Meeting{
		ID: "m-1", EventTypeID: "et-1", InviteeName: "Ada", InviteeEmail: "ada@example.com",
		StartTime: start, EndTime: start.Add(30 * time.Minute), Timezone: "America/New_York", Status: model.MeetingScheduled,
	}, start)
	require.NoError(t, err)
	assert.Equal(t, "meeting", evt.AggregateType)
	assert.Equal(t, "m-1", evt.AggregateID)

	var body map[string]string
	require.NoError(t, json.Unmarshal(evt.Payload, &body))
	assert.Equal(t, "2024-06-10T13:00:00Z", body["start_time"])
	assert.Equal(t, "2024-06-10T13:30:00Z", body["end_time"])
	assert.Equal(t, "America/New_York", body["timezone"])
}
