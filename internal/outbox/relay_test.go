package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/mailer"
	"github.com/karrelday/TaraLaba/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockSender) Send(ctx context.Context, email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, email)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func newRelay(t *testing.T) (*Relay, *storage.MockStorage) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := storage.NewMockStorage(ctrl)

	return NewRelay(mockStorage, Options{Schedule: "@every 1s", BatchSize: 10, MaxAttempts: 3, Workers: 2}), mockStorage
}

func TestDispatchDeliversBySink(t *testing.T) {
	relay, mockStorage := newRelay(t)

	sender := &mockSender{}
	publisher := &mockPublisher{}

	relay.Register(entities.TopicEmail, EmailSink(sender))
	relay.Register(entities.TopicOrderStatusChanged, EventSink(publisher))

	email := entities.OutboxMessage{ID: "m-1", Topic: entities.TopicEmail, Payload: []byte(`{"to":"juan@example.com","subject":"Order","text":"hi"}`)}
	event := entities.OutboxMessage{ID: "m-2", Topic: entities.TopicOrderStatusChanged, Payload: []byte(`{"orderId":"o-1"}`)}

	sender.On("Send", mock.Anything, mailer.Email{To: "juan@example.com", Subject: "Order", Text: "hi"}).Return(nil)
	publisher.On("Publish", mock.Anything, entities.TopicOrderStatusChanged, []byte(`{"orderId":"o-1"}`)).Return(nil)

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return([]entities.OutboxMessage{email, event}, nil)
	mockStorage.EXPECT().MarkOutboxDispatched(gomock.Any(), "m-1").Return(nil)
	mockStorage.EXPECT().MarkOutboxDispatched(gomock.Any(), "m-2").Return(nil)

	dispatched, err := relay.Dispatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), dispatched)
	sender.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDispatchRecordsFailures(t *testing.T) {
	relay, mockStorage := newRelay(t)

	sender := &mockSender{}
	relay.Register(entities.TopicEmail, EmailSink(sender))

	message := entities.OutboxMessage{ID: "m-1", Topic: entities.TopicEmail, Payload: []byte(`{"to":"juan@example.com"}`), Attempts: 1}

	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return([]entities.OutboxMessage{message}, nil)
	mockStorage.EXPECT().MarkOutboxFailed(gomock.Any(), "m-1", "relay down").Return(nil)

	dispatched, err := relay.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dispatched)
}

func TestDispatchBadPayloadFails(t *testing.T) {
	relay, mockStorage := newRelay(t)
	relay.Register(entities.TopicEmail, EmailSink(&mockSender{}))

	message := entities.OutboxMessage{ID: "m-1", Topic: entities.TopicEmail, Payload: []byte(`not json`)}

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return([]entities.OutboxMessage{message}, nil)
	mockStorage.EXPECT().MarkOutboxFailed(gomock.Any(), "m-1", gomock.Any()).Return(nil)

	_, err := relay.Dispatch(context.Background())
	assert.NoError(t, err)
}

func TestDispatchWithoutSinkDropsMessage(t *testing.T) {
	relay, mockStorage := newRelay(t)

	message := entities.OutboxMessage{ID: "m-1", Topic: entities.TopicOrderPlaced, Payload: []byte(`{}`)}

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return([]entities.OutboxMessage{message}, nil)
	mockStorage.EXPECT().MarkOutboxDispatched(gomock.Any(), "m-1").Return(nil)

	dispatched, err := relay.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dispatched)
}

func TestDispatchStorageError(t *testing.T) {
	relay, mockStorage := newRelay(t)

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return(nil, errors.New("db down"))

	_, err := relay.Dispatch(context.Background())
	assert.Error(t, err)
}

func TestStartStopsWithContext(t *testing.T) {
	relay, mockStorage := newRelay(t)

	mockStorage.EXPECT().GetPendingOutbox(gomock.Any(), 10, 3).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, relay.Start(ctx))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	relay, _ := newRelay(t)
	relay.options.Schedule = "every tuesday"

	assert.Error(t, relay.Start(context.Background()))
}
