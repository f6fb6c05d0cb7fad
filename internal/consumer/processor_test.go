package consumer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/fitbitsync/internal/domain"
)

// stubReader replays a fixed message sequence, then cancels the run context
// so the loop exits.
type stubReader struct {
	messages  []kafka.Message
	cancel    context.CancelFunc
	committed []kafka.Message
	commitErr error
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubSyncer struct {
	calls []string
	errs  map[string]error
}

func (s *stubSyncer) Synchronize(_ context.Context, userID string) (*domain.SyncSummary, error) {
	s.calls = append(s.calls, userID)
	if err, ok := s.errs[userID]; ok {
		return nil, err
	}
	return &domain.SyncSummary{Activities: 1}, nil
}

func runProcessor(t *testing.T, reader *stubReader, syncer *stubSyncer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader.cancel = cancel

	p := NewProcessor(reader, syncer, WithLogger(log.New(io.Discard, "", 0)))
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func requestMessage(userID string, offset int64) kafka.Message {
	return kafka.Message{
		Topic:  "sync_requests",
		Offset: offset,
		Value:  []byte(`{"user_id":"` + userID + `"}`),
	}
}

func TestRunCommitsSuccessfulRequests(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		requestMessage("user-1", 1),
		requestMessage("user-2", 2),
	}}
	syncer := &stubSyncer{}

	runProcessor(t, reader, syncer)

	require.Equal(t, []string{"user-1", "user-2"}, syncer.calls)
	require.Len(t, reader.committed, 2)
}

func TestRunLeavesTransientFailuresUncommitted(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{requestMessage("user-1", 1)}}
	syncer := &stubSyncer{errs: map[string]error{
		"user-1": &domain.ProviderError{Type: domain.ProviderErrorRateLimited},
	}}

	runProcessor(t, reader, syncer)

	require.Equal(t, []string{"user-1"}, syncer.calls)
	require.Empty(t, reader.committed)
}

func TestRunCommitsPermanentFailures(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		requestMessage("user-1", 1),
		requestMessage("user-2", 2),
	}}
	syncer := &stubSyncer{errs: map[string]error{
		"user-1": domain.ErrNoCredentials,
		"user-2": &domain.ProviderError{Type: domain.ProviderErrorInvalidGrant},
	}}

	runProcessor(t, reader, syncer)

	require.Len(t, reader.committed, 2)
}

func TestRunCommitsMalformedMessages(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "sync_requests", Offset: 1, Value: []byte(`not json`)},
		{Topic: "sync_requests", Offset: 2, Value: []byte(`{"trigger":"manual"}`)},
		requestMessage("user-1", 3),
	}}
	syncer := &stubSyncer{}

	runProcessor(t, reader, syncer)

	// Decode failures never reach the synchronizer but are committed so they
	// are not redelivered forever.
	require.Equal(t, []string{"user-1"}, syncer.calls)
	require.Len(t, reader.committed, 3)
}

func TestRetriableClassification(t *testing.T) {
	require.True(t, retriable(&domain.ProviderError{Type: domain.ProviderErrorRateLimited}))
	require.True(t, retriable(&domain.ProviderError{Type: domain.ProviderErrorUnavailable}))
	require.False(t, retriable(&domain.ProviderError{Type: domain.ProviderErrorInvalidGrant}))
	require.False(t, retriable(domain.ErrNoCredentials))
	require.False(t, retriable(domain.ErrValidation))
	require.True(t, retriable(errors.New("connection reset by peer")))
}
