package forwarder

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/feedback-server/internal/service/contract"
)

// fakeFeedbackStore 테스트용 인메모리 FeedbackStore 구현체입니다.
type fakeFeedbackStore struct {
	mu sync.Mutex

	feedbacks map[contract.FeedbackID]*contract.Feedback
	uploads   map[string][]byte

	// forwardedMessageIDs MarkForwarded 호출 내역 (피드백 ID별 메시지 ID)
	forwardedMessageIDs map[contract.FeedbackID]string

	// archivedIDs MarkArchived 호출 내역
	archivedIDs map[contract.FeedbackID]bool

	markForwardedErr error
	openUploadErr    error
}

var _ contract.FeedbackStore = (*fakeFeedbackStore)(nil)

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{
		feedbacks:           map[contract.FeedbackID]*contract.Feedback{},
		uploads:             map[string][]byte{},
		forwardedMessageIDs: map[contract.FeedbackID]string{},
		archivedIDs:         map[contract.FeedbackID]bool{},
	}
}

func (s *fakeFeedbackStore) SaveUpload(filename string, data []byte) (contract.UploadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := contract.UploadRef{
		Token:      uuid.NewString(),
		Filename:   filename,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}
	s.uploads[ref.Token] = data

	return ref, nil
}

func (s *fakeFeedbackStore) OpenUpload(token string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openUploadErr != nil {
		return nil, s.openUploadErr
	}

	data, exists := s.uploads[token]
	if !exists {
		return nil, contract.ErrUploadNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeFeedbackStore) StatUpload(token string) (contract.UploadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.uploads[token]
	if !exists {
		return contract.UploadRef{}, contract.ErrUploadNotFound
	}

	return contract.UploadRef{Token: token, Size: int64(len(data))}, nil
}

func (s *fakeFeedbackStore) Save(feedback *contract.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedbacks[feedback.ID] = feedback

	return nil
}

func (s *fakeFeedbackStore) Get(id contract.FeedbackID) (*contract.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feedback, exists := s.feedbacks[id]
	if !exists {
		return nil, contract.ErrFeedbackNotFound
	}

	return feedback, nil
}

func (s *fakeFeedbackStore) Delete(id contract.FeedbackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.feedbacks[id]; !exists {
		return contract.ErrFeedbackNotFound
	}
	delete(s.feedbacks, id)

	return nil
}

func (s *fakeFeedbackStore) List() ([]*contract.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feedbacks := make([]*contract.Feedback, 0, len(s.feedbacks))
	for _, feedback := range s.feedbacks {
		feedbacks = append(feedbacks, feedback)
	}

	return feedbacks, nil
}

func (s *fakeFeedbackStore) CountPendingByEmail(email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, feedback := range s.feedbacks {
		if feedback.RequesterEmail == email && feedback.Status == contract.FeedbackStatusPending {
			count++
		}
	}

	return count, nil
}

func (s *fakeFeedbackStore) MarkForwarded(id contract.FeedbackID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markForwardedErr != nil {
		return s.markForwardedErr
	}

	s.forwardedMessageIDs[id] = messageID

	return nil
}

func (s *fakeFeedbackStore) MarkArchived(id contract.FeedbackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archivedIDs[id] = true

	if feedback, exists := s.feedbacks[id]; exists {
		feedback.Status = contract.FeedbackStatusArchived
	}

	return nil
}

func (s *fakeFeedbackStore) ScrubOrphanUploads(cutoff time.Time) (int, error) {
	return 0, nil
}

// forwardedMessageID MarkForwarded로 기록된 메시지 ID를 조회합니다.
func (s *fakeFeedbackStore) forwardedMessageID(id contract.FeedbackID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messageID, exists := s.forwardedMessageIDs[id]
	return messageID, exists
}

// archived MarkArchived 호출 여부를 조회합니다.
func (s *fakeFeedbackStore) archived(id contract.FeedbackID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.archivedIDs[id]
}

// newTestFeedback 테스트용 피드백 문서를 생성합니다.
func newTestFeedback() *contract.Feedback {
	return &contract.Feedback{
		ID:             contract.NewFeedbackID(),
		RequesterEmail: "tester@example.com",
		RequesterName:  "홍길동",
		Subject:        "[TestApp] 로그인 화면 오류",
		Message:        "로그인 버튼을 누르면 아무 반응이 없습니다.",
		Status:         contract.FeedbackStatusPending,
		ReceivedAt:     time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC),
	}
}

func TestBase_Forward_Enqueue(t *testing.T) {
	b := NewBase("test", 1, 100*time.Millisecond)

	feedback := newTestFeedback()
	require.NoError(t, b.Forward(context.Background(), feedback))

	select {
	case req := <-b.RequestC():
		assert.Equal(t, feedback.ID, req.Feedback.ID)
	default:
		t.Fatal("큐에 요청이 등록되지 않음")
	}
}

func TestBase_Forward_ClosedRejected(t *testing.T) {
	b := NewBase("test", 1, 100*time.Millisecond)
	b.Close()

	err := b.Forward(context.Background(), newTestFeedback())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBase_Forward_QueueFullTimeout(t *testing.T) {
	b := NewBase("test", 1, 50*time.Millisecond)

	require.NoError(t, b.Forward(context.Background(), newTestFeedback()))

	// 버퍼가 가득 찬 상태에서 소비자가 없으므로 타임아웃으로 드롭되어야 합니다.
	err := b.Forward(context.Background(), newTestFeedback())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestBase_Forward_CanceledContext(t *testing.T) {
	b := NewBase("test", 1, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Forward(ctx, newTestFeedback())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBase_Close_Idempotent(t *testing.T) {
	b := NewBase("test", 1, 100*time.Millisecond)

	b.Close()
	assert.NotPanics(t, func() { b.Close() })

	select {
	case <-b.Done():
	default:
		t.Fatal("Close 이후 done 채널이 닫혀있어야 함")
	}
}

func TestBase_WaitForPendingSends_BlocksUntilSendCompletes(t *testing.T) {
	b := NewBase("test", 1, time.Second)

	require.NoError(t, b.Forward(context.Background(), newTestFeedback()))

	// 버퍼가 가득 찬 상태에서 Forward가 대기 중일 때
	// WaitForPendingSends는 해당 전송이 끝날 때까지 블로킹되어야 합니다.
	forwardDone := make(chan error, 1)
	go func() {
		forwardDone <- b.Forward(context.Background(), newTestFeedback())
	}()

	time.Sleep(20 * time.Millisecond)

	waitDone := make(chan struct{})
	go func() {
		b.WaitForPendingSends()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("전송이 진행 중인데 WaitForPendingSends가 반환됨")
	case <-time.After(20 * time.Millisecond):
	}

	// 소비자가 요청을 꺼내면 대기 중이던 전송이 완료됩니다.
	<-b.RequestC()

	require.NoError(t, <-forwardDone)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("전송 완료 후에도 WaitForPendingSends가 반환되지 않음")
	}
}
