package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFeedbackID_Uniqueness(t *testing.T) {
	id1 := NewFeedbackID()
	id2 := NewFeedbackID()

	assert.NotEqual(t, id1, id2)
	assert.True(t, id1.Valid())
	assert.True(t, id2.Valid())
}

func TestFeedbackID_Valid(t *testing.T) {
	assert.True(t, FeedbackID("6ba7b810-9dad-11d1-80b4-00c04fd430c8").Valid())
	assert.False(t, FeedbackID("not-a-uuid").Valid())
	assert.False(t, FeedbackID("").Valid())
}

func TestFeedback_Requester(t *testing.T) {
	tests := []struct {
		name     string
		feedback Feedback
		want     string
	}{
		{
			name:     "이름과 이메일",
			feedback: Feedback{RequesterName: "홍길동", RequesterEmail: "hong@example.com"},
			want:     "홍길동 <hong@example.com>",
		},
		{
			name:     "이름 없음",
			feedback: Feedback{RequesterEmail: "hong@example.com"},
			want:     "hong@example.com",
		},
		{
			name:     "공백 이름은 무시",
			feedback: Feedback{RequesterName: "   ", RequesterEmail: "hong@example.com"},
			want:     "hong@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.feedback.Requester())
		})
	}
}
