package sender

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

func validSubmission() Submission {
	return Submission{
		Subject:        "로그인 화면 오류",
		Message:        "로그인 버튼을 누르면 아무 반응이 없습니다.",
		RequesterEmail: "tester@example.com",
		RequesterName:  "홍길동",
	}
}

func TestSubmission_validate_Table(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Submission)
		wantErr bool
	}{
		{
			name:   "정상 제출",
			modify: func(s *Submission) {},
		},
		{
			name:    "제목 누락",
			modify:  func(s *Submission) { s.Subject = "" },
			wantErr: true,
		},
		{
			name:    "제목이 공백뿐",
			modify:  func(s *Submission) { s.Subject = "   " },
			wantErr: true,
		},
		{
			name:    "본문 누락",
			modify:  func(s *Submission) { s.Message = "" },
			wantErr: true,
		},
		{
			name:    "작성자 이메일 누락",
			modify:  func(s *Submission) { s.RequesterEmail = "" },
			wantErr: true,
		},
		{
			name:   "작성자 이름은 선택",
			modify: func(s *Submission) { s.RequesterName = "" },
		},
		{
			name: "첨부 개수 제한 이내",
			modify: func(s *Submission) {
				for range maxAttachments {
					s.Attachments = append(s.Attachments, Attachment{Filename: "a.png", Data: []byte("a")})
				}
			},
		},
		{
			name: "첨부 개수 초과",
			modify: func(s *Submission) {
				for range maxAttachments + 1 {
					s.Attachments = append(s.Attachments, Attachment{Filename: "a.png", Data: []byte("a")})
				}
			},
			wantErr: true,
		},
		{
			name: "첨부 파일명 누락",
			modify: func(s *Submission) {
				s.Attachments = []Attachment{{Data: []byte("a")}}
			},
			wantErr: true,
		},
		{
			name: "첨부 크기 초과",
			modify: func(s *Submission) {
				s.Attachments = []Attachment{{Filename: "big.bin", Data: make([]byte, maxAttachmentSize+1)}}
			},
			wantErr: true,
		},
		{
			name: "첨부 크기 제한 이내",
			modify: func(s *Submission) {
				s.Attachments = []Attachment{{Filename: "ok.bin", Data: make([]byte, maxAttachmentSize)}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.modify(&s)

			err := s.validate()
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "InvalidInput 에러가 아님: %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmission_validate_ErrorIncludesFilename(t *testing.T) {
	s := validSubmission()
	s.Attachments = []Attachment{{Filename: "screenshot.png", Data: make([]byte, maxAttachmentSize+1)}}

	err := s.validate()
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "screenshot.png"))
}
