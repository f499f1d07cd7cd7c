// Package sender 사용자 피드백을 지원 백엔드로 전송하는 클라이언트 라이브러리입니다.
//
// 하나의 전송 기능(Sender)에 대해 복수의 백엔드 구현(GCPService, Zendesk)을
// 제공하며, 호스트 애플리케이션은 설정 시점에 구현을 선택합니다.
package sender

import (
	"context"
	"strings"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

const (
	// maxAttachments 한 건의 피드백에 첨부할 수 있는 최대 파일 수
	maxAttachments = 10

	// maxAttachmentSize 첨부 파일 하나의 최대 크기 (1MiB)
	maxAttachmentSize = 1 << 20
)

// Sender 피드백 전송 기능의 공유 인터페이스입니다.
//
// 모든 백엔드 구현은 이 인터페이스를 따릅니다. Send는 한 번의 호출당
// 한 건의 제출만 전송하며, 내부적으로 큐잉이나 재시도를 수행하지 않습니다.
// 실패는 호출자에게 그대로 반환되며, 재시도 여부는 호출자가 결정합니다.
type Sender interface {
	// Send 피드백 제출 한 건을 백엔드로 전송합니다.
	Send(ctx context.Context, submission Submission) error
}

// Submission 사용자가 작성한 피드백 제출 한 건입니다.
type Submission struct {
	// Subject 피드백 제목 (필수)
	Subject string

	// Message 피드백 본문 (필수)
	Message string

	// RequesterEmail 작성자 이메일 (필수)
	RequesterEmail string

	// RequesterName 작성자 표시 이름 (선택)
	RequesterName string

	// Attachments 첨부 파일 목록 (선택, 최대 10개 / 개당 1MiB)
	Attachments []Attachment
}

// Attachment 피드백에 첨부되는 파일 하나입니다.
type Attachment struct {
	Filename string
	Data     []byte
}

// validate 제출 내용의 필수 필드와 첨부 제한을 검사합니다.
func (s Submission) validate() error {
	if strings.TrimSpace(s.Subject) == "" {
		return apperrors.New(apperrors.InvalidInput, "제목은 필수입니다")
	}
	if strings.TrimSpace(s.Message) == "" {
		return apperrors.New(apperrors.InvalidInput, "본문은 필수입니다")
	}
	if strings.TrimSpace(s.RequesterEmail) == "" {
		return apperrors.New(apperrors.InvalidInput, "작성자 이메일은 필수입니다")
	}

	if len(s.Attachments) > maxAttachments {
		return apperrors.Newf(apperrors.InvalidInput, "첨부 파일은 최대 %d개까지 허용됩니다 (%d개)", maxAttachments, len(s.Attachments))
	}
	for _, attachment := range s.Attachments {
		if strings.TrimSpace(attachment.Filename) == "" {
			return apperrors.New(apperrors.InvalidInput, "첨부 파일명은 필수입니다")
		}
		if len(attachment.Data) > maxAttachmentSize {
			return apperrors.Newf(apperrors.InvalidInput, "첨부 파일 '%s'의 크기가 최대 허용치(%d바이트)를 초과하였습니다", attachment.Filename, maxAttachmentSize)
		}
	}

	return nil
}
