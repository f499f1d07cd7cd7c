// Package contract 서비스 간의 의존성을 끊기 위한 공유 타입과 인터페이스를 정의합니다.
//
// API 서비스는 이 패키지의 인터페이스를 통해서만 저장소와 전달(Forwarder) 서비스를
// 사용하며, 구현 패키지를 직접 참조하지 않습니다.
package contract

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeedbackID 피드백 문서의 고유 식별자입니다.
type FeedbackID string

// NewFeedbackID 새로운 피드백 문서 식별자를 생성합니다.
func NewFeedbackID() FeedbackID {
	return FeedbackID(uuid.NewString())
}

// Valid 식별자가 유효한 UUID 형식인지 검사합니다.
func (id FeedbackID) Valid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

// FeedbackStatus 피드백 문서의 처리 상태입니다.
type FeedbackStatus string

const (
	// FeedbackStatusPending 수신되어 저장되었으나 아직 전달 채널로 발송되지 않은 상태
	FeedbackStatusPending FeedbackStatus = "pending"

	// FeedbackStatusForwarded 전달 채널로 발송이 완료된 상태
	FeedbackStatusForwarded FeedbackStatus = "forwarded"

	// FeedbackStatusArchived 처리가 완료되어 보관된 상태. 보존 기간이 지나면 삭제됩니다.
	FeedbackStatusArchived FeedbackStatus = "archived"
)

// Feedback 수집된 사용자 피드백 한 건을 나타내는 문서입니다.
//
// 저장소에 JSON으로 직렬화되어 보관되며, 전달 채널(메일, 메신저)로
// 발송될 때 이 문서의 내용이 그대로 사용됩니다.
type Feedback struct {
	ID FeedbackID `json:"id"`

	// RequesterEmail 피드백 작성자의 이메일 주소입니다.
	RequesterEmail string `json:"requester_email"`

	// RequesterName 피드백 작성자의 표시 이름입니다. 비어있을 수 있습니다.
	RequesterName string `json:"requester_name,omitempty"`

	// Subject 피드백 제목입니다. 클라이언트가 제품 이름 접두사를 붙여 전송합니다.
	Subject string `json:"subject"`

	// Message 피드백 본문입니다.
	Message string `json:"message"`

	// ClientIP 피드백을 제출한 클라이언트의 IP 주소입니다.
	ClientIP string `json:"client_ip,omitempty"`

	// Uploads 피드백에 첨부된 업로드 파일 목록입니다.
	Uploads []UploadRef `json:"uploads,omitempty"`

	Status FeedbackStatus `json:"status"`

	// ForwardedMessageID 전달 채널이 발급한 메시지 식별자입니다.
	// 메일 채널의 경우 Message-ID가 저장됩니다.
	ForwardedMessageID string `json:"forwarded_message_id,omitempty"`

	ReceivedAt  time.Time  `json:"received_at"`
	ForwardedAt *time.Time `json:"forwarded_at,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Requester 발신자 표기 문자열을 반환합니다. 예: "홍길동 <hong@example.com>"
func (f *Feedback) Requester() string {
	name := strings.TrimSpace(f.RequesterName)
	if name == "" {
		return f.RequesterEmail
	}
	return name + " <" + f.RequesterEmail + ">"
}

// UploadRef 저장소에 보관된 첨부 파일에 대한 참조입니다.
type UploadRef struct {
	// Token 업로드 시 발급된 참조 토큰입니다. 피드백 본문 제출 시 이 토큰으로 첨부를 연결합니다.
	Token string `json:"token"`

	// Filename 클라이언트가 전송한 원본 파일명입니다.
	Filename string `json:"filename"`

	// Size 파일 크기(바이트)입니다.
	Size int64 `json:"size"`

	UploadedAt time.Time `json:"uploaded_at"`
}
