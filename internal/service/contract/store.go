package contract

import (
	"io"
	"time"
)

// FeedbackStore 피드백 문서와 첨부 파일을 저장하고 관리하는 저장소 인터페이스입니다.
//
// 모든 구현체는 여러 고루틴에서의 동시 호출에 안전해야 합니다.
type FeedbackStore interface {
	// SaveUpload 첨부 파일 데이터를 저장하고 참조 토큰이 포함된 UploadRef를 반환합니다.
	//
	// 저장된 첨부는 아직 어떤 피드백 문서에도 연결되지 않은 상태(스텁)이며,
	// 이후 Save 호출 시 피드백 문서의 Uploads 필드를 통해 연결됩니다.
	// 일정 시간 내에 연결되지 않은 스텁은 정리 작업에 의해 삭제됩니다.
	SaveUpload(filename string, data []byte) (UploadRef, error)

	// OpenUpload 참조 토큰에 해당하는 첨부 파일의 내용을 읽기 위한 리더를 반환합니다.
	//
	// 반환된 리더는 호출자가 반드시 Close해야 합니다.
	// 토큰에 해당하는 첨부가 없으면 ErrUploadNotFound를 반환합니다.
	OpenUpload(token string) (io.ReadCloser, error)

	// StatUpload 참조 토큰에 해당하는 첨부 파일의 메타데이터를 반환합니다.
	//
	// 토큰에 해당하는 첨부가 없으면 ErrUploadNotFound를 반환합니다.
	StatUpload(token string) (UploadRef, error)

	// Save 피드백 문서를 저장합니다. 동일한 ID로 다시 호출하면 기존 문서를 덮어씁니다.
	//
	// 문서가 참조하는 업로드 토큰이 저장소에 존재하지 않으면 ErrUploadNotFound를 반환합니다.
	Save(feedback *Feedback) error

	// Get 저장된 피드백 문서를 조회합니다.
	//
	// 문서가 없으면 ErrFeedbackNotFound를 반환합니다.
	Get(id FeedbackID) (*Feedback, error)

	// Delete 피드백 문서와 연결된 모든 첨부 파일을 삭제합니다.
	//
	// 문서가 없으면 ErrFeedbackNotFound를 반환합니다.
	Delete(id FeedbackID) error

	// List 저장된 모든 피드백 문서를 수신 시각 오름차순으로 반환합니다.
	List() ([]*Feedback, error)

	// CountPendingByEmail 지정된 이메일로 제출되어 아직 전달되지 않은 미처리 문서 수를 반환합니다.
	//
	// 작성자별 제출 제한을 적용할 때 사용됩니다.
	CountPendingByEmail(email string) (int, error)

	// MarkForwarded 문서를 전달 완료 상태로 변경하고 전달 채널의 메시지 ID를 기록합니다.
	MarkForwarded(id FeedbackID, messageID string) error

	// MarkArchived 문서를 보관 상태로 변경합니다.
	MarkArchived(id FeedbackID) error

	// ScrubOrphanUploads 어떤 문서에도 연결되지 않은 채 cutoff 이전에 업로드된
	// 스텁 첨부들을 삭제하고, 삭제된 개수를 반환합니다.
	ScrubOrphanUploads(cutoff time.Time) (int, error)
}
