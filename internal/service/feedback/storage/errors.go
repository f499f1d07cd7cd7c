package storage

import (
	"fmt"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

var (
	// ErrPathTraversalDetected 파일 경로 생성 시 Path Traversal(경로 이탈) 시도가 감지되었을 때 반환하는 에러입니다.
	ErrPathTraversalDetected = apperrors.New(apperrors.Internal, "보안 정책 위반: 허용되지 않은 경로 접근 시도로 인해 요청이 차단되었습니다")

	// ErrInvalidFeedbackID 유효하지 않은 형식의 피드백 ID가 전달되었을 때 반환하는 에러입니다.
	ErrInvalidFeedbackID = apperrors.New(apperrors.InvalidInput, "저장소 요청 거부: 피드백 ID 형식이 올바르지 않습니다")

	// ErrInvalidUploadToken 유효하지 않은 형식의 업로드 토큰이 전달되었을 때 반환하는 에러입니다.
	ErrInvalidUploadToken = apperrors.New(apperrors.InvalidInput, "저장소 요청 거부: 업로드 토큰 형식이 올바르지 않습니다")
)

// NewErrAbsPathConversionFailed 저장소 초기화 시 디렉토리 경로를 절대 경로로 변환하는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrAbsPathConversionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "저장소 초기화 실패: 절대 경로 변환 불가")
}

// NewErrDirectoryAccessFailed 저장소 초기화 시 디렉토리 생성 또는 접근 권한 확인에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrDirectoryAccessFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("저장소 초기화 실패: 디렉토리 접근 불가 (%s)", dir))
}

// NewErrJSONMarshalFailed 피드백 문서를 JSON으로 직렬화하는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrJSONMarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "데이터 처리 실패: 피드백 문서 직렬화(JSON Marshal) 중 오류가 발생했습니다")
}

// NewErrJSONUnmarshalFailed 피드백 문서를 JSON에서 역직렬화하는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrJSONUnmarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "데이터 처리 실패: 피드백 문서 역직렬화(JSON Unmarshal) 중 오류가 발생했습니다")
}

// NewErrFeedbackReadFailed 피드백 문서 파일을 읽는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFeedbackReadFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "피드백 조회 실패: 저장된 피드백 문서 파일 읽기 처리 중 오류가 발생했습니다")
}

// NewErrFileWriteFailed 파일 쓰기 단계에서 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFileWriteFailed(err error, stage string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("피드백 저장 실패: %s 중 오류가 발생했습니다", stage))
}

// NewErrUploadWriteFailed 첨부 파일 저장에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrUploadWriteFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "첨부 저장 실패: 첨부 파일 쓰기 중 오류가 발생했습니다")
}
