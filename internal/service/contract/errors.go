package contract

import (
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

var (
	// ErrFeedbackNotFound 저장된 피드백 문서를 찾을 수 없을 때 반환하는 에러입니다.
	ErrFeedbackNotFound = apperrors.New(apperrors.NotFound, "조회 실패: 저장된 피드백 없음")

	// ErrUploadNotFound 참조 토큰에 해당하는 첨부 파일을 찾을 수 없을 때 반환하는 에러입니다.
	ErrUploadNotFound = apperrors.New(apperrors.NotFound, "조회 실패: 저장된 첨부 파일 없음")

	// ErrPendingLimitExceeded 동일한 작성자의 미처리 피드백이 허용치를 초과했을 때 반환하는 에러입니다.
	ErrPendingLimitExceeded = apperrors.New(apperrors.Conflict, "제출 거부: 작성자의 미처리 피드백이 허용치를 초과하였습니다")

	// ErrUploadCountExceeded 하나의 피드백에 연결할 수 있는 첨부 개수를 초과했을 때 반환하는 에러입니다.
	ErrUploadCountExceeded = apperrors.New(apperrors.InvalidInput, "제출 거부: 첨부 파일 개수가 허용치를 초과하였습니다")

	// ErrUploadTooLarge 첨부 파일의 크기가 허용치를 초과했을 때 반환하는 에러입니다.
	ErrUploadTooLarge = apperrors.New(apperrors.InvalidInput, "업로드 거부: 첨부 파일 크기가 허용치를 초과하였습니다")

	// ErrServiceStopped 서비스가 중지된 상태에서 요청이 들어왔을 때 반환하는 에러입니다.
	ErrServiceStopped = apperrors.New(apperrors.Unavailable, "요청 거부: 서비스가 중지되었습니다")

	// ErrForwarderNotFound 지정된 ID의 Forwarder가 존재하지 않을 때 반환하는 에러입니다.
	ErrForwarderNotFound = apperrors.New(apperrors.NotFound, "발송 실패: 지정된 Forwarder를 찾을 수 없습니다")
)
