package forwarder

import (
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

var (
	// ErrQueueFull 발송 대기열이 가득 차서 요청이 거부되었을 때 반환하는 에러입니다.
	ErrQueueFull = apperrors.New(apperrors.Unavailable, "발송 요청 거부: 발송 대기열 용량 초과")

	// ErrClosed 종료된 Forwarder에 발송 요청이 들어왔을 때 반환하는 에러입니다.
	ErrClosed = apperrors.New(apperrors.Unavailable, "발송 요청 거부: Forwarder가 종료되었습니다")
)
