package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Table(t *testing.T) {
	tests := []struct {
		name        string
		errType     ErrorType
		message     string
		expectedMsg string
	}{
		{
			name:        "InvalidInput 에러 생성",
			errType:     InvalidInput,
			message:     "필수 항목이 누락되었습니다",
			expectedMsg: "[InvalidInput] 필수 항목이 누락되었습니다",
		},
		{
			name:        "NotFound 에러 생성",
			errType:     NotFound,
			message:     "피드백 문서를 찾을 수 없습니다",
			expectedMsg: "[NotFound] 피드백 문서를 찾을 수 없습니다",
		},
		{
			name:        "Unavailable 에러 생성",
			errType:     Unavailable,
			message:     "서비스가 일시적으로 사용 불가능합니다",
			expectedMsg: "[Unavailable] 서비스가 일시적으로 사용 불가능합니다",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.errType, tt.message)

			require.Error(t, err)
			assert.Equal(t, tt.expectedMsg, err.Error())

			var appErr *AppError
			require.True(t, As(err, &appErr))
			assert.Equal(t, tt.errType, appErr.Type())
			assert.Equal(t, tt.message, appErr.Message())
			assert.NotEmpty(t, appErr.Stack(), "생성 시점의 스택 정보가 수집되어야 함")
		})
	}
}

func TestWrap_Table(t *testing.T) {
	tests := []struct {
		name     string
		cause    error
		errType  ErrorType
		message  string
		checkNil bool
	}{
		{
			name:    "외부 에러 래핑",
			cause:   os.ErrNotExist,
			errType: NotFound,
			message: "피드백 문서 조회 실패",
		},
		{
			name:    "AppError 체이닝",
			cause:   New(InvalidInput, "업로드 토큰이 유효하지 않습니다"),
			errType: ExecutionFailed,
			message: "피드백 접수 실패",
		},
		{
			name:     "nil 에러는 nil 반환",
			cause:    nil,
			errType:  Internal,
			message:  "무시됨",
			checkNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.cause, tt.errType, tt.message)

			if tt.checkNil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.ErrorIs(t, err, tt.cause)
			assert.True(t, Is(err, tt.errType))
		})
	}
}

func TestIs_WrappedChain(t *testing.T) {
	inner := New(NotFound, "문서 없음")
	outer := Wrap(inner, Internal, "조회 실패")

	assert.True(t, Is(outer, Internal))
	assert.True(t, Is(outer, NotFound), "체인 안쪽의 타입도 검출되어야 함")
	assert.False(t, Is(outer, Unauthorized))
	assert.False(t, Is(nil, Internal))
}

func TestRootCause(t *testing.T) {
	root := os.ErrPermission
	wrapped := Wrap(Wrap(root, System, "파일 쓰기 실패"), ExecutionFailed, "피드백 저장 실패")

	assert.Equal(t, root, RootCause(wrapped))
	assert.Nil(t, RootCause(nil))
}

func TestUnderlyingType_Table(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{
			name:     "단일 AppError",
			err:      New(Unauthorized, "인증 실패"),
			expected: Unauthorized,
		},
		{
			name:     "래핑된 체인은 가장 안쪽 타입 반환",
			err:      Wrap(New(InvalidInput, "잘못된 요청"), Internal, "처리 실패"),
			expected: InvalidInput,
		},
		{
			name:     "외부 에러 래핑은 래핑 시점의 타입 반환",
			err:      Wrap(os.ErrNotExist, NotFound, "문서 없음"),
			expected: NotFound,
		},
		{
			name:     "순수 외부 에러는 Unknown",
			err:      os.ErrClosed,
			expected: Unknown,
		},
		{
			name:     "nil 에러는 Unknown",
			err:      nil,
			expected: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UnderlyingType(tt.err))
		})
	}
}

func TestFormat_Detailed(t *testing.T) {
	inner := New(NotFound, "문서 없음")
	outer := Wrap(inner, Internal, "조회 실패")

	detailed := fmt.Sprintf("%+v", outer)

	assert.Contains(t, detailed, "[Internal] 조회 실패")
	assert.Contains(t, detailed, "Caused by:")
	assert.Contains(t, detailed, "[NotFound] 문서 없음")
	assert.Contains(t, detailed, "Stack trace:", "체인의 가장 안쪽에서 스택이 출력되어야 함")

	quoted := fmt.Sprintf("%q", inner)
	assert.Contains(t, quoted, "[NotFound] 문서 없음")
}
