package strutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMask_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "빈 문자열", input: "", expected: ""},
		{name: "3자 이하 전체 마스킹", input: "key", expected: "***"},
		{name: "12자 이하 앞 4자만 표시", input: "secret-key", expected: "secr***"},
		{name: "긴 값은 앞뒤 4자 표시", input: "service-token-abcdef", expected: "serv***cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Mask(tt.input))
		})
	}
}

func TestNormalizeSpaces_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "앞뒤 공백 제거", input: "  hello  ", expected: "hello"},
		{name: "연속 공백 축약", input: "hello   world", expected: "hello world"},
		{name: "탭과 개행 처리", input: "hello\t\nworld", expected: "hello world"},
		{name: "빈 문자열", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSpaces(tt.input))
		})
	}
}

func TestTruncateByBytes_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxBytes int
		expected string
	}{
		{name: "제한보다 짧은 문자열은 그대로", input: "hello", maxBytes: 10, expected: "hello"},
		{name: "제한과 같은 길이는 그대로", input: "hello", maxBytes: 5, expected: "hello"},
		{name: "ASCII 문자열 잘라내기", input: "hello world", maxBytes: 5, expected: "hello"},
		{name: "한글 문자 경계에서 잘라내기", input: "가나다", maxBytes: 7, expected: "가나"},
		{name: "한글 문자 경계 정확히 일치", input: "가나다", maxBytes: 6, expected: "가나"},
		{name: "제한이 0이면 빈 문자열", input: "hello", maxBytes: 0, expected: ""},
		{name: "제한이 음수면 빈 문자열", input: "hello", maxBytes: -1, expected: ""},
		{name: "빈 문자열", input: "", maxBytes: 5, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateByBytes(tt.input, tt.maxBytes))
		})
	}
}

func TestTruncateByBytes_ValidUTF8(t *testing.T) {
	s := strings.Repeat("피드백", 100)

	for maxBytes := range 32 {
		truncated := TruncateByBytes(s, maxBytes)
		assert.LessOrEqual(t, len(truncated), maxBytes)
		assert.True(t, utf8.ValidString(truncated), "maxBytes=%d", maxBytes)
	}
}

func TestSplitAndTrim_Table(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{name: "기본 분리", input: "a, b,c", sep: ",", expected: []string{"a", "b", "c"}},
		{name: "빈 항목 제외", input: "a, , b", sep: ",", expected: []string{"a", "b"}},
		{name: "결과 없음은 nil", input: " , , ", sep: ",", expected: nil},
		{name: "빈 입력은 nil", input: "", sep: ",", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitAndTrim(tt.input, tt.sep))
		})
	}
}
