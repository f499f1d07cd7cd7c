package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCORSOrigin_Table(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		expectError bool
	}{
		{name: "와일드카드 허용", origin: "*", expectError: false},
		{name: "https 도메인", origin: "https://feedback.example.com", expectError: false},
		{name: "포트 포함", origin: "http://localhost:8080", expectError: false},
		{name: "IPv4 주소", origin: "http://127.0.0.1", expectError: false},
		{name: "빈 문자열 거부", origin: "", expectError: true},
		{name: "후행 슬래시 거부", origin: "https://example.com/", expectError: true},
		{name: "경로 포함 거부", origin: "https://example.com/api", expectError: true},
		{name: "쿼리 포함 거부", origin: "https://example.com?x=1", expectError: true},
		{name: "ftp 스키마 거부", origin: "ftp://example.com", expectError: true},
		{name: "잘못된 포트 거부", origin: "http://example.com:99999", expectError: true},
		{name: "숫자 TLD 거부", origin: "https://example.123", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCORSOrigin(tt.origin)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHostname_Table(t *testing.T) {
	tests := []struct {
		name        string
		host        string
		expectError bool
	}{
		{name: "localhost", host: "localhost", expectError: false},
		{name: "IPv6 주소", host: "::1", expectError: false},
		{name: "일반 도메인", host: "feedback.example.com", expectError: false},
		{name: "하이픈 시작 레이블 거부", host: "-bad.example.com", expectError: true},
		{name: "연속된 점 거부", host: "bad..example.com", expectError: true},
		{name: "특수문자 거부", host: "bad_host.example.com", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostname(tt.host)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCronExpression_Table(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		expectError bool
	}{
		{name: "6필드 형식", spec: "0 0 4 * * *", expectError: false},
		{name: "Descriptor", spec: "@hourly", expectError: false},
		{name: "5필드 거부", spec: "0 4 * * *", expectError: true},
		{name: "빈 문자열 거부", spec: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronExpression(tt.spec)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(existing, []byte("dummy"), 0600))

	assert.NoError(t, ValidateFileExists(""), "빈 경로는 통과")
	assert.NoError(t, ValidateFileExists(existing))
	assert.Error(t, ValidateFileExists(filepath.Join(dir, "missing.pem")))
	assert.Error(t, ValidateFileExists(dir), "디렉토리는 거부")
}
