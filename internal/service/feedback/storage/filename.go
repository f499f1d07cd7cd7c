package storage

import (
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/darkkaiser/feedback-server/pkg/strutil"
)

// filenameReplacer 파일명 생성 시 파일 시스템에서 문제를 일으킬 수 있는 특수문자를 안전한 문자로 치환합니다.
//
// 치환 규칙:
//   - 경로 이탈 방지: ".." (상위 디렉토리), "/" 및 "\" (경로 구분자)를 하이픈으로 치환
//   - Windows 예약 문자: < > : " | ? * 등 Windows에서 금지된 문자를 하이픈으로 치환
var filenameReplacer = strings.NewReplacer(
	"..", "--",
	"/", "-",
	"\\", "-",
	"|", "-",
	"<", "-",
	">", "-",
	":", "-",
	"\"", "-",
	"?", "-",
	"*", "-",
)

// sanitizeUploadFilename 클라이언트가 전송한 첨부 파일명을 저장소에서 안전하게
// 사용할 수 있는 형태로 정제합니다.
//
// 본문 부분은 Kebab-Case로 변환되고 확장자는 소문자 영숫자만 남깁니다.
// 정제 결과가 비어있으면 "upload"를 사용합니다.
// 예: "스크린샷 (1).PNG" → "스크린샷-1.png", "../../etc/passwd" → "etc-passwd"
func sanitizeUploadFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = sanitizeName(base)
	base = strutil.TruncateByBytes(base, 50)
	if base == "" || strings.Trim(base, "-") == "" {
		base = "upload"
	}

	ext = sanitizeExtension(ext)

	return base + ext
}

// sanitizeName 파일명으로 안전하게 사용할 수 있도록 문자열을 정제합니다.
func sanitizeName(s string) string {
	// 1단계: Kebab-Case 변환으로 기본 정제
	kebab := strcase.ToKebab(s)

	// 2단계: 제어 문자(0x00-0x1F) 및 DEL(0x7F) 제거/치환
	// Windows 등 일부 파일 시스템은 제어 문자를 파일명에 허용하지 않습니다.
	kebab = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '-'
		}
		return r
	}, kebab)

	// 3단계: 파일 시스템 위험 문자 명시적 치환
	return filenameReplacer.Replace(kebab)
}

// sanitizeExtension 확장자를 소문자 영숫자로 제한하여 정제합니다.
// 유효한 문자가 없으면 빈 문자열을 반환합니다.
func sanitizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	cleaned := strutil.TruncateByBytes(b.String(), 10)
	if cleaned == "" {
		return ""
	}
	return "." + cleaned
}
