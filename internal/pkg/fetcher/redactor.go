package fetcher

import (
	"net/http"
	"net/url"
	"strings"
)

// 로그나 에러 메시지에 URL, 헤더를 남길 때 자격 증명이 노출되지 않도록
// 민감한 키의 값을 마스킹합니다.

const redactedPlaceholder = "xxxxx"

// sensitiveExactKeys 정확히 일치하면 마스킹되는 키 목록입니다.(소문자 비교)
var sensitiveExactKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"api_key":             {},
	"apikey":              {},
	"access_token":        {},
	"auth":                {},
}

// sensitiveSuffixes 키가 이 접미사로 끝나면 마스킹됩니다.(소문자 비교)
var sensitiveSuffixes = []string{
	"token",
	"secret",
	"password",
	"passwd",
	"credential",
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	if _, ok := sensitiveExactKeys[lowerKey]; ok {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lowerKey, suffix) {
			return true
		}
	}
	return false
}

// redactURL URL의 UserInfo와 민감한 쿼리 파라미터 값을 마스킹한 문자열을 반환합니다.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u
	if clone.User != nil {
		clone.User = url.User(redactedPlaceholder)
	}

	query := clone.Query()
	changed := false
	for key := range query {
		if isSensitiveKey(key) {
			query.Set(key, redactedPlaceholder)
			changed = true
		}
	}
	if changed {
		clone.RawQuery = query.Encode()
	}

	return clone.String()
}

// redactRawURL 문자열 URL을 파싱하여 마스킹합니다. 파싱에 실패하면 원본을 그대로 반환합니다.
func redactRawURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return redactURL(u)
}

// redactHeaders 민감한 헤더 값을 마스킹한 복사본을 반환합니다.
func redactHeaders(header http.Header) http.Header {
	if header == nil {
		return nil
	}

	redacted := make(http.Header, len(header))
	for key, values := range header {
		if isSensitiveKey(key) {
			redacted[key] = []string{redactedPlaceholder}
			continue
		}
		redacted[key] = append([]string(nil), values...)
	}
	return redacted
}
