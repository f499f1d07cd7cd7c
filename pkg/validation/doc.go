// Package validation 설정값 검증을 위한 공용 검증 함수들을 제공합니다.
//
// go-playground/validator의 커스텀 검증 함수 등록과 설정 로드 시의
// 수동 검증 양쪽에서 재사용됩니다.
package validation
