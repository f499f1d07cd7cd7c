// Package config 애플리케이션 설정의 로드와 검증을 담당합니다.
//
// 설정은 기본값, JSON 설정 파일, 환경 변수의 3단계 레이어로 로드되며
// 뒤쪽 레이어가 앞쪽 레이어를 덮어씁니다. 로드가 완료되면 전체 설정의
// 정합성 검증이 수행되고, 검증에 실패하면 애플리케이션은 기동하지 않습니다.
package config

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "feedback-server"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// envPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	envPrefix = "FEEDBACK_"
)

// 설정 파일에 명시되지 않은 항목에 적용되는 기본값입니다.
var defaultValues = map[string]interface{}{
	"http_retry.max_retries":             3,
	"http_retry.min_retry_delay":         "2s",
	"http_retry.max_retry_delay":         "30s",
	"storage.data_dir":                   "./data",
	"storage.max_pending_per_email":      5,
	"storage.max_upload_count":           10,
	"storage.max_upload_size":            1 << 20,
	"feedback_api.listen_port":           8080,
	"feedback_api.rate_limit.rate":       10.0,
	"feedback_api.rate_limit.burst":      20,
	"caretaker.time_spec":                "0 0 4 * * *",
	"caretaker.archived_retention":       "720h",
	"caretaker.stub_scrub_age":           "5m",
	"caretaker.republish_age":            "24h",
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 로드 우선순위(낮음 -> 높음):
//  1. 기본값
//  2. JSON 설정 파일
//  3. 환경 변수 (접두사: FEEDBACK_, 이중 언더스코어(__)는 계층 구분자(.)로 변환)
//     예: FEEDBACK_FEEDBACK_API__LISTEN_PORT -> feedback_api.listen_port
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues, "."), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// Strict Unmarshal: 구조체에 정의되지 않은 설정 키는 오타로 간주하여 에러 처리합니다.
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	var appConfig AppConfig
	unmarshalConf.DecoderConfig.Result = &appConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
