// Package log 피드백 서버 전역 로깅 시스템을 제공합니다.
//
// logrus를 기반으로 레벨별 파일 분리(Main/Critical/Verbose), lumberjack 로테이션,
// 민감 정보 마스킹, component 필드 헬퍼를 제공합니다. 애플리케이션 코드는
// logrus를 직접 참조하지 않고 이 패키지를 통해서만 로깅합니다.
package log

import (
	"github.com/sirupsen/logrus"
)

// 표준 로거로 위임하는 패키지 레벨 함수들입니다.
// 애플리케이션 전역에서 단일 로거 인스턴스를 공유합니다.
var (
	StandardLogger = logrus.StandardLogger
	SetOutput      = logrus.SetOutput
	SetFormatter   = logrus.SetFormatter
	SetLevel       = logrus.SetLevel
	GetLevel       = logrus.GetLevel
	AddHook        = logrus.AddHook

	WithField = logrus.WithField
	WithError = logrus.WithError

	Trace = logrus.Trace
	Debug = logrus.Debug
	Info  = logrus.Info
	Warn  = logrus.Warn
	Error = logrus.Error
	Fatal = logrus.Fatal
	Panic = logrus.Panic

	Tracef = logrus.Tracef
	Debugf = logrus.Debugf
	Infof  = logrus.Infof
	Warnf  = logrus.Warnf
	Errorf = logrus.Errorf
	Fatalf = logrus.Fatalf
)

// WithFields 필드를 포함한 로그 Entry를 반환합니다.
func WithFields(fields Fields) *Entry {
	return logrus.WithFields(fields)
}

// WithComponent component 필드를 포함한 로그 Entry를 반환합니다.
// 모든 로그에 component 필드를 일관되게 추가하기 위해 사용합니다.
func WithComponent(component string) *Entry {
	return logrus.WithFields(logrus.Fields{
		"component": component,
	})
}

// WithComponentAndFields component 필드와 추가 필드를 포함한 로그 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	newFields := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["component"] = component
	return logrus.WithFields(newFields)
}

// SetDebugMode Debug 모드에 따라 로그 레벨을 설정합니다.
// Debug 모드에서는 Trace 레벨, 운영 모드에서는 Info 레벨로 동작합니다.
func SetDebugMode(debug bool) {
	if debug {
		logrus.SetLevel(logrus.TraceLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// MaskSensitiveData 민감한 정보를 마스킹합니다.
// 토큰, 키 등의 민감 정보를 안전하게 로깅하기 위해 사용합니다.
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}

	// 3자 이하는 전체 마스킹
	if len(data) <= 3 {
		return "***"
	}

	// 앞 4자만 표시하고 나머지는 마스킹
	if len(data) <= 12 {
		return data[:4] + "***"
	}

	// 긴 토큰은 앞 4자 + 마스킹 + 뒤 4자
	return data[:4] + "***" + data[len(data)-4:]
}
