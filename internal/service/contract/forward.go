package contract

// ForwarderID 전달 채널(Forwarder)의 식별자입니다.
type ForwarderID string

// ForwardDispatcher 수집된 피드백을 전달 채널로 발송하는 기능을 제공하는 인터페이스입니다.
//
// API, Caretaker와 같은 클라이언트는 이 인터페이스를 통해 전달 서비스를 사용합니다.
type ForwardDispatcher interface {
	// Forward 지정된 Forwarder를 통해 피드백을 발송합니다.
	//
	// 발송 요청이 정상적으로 큐에 등록(실제 발송 결과와는 무관)되면 nil을 반환합니다.
	// 실패 시 에러를 반환합니다. (ErrServiceStopped, ErrForwarderNotFound 등)
	Forward(forwarderID ForwarderID, feedback *Feedback) error

	// ForwardDefault 시스템에 설정된 기본 Forwarder를 통해 피드백을 발송합니다.
	ForwardDefault(feedback *Feedback) error
}

// ForwardHealthChecker 전달 서비스의 상태를 확인하는 인터페이스입니다.
type ForwardHealthChecker interface {
	// Health 서비스가 정상적으로 실행 중이면 nil, 그렇지 않으면 에러를 반환합니다.
	Health() error
}
