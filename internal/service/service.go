// Package service 애플리케이션을 구성하는 서비스들의 공통 계약을 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 생명주기 관리가 필요한 서비스의 공통 인터페이스입니다.
//
// Start는 즉시 반환되며, 서비스는 serviceStopCtx가 취소될 때까지 백그라운드에서
// 실행됩니다. 서비스는 종료가 완료되면 serviceStopWG.Done()을 호출해야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
