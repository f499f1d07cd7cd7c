// Package caretaker 피드백 저장소의 정기 정리 작업을 수행하는 서비스를 제공합니다.
//
// Cron 스케줄에 따라 다음 세 가지 작업을 순서대로 실행합니다.
//
//  1. 보관 문서 만료: 보존 기간이 지난 보관(archived) 문서를 첨부와 함께 삭제
//  2. 고아 첨부 정리: 어떤 문서에도 연결되지 않은 채 오래된 스텁 첨부를 삭제
//  3. 미전달 문서 재발송: 전달에 실패한 채 오래 방치된 미처리(pending) 문서를
//     기본 전달 채널로 다시 발송 요청
package caretaker

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/darkkaiser/feedback-server/internal/config"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	"github.com/darkkaiser/feedback-server/pkg/cronx"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component Caretaker 서비스의 로깅용 컴포넌트 이름
const component = "caretaker.service"

// Caretaker 저장소 정리 작업을 Cron 스케줄에 맞춰 자동으로 실행하는 서비스입니다.
type Caretaker struct {
	cfg config.CaretakerConfig

	store contract.FeedbackStore

	// dispatcher 재발송 대상 문서를 기본 전달 채널로 발송 요청하는 인터페이스입니다.
	dispatcher contract.ForwardDispatcher

	cron *cron.Cron

	// now 현재 시각을 반환하는 함수. 테스트에서 시각을 고정하기 위해 필드로 보관합니다.
	now func() time.Time

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Caretaker 서비스 인스턴스를 생성합니다.
func NewService(cfg config.CaretakerConfig, store contract.FeedbackStore, dispatcher contract.ForwardDispatcher) *Caretaker {
	if store == nil {
		panic("FeedbackStore는 필수입니다")
	}
	if dispatcher == nil {
		panic("ForwardDispatcher는 필수입니다")
	}

	return &Caretaker{
		cfg: cfg,

		store: store,

		dispatcher: dispatcher,

		now: time.Now,
	}
}

// Start 정리 작업을 Cron 엔진에 등록하고 스케줄러를 시작합니다.
//
// 설정에서 Runnable이 꺼져 있으면 아무 작업도 등록하지 않고 정상 반환합니다.
func (c *Caretaker) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()

	applog.WithComponent(component).Info("Caretaker 서비스 시작중...")

	if c.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Caretaker 서비스가 이미 시작됨!!!")
		return nil
	}

	if !c.cfg.Runnable {
		serviceStopWG.Done()
		applog.WithComponent(component).Info("Caretaker 서비스가 비활성화되어 있어 시작하지 않습니다")
		return nil
	}

	// Cron 엔진 초기화
	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: Panic 발생 시 복구하여 다음 스케줄 실행에 영향을 주지 않음
	// - SkipIfStillRunning: 이전 정리 작업이 끝나지 않았으면 다음 실행을 건너뜀
	c.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	if _, err := c.cron.AddFunc(c.cfg.TimeSpec, c.sweep); err != nil {
		serviceStopWG.Done()
		return err
	}

	c.cron.Start()
	c.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": c.cfg.TimeSpec,
	}).Info("Caretaker 서비스 시작됨")

	// 종료 신호 대기 (고루틴)
	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		c.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 안전하게 중지합니다. 진행 중인 정리 작업의 완료를 대기합니다.
func (c *Caretaker) Stop() {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()

	if !c.running {
		return
	}

	applog.WithComponent(component).Info("Caretaker 서비스 중지중...")

	if c.cron != nil {
		ctx := c.cron.Stop()
		<-ctx.Done()
	}

	c.cron = nil
	c.running = false

	applog.WithComponent(component).Info("Caretaker 서비스 중지됨")
}

// sweep 정리 작업 한 사이클을 실행합니다.
//
// 각 단계는 독립적으로 실행되며, 한 단계가 실패해도 나머지 단계는 계속 진행됩니다.
func (c *Caretaker) sweep() {
	started := c.now()

	applog.WithComponent(component).Info("저장소 정리 작업 시작")

	expired := c.expireArchived()
	scrubbed := c.scrubOrphanUploads()
	republished := c.republishStalePending()

	applog.WithComponentAndFields(component, applog.Fields{
		"expired_docs":     expired,
		"scrubbed_uploads": scrubbed,
		"republished_docs": republished,
		"elapsed":          time.Since(started).String(),
	}).Info("저장소 정리 작업 완료")
}

// expireArchived 보존 기간이 지난 보관 문서를 삭제하고 삭제된 개수를 반환합니다.
func (c *Caretaker) expireArchived() int {
	feedbacks, err := c.store.List()
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("피드백 문서 목록 조회 실패")
		return 0
	}

	cutoff := c.now().Add(-c.cfg.ArchivedRetention)

	expired := 0
	for _, feedback := range feedbacks {
		if feedback.Status != contract.FeedbackStatusArchived {
			continue
		}
		if feedback.ArchivedAt == nil || !feedback.ArchivedAt.Before(cutoff) {
			continue
		}

		if err := c.store.Delete(feedback.ID); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"feedback_id": feedback.ID,
				"error":       err,
			}).Error("만료된 보관 문서 삭제 실패")
			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"feedback_id": feedback.ID,
			"archived_at": feedback.ArchivedAt.Format(time.RFC3339),
		}).Debug("만료된 보관 문서 삭제됨")

		expired++
	}

	return expired
}

// scrubOrphanUploads 오래된 고아 첨부 스텁을 삭제하고 삭제된 개수를 반환합니다.
func (c *Caretaker) scrubOrphanUploads() int {
	cutoff := c.now().Add(-c.cfg.StubScrubAge)

	scrubbed, err := c.store.ScrubOrphanUploads(cutoff)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("고아 첨부 정리 실패")
		return 0
	}

	return scrubbed
}

// republishStalePending 전달되지 못한 채 오래 방치된 미처리 문서를 기본 전달 채널로 재발송 요청합니다.
func (c *Caretaker) republishStalePending() int {
	feedbacks, err := c.store.List()
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("피드백 문서 목록 조회 실패")
		return 0
	}

	cutoff := c.now().Add(-c.cfg.RepublishAge)

	republished := 0
	for _, feedback := range feedbacks {
		if feedback.Status != contract.FeedbackStatusPending {
			continue
		}
		if !feedback.ReceivedAt.Before(cutoff) {
			continue
		}

		if err := c.dispatcher.ForwardDefault(feedback); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"feedback_id": feedback.ID,
				"error":       err,
			}).Error("미처리 문서 재발송 요청 실패")
			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"feedback_id": feedback.ID,
			"received_at": feedback.ReceivedAt.Format(time.RFC3339),
		}).Info("미처리 문서 재발송 요청됨")

		republished++
	}

	return republished
}
