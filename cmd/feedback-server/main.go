package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/darkkaiser/feedback-server/internal/config"
	"github.com/darkkaiser/feedback-server/internal/pkg/version"
	"github.com/darkkaiser/feedback-server/internal/service"
	"github.com/darkkaiser/feedback-server/internal/service/api"
	"github.com/darkkaiser/feedback-server/internal/service/caretaker"
	"github.com/darkkaiser/feedback-server/internal/service/feedback/storage"
	"github.com/darkkaiser/feedback-server/internal/service/forwarder"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// @title Feedback Server API
// @version 1.0
// @description 사용자 피드백 수집 및 전달 서버의 REST API입니다.
// @description
// @description 데스크톱/모바일 애플리케이션의 피드백 다이얼로그에서 전송한 사용자 피드백을
// @description 수신하여 저장하고, 메일(Mailgun)과 텔레그램으로 전달합니다.
// @description
// @description ## 주요 기능
// @description - 피드백 등록 및 첨부 파일 업로드
// @description - 피드백 메일/메신저 전달
// @description - 보관 문서 만료, 고아 첨부 정리, 미처리 문서 재발송
// @description
// @description ## 인증 방법
// @description 피드백 등록은 HTTP Basic 인증을 사용합니다. 사용자명은 "{작성자 이메일}/token"
// @description 형식이고, 비밀번호는 설정 파일(feedback-server.json)의 feedback_api.service_tokens에
// @description 등록된 서비스 토큰입니다.

// @contact.name DarkKaiser
// @contact.url https://github.com/DarkKaiser
// @contact.email darkkaiser@gmail.com

// @license.name MIT

// @BasePath /

// @securityDefinitions.basic BasicAuth
// @description 사용자명 "{email}/token", 비밀번호는 서비스 토큰

const (
	banner = `
  _____                _  _                  _     ____
 |  ___|___   ___   __| || |__    __ _  ___ | | __/ ___|   ___  _ __ __   __  ___  _ __
 | |_  / _ \ / _ \ / _` + "`" + ` || '_ \  / _` + "`" + ` |/ __|| |/ /\___ \  / _ \| '__|\ \ / / / _ \| '__|
 |  _||  __/|  __/| (_| || |_) || (_| || (__ |   <  ___) ||  __/| |    \ V / |  __/| |
 |_|   \___| \___| \__,_||_.__/  \__,_|\___||_|\_\|____/  \___||_|     \_/   \___||_|
                                                             %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.Load()
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	// 3. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", log.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("서버 초기화 시작")

	// 피드백 저장소를 초기화한다.
	store, err := storage.NewFileFeedbackStore(appConfig.Storage.DataDir, storage.Limits{
		MaxPendingPerEmail: appConfig.Storage.MaxPendingPerEmail,
		MaxUploadCount:     appConfig.Storage.MaxUploadCount,
		MaxUploadSize:      appConfig.Storage.MaxUploadSize,
	})
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"data_dir": appConfig.Storage.DataDir,
			"error":    err,
		}).Error("피드백 저장소 초기화 실패")

		log.Fatal("피드백 저장소 초기화 실패로 프로그램을 종료합니다")
	}

	// 서비스를 생성하고 초기화한다.
	forwarderService := forwarder.NewService(appConfig, store)
	caretakerService := caretaker.NewService(appConfig.Caretaker, store, forwarderService)
	apiService := api.NewService(appConfig, store, forwarderService, buildInfo)

	// Set up cancellation context and waitgroup
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	// 서비스를 시작한다.
	services := []service.Service{forwarderService, caretakerService, apiService}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			log.Fatal("서비스 초기화 실패로 프로그램을 종료합니다")
		}
	}

	// Handle sigterm and await termC signal
	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC // Blocks here until interrupted

	// Handle shutdown
	applog.WithComponent("main").Info("Shutdown signal received")
	cancel()             // Signal cancellation to context.Context
	serviceStopWG.Wait() // Block here until are workers are done
}
