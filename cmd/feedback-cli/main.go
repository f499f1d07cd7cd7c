// feedback-cli 피드백 전송 라이브러리(pkg/sender)를 명령행에서 실행하는 클라이언트입니다.
//
// 사용 예:
//
//	feedback-cli -backend gcp -domain feedback.example.com -token tok-123 \
//	  -product MyApp -email user@example.com -subject "로그인 오류" \
//	  -message "로그인 버튼이 동작하지 않습니다" -attach screenshot.png
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darkkaiser/feedback-server/pkg/sender"
)

const sendTimeout = 90 * time.Second

// multiFlag 동일한 플래그를 여러 번 지정할 수 있게 하는 flag.Value 구현체입니다.
type multiFlag []string

func (f *multiFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *multiFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	var (
		backend     = flag.String("backend", "gcp", "전송 백엔드 (gcp 또는 zendesk)")
		domain      = flag.String("domain", "", "피드백 수집 서비스의 도메인 (gcp 백엔드)")
		subdomain   = flag.String("subdomain", "", "Zendesk 서브도메인 (zendesk 백엔드)")
		token       = flag.String("token", "", "인증 토큰")
		product     = flag.String("product", "", "제품명 (제목 접두사로 사용)")
		subject     = flag.String("subject", "", "피드백 제목")
		message     = flag.String("message", "", "피드백 본문 (생략 시 표준 입력에서 읽음)")
		email       = flag.String("email", "", "작성자 이메일")
		name        = flag.String("name", "", "작성자 이름 (선택)")
		attachments multiFlag
	)
	flag.Var(&attachments, "attach", "첨부 파일 경로 (여러 번 지정 가능)")
	flag.Parse()

	if err := run(*backend, *domain, *subdomain, *token, *product, *subject, *message, *email, *name, attachments); err != nil {
		fmt.Fprintf(os.Stderr, "오류: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("피드백이 전송되었습니다.")
}

func run(backend, domain, subdomain, token, product, subject, message, email, name string, attachmentPaths []string) error {
	s, err := newSender(backend, domain, subdomain, token, product)
	if err != nil {
		return err
	}

	if message == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("표준 입력에서 본문을 읽을 수 없습니다: %w", err)
		}
		message = string(data)
	}

	submission := sender.Submission{
		Subject:        subject,
		Message:        message,
		RequesterEmail: email,
		RequesterName:  name,
	}

	for _, path := range attachmentPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("첨부 파일을 읽을 수 없습니다: %w", err)
		}
		submission.Attachments = append(submission.Attachments, sender.Attachment{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	return s.Send(ctx, submission)
}

// newSender 지정된 백엔드의 Sender 구현체를 생성합니다.
func newSender(backend, domain, subdomain, token, product string) (sender.Sender, error) {
	switch backend {
	case "gcp":
		return sender.NewGCPService(domain, token, product)
	case "zendesk":
		return sender.NewZendesk(subdomain, token, product)
	default:
		return nil, fmt.Errorf("지원하지 않는 백엔드입니다: %s", backend)
	}
}
