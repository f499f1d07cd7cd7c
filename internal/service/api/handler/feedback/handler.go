// Package feedback 피드백 수집 엔드포인트 핸들러를 제공합니다.
//
// 이 패키지의 엔드포인트들은 기존 클라이언트와의 호환성을 위해 고정된
// 와이어 프로토콜을 따릅니다. 모든 거부 응답은 HTTP 400과 함께
// 약속된 평문 문자열(BAD CONTENT, BAD TOKEN, BAD FILENAME, BAD DATA,
// BAD AUTH, TOO MUCH FEEDBACK)을 그대로 반환해야 하며, 임의로 변경할 수 없습니다.
package feedback

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/feedback-server/internal/config"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component 피드백 핸들러의 로깅용 컴포넌트 이름
const component = "api.handler.feedback"

// 와이어 프로토콜에 고정된 거부 응답 문자열들입니다.
const (
	rejectBadContent      = "BAD CONTENT"
	rejectBadToken        = "BAD TOKEN"
	rejectBadFilename     = "BAD FILENAME"
	rejectBadData         = "BAD DATA"
	rejectBadAuth         = "BAD AUTH"
	rejectTooMuchFeedback = "TOO MUCH FEEDBACK"
)

// uploadContentType 첨부 파일 업로드 요청의 Content-Type입니다.
const uploadContentType = "application/binary"

// basicAuthUsernameSuffix Basic 인증 사용자명에 붙는 접미사입니다.
// 사용자명은 "{email}/token" 형식이어야 합니다.
const basicAuthUsernameSuffix = "/token"

// Handler 피드백 수집 엔드포인트 핸들러입니다.
type Handler struct {
	cfg config.FeedbackAPIConfig

	store contract.FeedbackStore

	dispatcher contract.ForwardDispatcher
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(cfg config.FeedbackAPIConfig, store contract.FeedbackStore, dispatcher contract.ForwardDispatcher) *Handler {
	if store == nil {
		panic("FeedbackStore는 필수입니다")
	}
	if dispatcher == nil {
		panic("ForwardDispatcher는 필수입니다")
	}

	return &Handler{
		cfg: cfg,

		store: store,

		dispatcher: dispatcher,
	}
}

// commentRequest 피드백 등록 요청의 와이어 형식입니다.
type commentRequest struct {
	Request struct {
		Requester struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"requester"`
		Subject string `json:"subject"`
		Comment struct {
			Body    string   `json:"body"`
			Uploads []string `json:"uploads"`
		} `json:"comment"`
	} `json:"request"`
}

// commentResponse 피드백 등록 성공 응답의 와이어 형식입니다.
type commentResponse struct {
	Feedback struct {
		ID string `json:"id"`
	} `json:"feedback"`
}

// uploadResponse 첨부 파일 업로드 성공 응답의 와이어 형식입니다.
type uploadResponse struct {
	Upload struct {
		Token string `json:"token"`
	} `json:"upload"`
}

// PostCommentHandler godoc
// @Summary 피드백 등록
// @Description 클라이언트 애플리케이션에서 수집한 사용자 피드백을 등록합니다.
// @Description
// @Description ## 인증 방식
// @Description HTTP Basic 인증을 사용합니다. 사용자명은 "{작성자 이메일}/token" 형식이고,
// @Description 비밀번호는 발급받은 서비스 토큰입니다.
// @Description
// @Description ## 거부 응답
// @Description 모든 거부는 HTTP 400과 평문 문자열로 응답합니다.
// @Description - BAD CONTENT: Content-Type이 application/json이 아님
// @Description - BAD AUTH: Basic 인증 누락, 형식 오류 또는 작성자 이메일 불일치
// @Description - BAD TOKEN: 서비스 토큰이 유효하지 않음
// @Description - BAD DATA: 요청 본문 형식 오류 또는 필수 필드 누락
// @Description - TOO MUCH FEEDBACK: 작성자별 미처리 피드백 수 초과
// @Tags Feedback
// @Accept json
// @Produce json
// @Param request body commentRequest true "피드백 등록 요청"
// @Success 200 {object} commentResponse "등록된 피드백 ID"
// @Failure 400 {string} string "BAD CONTENT / BAD AUTH / BAD TOKEN / BAD DATA / TOO MUCH FEEDBACK"
// @Security BasicAuth
// @Router /fmpfeedback_comment [post]
func (h *Handler) PostCommentHandler(c echo.Context) error {
	// 1. Content-Type 검증
	if !hasContentType(c.Request(), echo.MIMEApplicationJSON) {
		return h.reject(c, rejectBadContent, "잘못된 Content-Type")
	}

	// 2. Basic 인증 파싱 ("{email}/token" 형식)
	authEmail, serviceToken, ok := parseBasicAuth(c.Request())
	if !ok {
		return h.reject(c, rejectBadAuth, "Basic 인증 누락 또는 형식 오류")
	}

	// 3. 서비스 토큰 검증
	if !h.validServiceToken(serviceToken) {
		return h.reject(c, rejectBadToken, "유효하지 않은 서비스 토큰")
	}

	// 4. 요청 본문 파싱 및 필수 필드 검증
	req := new(commentRequest)
	if err := c.Bind(req); err != nil {
		return h.reject(c, rejectBadData, "요청 본문 파싱 실패")
	}
	if strings.TrimSpace(req.Request.Requester.Email) == "" ||
		strings.TrimSpace(req.Request.Subject) == "" ||
		strings.TrimSpace(req.Request.Comment.Body) == "" {
		return h.reject(c, rejectBadData, "필수 필드 누락")
	}

	// 5. 인증된 이메일과 작성자 이메일 일치 여부 확인
	if !strings.EqualFold(authEmail, req.Request.Requester.Email) {
		return h.reject(c, rejectBadAuth, "인증된 이메일과 작성자 이메일 불일치")
	}

	// 6. 피드백 문서 저장
	feedback := &contract.Feedback{
		ID:             contract.NewFeedbackID(),
		RequesterEmail: req.Request.Requester.Email,
		RequesterName:  req.Request.Requester.Name,
		Subject:        req.Request.Subject,
		Message:        req.Request.Comment.Body,
		ClientIP:       c.RealIP(),
		Status:         contract.FeedbackStatusPending,
		ReceivedAt:     time.Now(),
	}
	for _, token := range req.Request.Comment.Uploads {
		ref, err := h.store.StatUpload(token)
		if err != nil {
			return h.reject(c, rejectBadData, "유효하지 않은 첨부 토큰")
		}
		feedback.Uploads = append(feedback.Uploads, ref)
	}

	if err := h.store.Save(feedback); err != nil {
		switch {
		case errors.Is(err, contract.ErrPendingLimitExceeded):
			return h.reject(c, rejectTooMuchFeedback, "작성자별 미처리 피드백 수 초과")
		case errors.Is(err, contract.ErrUploadCountExceeded), errors.Is(err, contract.ErrUploadNotFound):
			return h.reject(c, rejectBadData, "첨부 파일 검증 실패")
		default:
			applog.WithComponentAndFields(component, applog.Fields{
				"feedback_id": feedback.ID,
				"error":       err,
			}).Error("피드백 문서 저장 실패")
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
	}

	// 7. 전달 큐 등록 (실패해도 요청은 성공으로 처리, 재발송 작업이 복구)
	if err := h.dispatcher.ForwardDefault(feedback); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"feedback_id": feedback.ID,
			"error":       err,
		}).Warn("피드백 전달 큐 등록 실패 (재발송 작업이 복구 예정)")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"feedback_id": feedback.ID,
		"remote_ip":   c.RealIP(),
		"uploads":     len(feedback.Uploads),
	}).Info("피드백 등록됨")

	resp := commentResponse{}
	resp.Feedback.ID = string(feedback.ID)
	return c.JSON(http.StatusOK, resp)
}

// PostUploadHandler godoc
// @Summary 첨부 파일 업로드
// @Description 피드백에 첨부할 파일을 업로드하고 참조 토큰을 발급받습니다.
// @Description 발급된 토큰을 피드백 등록 요청의 comment.uploads에 포함하면 문서에 연결됩니다.
// @Description 일정 시간 내에 연결되지 않은 첨부는 자동으로 삭제됩니다.
// @Tags Feedback
// @Accept octet-stream
// @Produce json
// @Param filename query string true "원본 파일명"
// @Param token query string true "서비스 토큰"
// @Success 200 {object} uploadResponse "발급된 참조 토큰"
// @Failure 400 {string} string "BAD TOKEN / BAD FILENAME / BAD CONTENT / BAD DATA"
// @Router /fmpfeedback_upload [post]
func (h *Handler) PostUploadHandler(c echo.Context) error {
	// 1. 서비스 토큰 검증 (쿼리 파라미터)
	if !h.validServiceToken(c.QueryParam("token")) {
		return h.reject(c, rejectBadToken, "유효하지 않은 서비스 토큰")
	}

	// 2. 파일명 검증
	filename := c.QueryParam("filename")
	if strings.TrimSpace(filename) == "" {
		return h.reject(c, rejectBadFilename, "파일명 누락")
	}

	// 3. Content-Type 검증
	if !hasContentType(c.Request(), uploadContentType) {
		return h.reject(c, rejectBadContent, "잘못된 Content-Type")
	}

	// 4. 본문 읽기 (전체 크기는 BodyLimit 미들웨어가 1차로 제한)
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.reject(c, rejectBadData, "요청 본문 읽기 실패")
	}
	if len(data) == 0 {
		return h.reject(c, rejectBadData, "요청 본문 비어있음")
	}

	// 5. 첨부 스텁 저장
	ref, err := h.store.SaveUpload(filename, data)
	if err != nil {
		if errors.Is(err, contract.ErrUploadTooLarge) {
			return h.reject(c, rejectBadData, "첨부 파일 크기 초과")
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"filename": filename,
			"error":    err,
		}).Error("첨부 파일 저장 실패")
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"upload_token": ref.Token,
		"filename":     ref.Filename,
		"size":         ref.Size,
	}).Info("첨부 파일 업로드됨")

	resp := uploadResponse{}
	resp.Upload.Token = ref.Token
	return c.JSON(http.StatusOK, resp)
}

// reject 와이어 프로토콜에 고정된 평문 거부 응답을 반환합니다.
func (h *Handler) reject(c echo.Context, wireMessage string, reason string) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"path":      c.Path(),
		"remote_ip": c.RealIP(),
		"rejection": wireMessage,
		"reason":    reason,
	}).Warn("피드백 요청 거부")

	return c.String(http.StatusBadRequest, wireMessage)
}

// validServiceToken 서비스 토큰의 유효성을 검사합니다.
//
// 설정에 서비스 토큰이 하나도 등록되어 있지 않으면 토큰 검증을 수행하지 않습니다.
// (개발 환경 편의, 운영 환경에서는 설정 검증 단계에서 경고가 출력됩니다)
func (h *Handler) validServiceToken(token string) bool {
	if len(h.cfg.ServiceTokens) == 0 {
		return true
	}

	return token != "" && slices.Contains(h.cfg.ServiceTokens, token)
}

// parseBasicAuth Basic 인증 헤더에서 작성자 이메일과 서비스 토큰을 추출합니다.
//
// 사용자명은 "{email}/token" 형식이어야 하며, 비밀번호가 서비스 토큰입니다.
func parseBasicAuth(req *http.Request) (email string, serviceToken string, ok bool) {
	username, password, ok := req.BasicAuth()
	if !ok {
		return "", "", false
	}

	email, found := strings.CutSuffix(username, basicAuthUsernameSuffix)
	if !found || email == "" {
		return "", "", false
	}

	return email, password, true
}

// hasContentType 요청의 Content-Type이 지정된 MIME 타입인지 확인합니다.
// "application/json; charset=utf-8"과 같이 파라미터가 붙은 형식도 허용합니다.
func hasContentType(req *http.Request, mimeType string) bool {
	contentType := req.Header.Get(echo.HeaderContentType)
	mediaType, _, _ := strings.Cut(contentType, ";")

	return strings.EqualFold(strings.TrimSpace(mediaType), mimeType)
}
