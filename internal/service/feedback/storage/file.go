// Package storage 파일 시스템 기반의 피드백 저장소 구현을 제공합니다.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	"github.com/darkkaiser/feedback-server/pkg/concurrency"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component 피드백 저장소의 로깅용 컴포넌트 이름
const component = "feedback.storage"

const (
	// feedbackDirName 피드백 문서가 저장되는 하위 디렉토리 이름입니다.
	feedbackDirName = "feedback"

	// uploadsDirName 첨부 파일이 저장되는 하위 디렉토리 이름입니다.
	uploadsDirName = "uploads"

	// tempFilePattern 파일 저장 시 사용되는 임시 파일의 이름 패턴입니다.
	tempFilePattern = "feedback-*.tmp"

	// uploadTokenLength UUID 형식 업로드 토큰의 문자열 길이입니다.
	uploadTokenLength = 36
)

// Limits 저장소가 강제하는 수량/크기 제한입니다. 0 이하의 값은 해당 제한을 비활성화합니다.
type Limits struct {
	// MaxPendingPerEmail 작성자(이메일)별로 허용되는 미처리(보관되지 않은) 피드백의 최대 개수
	MaxPendingPerEmail int

	// MaxUploadCount 피드백 하나에 연결할 수 있는 첨부 파일의 최대 개수
	MaxUploadCount int

	// MaxUploadSize 첨부 파일 하나의 최대 크기(바이트)
	MaxUploadSize int64
}

// fileFeedbackStore 파일 시스템을 기반으로 피드백을 저장하는 저장소 구현체입니다.
//
// [파일 구조]
//   - {baseDir}/feedback/{id}.json: 피드백 문서가 JSON 형식으로 저장됩니다.
//   - {baseDir}/uploads/{token}-{filename}: 첨부 파일이 저장됩니다.
//   - feedback-*.tmp: 파일 저장 중 생성되는 임시 파일입니다.
type fileFeedbackStore struct {
	feedbackDir string
	uploadsDir  string
	limits      Limits

	// locks 동일한 문서에 대한 동시 쓰기를 방지하기 위한 키별 뮤텍스입니다.
	// 문서는 파일 경로를, 작성자별 제출 제한 검사는 이메일을 키로 사용합니다.
	locks *concurrency.KeyedMutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.FeedbackStore = (*fileFeedbackStore)(nil)

// NewFileFeedbackStore 파일 시스템 기반의 피드백 저장소를 생성합니다.
//
// 초기화 과정에서 저장 디렉토리를 생성하고, 이전 실행에서 남은 임시 파일을
// 백그라운드에서 정리합니다.
func NewFileFeedbackStore(dir string, limits Limits) (contract.FeedbackStore, error) {
	if dir == "" {
		dir = "data"
	}

	// 상대 경로를 절대 경로로 변환하여 경로 일관성을 보장합니다.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, NewErrAbsPathConversionFailed(err)
	}

	s := &fileFeedbackStore{
		feedbackDir: filepath.Join(absDir, feedbackDirName),
		uploadsDir:  filepath.Join(absDir, uploadsDirName),
		limits:      limits,

		locks: concurrency.NewKeyedMutex(),
	}

	// 저장소 초기화 시점에 디렉토리 생성 및 접근 권한을 미리 확인합니다.
	for _, d := range []string{s.feedbackDir, s.uploadsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, NewErrDirectoryAccessFailed(err, d)
		}
	}

	// 비정상 종료로 남겨진 임시 파일을 백그라운드에서 정리합니다.
	// 서버 시작 속도에 영향을 주지 않도록 비동기로 수행하며,
	// 정리 작업 실패가 서버 전체에 영향을 주지 않도록 패닉을 복구합니다.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"panic": r,
				}).Error("임시 파일 정리 중단: 백그라운드 작업 패닉 발생")
			}
		}()

		s.cleanupStaleTempFiles()
	}()

	return s, nil
}

// cleanupStaleTempFiles 이전 실행에서 남겨진 오래된 임시 파일을 정리합니다.
func (s *fileFeedbackStore) cleanupStaleTempFiles() {
	// 삭제 기준 시간: 현재 시간으로부터 1시간 이전
	// 이 시간보다 오래된 파일만 삭제하여 현재 사용 중인 파일을 보호합니다.
	threshold := time.Now().Add(-1 * time.Hour)

	for _, dir := range []string{s.feedbackDir, s.uploadsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"dir":   dir,
				"error": err,
			}).Warn("임시 파일 정리 중단: 디렉토리 조회 실패")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			name := entry.Name()
			matched, _ := filepath.Match(tempFilePattern, name)
			if !matched {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}

			// 최근에 수정된 파일은 현재 쓰기 작업에 사용 중일 수 있으므로 건너뜁니다.
			if info.ModTime().After(threshold) {
				continue
			}

			fullPath := filepath.Join(dir, name)
			if err := os.Remove(fullPath); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"file":  fullPath,
					"error": err,
				}).Warn("임시 파일 삭제 실패: 파일 제거 오류")
			} else {
				applog.WithComponentAndFields(component, applog.Fields{
					"file": fullPath,
				}).Info("임시 파일 삭제 완료: 이전 실행 잔존 파일 정리")
			}
		}
	}
}

// SaveUpload 첨부 파일을 저장하고 참조 토큰이 포함된 UploadRef를 반환합니다.
func (s *fileFeedbackStore) SaveUpload(filename string, data []byte) (contract.UploadRef, error) {
	if s.limits.MaxUploadSize > 0 && int64(len(data)) > s.limits.MaxUploadSize {
		return contract.UploadRef{}, contract.ErrUploadTooLarge
	}

	token := uuid.NewString()
	storedName := token + "-" + sanitizeUploadFilename(filename)

	path, err := s.resolveSafePath(s.uploadsDir, storedName)
	if err != nil {
		return contract.UploadRef{}, err
	}

	if err := s.writeAtomic(path, data); err != nil {
		return contract.UploadRef{}, NewErrUploadWriteFailed(err)
	}

	return contract.UploadRef{
		Token:      token,
		Filename:   sanitizeUploadFilename(filename),
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}, nil
}

// OpenUpload 참조 토큰에 해당하는 첨부 파일의 내용을 읽기 위한 리더를 반환합니다.
func (s *fileFeedbackStore) OpenUpload(token string) (io.ReadCloser, error) {
	path, err := s.findUploadPath(token)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contract.ErrUploadNotFound
		}
		return nil, NewErrFeedbackReadFailed(err)
	}
	return f, nil
}

// StatUpload 참조 토큰에 해당하는 첨부 파일의 메타데이터를 반환합니다.
func (s *fileFeedbackStore) StatUpload(token string) (contract.UploadRef, error) {
	path, err := s.findUploadPath(token)
	if err != nil {
		return contract.UploadRef{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return contract.UploadRef{}, contract.ErrUploadNotFound
		}
		return contract.UploadRef{}, NewErrFeedbackReadFailed(err)
	}

	return contract.UploadRef{
		Token:      token,
		Filename:   strings.TrimPrefix(filepath.Base(path), token+"-"),
		Size:       fi.Size(),
		UploadedAt: fi.ModTime(),
	}, nil
}

// Save 피드백 문서를 저장합니다.
//
// [동시성 제어]
// 같은 문서에 대한 동시 쓰기는 파일 경로를 키로 하는 뮤텍스로 직렬화합니다.
// 신규 미처리 문서의 경우, 작성자별 제출 제한 검사와 저장이 원자적으로 수행되도록
// 이메일을 키로 하는 뮤텍스를 추가로 획득합니다. (락 획득 순서: 이메일 → 파일)
func (s *fileFeedbackStore) Save(feedback *contract.Feedback) error {
	if feedback == nil {
		return apperrors.New(apperrors.InvalidInput, "저장 요청 거부: 피드백 문서가 nil입니다")
	}

	path, err := s.resolveDocPath(feedback.ID)
	if err != nil {
		return err
	}

	if s.limits.MaxUploadCount > 0 && len(feedback.Uploads) > s.limits.MaxUploadCount {
		return contract.ErrUploadCountExceeded
	}

	// 문서가 참조하는 모든 첨부가 실제로 존재하는지 확인합니다.
	for _, ref := range feedback.Uploads {
		if _, err := s.findUploadPath(ref.Token); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(feedback, "", "\t")
	if err != nil {
		return NewErrJSONMarshalFailed(err)
	}

	lockKey := strings.ToLower(path)

	// 이미 저장된 문서의 갱신은 제출 제한 검사 대상이 아닙니다.
	if feedback.Status != contract.FeedbackStatusPending {
		return s.locks.WithLock(lockKey, func() error {
			return s.writeAtomic(path, data)
		})
	}

	emailKey := "email:" + strings.ToLower(feedback.RequesterEmail)
	return s.locks.WithLock(emailKey, func() error {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			count, err := s.CountPendingByEmail(feedback.RequesterEmail)
			if err != nil {
				return err
			}
			if s.limits.MaxPendingPerEmail > 0 && count >= s.limits.MaxPendingPerEmail {
				return contract.ErrPendingLimitExceeded
			}
		}

		return s.locks.WithLock(lockKey, func() error {
			return s.writeAtomic(path, data)
		})
	})
}

// Get 저장된 피드백 문서를 조회합니다.
func (s *fileFeedbackStore) Get(id contract.FeedbackID) (*contract.Feedback, error) {
	path, err := s.resolveDocPath(id)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.locks.WithLock(strings.ToLower(path), func() error {
		var readErr error
		data, readErr = os.ReadFile(path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return contract.ErrFeedbackNotFound
			}
			return NewErrFeedbackReadFailed(readErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var feedback contract.Feedback
	if err := json.Unmarshal(data, &feedback); err != nil {
		return nil, NewErrJSONUnmarshalFailed(err)
	}

	return &feedback, nil
}

// Delete 피드백 문서와 연결된 모든 첨부 파일을 삭제합니다.
func (s *fileFeedbackStore) Delete(id contract.FeedbackID) error {
	path, err := s.resolveDocPath(id)
	if err != nil {
		return err
	}

	return s.locks.WithLock(strings.ToLower(path), func() error {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return contract.ErrFeedbackNotFound
			}
			return NewErrFeedbackReadFailed(readErr)
		}

		// 문서 삭제에 앞서 연결된 첨부를 먼저 정리합니다.
		// 첨부 삭제가 일부 실패해도 남은 첨부는 이후 정리 작업이 회수합니다.
		var feedback contract.Feedback
		if err := json.Unmarshal(data, &feedback); err == nil {
			for _, ref := range feedback.Uploads {
				uploadPath, findErr := s.findUploadPath(ref.Token)
				if findErr != nil {
					continue
				}
				if err := os.Remove(uploadPath); err != nil {
					applog.WithComponentAndFields(component, applog.Fields{
						"file":  uploadPath,
						"error": err,
					}).Warn("첨부 파일 삭제 실패")
				}
			}
		}

		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return contract.ErrFeedbackNotFound
			}
			return apperrors.Wrap(err, apperrors.Internal, "피드백 삭제 실패: 문서 파일 제거 중 오류가 발생했습니다")
		}

		return nil
	})
}

// List 저장된 모든 피드백 문서를 수신 시각 오름차순으로 반환합니다.
//
// 문서 파일은 항상 원자적 이름 변경으로 교체되므로 읽기 락 없이도
// 불완전한 문서를 읽을 수 없습니다. 역직렬화에 실패한 파일은 건너뜁니다.
func (s *fileFeedbackStore) List() ([]*contract.Feedback, error) {
	entries, err := os.ReadDir(s.feedbackDir)
	if err != nil {
		return nil, NewErrDirectoryAccessFailed(err, s.feedbackDir)
	}

	feedbacks := make([]*contract.Feedback, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.feedbackDir, entry.Name()))
		if err != nil {
			continue
		}

		var feedback contract.Feedback
		if err := json.Unmarshal(data, &feedback); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  entry.Name(),
				"error": err,
			}).Warn("피드백 목록 조회: 손상된 문서 파일 건너뜀")
			continue
		}

		feedbacks = append(feedbacks, &feedback)
	}

	sort.Slice(feedbacks, func(i, j int) bool {
		return feedbacks[i].ReceivedAt.Before(feedbacks[j].ReceivedAt)
	})

	return feedbacks, nil
}

// CountPendingByEmail 지정된 이메일로 제출되어 아직 전달되지 않은 미처리 문서 수를 반환합니다.
//
// 전달 완료 또는 보관된 문서는 작성자별 제출 제한 계산에서 제외됩니다.
func (s *fileFeedbackStore) CountPendingByEmail(email string) (int, error) {
	feedbacks, err := s.List()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, feedback := range feedbacks {
		if feedback.Status != contract.FeedbackStatusPending {
			continue
		}
		if strings.EqualFold(feedback.RequesterEmail, email) {
			count++
		}
	}

	return count, nil
}

// MarkForwarded 문서를 전달 완료 상태로 변경하고 전달 채널의 메시지 ID를 기록합니다.
func (s *fileFeedbackStore) MarkForwarded(id contract.FeedbackID, messageID string) error {
	return s.update(id, func(feedback *contract.Feedback) {
		now := time.Now()
		feedback.Status = contract.FeedbackStatusForwarded
		feedback.ForwardedMessageID = messageID
		feedback.ForwardedAt = &now
	})
}

// MarkArchived 문서를 보관 상태로 변경합니다.
func (s *fileFeedbackStore) MarkArchived(id contract.FeedbackID) error {
	return s.update(id, func(feedback *contract.Feedback) {
		now := time.Now()
		feedback.Status = contract.FeedbackStatusArchived
		feedback.ArchivedAt = &now
	})
}

// update 문서를 읽어 mutate를 적용한 뒤 다시 저장하는 읽기-수정-쓰기 작업을
// 파일 락을 보유한 상태에서 수행합니다.
func (s *fileFeedbackStore) update(id contract.FeedbackID, mutate func(*contract.Feedback)) error {
	path, err := s.resolveDocPath(id)
	if err != nil {
		return err
	}

	return s.locks.WithLock(strings.ToLower(path), func() error {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return contract.ErrFeedbackNotFound
			}
			return NewErrFeedbackReadFailed(readErr)
		}

		var feedback contract.Feedback
		if err := json.Unmarshal(data, &feedback); err != nil {
			return NewErrJSONUnmarshalFailed(err)
		}

		mutate(&feedback)

		updated, err := json.MarshalIndent(&feedback, "", "\t")
		if err != nil {
			return NewErrJSONMarshalFailed(err)
		}

		return s.writeAtomic(path, updated)
	})
}

// ScrubOrphanUploads 어떤 문서에도 연결되지 않은 채 cutoff 이전에 업로드된
// 스텁 첨부들을 삭제하고, 삭제된 개수를 반환합니다.
func (s *fileFeedbackStore) ScrubOrphanUploads(cutoff time.Time) (int, error) {
	feedbacks, err := s.List()
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]struct{})
	for _, feedback := range feedbacks {
		for _, ref := range feedback.Uploads {
			referenced[ref.Token] = struct{}{}
		}
	}

	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		return 0, NewErrDirectoryAccessFailed(err, s.uploadsDir)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		token, ok := uploadTokenFromStoredName(entry.Name())
		if !ok {
			continue
		}
		if _, ok := referenced[token]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		fullPath := filepath.Join(s.uploadsDir, entry.Name())
		if err := os.Remove(fullPath); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  fullPath,
				"error": err,
			}).Warn("스텁 첨부 삭제 실패")
			continue
		}

		removed++
	}

	return removed, nil
}

// resolveDocPath 피드백 ID에 해당하는 안전하게 검증된 문서 파일 경로를 생성합니다.
func (s *fileFeedbackStore) resolveDocPath(id contract.FeedbackID) (string, error) {
	if !id.Valid() {
		return "", ErrInvalidFeedbackID
	}
	return s.resolveSafePath(s.feedbackDir, string(id)+".json")
}

// findUploadPath 업로드 토큰에 해당하는 저장 파일 경로를 찾습니다.
func (s *fileFeedbackStore) findUploadPath(token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrInvalidUploadToken
	}

	matches, err := filepath.Glob(filepath.Join(s.uploadsDir, token+"-*"))
	if err != nil || len(matches) == 0 {
		return "", contract.ErrUploadNotFound
	}

	return matches[0], nil
}

// resolveSafePath 기본 디렉토리와 파일명을 조합하여 안전하게 검증된 경로를 생성합니다.
//
// filepath.Rel을 사용하여 생성된 최종 경로가 기본 디렉토리의 하위인지 검증합니다.
// 상대 경로가 ".."으로 시작하면 상위 디렉토리 접근으로 간주하여 차단하며,
// 이를 통해 단순 접두사 비교의 취약점(Sibling Directory Attack) 없이
// Path Traversal 공격을 방어합니다.
func (s *fileFeedbackStore) resolveSafePath(baseDir, filename string) (string, error) {
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	rel, err := filepath.Rel(baseDir, cleanPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "보안 검증 실패: 파일 경로를 해석할 수 없습니다")
	}

	if strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		applog.WithComponentAndFields(component, applog.Fields{
			"base_dir": baseDir,
			"filename": filename,
			"path":     cleanPath,
		}).Error("파일 경로 생성 차단: 경로 이탈 시도 감지")

		return "", ErrPathTraversalDetected
	}

	return cleanPath, nil
}

// writeAtomic 데이터를 파일에 원자적으로 저장합니다.
//
// [원자적 쓰기 전략]
// 파일 저장 중 시스템 장애(전원 차단, 프로세스 종료)가 발생해도 데이터 무결성을
// 보장하기 위해 "임시 파일 쓰기 → 동기화(fsync) → 원자적 이름 변경" 3단계로 수행합니다.
// 임시 파일은 같은 디렉토리 내에 생성하여 크로스 파일시스템 rename을 방지합니다.
func (s *fileFeedbackStore) writeAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return NewErrFileWriteFailed(err, "임시 파일 생성")
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 파일이 열려있는 상태에서 삭제가 불가능하므로
	// 반드시 닫기(Close)가 삭제(Remove)보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return NewErrFileWriteFailed(err, "파일 쓰기")
	}

	// 운영체제 버퍼 캐시에 있는 데이터를 물리적 디스크에 강제로 기록합니다.
	// 이 단계를 생략하면 전원 차단 시 데이터가 유실될 수 있습니다.
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return NewErrFileWriteFailed(err, "디스크 동기화")
	}

	// Windows에서는 파일이 열려 있으면 rename이 실패하므로 반드시 닫아야 합니다.
	if err := tmpFile.Close(); err != nil {
		return NewErrFileWriteFailed(err, "파일 닫기")
	}

	if err := s.renameWithRetry(tmpPath, filename); err != nil {
		return NewErrFileWriteFailed(err, "파일 이름 변경")
	}

	// 파일명 변경 사항을 디스크에 확실히 기록하기 위해 부모 디렉토리를 fsync합니다.
	// 실패해도 치명적이지 않으므로 에러를 무시합니다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 파일 이름 변경을 재시도 로직과 함께 수행합니다.
//
// Windows 개발 환경에서는 바이러스 백신, 파일 인덱서 등이 파일을 일시적으로
// 잠글 수 있어 os.Rename이 실패할 수 있으므로, 짧은 대기 후 재시도합니다.
func (s *fileFeedbackStore) renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		err := os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(retryDelay)
	}

	return lastErr
}

// uploadTokenFromStoredName 저장 파일명에서 업로드 토큰을 추출합니다.
// 파일명은 "{token}-{filename}" 형식이며 토큰은 UUID(36자)입니다.
func uploadTokenFromStoredName(name string) (string, bool) {
	if len(name) <= uploadTokenLength || name[uploadTokenLength] != '-' {
		return "", false
	}

	token := name[:uploadTokenLength]
	if _, err := uuid.Parse(token); err != nil {
		return "", false
	}

	return token, true
}

// String 저장소의 기본 경로 정보를 반환합니다.
func (s *fileFeedbackStore) String() string {
	return fmt.Sprintf("fileFeedbackStore(feedback=%s, uploads=%s)", s.feedbackDir, s.uploadsDir)
}
