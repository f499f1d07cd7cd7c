package log

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Utils & Helpers
// =============================================================================

// safeBuffer 동시성 안전한 테스트용 버퍼
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failWriter 항상 쓰기에 실패하는 Writer
type failWriter struct{}

func (w *failWriter) Write(p []byte) (n int, err error) {
	return 0, assert.AnError
}

func newTestHook() (*hook, *safeBuffer, *safeBuffer, *safeBuffer) {
	mainBuf := new(safeBuffer)
	criticalBuf := new(safeBuffer)
	verboseBuf := new(safeBuffer)

	h := &hook{
		mainWriter:     mainBuf,
		criticalWriter: criticalBuf,
		verboseWriter:  verboseBuf,
		formatter:      &logrus.TextFormatter{DisableColors: true},
	}

	return h, mainBuf, criticalBuf, verboseBuf
}

func newTestEntry(level Level, msg string) *Entry {
	return &logrus.Entry{
		Logger:  logrus.StandardLogger(),
		Time:    time.Now(),
		Level:   level,
		Message: msg,
	}
}

// =============================================================================
// Routing Tests
// =============================================================================

func TestHook_Levels(t *testing.T) {
	h, _, _, _ := newTestHook()
	assert.Equal(t, AllLevels, h.Levels())
}

// TestHook_Fire_Routing 레벨별 라우팅 정책을 검증합니다.
func TestHook_Fire_Routing(t *testing.T) {
	tests := []struct {
		name           string
		level          Level
		expectMain     bool
		expectCritical bool
		expectVerbose  bool
	}{
		{
			name:           "Error는 Critical과 Main에 기록",
			level:          ErrorLevel,
			expectMain:     true,
			expectCritical: true,
		},
		{
			name:       "Info는 Main에만 기록",
			level:      InfoLevel,
			expectMain: true,
		},
		{
			name:       "Warn은 Main에만 기록",
			level:      WarnLevel,
			expectMain: true,
		},
		{
			name:          "Debug는 Verbose에만 기록",
			level:         DebugLevel,
			expectVerbose: true,
		},
		{
			name:          "Trace는 Verbose에만 기록",
			level:         TraceLevel,
			expectVerbose: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mainBuf, criticalBuf, verboseBuf := newTestHook()

			err := h.Fire(newTestEntry(tt.level, "라우팅 테스트 메시지"))
			require.NoError(t, err)

			assert.Equal(t, tt.expectMain, mainBuf.String() != "", "Main Writer 기록 여부")
			assert.Equal(t, tt.expectCritical, criticalBuf.String() != "", "Critical Writer 기록 여부")
			assert.Equal(t, tt.expectVerbose, verboseBuf.String() != "", "Verbose Writer 기록 여부")
		})
	}
}

// TestHook_Fire_FailSafe Critical 쓰기 실패 시에도 Main 기록이 수행되는지 검증합니다.
func TestHook_Fire_FailSafe(t *testing.T) {
	mainBuf := new(safeBuffer)
	h := &hook{
		mainWriter:     mainBuf,
		criticalWriter: &failWriter{},
		formatter:      &logrus.TextFormatter{DisableColors: true},
	}

	err := h.Fire(newTestEntry(ErrorLevel, "치명적 오류"))

	assert.Error(t, err, "Critical 쓰기 실패는 에러로 반환되어야 함")
	assert.Contains(t, mainBuf.String(), "치명적 오류", "Critical 실패와 무관하게 Main에는 기록되어야 함")
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestHook_Close_StopsLogging(t *testing.T) {
	h, mainBuf, _, _ := newTestHook()

	require.NoError(t, h.Close())

	err := h.Fire(newTestEntry(InfoLevel, "종료 후 메시지"))
	assert.NoError(t, err)
	assert.Empty(t, mainBuf.String(), "종료 후에는 기록되지 않아야 함")
}

func TestHook_Concurrency_Stress(t *testing.T) {
	h, mainBuf, _, _ := newTestHook()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_ = h.Fire(newTestEntry(InfoLevel, "동시성 메시지"))
		}()
	}

	wg.Wait()
	assert.NotEmpty(t, mainBuf.String())
}
