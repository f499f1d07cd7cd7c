package validation

import (
	"fmt"
	"os"
)

// ValidateFileExists 파일 존재 여부를 검사합니다.
// 빈 경로는 검사하지 않고 통과시킵니다.
func ValidateFileExists(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("파일이 존재하지 않습니다: %s", path)
		}
		return fmt.Errorf("파일 접근 오류(%s): %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("파일이 아닌 디렉토리입니다: %s", path)
	}
	return nil
}
