package pairsctl

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput 空路径写 stdout，否则按需创建父目录后写文件
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nopCloser{stdout}, nil
	}
	if dir := filepath.Dir(p); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(p)
}
