package archive

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const (
	testGuild   = snowflake.ID(111111111111111111)
	testChannel = "123456789012345678"
)

func fixedClock(t time.Time) Clock {
	return Clock{Now: func() time.Time { return t }}
}

func newTestArchive(t *testing.T, opts ...Option) *Archive {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock(time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC)))}, opts...)
	a, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
