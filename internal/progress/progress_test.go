package progress_test

import (
	"bytes"
	"testing"

	"github.com/sscafiti/imgscope/internal/progress"
)

func TestMFTBarAddAndCloseDoNotPanic(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.NewMFTBar(&buf, -1)
	for i := 0; i < 5; i++ {
		bar.Add()
	}
	bar.Close()
}

func TestMFTBarWithKnownTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.NewMFTBar(&buf, 10)
	bar.Add()
	bar.Close()
}
