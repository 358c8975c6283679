package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"neat-backup/internal/logger"
)

func TestStatusTailKeepsOnlyProblems(t *testing.T) {
	tail := &statusTail{limit: 10}

	tail.record("starting up", logger.LevelInfo)
	tail.record("saved a file", logger.LevelSuccess)
	tail.record("folder looks empty", logger.LevelWarning)
	tail.record("download failed", logger.LevelError)

	assert.Equal(t, []string{"folder looks empty", "download failed"}, tail.lines)
}

func TestStatusTailBounded(t *testing.T) {
	tail := &statusTail{limit: 3}
	for i := 0; i < 7; i++ {
		tail.record(fmt.Sprintf("problem %d", i), logger.LevelError)
	}

	assert.Equal(t, []string{"problem 4", "problem 5", "problem 6"}, tail.lines)
}

func TestStatusTailReceivesLoggerOutput(t *testing.T) {
	tail := &statusTail{limit: 10}
	logger.SetCallback(tail.record)
	defer logger.SetCallback(nil)

	logger.Info("not a problem")
	logger.Warn("cabinet row unreadable")
	logger.Error("HTTP 403 on %s", "doc.pdf")

	assert.Len(t, tail.lines, 2)
	assert.Contains(t, tail.lines[0], "cabinet row unreadable")
	assert.Contains(t, tail.lines[1], "HTTP 403 on doc.pdf")
}
