package testutil

import (
	"github.com/johnrirwin/newsfeed/internal/logging"
)

// NullLogger returns a logger that only reports errors, so a failing test
// still shows why a feed was dropped.
func NullLogger() *logging.Logger {
	return logging.New(logging.LevelError)
}
