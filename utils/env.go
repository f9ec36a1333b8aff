package utils

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv reads .env into the environment. Variables already set win.
func LoadEnv(verbose bool) {
	if err := godotenv.Load(); err != nil && verbose {
		fmt.Println("ℹ️  No .env file found, continuing...")
	}
}

// NewLogger returns a development logger when verbose and a no-op logger
// otherwise.
func NewLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
