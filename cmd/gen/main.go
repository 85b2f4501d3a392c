package main

import (
	"OldunMu/internal/repository"
	"OldunMu/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
