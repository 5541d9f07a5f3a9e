package main

import (
	"object-whisper/cmd/o2t/cmd"

	// Register inference backends
	_ "object-whisper/internal/app/inference/openai"
	_ "object-whisper/internal/app/inference/whispercpp"
	_ "object-whisper/internal/app/inference/whisperserver"
)

func main() {
	cmd.Execute()
}
