package testutil

import (
	"object-whisper/internal/app/inference"
	"object-whisper/internal/app/storage"
)

// SampleBucket is the bucket name used by NewSampleStore.
const SampleBucket = "audio"

// SampleAudio maps object keys to fake audio payloads.
var SampleAudio = map[string][]byte{
	"sample-1":              []byte("ID3\x03\x00\x00\x00\x00\x00\x00 english speech sample"),
	"podcast/episode-2.mp3": []byte("ID3\x03\x00\x00\x00\x00\x00\x00 podcast episode"),
	"silence.wav":           []byte("RIFF\x24\x00\x00\x00WAVEfmt "),
}

// NewSampleStore returns an in-memory store holding SampleAudio.
func NewSampleStore() *storage.Memory {
	store := storage.NewMemory(SampleBucket)
	for key, data := range SampleAudio {
		store.Put(key, data)
	}
	return store
}

// EnglishResult is the inference result for "sample-1".
func EnglishResult() *inference.Result {
	return &inference.Result{
		Language: "en",
		Text:     "And so, my fellow Americans, ask not what your country can do for you, ask what you can do for your country.",
	}
}
