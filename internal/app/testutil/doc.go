// Package testutil provides mocks and fixtures shared by the package tests.
//
// MockModel, MockAccelerator and MockTranscriptionService are testify mocks
// with call tracking. fixtures.go seeds a storage.Memory with sample audio
// objects.
//
// # Usage Examples
//
//	model := testutil.NewMockModel(t)
//	model.ExpectTranscribe(inference.PrecisionFull, testutil.EnglishResult(), nil)
//	accel := testutil.NewMockAccelerator(t, false).Expect()
//	store := testutil.NewSampleStore()
//	wf := transcriber.NewWorkflow(store, model, accel, nil)
package testutil
