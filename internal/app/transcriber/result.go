package transcriber

const (
	// ErrorLanguage is the language tag of a result whose object could not be fetched.
	ErrorLanguage = "error"
	// RetrievalFailureText is the text of a result whose object could not be fetched.
	RetrievalFailureText = "Could not retrieve file"
)

// Result is the outcome of one transcription.
type Result struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	// Err is the storage error behind a retrieval failure.
	Err error `json:"-"`
}

// RetrievalFailed reports whether the result is the retrieval-failure sentinel.
func (r Result) RetrievalFailed() bool {
	return r.Language == ErrorLanguage && r.Text == RetrievalFailureText
}

// Description is the text, followed by the underlying cause when there is one.
func (r Result) Description() string {
	if r.Err == nil {
		return r.Text
	}
	return r.Text + ": " + r.Err.Error()
}

func retrievalFailure(err error) Result {
	return Result{Language: ErrorLanguage, Text: RetrievalFailureText, Err: err}
}
