package model

import "fmt"

// Message IDs for user-visible input errors. They double as i18n keys.
const (
	MsgMissingQuestionOrDocument = "MissingQuestionOrDocument"
	MsgMissingDocument           = "MissingDocument"
	MsgMissingQuestions          = "MissingQuestions"
	MsgMissingFile               = "MissingFile"
)

// MissingInputError reports a required request field that was absent or empty.
type MissingInputError struct {
	Field     string
	MessageID string
	Message   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %q: %s", e.Field, e.Message)
}

// NewMissingInput builds a MissingInputError.
func NewMissingInput(field, messageID, message string) *MissingInputError {
	return &MissingInputError{Field: field, MessageID: messageID, Message: message}
}

// ExtractionError reports a failure to turn an uploaded file into text.
type ExtractionError struct {
	Path  string
	Stage string // "open", "decode", "render", "recognize", "kind"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
