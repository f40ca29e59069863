package assistant

import (
	"errors"
	"fmt"
)

// Kind classifies an assistant error for the transport layer.
type Kind int

const (
	// KindInvalidInput is a client mistake the user can correct.
	KindInvalidInput Kind = iota + 1
	// KindInternal is a server side failure. Its message never carries the cause.
	KindInternal
)

// User facing messages.
const (
	MsgNoFileSelected   = "No file selected"
	MsgInvalidFileType  = "Invalid file type. Only PDF files are allowed"
	MsgFileTooLarge     = "File is too large. Maximum size is 16MB"
	MsgNoReadableText   = "Could not extract text from PDF. Please ensure the PDF contains readable text"
	MsgContentTooLarge  = "PDF content is too large for processing. Please use a smaller document or use text chunking."
	MsgProcessingFailed = "Error processing PDF"
	MsgUploadSucceeded  = "PDF uploaded successfully. You can now ask questions about it."
	MsgEmptyMessage     = "Please enter a message"
	MsgNoDocument       = "No PDF content found. Please upload a PDF first"
	MsgEmptyAnswer      = "Could not generate response. Please try again"
	MsgRequestFailed    = "An error occurred while processing your request"
)

// Error carries a user facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
