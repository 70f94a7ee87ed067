package domain

import "fmt"

// ErrorKind classifies a failed operation so transports can pick a status
// without inspecting codes.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

const (
	ErrorTypeInvalidRequest  = "invalid_request"
	ErrorTypeProcessingError = "processing_error"
)

// FieldError is one validation finding against a request field.
type FieldError struct {
	Severity    MessageType `json:"type"`
	Code        string      `json:"code"`
	Param       string      `json:"param"`
	ContentType string      `json:"content_type"`
	Content     string      `json:"content"`
}

func NewFieldError(code, param, content string) FieldError {
	return FieldError{
		Severity:    MessageTypeError,
		Code:        code,
		Param:       param,
		ContentType: ContentTypePlain,
		Content:     content,
	}
}

// Error is the structured outcome of a rejected operation. Its JSON form is
// the error envelope returned to clients.
type Error struct {
	Kind    ErrorKind    `json:"-"`
	Type    string       `json:"type"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %s (%d field errors)", e.Code, e.Message, len(e.Errors))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so that errors carrying call-specific messages still
// match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}
