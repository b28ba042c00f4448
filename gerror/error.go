package gerror

import "fmt"

type GlowstoneError struct {
	Err string
}

func New(format string, args ...interface{}) *GlowstoneError {
	return &GlowstoneError{Err: fmt.Sprintf(format, args...)}
}

func (e *GlowstoneError) Error() string {
	return e.Err
}
