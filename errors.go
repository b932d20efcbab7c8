package lumen

import (
	"errors"
	"log"
)

var (
	ErrUnknownEffect     = errors.New("lumen: unknown effect")
	ErrUnknownTheme      = errors.New("lumen: unknown theme")
	ErrDuplicateEffect   = errors.New("lumen: duplicate effect")
	ErrDuplicateTheme    = errors.New("lumen: duplicate theme")
	ErrInvalidParams     = errors.New("lumen: invalid params")
	ErrInvalidConfig     = errors.New("lumen: invalid config")
	ErrShaderUnavailable = errors.New("lumen: shader unavailable")
	ErrDisabled          = errors.New("lumen: engine disabled")
	ErrClosed            = errors.New("lumen: engine closed")
)

// safeCall runs one teardown step. A panic is logged and swallowed so the
// remaining steps still run.
func safeCall(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[lumen] teardown %s: %v", step, r)
		}
	}()
	fn()
}
