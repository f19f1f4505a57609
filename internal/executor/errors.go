package executor

import "errors"

// ErrNotConfigured — Executor создан без LLM или браузера.
var ErrNotConfigured = errors.New("executor not configured")
