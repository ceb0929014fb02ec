package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// OutputBudgetPhrases are substrings of OpenAI-compatible 400 responses that
// indicate the model ran out of output budget mid-answer. Such failures are
// transient from the pipeline's point of view and worth retrying.
var OutputBudgetPhrases = []string{
	"higher max_tokens",
	"could not finish",
}

// Error is a failed provider call. StatusCode is the HTTP status when one was
// received; 0 means the call produced no status (connection refused, malformed
// response body, and similar).
type Error struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the call is worth retrying: rate limiting (429),
// server-side failures (>=500), responses with no status at all, or a 400 that
// matches a known output-budget phrase.
func (e *Error) Recoverable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusBadRequest:
		return hasOutputBudgetPhrase(e.Message)
	}
	return false
}

func hasOutputBudgetPhrase(message string) bool {
	message = strings.ToLower(message)
	for _, phrase := range OutputBudgetPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

// IsCancelled reports whether err came from a cancelled run. Cancellation is
// terminal: it is never retried, only unwound.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Recoverable classifies an error from any stage of the pipeline. Cancellation
// is terminal; provider errors answer for themselves; network failures and
// timeouts are always transient; everything else is treated as a bug and
// propagated immediately.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	if IsCancelled(err) {
		return false
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Recoverable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne)
}
