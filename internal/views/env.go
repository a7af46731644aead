// Package views is the screen logic of the client: the list/form flows of
// every collection, the daily sales sheet, user administration and report
// export. Rendering is left to the caller; views talk to the user only
// through a Notifier and a Confirmer.
package views

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trackswift/internal/apiclient"
	"trackswift/internal/events"
	"trackswift/internal/query"
	"trackswift/internal/session"
)

// Notifier shows transient success and error messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// Env is everything a view needs.
type Env struct {
	API     *apiclient.Client
	Session *session.Session
	Cache   *query.Cache
	Bus     *events.Bus
	Notify  Notifier
	Confirm Confirmer
	Log     zerolog.Logger
	Now     func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Fail reports a request error. A 401 has already signed the user out and
// is not reported; server messages win over the fallback.
func (e *Env) Fail(err error, fallback string) {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return
	}
	e.Log.Debug().Err(err).Msg(fallback)

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if msgs := apiErr.Messages(); len(msgs) > 0 {
			for _, msg := range msgs {
				e.Notify.Error(msg)
			}
			return
		}
	}
	e.Notify.Error(fallback)
}

// --- FORM ERRORS ---

// FieldError is a validation failure of one form field.
type FieldError struct {
	Field   string
	Message string
}

// FormError is returned when a form fails validation. Nothing was sent.
type FormError struct {
	Fields []FieldError
}

func (e *FormError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *FormError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *FormError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// startOfDay and endOfDay bound the local calendar day of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Millisecond)
}
