package session

import "trackswift/internal/models"

// Status is where the authentication machine currently sits.
type Status int

const (
	Unauthenticated Status = iota
	Loading
	Authenticated
	Error
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is the full value the machine carries between events.
type State struct {
	Status Status
	Token  string
	User   *models.User
	Err    string
}

// Event is one of the tagged inputs below.
type Event interface {
	event()
}

type (
	// Started fires when the application comes up.
	Started struct{}
	// Restored carries a token and profile read back from storage.
	Restored struct {
		Token string
		User  models.User
	}
	// RestoreMissing means storage held no complete session.
	RestoreMissing struct{}
	// LoggedIn follows a successful login or registration.
	LoggedIn struct {
		Token string
		User  models.User
	}
	LoggedOut    struct{}
	Unauthorized struct{}
	// Failed reports a request failure.
	Failed struct {
		Err error
	}
	ErrorCleared struct{}
)

func (Started) event()        {}
func (Restored) event()       {}
func (RestoreMissing) event() {}
func (LoggedIn) event()       {}
func (LoggedOut) event()      {}
func (Unauthorized) event()   {}
func (Failed) event()         {}
func (ErrorCleared) event()   {}

// Transition is the pure step function of the machine. It never touches
// storage; Session does that around it.
func Transition(s State, e Event) State {
	switch ev := e.(type) {
	case Started:
		return State{Status: Loading}

	case Restored:
		if s.Status != Loading {
			return s
		}
		user := ev.User
		return State{Status: Authenticated, Token: ev.Token, User: &user}

	case RestoreMissing:
		if s.Status != Loading {
			return s
		}
		return State{Status: Unauthenticated}

	case LoggedIn:
		user := ev.User
		return State{Status: Authenticated, Token: ev.Token, User: &user}

	case LoggedOut, Unauthorized:
		return State{Status: Unauthenticated}

	case Failed:
		msg := "request failed"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		if s.Status == Loading {
			return State{Status: Unauthenticated, Err: msg}
		}
		s.Status = Error
		s.Err = msg
		return s

	case ErrorCleared:
		s.Err = ""
		if s.Status == Error {
			if s.Token != "" {
				s.Status = Authenticated
			} else {
				s.Status = Unauthenticated
			}
		}
		return s
	}
	return s
}
