package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	Username string
	Token    string
}

// Session is an issued login.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// Credential is one entry of the fixed user table. Exactly one of Password and
// PasswordHash is expected to be set; PasswordHash takes precedence.
type Credential struct {
	Username     string
	Password     string
	PasswordHash string
}

// OutcomeKind classifies the result of a reservation rule.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeInvalidDay
	OutcomeInvalidHour
	OutcomeDailyLimit
	OutcomeSlotTaken
	OutcomeNoReservation
)

// String returns a stable label used in logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalidDay:
		return "invalid_day"
	case OutcomeInvalidHour:
		return "invalid_hour"
	case OutcomeDailyLimit:
		return "daily_limit"
	case OutcomeSlotTaken:
		return "slot_taken"
	case OutcomeNoReservation:
		return "no_reservation"
	default:
		return "unknown"
	}
}

// Outcome is the result of a reservation rule: a kind and a message suitable
// for end users. Rule violations are outcomes, not errors.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Success reports whether the operation was applied.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeOK
}
