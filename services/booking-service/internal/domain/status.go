package domain

import "strings"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"

	// Written by other clients; never set here.
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

// BookingStatuses is the set an operator may request.
var BookingStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded}

// transitions lists every legal move. Same-state requests are handled by the caller.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusRefunded},
}

func NormalizeStatus(s string) Status {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StatusPending
	}
	return st
}

func ParseBookingStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, ok := range BookingStatuses {
		if st == ok {
			return st, nil
		}
	}
	return "", &InvalidValueError{Field: "status", Value: s, Allowed: statusStrings(BookingStatuses)}
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the states a booking in from may move to.
func NextStatuses(from Status) []string {
	return statusStrings(transitions[from])
}

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
	PayoutFailed     PayoutStatus = "failed"
)

var PayoutStatuses = []PayoutStatus{PayoutPending, PayoutProcessing, PayoutPaid, PayoutFailed}

func ParsePayoutStatus(s string) (PayoutStatus, error) {
	st := PayoutStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, ok := range PayoutStatuses {
		if st == ok {
			return st, nil
		}
	}
	allowed := make([]string, len(PayoutStatuses))
	for i, p := range PayoutStatuses {
		allowed[i] = string(p)
	}
	return "", &InvalidValueError{Field: "status", Value: s, Allowed: allowed}
}

func statusStrings(in []Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
