package model

import "time"

// Trigger reasons.
const (
	ReasonStartup = "startup"
	ReasonPoll    = "poll"
	ReasonNotify  = "notify"
	ReasonManual  = "manual"
)

// Trigger asks the refresh pipeline for a new ranking pass.
type Trigger struct {
	ID     string    // unique id, used for log correlation
	Reason string    // one of the Reason* constants
	At     time.Time // when the trigger was raised
}
