package search

// State is a step of one search session. A session only ever moves forward
// through these in declaration order; failures jump straight to Closed.
type State int

const (
	Idle State = iota
	SessionOpen
	Navigated
	FormReady
	FieldsApplied
	Submitted
	ResultsSettled
	Extracted
	Closed
)

var stateNames = [...]string{
	Idle:           "idle",
	SessionOpen:    "session_open",
	Navigated:      "navigated",
	FormReady:      "form_ready",
	FieldsApplied:  "fields_applied",
	Submitted:      "submitted",
	ResultsSettled: "results_settled",
	Extracted:      "extracted",
	Closed:         "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// Observer is told about every state the session enters, Closed included.
type Observer func(State)
