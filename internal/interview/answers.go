package interview

// Answers holds the transcribed answer for each interview step. It is also
// the request body of the workout endpoint.
type Answers struct {
	Time           string `json:"time"`
	EnergyLevel    string `json:"energyLevel"`
	DesiredOutcome string `json:"desiredOutcome"`
}

// Set stores value as the answer for step. Unknown steps are ignored.
func (a *Answers) Set(step Step, value string) {
	if !step.Valid() {
		return
	}

	*steps[step].field(a) = value
}

// Get returns the answer stored for step.
func (a Answers) Get(step Step) string {
	if !step.Valid() {
		return ""
	}

	return *steps[step].field(&a)
}

// Complete reports whether every step has an answer.
func (a Answers) Complete() bool {
	for _, s := range Steps() {
		if a.Get(s) == "" {
			return false
		}
	}

	return true
}

// Empty reports whether no step has an answer yet.
func (a Answers) Empty() bool {
	return a == Answers{}
}
