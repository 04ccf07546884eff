package workflow

import (
	"errors"
)

// SecondaryOutcome records best-effort writes that failed after the primary
// write succeeded. Failures are logged and never rolled back or returned as errors.
type SecondaryOutcome struct {
	Failures []SecondaryFailure
}

type SecondaryFailure struct {
	Step string
	Err  error
}

const (
	StepPartyAttributes = "party_attributes"
	StepLineItems       = "line_items"
	StepDetails         = "details"
)

func (o *SecondaryOutcome) record(step string, err error) {
	if err == nil {
		return
	}
	o.Failures = append(o.Failures, SecondaryFailure{Step: step, Err: err})
}

func (o *SecondaryOutcome) merge(other SecondaryOutcome) {
	o.Failures = append(o.Failures, other.Failures...)
}

// OK is true when every secondary write succeeded.
func (o SecondaryOutcome) OK() bool {
	return len(o.Failures) == 0
}

func (o SecondaryOutcome) Failed(step string) bool {
	for _, f := range o.Failures {
		if f.Step == step {
			return true
		}
	}
	return false
}

func (o SecondaryOutcome) Err() error {
	errs := make([]error, 0, len(o.Failures))
	for _, f := range o.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
