package registry

// An Outcome records the result of invoking one registered registrar
// candidate during a registry build
type Outcome struct {
	Name string // the name the candidate was registered under
	Err  error  // nil iff the candidate contributed successfully
}

// Skipped returns true iff the candidate was skipped
func (o Outcome) Skipped() bool {
	return o.Err != nil
}

// A Report collects per-candidate Outcomes from one registry build. A build
// succeeds even when individual candidates are skipped - the Report exists so
// that skips are diagnosable rather than silently discarded.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(name string, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, Err: err})
}

// Skipped returns the Outcomes for candidates which did not contribute
func (r *Report) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			skipped = append(skipped, o)
		}
	}
	return skipped
}
