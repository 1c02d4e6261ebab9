package plugin

import (
	"log"
	"sync"
)

// Candidate is a named registrar candidate. Candidates are held untyped;
// the registry builder confirms that each one actually satisfies the
// Registrar capability, skipping those which do not.
type Candidate struct {
	Name  string
	Value interface{}
}

var (
	mu         sync.Mutex
	sealed     bool
	candidates []Candidate
	names      = make(map[string]bool)
)

// Register appends a named registrar candidate to the process-wide list.
// Registration order fixes contribution order, and therefore family-match
// precedence, across every registry built in this process. Panics if called
// after Seal, or if the name is already taken.
func Register(name string, candidate interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if sealed {
		log.Panicf("Registrar %s registered after the first registry build - register during init() instead", name)
	}
	if names[name] {
		log.Panicf("Registrar %s is already registered", name)
	}
	names[name] = true
	candidates = append(candidates, Candidate{Name: name, Value: candidate})
}

// Candidates returns the registered candidates in registration order,
// sealing the list against further registration. Every registry build calls
// this, so the first build freezes the process-wide registration window.
func Candidates() []Candidate {
	mu.Lock()
	defer mu.Unlock()
	sealed = true
	result := make([]Candidate, len(candidates))
	copy(result, candidates)
	return result
}
