package registry

import (
	"fmt"

	"github.com/go-sif/sifkit"
	serrors "github.com/go-sif/sifkit/errors"
	"github.com/go-sif/sifkit/internal/plugin"
	"github.com/go-sif/sifkit/logging"
)

// Build constructs a fully-populated Registry: primitive defaults, built-in
// record strategies, family strategies, the accumulator contribution, and
// finally every registrar candidate registered via sifkit.RegisterRegistrar,
// in registration order. Candidates which fail are skipped and logged at
// debug level; failures in any earlier step are fatal and returned as a
// ConfigurationError.
func Build() (*Registry, error) {
	reg, report, err := BuildWithReport()
	if err != nil {
		return nil, err
	}
	for _, o := range report.Skipped() {
		logging.Logf(logging.DebugLevel, "Skipped registrar %s: %v", o.Name, o.Err)
	}
	return reg, nil
}

// BuildWithReport is Build, additionally returning the per-candidate Report
// for the registrar contributions
func BuildWithReport() (*Registry, *Report, error) {
	reg := createRegistry()
	if err := registerDefaults(reg); err != nil {
		return nil, nil, serrors.ConfigurationError{Err: err}
	}
	if err := registerBuiltins(reg); err != nil {
		return nil, nil, serrors.ConfigurationError{Err: err}
	}
	if err := registerFamilies(reg); err != nil {
		return nil, nil, serrors.ConfigurationError{Err: err}
	}
	if err := (accumulatorRegistrar{}).Contribute(reg); err != nil {
		return nil, nil, serrors.ConfigurationError{Err: err}
	}
	plugin.SealTypes()
	report := &Report{}
	for _, cand := range plugin.Candidates() {
		contribute(reg, cand, report)
	}
	reg.frozen = true
	return reg, report, nil
}

// contribute runs a single registrar candidate, isolating any failure to
// that candidate. A candidate is skipped if it does not satisfy the
// Registrar capability, if its Contribute returns an error, or if it panics.
func contribute(reg *Registry, cand plugin.Candidate, report *Report) {
	registrar, ok := cand.Value.(sifkit.Registrar)
	if !ok {
		report.add(cand.Name, fmt.Errorf("candidate %T does not implement Registrar", cand.Value))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			report.add(cand.Name, fmt.Errorf("registrar panicked: %v", r))
		}
	}()
	if err := registrar.Contribute(reg); err != nil {
		report.add(cand.Name, err)
		return
	}
	report.add(cand.Name, nil)
}
