package fallback

import (
	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

type Phase string

const (
	PhaseDiscovery Phase = "discovery"
	PhaseStatic    Phase = "static"
)

type stepKind int

const (
	stepDiscover stepKind = iota
	stepAttempt
)

// step is one entry of the attempt plan: either a discovery call for
// an API version or a generation attempt for a candidate.
type step struct {
	kind      stepKind
	phase     Phase
	version   string
	candidate model.Candidate
}

// initialPlan lays out both phases: one discovery step per version,
// then every (version, preferred name) pair. Discovery steps expand into
// attempt steps in place when they run.
func initialPlan(p Policy) []step {
	steps := make([]step, 0, len(p.APIVersions)*(1+len(p.PreferredModels)))
	for _, v := range p.APIVersions {
		steps = append(steps, step{kind: stepDiscover, phase: PhaseDiscovery, version: v})
	}
	for _, v := range p.APIVersions {
		for _, name := range p.PreferredModels {
			steps = append(steps, step{
				kind:      stepAttempt,
				phase:     PhaseStatic,
				version:   v,
				candidate: model.Candidate{Name: name, APIVersion: v, SupportsGeneration: true},
			})
		}
	}
	return steps
}

func discoveredSteps(cands []model.Candidate) []step {
	steps := make([]step, len(cands))
	for i, c := range cands {
		steps[i] = step{kind: stepAttempt, phase: PhaseDiscovery, version: c.APIVersion, candidate: c}
	}
	return steps
}
