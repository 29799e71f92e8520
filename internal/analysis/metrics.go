package analysis

import (
	"context"

	"github.com/dusk-indust/vardeps/internal/graph"
)

// Metrics is the structural summary of a graph. Each field is one metric;
// a sub-query that failed leaves its field at the zero value and adds an
// entry to Failures.
type Metrics struct {
	TotalVariables    int               `json:"totalVariables"`
	TotalDependencies int               `json:"totalDependencies"`
	MostDependedOn    []graph.Ranked    `json:"mostDependedOn"`   // fan-in leaderboard
	MostDependencies  []graph.Ranked    `json:"mostDependencies"` // fan-out leaderboard
	Roots             []string          `json:"roots"`            // in-degree 0
	Leaves            []string          `json:"leaves"`           // out-degree 0
	Isolated          []string          `json:"isolated"`         // both 0
	Components        int               `json:"components"`
	LargestComponent  int               `json:"largestComponent"`
	CycleCount        int               `json:"cycleCount"`
	Failures          []SubQueryFailure `json:"failures,omitempty"`
}

// SubQueryFailure records a metric that could not be computed.
type SubQueryFailure struct {
	Metric string `json:"metric"`
	Error  string `json:"error"`
}

// MetricsOptions configures ComputeMetrics.
type MetricsOptions struct {
	Leaderboard int // entries per leaderboard; default 10
}

// ComputeMetrics summarizes s. Counts and leaderboards come from src, which
// may be a store that answers them directly; when src is nil the snapshot
// answers itself. Root, leaf and isolated sets come from one degree pass
// over the snapshot.
func ComputeMetrics(ctx context.Context, s *Snapshot, src graph.Aggregator, opts MetricsOptions) Metrics {
	if src == nil {
		src = s
	}
	k := opts.Leaderboard
	if k <= 0 {
		k = 10
	}

	var m Metrics
	fail := func(metric string, err error) {
		m.Failures = append(m.Failures, SubQueryFailure{Metric: metric, Error: err.Error()})
	}

	if n, err := src.CountVariables(ctx); err != nil {
		fail("total_variables", err)
	} else {
		m.TotalVariables = n
	}
	if n, err := src.CountEdges(ctx); err != nil {
		fail("total_dependencies", err)
	} else {
		m.TotalDependencies = n
	}
	if top, err := src.TopFanIn(ctx, k); err != nil {
		fail("most_depended_on", err)
		m.MostDependedOn = []graph.Ranked{}
	} else {
		m.MostDependedOn = top
	}
	if top, err := src.TopFanOut(ctx, k); err != nil {
		fail("most_dependencies", err)
		m.MostDependencies = []graph.Ranked{}
	} else {
		m.MostDependencies = top
	}

	m.Roots, m.Leaves, m.Isolated = degreeClasses(s)

	comps := Components(s)
	m.Components = len(comps)
	if len(comps) > 0 {
		m.LargestComponent = len(comps[0])
	}
	m.CycleCount = len(DetectCycles(s, CycleOptions{}))
	return m
}

// NeverDependedOn lists the variables nothing reads. This is the single
// category behind both "root variables" and "unused variables".
func NeverDependedOn(s *Snapshot) []string {
	roots, _, _ := degreeClasses(s)
	return roots
}

// degreeClasses partitions names by degree in one pass. A self-loop counts
// as both an incoming and an outgoing edge, so a variable that only reads
// itself is neither root nor leaf.
func degreeClasses(s *Snapshot) (roots, leaves, isolated []string) {
	roots, leaves, isolated = []string{}, []string{}, []string{}
	for i, name := range s.names {
		in, out := len(s.in[i]), len(s.out[i])
		if in == 0 {
			roots = append(roots, name)
		}
		if out == 0 {
			leaves = append(leaves, name)
		}
		if in == 0 && out == 0 {
			isolated = append(isolated, name)
		}
	}
	return roots, leaves, isolated
}
