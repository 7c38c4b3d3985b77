package domain

// ConsistencyCheck is one named, independently scored heuristic over a
// finished image set.
type ConsistencyCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Score  int    `json:"score"`
}

// ConsistencyValidationResult is produced once per completed job and never
// mutated after it is attached.
type ConsistencyValidationResult struct {
	Passed          bool               `json:"passed"`
	Score           int                `json:"score"`
	Checks          []ConsistencyCheck `json:"checks"`
	Warnings        []string           `json:"warnings,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// Clone returns a deep copy for repository snapshots.
func (r *ConsistencyValidationResult) Clone() *ConsistencyValidationResult {
	cp := *r
	if r.Checks != nil {
		cp.Checks = make([]ConsistencyCheck, len(r.Checks))
		copy(cp.Checks, r.Checks)
	}
	if r.Warnings != nil {
		cp.Warnings = append([]string(nil), r.Warnings...)
	}
	if r.Recommendations != nil {
		cp.Recommendations = append([]string(nil), r.Recommendations...)
	}
	return &cp
}
