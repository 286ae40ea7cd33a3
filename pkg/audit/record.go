package audit

import "github.com/flucianomsft/aks-assessment/pkg/rules"

// ClusterAssessmentRecord is the finished result of assessing one cluster. It
// is created fresh per cluster, populated in a single pass and handed to the
// report sink; it is never mutated afterwards or reused across clusters.
//
// When Err is set the assessment could not run: Results stays nil, the
// verdict columns are rendered empty and only the identity fields plus the
// error message reach the report. The record is still emitted, never dropped.
type ClusterAssessmentRecord struct {
	Subscription         string
	ResourceGroup        string
	ClusterName          string
	ProvisioningState    string
	Region               string
	ManagedResourceGroup string

	NodePoolCount  int
	TotalNodeCount int

	// Results holds one verdict per registered rule, keyed by rule name.
	Results   map[string]rules.CheckResult
	Compliant rules.CheckResult

	Err string
}

// Failed reports whether the cluster could not be assessed.
func (r *ClusterAssessmentRecord) Failed() bool {
	return r.Err != ""
}

// Subscription identifies one subscription visible to the caller's credential.
type Subscription struct {
	ID          string
	DisplayName string
}
