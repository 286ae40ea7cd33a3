package rules

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// CheckResult is the two-valued verdict of a single compliance rule.
type CheckResult int

const (
	// NonCompliant means the cluster fails the rule's pass condition.
	NonCompliant CheckResult = iota
	// Compliant means the cluster satisfies the rule's pass condition.
	Compliant
)

// String renders the verdict using the sentinels persisted in the CSV report.
func (r CheckResult) String() string {
	if r == Compliant {
		return "OK"
	}
	return "KO"
}

// resultOf converts a boolean pass condition into a CheckResult.
func resultOf(pass bool) CheckResult {
	if pass {
		return Compliant
	}
	return NonCompliant
}

// Identity types reported by the managed cluster resource.
const (
	IdentityNone           = "None"
	IdentitySystemAssigned = "SystemAssigned"
	IdentityUserAssigned   = "UserAssigned"
)

// Node pool modes.
const (
	NodePoolModeSystem = "System"
	NodePoolModeUser   = "User"
)

// ClusterConfiguration is the flattened view of an AKS managed cluster that the
// rule set evaluates. It is populated once per cluster by the data provider and
// never mutated afterwards.
type ClusterConfiguration struct {
	SubscriptionID    string
	ResourceGroup     string
	Name              string
	ResourceID        string
	ProvisioningState string
	Region            string
	NodeResourceGroup string
	KubernetesVersion string
	SKUTier           string

	NodePools []NodePoolConfiguration

	// Network profile
	PrivateCluster        bool
	PrivateFQDN           string
	OutboundPublicIPCount int
	NetworkPolicy         string

	// Identity and access
	IdentityType   string
	AADIntegration bool
	RBACEnabled    bool

	// Security profile
	DefenderEnabled bool
	KMSEnabled      bool

	// Add-ons
	MonitoringEnabled     bool
	PolicyAddonEnabled    bool
	PodIdentityConfigured bool
}

// NodePoolConfiguration describes a single agent pool of the cluster.
type NodePoolConfiguration struct {
	Name                string
	Mode                string
	Count               int
	AvailabilityZones   []string
	SubnetID            string
	OrchestratorVersion string
}

// SupplementaryFacts carries the lookups a rule needs beyond the cluster
// resource itself: subnet NSG attachment, diagnostic settings existence and the
// Kubernetes versions currently supported in the cluster's region.
type SupplementaryFacts struct {
	SubnetHasNSG            map[string]bool
	DiagnosticSettingsExist bool
	SupportedVersions       VersionSet
}

// VersionSet is a set of Kubernetes versions keyed by their canonical form, so
// that "v1.28.3" and "1.28.3" compare equal.
type VersionSet map[string]struct{}

// NewVersionSet builds a set from the given version strings.
func NewVersionSet(versions ...string) VersionSet {
	s := make(VersionSet, len(versions))
	for _, v := range versions {
		s.Add(v)
	}
	return s
}

// Add inserts a version into the set.
func (s VersionSet) Add(v string) {
	s[canonicalVersion(v)] = struct{}{}
}

// Contains reports whether the set holds the given version.
func (s VersionSet) Contains(v string) bool {
	_, ok := s[canonicalVersion(v)]
	return ok
}

// canonicalVersion normalizes a version string to its core numeric form.
// Strings that do not parse as versions are kept verbatim so membership checks
// still behave sensibly for malformed input.
func canonicalVersion(raw string) string {
	parsed, err := version.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return parsed.Core().String()
}
