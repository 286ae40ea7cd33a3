package rules

import "strings"

// Rule is a single best-practice check evaluated against one cluster. Evaluate
// is a pure function: for well-formed input it always returns a verdict and
// never panics. A missing optional profile counts as "feature absent" and
// therefore NonCompliant, not as an evaluation error.
type Rule struct {
	Name     string
	Evaluate func(cfg ClusterConfiguration, facts SupplementaryFacts) CheckResult
}

// Rule names, also used as CSV column headers.
const (
	RulePrivateCluster           = "PrivateCluster"
	RulePrivateClusterPublicFqdn = "PrivateClusterPublicFqdn"
	RuleLoadBalancerWithoutIP    = "LoadBalancerWithoutPublicIp"
	RuleNodePoolSubnetWithNSG    = "NodePoolSubnetWithNSG"
	RuleNetworkPolicyAzureCalico = "NetworkPolicyAzureCalico"
	RuleKubernetesVersion        = "IsKubernetesVersionSupported"
	RuleContainerInsights        = "ContainerInsights"
	RuleDiagnosticSettings       = "DiagnosticSettings"
	RuleUserAssignedIdentity     = "UserAssignedIdentity"
	RulePodIdentityDeprecated    = "PodIdentityDeprecated"
	RuleMicrosoftDefender        = "MicrosoftDefender"
	RuleRBAC                     = "RBAC"
	RuleAzureADIntegration       = "AzureADIntegration"
	RuleKMSConfigured            = "KMSConfigured"
	RuleAzurePolicy              = "AzurePolicy"
	RuleSystemAndUserNodePool    = "SystemAndUserNodePool"
	RuleAvailabilityZones        = "AvailabilityZones"
	RuleUptimeSLA                = "UptimeSlaConfiguration"
)

// Registry returns the fixed rule set in report column order. Adding a rule
// means appending an entry here; the report header derives from this slice.
func Registry() []Rule {
	return []Rule{
		{RulePrivateCluster, privateCluster},
		{RulePrivateClusterPublicFqdn, privateClusterPublicFqdn},
		{RuleLoadBalancerWithoutIP, loadBalancerWithoutPublicIP},
		{RuleNodePoolSubnetWithNSG, nodePoolSubnetWithNSG},
		{RuleNetworkPolicyAzureCalico, networkPolicyAzureCalico},
		{RuleKubernetesVersion, kubernetesVersionSupported},
		{RuleContainerInsights, containerInsights},
		{RuleDiagnosticSettings, diagnosticSettings},
		{RuleUserAssignedIdentity, userAssignedIdentity},
		{RulePodIdentityDeprecated, podIdentityDeprecated},
		{RuleMicrosoftDefender, microsoftDefender},
		{RuleRBAC, rbacEnabled},
		{RuleAzureADIntegration, azureADIntegration},
		{RuleKMSConfigured, kmsConfigured},
		{RuleAzurePolicy, azurePolicy},
		{RuleSystemAndUserNodePool, systemAndUserNodePool},
		{RuleAvailabilityZones, availabilityZones},
		{RuleUptimeSLA, uptimeSLA},
	}
}

// RuleNames returns the registry's rule names in column order.
func RuleNames() []string {
	registry := Registry()
	names := make([]string, 0, len(registry))
	for _, rule := range registry {
		names = append(names, rule.Name)
	}
	return names
}

// EvaluateAll runs every registered rule against the cluster and returns the
// verdicts keyed by rule name.
func EvaluateAll(cfg ClusterConfiguration, facts SupplementaryFacts) map[string]CheckResult {
	results := make(map[string]CheckResult)
	for _, rule := range Registry() {
		results[rule.Name] = rule.Evaluate(cfg, facts)
	}
	return results
}

func privateCluster(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.PrivateCluster)
}

func privateClusterPublicFqdn(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.PrivateFQDN != "")
}

func loadBalancerWithoutPublicIP(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.OutboundPublicIPCount == 0)
}

// nodePoolSubnetWithNSG requires every node pool to reference an explicit
// subnet that has a network security group attached. A pool without a subnet
// fails the whole check immediately.
func nodePoolSubnetWithNSG(cfg ClusterConfiguration, facts SupplementaryFacts) CheckResult {
	if len(cfg.NodePools) == 0 {
		return NonCompliant
	}
	for _, pool := range cfg.NodePools {
		if pool.SubnetID == "" {
			return NonCompliant
		}
		if !facts.SubnetHasNSG[pool.SubnetID] {
			return NonCompliant
		}
	}
	return Compliant
}

func networkPolicyAzureCalico(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	policy := strings.ToLower(cfg.NetworkPolicy)
	return resultOf(policy == "azure" || policy == "calico")
}

// kubernetesVersionSupported checks the control plane version and every node
// pool's orchestrator version against the region's supported set. A pool
// without an explicit orchestrator version inherits the control plane version.
func kubernetesVersionSupported(cfg ClusterConfiguration, facts SupplementaryFacts) CheckResult {
	if len(facts.SupportedVersions) == 0 {
		return NonCompliant
	}
	if !facts.SupportedVersions.Contains(cfg.KubernetesVersion) {
		return NonCompliant
	}
	for _, pool := range cfg.NodePools {
		poolVersion := pool.OrchestratorVersion
		if poolVersion == "" {
			poolVersion = cfg.KubernetesVersion
		}
		if !facts.SupportedVersions.Contains(poolVersion) {
			return NonCompliant
		}
	}
	return Compliant
}

func containerInsights(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.MonitoringEnabled)
}

func diagnosticSettings(_ ClusterConfiguration, facts SupplementaryFacts) CheckResult {
	return resultOf(facts.DiagnosticSettingsExist)
}

func userAssignedIdentity(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.IdentityType == IdentityUserAssigned || cfg.IdentityType == IdentitySystemAssigned)
}

// podIdentityDeprecated passes when the deprecated pod identity add-on is NOT
// configured. Absence is the compliant state.
func podIdentityDeprecated(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(!cfg.PodIdentityConfigured)
}

func microsoftDefender(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.DefenderEnabled)
}

func rbacEnabled(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.RBACEnabled)
}

func azureADIntegration(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.AADIntegration)
}

func kmsConfigured(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.KMSEnabled)
}

func azurePolicy(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	return resultOf(cfg.PolicyAddonEnabled)
}

func systemAndUserNodePool(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	for _, pool := range cfg.NodePools {
		if pool.Mode == NodePoolModeUser {
			return Compliant
		}
	}
	return NonCompliant
}

// availabilityZones requires every node pool to span at least two zones with
// at least two nodes; a single violating pool fails the check.
func availabilityZones(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	if len(cfg.NodePools) == 0 {
		return NonCompliant
	}
	for _, pool := range cfg.NodePools {
		if len(pool.AvailabilityZones) < 2 || pool.Count < 2 {
			return NonCompliant
		}
	}
	return Compliant
}

func uptimeSLA(cfg ClusterConfiguration, _ SupplementaryFacts) CheckResult {
	tier := strings.ToLower(cfg.SKUTier)
	return resultOf(tier != "" && tier != "free")
}
