package rules

import (
	"reflect"
	"testing"
)

// compliantCluster returns a configuration that passes every rule, paired with
// matching supplementary facts. Tests mutate copies of it to flip single rules.
func compliantCluster() (ClusterConfiguration, SupplementaryFacts) {
	cfg := ClusterConfiguration{
		SubscriptionID:     "00000000-0000-0000-0000-000000000001",
		ResourceGroup:      "rg-prod",
		Name:               "aks-prod",
		ProvisioningState:  "Succeeded",
		Region:             "westeurope",
		KubernetesVersion:  "1.29.4",
		SKUTier:            "Standard",
		PrivateCluster:     true,
		PrivateFQDN:        "aks-prod.1234.privatelink.westeurope.azmk8s.io",
		NetworkPolicy:      "azure",
		IdentityType:       IdentityUserAssigned,
		AADIntegration:     true,
		RBACEnabled:        true,
		DefenderEnabled:    true,
		KMSEnabled:         true,
		MonitoringEnabled:  true,
		PolicyAddonEnabled: true,
		NodePools: []NodePoolConfiguration{
			{
				Name:                "system",
				Mode:                NodePoolModeSystem,
				Count:               3,
				AvailabilityZones:   []string{"1", "2", "3"},
				SubnetID:            "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/sys",
				OrchestratorVersion: "1.29.4",
			},
			{
				Name:                "work",
				Mode:                NodePoolModeUser,
				Count:               4,
				AvailabilityZones:   []string{"1", "2"},
				SubnetID:            "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/work",
				OrchestratorVersion: "1.29.4",
			},
		},
	}
	facts := SupplementaryFacts{
		SubnetHasNSG: map[string]bool{
			cfg.NodePools[0].SubnetID: true,
			cfg.NodePools[1].SubnetID: true,
		},
		DiagnosticSettingsExist: true,
		SupportedVersions:       NewVersionSet("1.28.9", "1.29.4", "1.30.1"),
	}
	return cfg, facts
}

func TestCompliantClusterPassesEveryRule(t *testing.T) {
	cfg, facts := compliantCluster()
	for name, result := range EvaluateAll(cfg, facts) {
		if result != Compliant {
			t.Errorf("rule %s = %v, want Compliant", name, result)
		}
	}
}

func TestIndividualRules(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		mutate func(cfg *ClusterConfiguration, facts *SupplementaryFacts)
		want   CheckResult
	}{
		{
			name: "public cluster fails PrivateCluster",
			rule: RulePrivateCluster,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.PrivateCluster = false
			},
			want: NonCompliant,
		},
		{
			name: "missing private fqdn fails PrivateClusterPublicFqdn",
			rule: RulePrivateClusterPublicFqdn,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.PrivateFQDN = ""
			},
			want: NonCompliant,
		},
		{
			name: "outbound public IPs fail LoadBalancerWithoutPublicIp",
			rule: RuleLoadBalancerWithoutIP,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.OutboundPublicIPCount = 2
			},
			want: NonCompliant,
		},
		{
			name: "pool without subnet fails NodePoolSubnetWithNSG",
			rule: RuleNodePoolSubnetWithNSG,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools[1].SubnetID = ""
			},
			want: NonCompliant,
		},
		{
			name: "subnet without NSG fails NodePoolSubnetWithNSG",
			rule: RuleNodePoolSubnetWithNSG,
			mutate: func(cfg *ClusterConfiguration, facts *SupplementaryFacts) {
				facts.SubnetHasNSG[cfg.NodePools[0].SubnetID] = false
			},
			want: NonCompliant,
		},
		{
			name: "no network policy fails NetworkPolicyAzureCalico",
			rule: RuleNetworkPolicyAzureCalico,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NetworkPolicy = ""
			},
			want: NonCompliant,
		},
		{
			name: "calico policy passes NetworkPolicyAzureCalico",
			rule: RuleNetworkPolicyAzureCalico,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NetworkPolicy = "Calico"
			},
			want: Compliant,
		},
		{
			name: "retired control plane version fails IsKubernetesVersionSupported",
			rule: RuleKubernetesVersion,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.KubernetesVersion = "1.24.9"
			},
			want: NonCompliant,
		},
		{
			name: "retired pool version fails IsKubernetesVersionSupported",
			rule: RuleKubernetesVersion,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools[1].OrchestratorVersion = "1.24.9"
			},
			want: NonCompliant,
		},
		{
			name: "empty supported set fails IsKubernetesVersionSupported",
			rule: RuleKubernetesVersion,
			mutate: func(_ *ClusterConfiguration, facts *SupplementaryFacts) {
				facts.SupportedVersions = NewVersionSet()
			},
			want: NonCompliant,
		},
		{
			name: "pool inheriting control plane version passes IsKubernetesVersionSupported",
			rule: RuleKubernetesVersion,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools[0].OrchestratorVersion = ""
			},
			want: Compliant,
		},
		{
			name: "v-prefixed version still matches the supported set",
			rule: RuleKubernetesVersion,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.KubernetesVersion = "v1.29.4"
			},
			want: Compliant,
		},
		{
			name: "monitoring add-on disabled fails ContainerInsights",
			rule: RuleContainerInsights,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.MonitoringEnabled = false
			},
			want: NonCompliant,
		},
		{
			name: "no diagnostic settings fails DiagnosticSettings",
			rule: RuleDiagnosticSettings,
			mutate: func(_ *ClusterConfiguration, facts *SupplementaryFacts) {
				facts.DiagnosticSettingsExist = false
			},
			want: NonCompliant,
		},
		{
			name: "no managed identity fails UserAssignedIdentity",
			rule: RuleUserAssignedIdentity,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.IdentityType = IdentityNone
			},
			want: NonCompliant,
		},
		{
			name: "system-assigned identity passes UserAssignedIdentity",
			rule: RuleUserAssignedIdentity,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.IdentityType = IdentitySystemAssigned
			},
			want: Compliant,
		},
		{
			name: "pod identity add-on fails PodIdentityDeprecated",
			rule: RulePodIdentityDeprecated,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.PodIdentityConfigured = true
			},
			want: NonCompliant,
		},
		{
			name: "no Defender profile fails MicrosoftDefender",
			rule: RuleMicrosoftDefender,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.DefenderEnabled = false
			},
			want: NonCompliant,
		},
		{
			name: "RBAC disabled fails RBAC",
			rule: RuleRBAC,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.RBACEnabled = false
			},
			want: NonCompliant,
		},
		{
			name: "no AAD profile fails AzureADIntegration",
			rule: RuleAzureADIntegration,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.AADIntegration = false
			},
			want: NonCompliant,
		},
		{
			name: "no KMS fails KMSConfigured",
			rule: RuleKMSConfigured,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.KMSEnabled = false
			},
			want: NonCompliant,
		},
		{
			name: "policy add-on disabled fails AzurePolicy",
			rule: RuleAzurePolicy,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.PolicyAddonEnabled = false
			},
			want: NonCompliant,
		},
		{
			name: "system-only cluster fails SystemAndUserNodePool",
			rule: RuleSystemAndUserNodePool,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools = cfg.NodePools[:1]
			},
			want: NonCompliant,
		},
		{
			name: "zoneless pool fails AvailabilityZones",
			rule: RuleAvailabilityZones,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools[0].AvailabilityZones = nil
			},
			want: NonCompliant,
		},
		{
			name: "single-node pool fails AvailabilityZones",
			rule: RuleAvailabilityZones,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.NodePools[1].Count = 1
			},
			want: NonCompliant,
		},
		{
			name: "free tier fails UptimeSlaConfiguration",
			rule: RuleUptimeSLA,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.SKUTier = "Free"
			},
			want: NonCompliant,
		},
		{
			name: "missing SKU tier fails UptimeSlaConfiguration",
			rule: RuleUptimeSLA,
			mutate: func(cfg *ClusterConfiguration, _ *SupplementaryFacts) {
				cfg.SKUTier = ""
			},
			want: NonCompliant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, facts := compliantCluster()
			tt.mutate(&cfg, &facts)
			results := EvaluateAll(cfg, facts)
			if got := results[tt.rule]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

// The cluster from the worked examples: RBAC off, no AAD, user-assigned
// identity, free tier, one zoneless single-node system pool.
func exampleCluster() (ClusterConfiguration, SupplementaryFacts) {
	cfg, facts := compliantCluster()
	cfg.RBACEnabled = false
	cfg.AADIntegration = false
	cfg.IdentityType = IdentityUserAssigned
	cfg.SKUTier = "Free"
	cfg.NodePools = []NodePoolConfiguration{
		{
			Name:                "system",
			Mode:                NodePoolModeSystem,
			Count:               1,
			SubnetID:            cfg.NodePools[0].SubnetID,
			OrchestratorVersion: cfg.KubernetesVersion,
		},
	}
	return cfg, facts
}

func TestExampleSystemOnlyFreeCluster(t *testing.T) {
	cfg, facts := exampleCluster()
	results := EvaluateAll(cfg, facts)

	want := map[string]CheckResult{
		RuleRBAC:                  NonCompliant,
		RuleAzureADIntegration:    NonCompliant,
		RuleUserAssignedIdentity:  Compliant,
		RuleUptimeSLA:             NonCompliant,
		RuleSystemAndUserNodePool: NonCompliant,
		RuleAvailabilityZones:     NonCompliant,
	}
	for name, wantResult := range want {
		if got := results[name]; got != wantResult {
			t.Errorf("%s = %v, want %v", name, got, wantResult)
		}
	}
	if Aggregate(results) != NonCompliant {
		t.Errorf("Aggregate() = Compliant, want NonCompliant")
	}
}

func TestExampleSecondUserPoolDoesNotRescueZones(t *testing.T) {
	cfg, facts := exampleCluster()
	cfg.SKUTier = "Standard"
	cfg.NodePools = append(cfg.NodePools, NodePoolConfiguration{
		Name:                "work",
		Mode:                NodePoolModeUser,
		Count:               3,
		AvailabilityZones:   []string{"1", "2", "3"},
		SubnetID:            cfg.NodePools[0].SubnetID,
		OrchestratorVersion: cfg.KubernetesVersion,
	})

	results := EvaluateAll(cfg, facts)
	if got := results[RuleSystemAndUserNodePool]; got != Compliant {
		t.Errorf("SystemAndUserNodePool = %v, want Compliant", got)
	}
	if got := results[RuleUptimeSLA]; got != Compliant {
		t.Errorf("UptimeSlaConfiguration = %v, want Compliant", got)
	}
	// The system pool still has no zones, so the cluster-level check stays failed.
	if got := results[RuleAvailabilityZones]; got != NonCompliant {
		t.Errorf("AvailabilityZones = %v, want NonCompliant", got)
	}
	if Aggregate(results) != NonCompliant {
		t.Errorf("Aggregate() = Compliant, want NonCompliant")
	}
}

func TestEvaluateAllIsIdempotent(t *testing.T) {
	cfg, facts := exampleCluster()
	first := EvaluateAll(cfg, facts)
	second := EvaluateAll(cfg, facts)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation differs: %v vs %v", first, second)
	}
}

func TestRuleNamesMatchRegistryOrder(t *testing.T) {
	names := RuleNames()
	registry := Registry()
	if len(names) != len(registry) {
		t.Fatalf("RuleNames() has %d entries, registry has %d", len(names), len(registry))
	}
	if len(names) != 18 {
		t.Fatalf("registry has %d rules, want 18", len(names))
	}
	for i, rule := range registry {
		if names[i] != rule.Name {
			t.Errorf("RuleNames()[%d] = %s, want %s", i, names[i], rule.Name)
		}
	}
}

func TestVersionSetCanonicalization(t *testing.T) {
	set := NewVersionSet("v1.28.9", "1.29")
	if !set.Contains("1.28.9") {
		t.Errorf("Contains(1.28.9) = false, want true")
	}
	if !set.Contains("1.29.0") {
		t.Errorf("Contains(1.29.0) = false, want true")
	}
	if set.Contains("1.30.0") {
		t.Errorf("Contains(1.30.0) = true, want false")
	}
}
