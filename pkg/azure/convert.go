package azure

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v5"

	"github.com/flucianomsft/aks-assessment/pkg/rules"
)

// Resource ID patterns with capture groups. ARM is not consistent about the
// casing of "resourceGroups", hence the (?i).
var (
	clusterResourceIDPattern = regexp.MustCompile(`(?i)^/subscriptions/([^/]+)/resourceGroups/([^/]+)/providers/Microsoft\.ContainerService/managedClusters/([^/]+)$`)
	subnetResourceIDPattern  = regexp.MustCompile(`(?i)^/subscriptions/([^/]+)/resourceGroups/([^/]+)/providers/Microsoft\.Network/virtualNetworks/([^/]+)/subnets/([^/]+)$`)
)

// subnetRef is a parsed subnet resource ID.
type subnetRef struct {
	SubscriptionID     string
	ResourceGroup      string
	VirtualNetworkName string
	SubnetName         string
}

func parseSubnetID(subnetID string) (subnetRef, error) {
	matches := subnetResourceIDPattern.FindStringSubmatch(subnetID)
	if len(matches) < 5 {
		return subnetRef{}, fmt.Errorf("invalid subnet resource ID %q", subnetID)
	}
	return subnetRef{
		SubscriptionID:     matches[1],
		ResourceGroup:      matches[2],
		VirtualNetworkName: matches[3],
		SubnetName:         matches[4],
	}, nil
}

// resourceGroupFromClusterID extracts the resource group segment of a managed
// cluster resource ID, empty when the ID does not match the expected shape.
func resourceGroupFromClusterID(resourceID string) string {
	matches := clusterResourceIDPattern.FindStringSubmatch(resourceID)
	if len(matches) < 4 {
		return ""
	}
	return matches[2]
}

// convertManagedCluster flattens an ARM managed cluster resource into the
// configuration the rule set evaluates. Absent optional profiles collapse to
// their zero values; the rules treat those as "feature absent".
func convertManagedCluster(subscriptionID string, mc *armcontainerservice.ManagedCluster) rules.ClusterConfiguration {
	cfg := rules.ClusterConfiguration{
		SubscriptionID: subscriptionID,
		Name:           derefString(mc.Name),
		ResourceID:     derefString(mc.ID),
		Region:         derefString(mc.Location),
		ResourceGroup:  resourceGroupFromClusterID(derefString(mc.ID)),
	}

	if mc.Identity != nil && mc.Identity.Type != nil {
		cfg.IdentityType = string(*mc.Identity.Type)
	}
	if mc.SKU != nil && mc.SKU.Tier != nil {
		cfg.SKUTier = string(*mc.SKU.Tier)
	}

	props := mc.Properties
	if props == nil {
		return cfg
	}

	cfg.ProvisioningState = derefString(props.ProvisioningState)
	cfg.NodeResourceGroup = derefString(props.NodeResourceGroup)
	cfg.PrivateFQDN = derefString(props.PrivateFQDN)
	cfg.RBACEnabled = derefBool(props.EnableRBAC)
	cfg.AADIntegration = props.AADProfile != nil

	// The resolved patch version is what the support check cares about; the
	// requested minor version is the fallback for clusters mid-upgrade.
	cfg.KubernetesVersion = derefString(props.CurrentKubernetesVersion)
	if cfg.KubernetesVersion == "" {
		cfg.KubernetesVersion = derefString(props.KubernetesVersion)
	}

	if props.APIServerAccessProfile != nil {
		cfg.PrivateCluster = derefBool(props.APIServerAccessProfile.EnablePrivateCluster)
	}
	if props.NetworkProfile != nil {
		if props.NetworkProfile.NetworkPolicy != nil {
			cfg.NetworkPolicy = string(*props.NetworkProfile.NetworkPolicy)
		}
		if props.NetworkProfile.LoadBalancerProfile != nil {
			cfg.OutboundPublicIPCount = len(props.NetworkProfile.LoadBalancerProfile.EffectiveOutboundIPs)
		}
	}

	if props.SecurityProfile != nil {
		if defender := props.SecurityProfile.Defender; defender != nil && defender.SecurityMonitoring != nil {
			cfg.DefenderEnabled = derefBool(defender.SecurityMonitoring.Enabled)
		}
		if kms := props.SecurityProfile.AzureKeyVaultKms; kms != nil {
			cfg.KMSEnabled = derefBool(kms.Enabled)
		}
	}

	cfg.MonitoringEnabled = addonEnabled(props.AddonProfiles, "omsagent")
	cfg.PolicyAddonEnabled = addonEnabled(props.AddonProfiles, "azurepolicy")
	cfg.PodIdentityConfigured = props.PodIdentityProfile != nil && derefBool(props.PodIdentityProfile.Enabled)

	for _, pool := range props.AgentPoolProfiles {
		if pool == nil {
			continue
		}
		cfg.NodePools = append(cfg.NodePools, convertAgentPool(pool))
	}

	return cfg
}

func convertAgentPool(pool *armcontainerservice.ManagedClusterAgentPoolProfile) rules.NodePoolConfiguration {
	np := rules.NodePoolConfiguration{
		Name:                derefString(pool.Name),
		Count:               int(derefInt32(pool.Count)),
		SubnetID:            derefString(pool.VnetSubnetID),
		OrchestratorVersion: derefString(pool.OrchestratorVersion),
	}
	if pool.Mode != nil {
		np.Mode = string(*pool.Mode)
	}
	for _, zone := range pool.AvailabilityZones {
		if zone != nil && *zone != "" {
			np.AvailabilityZones = append(np.AvailabilityZones, *zone)
		}
	}
	return np
}

// addonEnabled reports whether the named add-on profile exists and is enabled.
// AKS is not consistent about add-on key casing across API versions.
func addonEnabled(profiles map[string]*armcontainerservice.ManagedClusterAddonProfile, name string) bool {
	for key, profile := range profiles {
		if !strings.EqualFold(key, name) {
			continue
		}
		return profile != nil && derefBool(profile.Enabled)
	}
	return false
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func derefInt32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}
