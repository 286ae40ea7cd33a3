package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/sirupsen/logrus"

	"github.com/flucianomsft/aks-assessment/pkg/audit"
	"github.com/flucianomsft/aks-assessment/pkg/rules"
)

// Provider implements the orchestrator's cluster data interface on top of the
// ARM SDK. All calls are blocking; the assessment runs them sequentially.
type Provider struct {
	factory clientFactory
	logger  *logrus.Logger

	// supportedVersions caches the supported-version set per region. One
	// region serves many clusters, and the list changes on AKS release
	// cadence, not within a run.
	supportedVersions map[string]rules.VersionSet
}

// NewProvider creates a provider using the given credential for every ARM
// call.
func NewProvider(cred azcore.TokenCredential, logger *logrus.Logger, options *arm.ClientOptions) *Provider {
	return newProviderWithFactory(newARMClientFactory(cred, options), logger)
}

// newProviderWithFactory allows injecting a client factory (primarily for
// tests).
func newProviderWithFactory(factory clientFactory, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.New()
	}
	return &Provider{
		factory:           factory,
		logger:            logger,
		supportedVersions: make(map[string]rules.VersionSet),
	}
}

// ListSubscriptions enumerates every subscription visible to the credential.
func (p *Provider) ListSubscriptions(ctx context.Context) ([]audit.Subscription, error) {
	client, err := p.factory.subscriptions()
	if err != nil {
		return nil, err
	}

	var subscriptions []audit.Subscription
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}
			subscriptions = append(subscriptions, audit.Subscription{
				ID:          *sub.SubscriptionID,
				DisplayName: derefString(sub.DisplayName),
			})
		}
	}
	return subscriptions, nil
}

// ListClusters returns every managed cluster in the subscription, flattened
// into the configuration the rules evaluate.
func (p *Provider) ListClusters(ctx context.Context, subscriptionID string) ([]rules.ClusterConfiguration, error) {
	client, err := p.factory.managedClusters(subscriptionID)
	if err != nil {
		return nil, err
	}

	var clusters []rules.ClusterConfiguration
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list managed clusters in %s: %w", subscriptionID, err)
		}
		for _, mc := range page.Value {
			if mc == nil {
				continue
			}
			clusters = append(clusters, convertManagedCluster(subscriptionID, mc))
		}
	}
	p.logger.Debugf("Subscription %s holds %d managed clusters", subscriptionID, len(clusters))
	return clusters, nil
}

// SubnetHasNSG reports whether the subnet behind the given resource ID has a
// network security group attached.
func (p *Provider) SubnetHasNSG(ctx context.Context, subnetID string) (bool, error) {
	ref, err := parseSubnetID(subnetID)
	if err != nil {
		return false, err
	}

	client, err := p.factory.subnets(ref.SubscriptionID)
	if err != nil {
		return false, err
	}

	resp, err := client.Get(ctx, ref.ResourceGroup, ref.VirtualNetworkName, ref.SubnetName, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get subnet %s: %w", subnetID, err)
	}
	return resp.Properties != nil && resp.Properties.NetworkSecurityGroup != nil, nil
}

// DiagnosticSettingsExist reports whether at least one diagnostic setting is
// attached to the cluster resource.
func (p *Provider) DiagnosticSettingsExist(ctx context.Context, clusterResourceID string) (bool, error) {
	client, err := p.factory.diagnosticSettings()
	if err != nil {
		return false, err
	}

	pager := client.NewListPager(clusterResourceID, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list diagnostic settings for %s: %w", clusterResourceID, err)
		}
		if len(page.Value) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// SupportedVersions returns the set of Kubernetes versions AKS currently
// supports in the given region, cached for the duration of the run.
func (p *Provider) SupportedVersions(ctx context.Context, subscriptionID, region string) (rules.VersionSet, error) {
	if cached, ok := p.supportedVersions[region]; ok {
		return cached, nil
	}

	client, err := p.factory.managedClusters(subscriptionID)
	if err != nil {
		return nil, err
	}

	resp, err := client.ListKubernetesVersions(ctx, region, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list supported Kubernetes versions in %s: %w", region, err)
	}

	set := rules.NewVersionSet()
	for _, kv := range resp.Values {
		if kv == nil {
			continue
		}
		for patch := range kv.PatchVersions {
			set.Add(patch)
		}
		if len(kv.PatchVersions) == 0 && kv.Version != nil {
			set.Add(*kv.Version)
		}
	}

	p.logger.Debugf("Region %s supports %d Kubernetes versions", region, len(set))
	p.supportedVersions[region] = set
	return set, nil
}
