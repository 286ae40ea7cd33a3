package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
)

// Narrow views of the ARM clients the provider uses. They exist to allow
// lightweight fakes in unit tests.

type subscriptionsAPI interface {
	NewListPager(options *armsubscriptions.ClientListOptions) *runtime.Pager[armsubscriptions.ClientListResponse]
}

type managedClustersAPI interface {
	NewListPager(options *armcontainerservice.ManagedClustersClientListOptions) *runtime.Pager[armcontainerservice.ManagedClustersClientListResponse]
	ListKubernetesVersions(ctx context.Context, location string, options *armcontainerservice.ManagedClustersClientListKubernetesVersionsOptions) (armcontainerservice.ManagedClustersClientListKubernetesVersionsResponse, error)
}

type subnetsAPI interface {
	Get(ctx context.Context, resourceGroupName, virtualNetworkName, subnetName string, options *armnetwork.SubnetsClientGetOptions) (armnetwork.SubnetsClientGetResponse, error)
}

type diagnosticSettingsAPI interface {
	NewListPager(resourceURI string, options *armmonitor.DiagnosticSettingsClientListOptions) *runtime.Pager[armmonitor.DiagnosticSettingsClientListResponse]
}

// clientFactory hands out ARM clients, per subscription where the API demands
// it. Implementations cache clients; the provider is sequential so no locking
// is involved.
type clientFactory interface {
	subscriptions() (subscriptionsAPI, error)
	managedClusters(subscriptionID string) (managedClustersAPI, error)
	subnets(subscriptionID string) (subnetsAPI, error)
	diagnosticSettings() (diagnosticSettingsAPI, error)
}

// armClientFactory builds real ARM clients from a token credential.
type armClientFactory struct {
	cred    azcore.TokenCredential
	options *arm.ClientOptions

	subscriptionsClient    subscriptionsAPI
	diagnosticsClient      diagnosticSettingsAPI
	managedClustersClients map[string]managedClustersAPI
	subnetsClients         map[string]subnetsAPI
}

func newARMClientFactory(cred azcore.TokenCredential, options *arm.ClientOptions) *armClientFactory {
	return &armClientFactory{
		cred:                   cred,
		options:                options,
		managedClustersClients: make(map[string]managedClustersAPI),
		subnetsClients:         make(map[string]subnetsAPI),
	}
}

func (f *armClientFactory) subscriptions() (subscriptionsAPI, error) {
	if f.subscriptionsClient != nil {
		return f.subscriptionsClient, nil
	}
	client, err := armsubscriptions.NewClient(f.cred, f.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptions client: %w", err)
	}
	f.subscriptionsClient = client
	return client, nil
}

func (f *armClientFactory) managedClusters(subscriptionID string) (managedClustersAPI, error) {
	if client, ok := f.managedClustersClients[subscriptionID]; ok {
		return client, nil
	}
	client, err := armcontainerservice.NewManagedClustersClient(subscriptionID, f.cred, f.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create managed clusters client for %s: %w", subscriptionID, err)
	}
	f.managedClustersClients[subscriptionID] = client
	return client, nil
}

func (f *armClientFactory) subnets(subscriptionID string) (subnetsAPI, error) {
	if client, ok := f.subnetsClients[subscriptionID]; ok {
		return client, nil
	}
	client, err := armnetwork.NewSubnetsClient(subscriptionID, f.cred, f.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create subnets client for %s: %w", subscriptionID, err)
	}
	f.subnetsClients[subscriptionID] = client
	return client, nil
}

func (f *armClientFactory) diagnosticSettings() (diagnosticSettingsAPI, error) {
	if f.diagnosticsClient != nil {
		return f.diagnosticsClient, nil
	}
	client, err := armmonitor.NewDiagnosticSettingsClient(f.cred, f.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create diagnostic settings client: %w", err)
	}
	f.diagnosticsClient = client
	return client, nil
}
