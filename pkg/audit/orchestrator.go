package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flucianomsft/aks-assessment/pkg/rules"
)

// Provider supplies cluster data to the orchestrator: the clusters themselves
// plus the supplementary lookups the rules need. Implementations may fail per
// call; failures surface as the per-cluster error on the emitted record.
type Provider interface {
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	ListClusters(ctx context.Context, subscriptionID string) ([]rules.ClusterConfiguration, error)
	SubnetHasNSG(ctx context.Context, subnetID string) (bool, error)
	DiagnosticSettingsExist(ctx context.Context, clusterResourceID string) (bool, error)
	SupportedVersions(ctx context.Context, subscriptionID, region string) (rules.VersionSet, error)
}

// Sink receives finished assessment records, one per cluster, in discovery
// order.
type Sink interface {
	AppendRecord(record *ClusterAssessmentRecord) error
}

// RunResult summarizes one audit run for the transcript.
type RunResult struct {
	RunID            string
	Subscriptions    int
	ClustersAssessed int
	ClustersFailed   int
	RecordsEmitted   int
	Duration         time.Duration
}

// Orchestrator drives the assessment: subscriptions, then clusters within each,
// strictly sequentially. A single cluster's failure is captured on its record
// and never aborts the subscription-level or run-level loop.
type Orchestrator struct {
	provider Provider
	sink     Sink
	logger   *logrus.Logger

	// subscriptionFilter, when non-empty, restricts the run to those IDs.
	subscriptionFilter map[string]bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSubscriptionFilter restricts the run to the given subscription IDs.
func WithSubscriptionFilter(ids []string) Option {
	return func(o *Orchestrator) {
		if len(ids) == 0 {
			return
		}
		o.subscriptionFilter = make(map[string]bool, len(ids))
		for _, id := range ids {
			o.subscriptionFilter[id] = true
		}
	}
}

// NewOrchestrator creates an orchestrator over the given provider and sink.
func NewOrchestrator(provider Provider, sink Sink, logger *logrus.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		sink:     sink,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run assesses every cluster in every visible subscription and appends one
// record per cluster to the sink. It returns an error only for run-level
// failures (subscription enumeration, sink append); per-cluster problems are
// recorded and skipped over.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}

	o.logger.Infof("Starting AKS assessment run %s", result.RunID)

	subscriptions, err := o.provider.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	for _, subscription := range subscriptions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.subscriptionFilter != nil && !o.subscriptionFilter[subscription.ID] {
			o.logger.Debugf("Skipping subscription %s (not selected)", subscription.ID)
			continue
		}
		result.Subscriptions++

		o.logger.Infof("Assessing subscription %s (%s)", subscription.ID, subscription.DisplayName)
		clusters, err := o.provider.ListClusters(ctx, subscription.ID)
		if err != nil {
			// One subscription's listing failure must not sink the whole run.
			o.logger.Errorf("Failed to list clusters in subscription %s: %v", subscription.ID, err)
			continue
		}

		for i := range clusters {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			record := o.assessCluster(ctx, clusters[i])
			if record.Failed() {
				result.ClustersFailed++
				o.logger.Errorf("Cluster %s/%s could not be assessed: %s",
					record.ResourceGroup, record.ClusterName, record.Err)
			} else {
				result.ClustersAssessed++
				o.logger.Infof("Cluster %s/%s assessed: %s",
					record.ResourceGroup, record.ClusterName, record.Compliant)
			}
			if err := o.sink.AppendRecord(record); err != nil {
				return nil, fmt.Errorf("failed to append record for cluster %s: %w", record.ClusterName, err)
			}
			result.RecordsEmitted++
		}
	}

	result.Duration = time.Since(start)
	o.logger.Infof("Assessment run %s completed (subscriptions: %d, assessed: %d, failed: %d, duration: %v)",
		result.RunID, result.Subscriptions, result.ClustersAssessed, result.ClustersFailed, result.Duration)
	return result, nil
}

// assessCluster fetches the supplementary facts for one cluster, evaluates the
// rule registry and assembles the record. Any lookup failure turns the record
// into an error record with the verdict columns left unset.
func (o *Orchestrator) assessCluster(ctx context.Context, cfg rules.ClusterConfiguration) *ClusterAssessmentRecord {
	record := &ClusterAssessmentRecord{
		Subscription:         cfg.SubscriptionID,
		ResourceGroup:        cfg.ResourceGroup,
		ClusterName:          cfg.Name,
		ProvisioningState:    cfg.ProvisioningState,
		Region:               cfg.Region,
		ManagedResourceGroup: cfg.NodeResourceGroup,
	}

	facts, err := o.collectFacts(ctx, cfg)
	if err != nil {
		record.Err = err.Error()
		return record
	}

	record.NodePoolCount = len(cfg.NodePools)
	for _, pool := range cfg.NodePools {
		record.TotalNodeCount += pool.Count
	}

	record.Results = rules.EvaluateAll(cfg, facts)
	record.Compliant = rules.Aggregate(record.Results)
	return record
}

// collectFacts resolves the per-cluster lookups the rules depend on: one
// subnet NSG probe per distinct subnet-bearing pool, the diagnostic-settings
// existence flag and the region's supported version set.
func (o *Orchestrator) collectFacts(ctx context.Context, cfg rules.ClusterConfiguration) (rules.SupplementaryFacts, error) {
	facts := rules.SupplementaryFacts{
		SubnetHasNSG: make(map[string]bool),
	}

	for _, pool := range cfg.NodePools {
		if pool.SubnetID == "" {
			continue
		}
		if _, done := facts.SubnetHasNSG[pool.SubnetID]; done {
			continue
		}
		hasNSG, err := o.provider.SubnetHasNSG(ctx, pool.SubnetID)
		if err != nil {
			return facts, fmt.Errorf("failed to inspect subnet %s: %w", pool.SubnetID, err)
		}
		facts.SubnetHasNSG[pool.SubnetID] = hasNSG
	}

	exist, err := o.provider.DiagnosticSettingsExist(ctx, cfg.ResourceID)
	if err != nil {
		return facts, fmt.Errorf("failed to list diagnostic settings: %w", err)
	}
	facts.DiagnosticSettingsExist = exist

	versions, err := o.provider.SupportedVersions(ctx, cfg.SubscriptionID, cfg.Region)
	if err != nil {
		return facts, fmt.Errorf("failed to list supported Kubernetes versions for %s: %w", cfg.Region, err)
	}
	facts.SupportedVersions = versions

	return facts, nil
}
