package domain

import "context"

// ServicePort is the rule lifecycle contract transports depend on
type ServicePort interface {
	Create(ctx context.Context, tenantID string, in CreateInput) (Rule, error)
	Update(ctx context.Context, tenantID, key string, in UpdateInput) (Rule, error)
	Delete(ctx context.Context, tenantID, key string) error
	Get(ctx context.Context, tenantID, key string) (Rule, error)
	List(ctx context.Context, tenantID string, in ListInput) (Page, error)
	Apply(ctx context.Context, tenantID string, txs []Transaction) (ApplyResult, error)
	Preview(ctx context.Context, tenantID string, txs []Transaction) ([]Match, error)
	ValidatePattern(pattern string) ValidateResult
}

// UsageSink receives the per-batch usage events once stats are committed
type UsageSink interface {
	Record(ctx context.Context, events []UsageEvent) error
}
