// Package domain holds rule types and the contracts between transport, service and storage
package domain

import "time"

// Field limits shared by the service validation and the table checks
const (
	MaxPatternLen  = 200
	MaxCategoryLen = 200
)

// Rule is a tenant-owned matching rule
type Rule struct {
	Key        string     `json:"key"`
	TenantID   string     `json:"tenant_id"`
	Pattern    string     `json:"pattern"`
	IsRegex    bool       `json:"is_regex"`
	Category   string     `json:"category"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	MatchCount int64      `json:"match_count"`
}

// Sort is a list ordering
type Sort string

const (
	// SortPattern orders by pattern ascending, the default
	SortPattern Sort = "pattern"
	// SortCategory orders by category ascending
	SortCategory Sort = "category"
	// SortLastUsed orders by last use descending, never-used rules last
	SortLastUsed Sort = "lastUsedAt"
)

// ParseSort maps a query value onto a Sort, "" is the default
func ParseSort(s string) (Sort, bool) {
	switch s {
	case "", string(SortPattern):
		return SortPattern, true
	case string(SortCategory):
		return SortCategory, true
	case string(SortLastUsed), "last_used_at":
		return SortLastUsed, true
	}
	return "", false
}

// ListInput selects a page of a tenant's rules
type ListInput struct {
	Page     int
	PageSize int
	Sort     Sort
	Search   string
}

// Page is one slice of a listing
type Page struct {
	Items    []Rule `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Transaction is the only part of a transaction matching reads
type Transaction struct {
	Payee string `json:"payee"`
}

// Match is a preview result for one transaction, empty when nothing matched
type Match struct {
	RuleKey  string `json:"rule_key,omitempty"`
	Category string `json:"category,omitempty"`
	Matched  bool   `json:"matched"`
}

// ApplyResult is what a batch run returns
type ApplyResult struct {
	BatchID    string    `json:"batch_id"`
	Categories []*string `json:"categories"`
	Touched    int       `json:"touched_rules"`
}

// UsageEvent is one touched rule in one batch
type UsageEvent struct {
	TenantID  string
	RuleKey   string
	BatchID   string
	Matched   int
	BatchSize int
	At        time.Time
}
