package quota

import (
	"fmt"
	"time"
)

// UsageMetrics accumulates usage for one accounting bucket.
type UsageMetrics struct {
	// RequestCount is the number of recorded requests.
	RequestCount int64 `json:"request_count"`

	// InputTokens is the cumulative input (prompt) token count.
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the cumulative output (completion) token count.
	OutputTokens int64 `json:"output_tokens"`

	// TotalCost is the cumulative cost in USD.
	TotalCost float64 `json:"total_cost"`

	// PeriodStart is when this bucket started accumulating.
	PeriodStart time.Time `json:"period_start"`

	// PeriodEnd is when this bucket was last reset, or zero while active.
	PeriodEnd time.Time `json:"period_end,omitempty"`
}

// TotalTokens returns input plus output tokens.
func (m UsageMetrics) TotalTokens() int64 {
	return m.InputTokens + m.OutputTokens
}

// Scope identifies the accounting period a ceiling applies to.
type Scope string

const (
	// ScopeDaily is the daily accounting bucket.
	ScopeDaily Scope = "Daily"

	// ScopeMonthly is the monthly accounting bucket.
	ScopeMonthly Scope = "Monthly"
)

// Kind identifies which quantity a ceiling bounds.
type Kind string

const (
	// KindRequests bounds the request count.
	KindRequests Kind = "request"

	// KindTokens bounds the total token count.
	KindTokens Kind = "token"

	// KindCost bounds the cumulative cost in USD.
	KindCost Kind = "cost"
)

// ExceededError reports that recording a request would exceed a ceiling.
// No counters are mutated when this error is returned.
type ExceededError struct {
	// Scope is the accounting period of the violated ceiling.
	Scope Scope

	// Kind is the quantity the ceiling bounds.
	Kind Kind

	// Limit is the configured ceiling.
	Limit float64

	// Attempted is the value the bucket would have reached.
	Attempted float64
}

// Error names the violated ceiling and its configured limit.
func (e *ExceededError) Error() string {
	switch e.Kind {
	case KindCost:
		return fmt.Sprintf("%s %s limit exceeded: limit %.4f, attempted %.4f",
			e.Scope, e.Kind, e.Limit, e.Attempted)
	default:
		return fmt.Sprintf("%s %s limit exceeded: limit %d, attempted %d",
			e.Scope, e.Kind, int64(e.Limit), int64(e.Attempted))
	}
}

// Config contains optional ceilings for the quota manager.
// Zero values mean unlimited.
type Config struct {
	// DailyRequestLimit bounds requests per day.
	DailyRequestLimit int64 `yaml:"daily_request_limit"`

	// DailyTokenLimit bounds total tokens per day.
	DailyTokenLimit int64 `yaml:"daily_token_limit"`

	// DailyCostLimit bounds cost per day in USD.
	DailyCostLimit float64 `yaml:"daily_cost_limit"`

	// MonthlyRequestLimit bounds requests per month.
	MonthlyRequestLimit int64 `yaml:"monthly_request_limit"`

	// MonthlyTokenLimit bounds total tokens per month.
	MonthlyTokenLimit int64 `yaml:"monthly_token_limit"`

	// MonthlyCostLimit bounds cost per month in USD.
	MonthlyCostLimit float64 `yaml:"monthly_cost_limit"`
}

// NewConfig returns a Config with no ceilings configured.
func NewConfig() Config {
	return Config{}
}

// WithDailyRequests sets the daily request ceiling.
func (c Config) WithDailyRequests(n int64) Config {
	c.DailyRequestLimit = n
	return c
}

// WithDailyTokens sets the daily token ceiling.
func (c Config) WithDailyTokens(n int64) Config {
	c.DailyTokenLimit = n
	return c
}

// WithDailyCost sets the daily cost ceiling in USD.
func (c Config) WithDailyCost(usd float64) Config {
	c.DailyCostLimit = usd
	return c
}

// WithMonthlyRequests sets the monthly request ceiling.
func (c Config) WithMonthlyRequests(n int64) Config {
	c.MonthlyRequestLimit = n
	return c
}

// WithMonthlyTokens sets the monthly token ceiling.
func (c Config) WithMonthlyTokens(n int64) Config {
	c.MonthlyTokenLimit = n
	return c
}

// WithMonthlyCost sets the monthly cost ceiling in USD.
func (c Config) WithMonthlyCost(usd float64) Config {
	c.MonthlyCostLimit = usd
	return c
}
