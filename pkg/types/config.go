// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "chain-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the external reasoning service. The service
// speaks the OpenAI chat-completions shape; some deployments answer with an
// SSE stream even when streaming is not requested.
type LLMConfig struct {
	// BaseURL is the API root, e.g. "https://api.x.ai/v1".
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the bearer token for the service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model identifier (e.g. "grok-4.1-fast").
	Model string `json:"model" yaml:"model"`

	// MaxTokens bounds the response length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-call timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// FetchConfig holds settings for the platform fetchers.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// GitHubToken is an optional bearer token; anonymous calls are
	// permitted but rate-limited harder.
	GitHubToken string `json:"github_token,omitempty" yaml:"github_token,omitempty"`

	// MaxComments caps the total issue/PR comments fetched (default 100).
	MaxComments int `json:"max_comments" yaml:"max_comments"`

	// MaxCommentNodes caps total nodes when flattening nested comment
	// trees from Reddit and Hacker News (default 200).
	MaxCommentNodes int `json:"max_comment_nodes" yaml:"max_comment_nodes"`

	// MaxCommentDepth caps nesting depth for Reddit trees (default 4).
	MaxCommentDepth int `json:"max_comment_depth" yaml:"max_comment_depth"`

	// MaxBodyChars caps the extracted body of a generic web page (default 10000).
	MaxBodyChars int `json:"max_body_chars" yaml:"max_body_chars"`
}

// CrawlConfig holds settings for the crawl orchestrator.
type CrawlConfig struct {
	// MaxDepth is the maximum hop count from a seed (default 3).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Threshold is the minimum relevance score for a candidate to survive
	// the gate (default 0.5).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// MaxPerLevel caps how many scored candidates are enqueued per node
	// (default 3).
	MaxPerLevel int `json:"max_per_level" yaml:"max_per_level"`

	// MaxCandidates caps the candidate list sent to the gate per node
	// (default 20).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// NodeBodyChars caps the body stored on each crawl node (default 2000).
	NodeBodyChars int `json:"node_body_chars" yaml:"node_body_chars"`

	// NodeComments caps the comments stored on each crawl node (default 10).
	NodeComments int `json:"node_comments" yaml:"node_comments"`

	// FetchWorkers sets how many same-depth fetches run concurrently.
	// 1 (the default) reproduces strictly sequential traversal.
	FetchWorkers int `json:"fetch_workers" yaml:"fetch_workers"`
}

// StoreConfig holds settings for the crawl results store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// TrackerConfig groups all component configurations.
type TrackerConfig struct {
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`
	LLM   LLMConfig   `json:"llm" yaml:"llm"`
	Crawl CrawlConfig `json:"crawl" yaml:"crawl"`
	Store StoreConfig `json:"store" yaml:"store"`
}

// DefaultFetchConfig returns the fetcher defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   20 * time.Second,
			UserAgent: "chain-tracker/0.1",
		},
		MaxComments:     100,
		MaxCommentNodes: 200,
		MaxCommentDepth: 4,
		MaxBodyChars:    10000,
	}
}

// DefaultCrawlConfig returns the orchestrator defaults. The defaults bound
// total fetches to seeds * MaxPerLevel^MaxDepth in the worst case.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxDepth:      3,
		Threshold:     0.5,
		MaxPerLevel:   3,
		MaxCandidates: 20,
		NodeBodyChars: 2000,
		NodeComments:  10,
		FetchWorkers:  1,
	}
}

// DefaultLLMConfig returns reasoning-service defaults. BaseURL and APIKey
// have no defaults; they come from configuration or secrets.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:     "grok-4.1-fast",
		MaxTokens: 1024,
		Timeout:   30 * time.Second,
	}
}
