package config

import "time"

type Config struct {
	Server    HTTPServerConfig `json:"server"`
	LLM       LLMConfig        `json:"llm"`
	Mongo     MongoConfig
	Knowledge KnowledgeConfig
	Session   SessionConfig
	Validator ValidatorConfig
	Artifacts ArtifactsConfig
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"120s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"120s"`
}

type LLMConfig struct {
	APIKey    string        `json:"api_key" required:"true"`
	BaseURL   string        `json:"base_url" default:"https://api.openai.com/v1/chat/completions"`
	Model     string        `json:"model" default:"gpt-4o"`
	MaxTokens int           `json:"max_tokens" default:"4000"`
	Timeout   time.Duration `json:"timeout" default:"60s"`
}

type MongoConfig struct {
	URI      string `json:"uri" required:"true"`
	Database string `json:"database" required:"true"`
}

type KnowledgeConfig struct {
	DatasetPath string `json:"dataset_path" required:"true"`
	Strategy    string `json:"strategy" default:"keyword"`
	TopK        int    `json:"top_k" default:"3"`
}

type SessionConfig struct {
	MaxRetries           int  `json:"max_retries" default:"2"`
	SnippetBudget        int  `json:"snippet_budget" default:"6000"`
	BestEffortAcceptance bool `json:"best_effort_acceptance" default:"false"`
}

type ValidatorConfig struct {
	BinPath string        `json:"bin_path" default:"terraform"`
	Timeout time.Duration `json:"timeout" default:"60s"`
}

type ArtifactsConfig struct {
	Dir string `json:"dir" default:"./artifacts"`
}
