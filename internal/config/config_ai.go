package config

// Operation names used for per-operation AI configuration
const (
	OpExtractResume  = "extractResume"
	OpExtractJob     = "extractJob"
	OpGenerateRubric = "generateRubric"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.BaseURL == "" {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
	if opCfg.CircuitBreaker == nil {
		cb := c.AI.CircuitBreaker
		opCfg.CircuitBreaker = &cb
	}
}

// operation returns a pointer to the stored configuration for op, or nil
func (c *Config) operation(op string) *OperationAIConfig {
	switch op {
	case OpExtractResume:
		return &c.AI.ExtractResume
	case OpExtractJob:
		return &c.AI.ExtractJob
	case OpGenerateRubric:
		return &c.AI.GenerateRubric
	}
	return nil
}

// GetOperationConfig returns the AI configuration for op with fallback to the global config.
// Every pointer field of the result is non-nil.
func (c *Config) GetOperationConfig(op string) OperationAIConfig {
	var config OperationAIConfig
	if stored := c.operation(op); stored != nil {
		config = *stored
	}
	c.applyOperationDefaults(&config)
	return config
}

// GetExtractResumeConfig returns the AI configuration for resume extraction
func (c *Config) GetExtractResumeConfig() OperationAIConfig {
	return c.GetOperationConfig(OpExtractResume)
}

// GetExtractJobConfig returns the AI configuration for job description extraction
func (c *Config) GetExtractJobConfig() OperationAIConfig {
	return c.GetOperationConfig(OpExtractJob)
}

// GetGenerateRubricConfig returns the AI configuration for rubric generation
func (c *Config) GetGenerateRubricConfig() OperationAIConfig {
	return c.GetOperationConfig(OpGenerateRubric)
}
