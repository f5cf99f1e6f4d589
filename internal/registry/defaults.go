package registry

// DefaultProviders returns the stock provider fixtures used throughout the
// worked examples and end-to-end tests: openai, anthropic, deepseek, groq,
// and ollama, with their real published capability/cost/quality figures.
func DefaultProviders() []Provider {
	latency := func(ms int) *int { return &ms }
	score := func(v float64) *float64 { return &v }
	tpm := func(v int) *int { return &v }

	set := func(tags ...string) map[string]bool {
		m := make(map[string]bool, len(tags))
		for _, t := range tags {
			m[t] = true
		}
		return m
	}

	return []Provider{
		{
			ID:        "openai",
			Tier:      TierFrontier,
			APIBase:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Capabilities: Capabilities{
				MaxContext:        128000,
				SupportsFunctions: true,
				SupportsVision:    true,
				SupportsJSONMode:  true,
				SupportsStreaming: true,
				Specialties:       set("code", "reasoning", "multimodal"),
				TypicalLatencyMs:  latency(1200),
				SOC2Compliant:     true,
				GDPRCompliant:     true,
				DataResidency:     set("us", "eu"),
			},
			Cost:             Cost{InputPer1M: 2.50, OutputPer1M: 10.00},
			QualityScore:     score(0.95),
			ReliabilityScore: score(0.99),
			Health:           Health{Status: StatusHealthy},
			Enabled:          true,
		},
		{
			ID:        "anthropic",
			Tier:      TierFrontier,
			APIBase:   "https://api.anthropic.com/v1",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Capabilities: Capabilities{
				MaxContext:        200000,
				SupportsFunctions: true,
				SupportsVision:    true,
				SupportsStreaming: true,
				Specialties:       set("analysis", "documentation", "safety"),
				TypicalLatencyMs:  latency(1500),
				SOC2Compliant:     true,
				GDPRCompliant:     true,
				HIPAACompliant:    true,
				DataResidency:     set("us", "eu"),
			},
			Cost:             Cost{InputPer1M: 3.00, OutputPer1M: 15.00},
			QualityScore:     score(0.96),
			ReliabilityScore: score(0.98),
			Health:           Health{Status: StatusHealthy},
			Enabled:          true,
		},
		{
			ID:        "deepseek",
			Tier:      TierChineseFrontier,
			APIBase:   "https://api.deepseek.com/v1",
			APIKeyEnv: "DEEPSEEK_API_KEY",
			Capabilities: Capabilities{
				MaxContext:        64000,
				SupportsFunctions: true,
				SupportsJSONMode:  true,
				SupportsStreaming: true,
				Specialties:       set("code", "reasoning", "cost_efficient"),
				TypicalLatencyMs:  latency(2100),
				DataResidency:     set("apac"),
			},
			Cost:             Cost{InputPer1M: 0.14, OutputPer1M: 0.28},
			QualityScore:     score(0.88),
			ReliabilityScore: score(0.95),
			Health:           Health{Status: StatusHealthy},
			Enabled:          true,
		},
		{
			ID:        "groq",
			Tier:      TierAggregator,
			APIBase:   "https://api.groq.com/openai/v1",
			APIKeyEnv: "GROQ_API_KEY",
			Capabilities: Capabilities{
				MaxContext:        128000,
				SupportsStreaming: true,
				Specialties:       set("speed", "throughput"),
				TypicalLatencyMs:  latency(300),
				ThroughputTPM:     tpm(1000000),
				DataResidency:     set("us"),
			},
			Cost:             Cost{InputPer1M: 0.59, OutputPer1M: 0.79},
			QualityScore:     score(0.85),
			ReliabilityScore: score(0.94),
			Health:           Health{Status: StatusHealthy},
			Enabled:          true,
		},
		{
			ID:        "ollama",
			Tier:      TierOpensource,
			APIBase:   "http://localhost:11434",
			APIKeyEnv: "",
			Capabilities: Capabilities{
				MaxContext:        128000,
				SupportsStreaming: true,
				Specialties:       set("privacy", "offline", "zero_cost"),
				TypicalLatencyMs:  latency(100),
				DataResidency:     set("local"),
			},
			Cost:             Cost{InputPer1M: 0, OutputPer1M: 0},
			QualityScore:     score(0.80),
			ReliabilityScore: score(0.99),
			Health:           Health{Status: StatusHealthy},
			Enabled:          true,
		},
	}
}
