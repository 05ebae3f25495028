package llm

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var priceTable = map[string]modelPricing{
	"gpt-4-1106-preview": {InputPerMillion: 10.00, OutputPerMillion: 30.00},
	"gpt-3.5-turbo-16k":  {InputPerMillion: 3.00, OutputPerMillion: 4.00},
	"gpt-4o":             {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":        {InputPerMillion: 0.15, OutputPerMillion: 0.60},

	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
}

// EstimateCost returns the USD cost of a completion, or 0 for unknown models.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000.0*p.InputPerMillion +
		float64(outputTokens)/1_000_000.0*p.OutputPerMillion
}

// EstimateTokens approximates a token count at 4 characters per token.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
