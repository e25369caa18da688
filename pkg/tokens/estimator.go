// Package tokens estimates token counts for cost pre-checks. OpenAI
// models use tiktoken; everything else falls back to character-based
// estimation, which is accurate enough for budget admission.
package tokens

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// encodingForModel maps OpenAI model names to tiktoken encoding names.
var encodingForModel = map[string]string{
	"gpt-4o":      "o200k_base",
	"gpt-4o-mini": "o200k_base",
	"o1":          "o200k_base",
	"o1-mini":     "o200k_base",
	"o3-mini":     "o200k_base",
	"gpt-4":       "cl100k_base",
}

// Estimate returns the token count for the given text and model.
func Estimate(text, provider, model string) (int64, error) {
	if provider == "openai" {
		return countOpenAI(text, model)
	}
	return heuristic(text), nil
}

// EstimateCall estimates the input and output sides of a prospective
// call: input from the prompt, output from the caller's expected
// response length (a conservative default when zero).
func EstimateCall(prompt, provider, model string, expectedOutput int64) (inputTokens, outputTokens int64, err error) {
	inputTokens, err = Estimate(prompt, provider, model)
	if err != nil {
		return 0, 0, err
	}
	if expectedOutput <= 0 {
		expectedOutput = 500
	}
	return inputTokens, expectedOutput, nil
}

func countOpenAI(text, model string) (int64, error) {
	encName, ok := encodingForModel[model]
	if !ok {
		// Fall back to o200k_base for unknown OpenAI models
		encName = "o200k_base"
	}

	var enc tokenizer.Codec
	var err error

	switch encName {
	case "o200k_base":
		enc, err = tokenizer.Get(tokenizer.O200kBase)
	case "cl100k_base":
		enc, err = tokenizer.Get(tokenizer.Cl100kBase)
	default:
		return heuristic(text), nil
	}

	if err != nil {
		return 0, fmt.Errorf("load encoding %s: %w", encName, err)
	}

	ids, _, err := enc.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode text: %w", err)
	}

	return int64(len(ids)), nil
}

// heuristic estimates 4 characters per token, rounding up.
func heuristic(text string) int64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return int64((len(text) + 3) / 4)
}
