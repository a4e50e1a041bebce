package openai

import "strings"

// modelPrefixes covers dated and future variants of the announced families.
//
//nolint:gochecknoglobals // fixed lookup table
var modelPrefixes = []string{"gpt-4o", "gpt-4.1", "o3", "o4-mini"}

// SupportedModels returns the list of models supported by OpenAI provider.
func SupportedModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4.1",
		"gpt-4.1-mini",
		"o3-mini",
	}
}

// buildModelSet creates a map for O(1) lookup.
func buildModelSet(models []string) map[string]bool {
	set := make(map[string]bool, len(models))
	for _, model := range models {
		if model = strings.TrimSpace(model); model != "" {
			set[model] = true
		}
	}
	return set
}
