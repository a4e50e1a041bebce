package domain

import (
	"regexp"
	"strings"
)

// Classification is the repair-relevant category of a failed verification.
type Classification string

const (
	// ClassMechanical covers syntax failures.
	ClassMechanical Classification = "mechanical"
	// ClassSemantic covers meaning failures.
	ClassSemantic Classification = "semantic"
	// ClassUnknown covers anything else.
	ClassUnknown Classification = "unknown"
)

// ClassificationRule labels error text matching Pattern.
type ClassificationRule struct {
	Pattern *regexp.Regexp
	Label   Classification
}

// DefaultClassificationRules is the ordered rule list; the first match wins.
//
//nolint:gochecknoglobals // immutable rule table
var DefaultClassificationRules = []ClassificationRule{
	{Pattern: regexp.MustCompile(`(?i)unexpected token`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)missing (terminator|semicolon|';')|expected\s+['"]?;`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)pars(e|ing) error`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)syntax error`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)unterminated string`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)unexpected end`), Label: ClassMechanical},
	{Pattern: regexp.MustCompile(`(?i)undefined (identifier|variable|symbol)|undeclared`), Label: ClassSemantic},
	{Pattern: regexp.MustCompile(`(?i)type mismatch|cannot convert|incompatible types?`), Label: ClassSemantic},
	{Pattern: regexp.MustCompile(`(?i)unknown function|no such function|undefined function`), Label: ClassSemantic},
	{Pattern: regexp.MustCompile(`(?i)arity|wrong number of arguments|expects \d+ arguments?`), Label: ClassSemantic},
}

// ErrorClassifier maps free-text compiler errors onto classifications.
type ErrorClassifier struct {
	rules []ClassificationRule
}

// NewErrorClassifier creates a classifier over rules (DefaultClassificationRules when empty).
func NewErrorClassifier(rules []ClassificationRule) *ErrorClassifier {
	if len(rules) == 0 {
		rules = DefaultClassificationRules
	}
	return &ErrorClassifier{rules: rules}
}

// ClassifyText returns the label of the first rule matching text.
func (c *ErrorClassifier) ClassifyText(text string) Classification {
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(text) {
			return rule.Label
		}
	}
	return ClassUnknown
}

// Classify labels a failed verification by the concatenated text of its errors.
func (c *ErrorClassifier) Classify(result VerificationResult) Classification {
	if result.Succeeded() || len(result.Errors) == 0 {
		return ClassUnknown
	}

	messages := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		messages = append(messages, e.Message)
	}
	return c.ClassifyText(strings.Join(messages, "\n"))
}

// Kind maps a classification onto the structured error kind.
func (c Classification) Kind() string {
	switch c {
	case ClassMechanical:
		return KindSyntax
	case ClassSemantic:
		return KindSemantic
	case ClassUnknown:
		return KindUnknown
	default:
		return KindUnknown
	}
}
