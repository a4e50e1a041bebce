package domain

import (
	"context"
	"strconv"
	"strings"

	"github.com/davidbz/forge/internal/observability"
)

// PostProcessor turns raw model output into code.
type PostProcessor struct {
	formatter Formatter
}

// NewPostProcessor creates a post-processor. formatter may be nil.
func NewPostProcessor(formatter Formatter) *PostProcessor {
	return &PostProcessor{formatter: formatter}
}

// Process extracts the code from text, repairs escaping artifacts and
// canonicalizes it with the dialect's formatter when one is available.
// Formatter failures keep the unformatted code.
func (p *PostProcessor) Process(ctx context.Context, text string, dialect DialectConstraints) string {
	code := ExtractCode(text, dialect.FenceTag)
	code = RepairEscaping(code)

	if p.formatter == nil || code == "" {
		return code
	}

	formatted, err := p.formatter.Format(ctx, code, dialect.Name)
	if err != nil {
		observability.FromContext(ctx).Debug("formatter unavailable, keeping raw code",
			observability.Error(err))
		return code
	}
	if strings.TrimSpace(formatted) == "" {
		return code
	}
	return strings.TrimSpace(formatted)
}

type fencedBlock struct {
	tag  string
	body string
}

// ExtractCode returns the code contained in text. With fenced blocks it
// prefers the first block tagged fenceTag, else the first block; an
// unterminated final fence runs to the end of text. Without fences the whole
// text is returned trimmed.
func ExtractCode(text, fenceTag string) string {
	blocks := fencedBlocks(text)
	if len(blocks) == 0 {
		return strings.TrimSpace(text)
	}

	if fenceTag != "" {
		for _, b := range blocks {
			if strings.EqualFold(b.tag, fenceTag) {
				return strings.TrimSpace(b.body)
			}
		}
	}
	return strings.TrimSpace(blocks[0].body)
}

func fencedBlocks(text string) []fencedBlock {
	var blocks []fencedBlock

	rest := text
	for {
		open := strings.Index(rest, codeFence)
		if open < 0 {
			return blocks
		}
		rest = rest[open+len(codeFence):]

		// The info string runs to the end of the opening line.
		tag := ""
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			tag = strings.TrimSpace(rest[:nl])
			rest = rest[nl+1:]
		} else {
			tag = strings.TrimSpace(rest)
			rest = ""
		}

		closeIdx := strings.Index(rest, codeFence)
		if closeIdx < 0 {
			blocks = append(blocks, fencedBlock{tag: tag, body: rest})
			return blocks
		}
		blocks = append(blocks, fencedBlock{tag: tag, body: rest[:closeIdx]})
		rest = rest[closeIdx+len(codeFence):]
	}
}

// RepairEscaping unwraps code a model emitted as a single quoted string
// literal, e.g. "SELECT 1;\nSELECT 2;". Anything else is returned unchanged
// apart from surrounding whitespace.
func RepairEscaping(code string) string {
	code = strings.TrimSpace(code)
	if len(code) < 2 || code[0] != '"' || code[len(code)-1] != '"' {
		return code
	}

	unquoted, err := strconv.Unquote(code)
	if err != nil {
		return code
	}
	return strings.TrimSpace(unquoted)
}
