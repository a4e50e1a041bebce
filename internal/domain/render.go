package domain

import (
	"fmt"
	"strings"
)

// Template placeholders understood by RenderUserTemplate.
const (
	PlaceholderUserRequest         = "{user_request}"
	PlaceholderCurrentCode         = "{current_code}"
	PlaceholderConversationSummary = "{conversation_summary}"
	PlaceholderRetrievedContext    = "{retrieved_context}"
	PlaceholderDialect             = "{dialect}"
)

// Fallback values substituted when the context has no value for a placeholder.
const (
	NoUserRequest         = "(no request provided)"
	NoCurrentCode         = "(no current code)"
	NoConversationSummary = "(no conversation history)"
	NoRetrievedContext    = "(no relevant examples found)"
	NoDialect             = "(unspecified dialect)"
)

// RenderContext holds the request-derived values substituted into a template.
type RenderContext struct {
	UserRequest         string
	CurrentCode         string
	ConversationSummary string
	RetrievedContext    string
	Dialect             string
}

// NewRenderContext derives the render values for pack.
// Repair packs render the prior output as the current code.
func NewRenderContext(pack *ContextPack) RenderContext {
	code := pack.CurrentCode
	if pack.PriorOutput != "" {
		code = pack.PriorOutput
	}

	return RenderContext{
		UserRequest:         pack.UserPrompt,
		CurrentCode:         code,
		ConversationSummary: pack.ConversationSummary,
		RetrievedContext:    FormatExamples(pack.Examples, pack.Dialect.FenceTag),
		Dialect:             pack.Dialect.Name,
	}
}

// RenderUserTemplate substitutes every placeholder of template. Rendering
// always completes: empty values are replaced by explicit fallbacks.
func RenderUserTemplate(template string, rc RenderContext) string {
	replacer := strings.NewReplacer(
		PlaceholderUserRequest, orDefault(rc.UserRequest, NoUserRequest),
		PlaceholderCurrentCode, orDefault(rc.CurrentCode, NoCurrentCode),
		PlaceholderConversationSummary, orDefault(rc.ConversationSummary, NoConversationSummary),
		PlaceholderRetrievedContext, orDefault(rc.RetrievedContext, NoRetrievedContext),
		PlaceholderDialect, orDefault(rc.Dialect, NoDialect),
	)
	return replacer.Replace(template)
}

// Render turns a spec into the system prompt and message list of one provider request.
func Render(spec *PromptSpec, rc RenderContext, fenceTag string) (string, []Message) {
	sections := make([]string, 0, 3)
	for _, s := range []string{spec.System, spec.Developer} {
		if strings.TrimSpace(s) != "" {
			sections = append(sections, strings.TrimSpace(s))
		}
	}
	if len(spec.OutputContract.RequiredMarkers) > 0 {
		sections = append(sections, "Your answer must contain: "+
			strings.Join(spec.OutputContract.RequiredMarkers, ", "))
	}
	system := RenderUserTemplate(strings.Join(sections, "\n\n"), rc)

	messages := make([]Message, 0, len(spec.FewShot)*2+1)
	for _, shot := range spec.FewShot {
		messages = append(messages,
			Message{Role: RoleUser, Content: shot.Prompt},
			Message{Role: RoleAssistant, Content: Fence(shot.Code, fenceTag)},
		)
	}
	messages = append(messages, Message{Role: RoleUser, Content: RenderUserTemplate(spec.UserTemplate, rc)})

	return system, messages
}

// FormatExamples renders retrieved examples as numbered prompt/code blocks.
func FormatExamples(examples []RetrievedExample, fenceTag string) string {
	if len(examples) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Example %d: %s\n%s", i+1, strings.TrimSpace(ex.PromptText), Fence(ex.CodeText, fenceTag))
	}
	return b.String()
}

// Fence wraps code in a fenced block tagged with fenceTag.
func Fence(code, fenceTag string) string {
	return "```" + fenceTag + "\n" + strings.TrimSpace(code) + "\n```"
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
