package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
)

// Persona names the institution the assistant speaks for.
type Persona struct {
	Name      string // e.g. "GM University (GMU)"
	ShortName string // e.g. "GMU"
	Website   string // e.g. "the official GMU website"
}

// DefaultPersona matches the deployment the knowledge base was built for.
func DefaultPersona() Persona {
	return Persona{
		Name:      "GM University (GMU)",
		ShortName: "GMU",
		Website:   "the official GMU website",
	}
}

func (p Persona) withDefaults() Persona {
	if p.Name == "" {
		d := DefaultPersona()
		p.Name = d.Name
		if p.ShortName == "" {
			p.ShortName = d.ShortName
		}
		if p.Website == "" {
			p.Website = d.Website
		}
	}
	if p.ShortName == "" {
		p.ShortName = p.Name
	}
	if p.Website == "" {
		p.Website = "the official " + p.ShortName + " website"
	}
	return p
}

// GenerationParams are the sampling settings sent with every completion.
type GenerationParams struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// DefaultGenerationParams mirrors the production model settings.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Composer builds grounded or ungrounded prompts and issues the single
// completion call. It does no I/O of its own.
type Composer struct {
	llm     ports.CompletionService
	persona Persona
	params  GenerationParams
}

// NewComposer creates a Composer with injected completion backend.
func NewComposer(llm ports.CompletionService, persona Persona, params GenerationParams) *Composer {
	d := DefaultGenerationParams()
	if params.MaxTokens <= 0 {
		params.MaxTokens = d.MaxTokens
	}
	return &Composer{
		llm:     llm,
		persona: persona.withDefaults(),
		params:  params,
	}
}

// Compose returns the ordered message sequence for query.
func (c *Composer) Compose(query string, grounded bool, results []entities.RetrievalResult) []entities.ChatMessage {
	if grounded {
		return c.groundedMessages(query, results)
	}
	return c.ungroundedMessages(query)
}

// Generate composes the prompt and asks the completion service for a reply.
func (c *Composer) Generate(ctx context.Context, query string, grounded bool, results []entities.RetrievalResult) (string, error) {
	reply, err := c.llm.Complete(ctx, ports.CompletionRequest{
		Messages:    c.Compose(query, grounded, results),
		Model:       c.params.Model,
		Temperature: c.params.Temperature,
		MaxTokens:   c.params.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// BuildContext renders results as blank-line separated Q/A blocks in rank order.
func BuildContext(results []entities.RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Q: %s\nA: %s", r.Entry.Question, r.Entry.Answer)
	}
	return strings.Join(parts, "\n\n")
}

func (c *Composer) groundedMessages(query string, results []entities.RetrievalResult) []entities.ChatMessage {
	p := c.persona
	system := fmt.Sprintf(
		"You are a friendly but professional human-like assistant with a humorous touch for %s. "+
			"Use ONLY the provided context for %s-specific facts. "+
			"Keep the tone natural, warm and smooth, and keep the talk light-hearted (emojis welcome).",
		p.Name, p.ShortName,
	)

	var sb strings.Builder
	sb.WriteString("User question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString(p.ShortName)
	sb.WriteString(" Context:\n")
	sb.WriteString(BuildContext(results))
	sb.WriteString("\n\nAnswer naturally and clearly using only this information.")

	return []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: system},
		{Role: entities.RoleUser, Content: sb.String()},
	}
}

func (c *Composer) ungroundedMessages(query string) []entities.ChatMessage {
	p := c.persona
	system := fmt.Sprintf(
		"You are a helpful, friendly, professional %s assistant. "+
			"If the question requires exact %s facts you don't know, say you are not certain, "+
			"give a general explanation and politely recommend checking %s. "+
			"Always speak in a natural, human-like tone with a light humorous touch (emojis welcome).",
		p.Name, p.ShortName, p.Website,
	)
	return []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: system},
		{Role: entities.RoleUser, Content: query},
	}
}
