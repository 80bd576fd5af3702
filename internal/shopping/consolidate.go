package shopping

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"meal-calendar/internal/llm"
	"meal-calendar/internal/shared"
)

//go:embed consolidate_prompt.md
var consolidatePrompt string

var consolidateTmpl = template.Must(template.New("consolidate").Parse(consolidatePrompt))

// Consolidator merges duplicate shopping list lines with a language model.
// The plain list from Build stays the source of truth.
type Consolidator struct {
	textGen llm.TextGenerator
}

func NewConsolidator(textGen llm.TextGenerator) *Consolidator {
	return &Consolidator{textGen: textGen}
}

// Consolidate returns the merged list. An empty list is returned as is
// without calling the model.
func (c *Consolidator) Consolidate(ctx context.Context, items []string) ([]string, shared.CallMeta, error) {
	meta := shared.CallMeta{Source: "llm", Operation: "consolidate"}
	if len(items) == 0 {
		return []string{}, meta, nil
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := consolidateTmpl.Execute(&buf, struct{ Items []string }{items}); err != nil {
		return nil, meta, fmt.Errorf("failed to build consolidation prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	meta.Latency = time.Since(start)
	if err != nil {
		meta.Failed = true
		return nil, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage

	var out struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		meta.Failed = true
		return nil, meta, fmt.Errorf("failed to parse consolidated list: %w. Response: %s", err, resp.Content)
	}
	if out.Items == nil {
		out.Items = []string{}
	}
	meta.Results = len(out.Items)
	return out.Items, meta, nil
}
