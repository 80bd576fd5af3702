package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"meal-calendar/internal/llm"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// maxPageText bounds the page text sent to the model.
const maxPageText = 12000

type pageData struct {
	Title string
	Text  string
}

// extractor reads a recipe out of free page text with a language model. It is
// used only when the page carries no structured recipe data.
type extractor struct {
	textGen llm.TextGenerator
}

func (e *extractor) extract(ctx context.Context, data pageData) (recipe.Recipe, shared.TokenUsage, error) {
	if runes := []rune(data.Text); len(runes) > maxPageText {
		data.Text = string(runes[:maxPageText])
	}

	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, data); err != nil {
		return recipe.Recipe{}, shared.TokenUsage{}, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	resp, err := e.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return recipe.Recipe{}, shared.TokenUsage{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal([]byte(resp.Content), &r); err != nil {
		return recipe.Recipe{}, resp.Usage, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	lines := make([]string, 0, len(r.IngredientLines))
	for _, line := range r.IngredientLines {
		if line = clean(line); line != "" {
			lines = append(lines, line)
		}
	}
	return recipe.Recipe{
		Label:           clean(r.Label),
		Calories:        r.Calories,
		IngredientLines: lines,
	}, resp.Usage, nil
}
