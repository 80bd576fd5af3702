package recipe

// Recipe is a recipe as returned by a search source. It is not modified
// after it has been fetched.
type Recipe struct {
	ID              string   `json:"id" yaml:"id"`
	Label           string   `json:"label" yaml:"label"`
	Image           string   `json:"image" yaml:"image"`
	URL             string   `json:"url,omitempty" yaml:"url,omitempty"`
	Calories        float64  `json:"calories,omitempty" yaml:"calories,omitempty"`
	IngredientLines []string `json:"ingredient_lines" yaml:"ingredient_lines"`
}
