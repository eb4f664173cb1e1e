package entity

// Intent is the structured output of the natural-language-understanding
// step: which query template answers the question, and the values extracted
// for its placeholders. A nil placeholder value means the NLU recognized the
// slot but extracted nothing for it.
type Intent struct {
	TemplateID   string             `json:"template_id"`
	Placeholders map[string]*string `json:"placeholders"`
}
