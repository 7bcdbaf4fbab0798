package chat

import (
	"fmt"
	"sort"
	"strings"
)

// Template renders a conversation into the flat prompt string a model expects.
type Template interface {
	Name() string
	// Render returns the prompt. When addGenerationPrompt is set the opening
	// assistant tag is appended so the model continues as the assistant.
	Render(msgs []Message, addGenerationPrompt bool) string
}

// DefaultTemplate is the template TinyLlama chat models are trained with.
const DefaultTemplate = "zephyr"

// tagTemplate covers templates of the form <prefix><role><suffix><content><eot>.
type tagTemplate struct {
	name   string
	open   func(Role) string
	eot    string
	prompt string
}

func (t tagTemplate) Name() string { return t.name }

func (t tagTemplate) Render(msgs []Message, addGenerationPrompt bool) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(t.open(m.Role))
		b.WriteString(m.Content)
		b.WriteString(t.eot)
	}
	if addGenerationPrompt {
		b.WriteString(t.prompt)
	}
	return b.String()
}

var templates = map[string]Template{
	"zephyr": tagTemplate{
		name:   "zephyr",
		open:   func(r Role) string { return "<|" + string(r) + "|>\n" },
		eot:    "</s>\n",
		prompt: "<|assistant|>\n",
	},
	"chatml": tagTemplate{
		name:   "chatml",
		open:   func(r Role) string { return "<|im_start|>" + string(r) + "\n" },
		eot:    "<|im_end|>\n",
		prompt: "<|im_start|>assistant\n",
	},
	// plain matches FormatTrainingText: no end-of-turn token.
	"plain": tagTemplate{
		name:   "plain",
		open:   func(r Role) string { return "<|" + string(r) + "|>\n" },
		eot:    "\n",
		prompt: "<|assistant|>\n",
	},
}

// LookupTemplate returns a built-in template by name. Empty selects DefaultTemplate.
func LookupTemplate(name string) (Template, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultTemplate
	}
	t, ok := templates[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown chat template %q (known: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return t, nil
}

// TemplateNames lists the built-in templates in sorted order.
func TemplateNames() []string {
	out := make([]string, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
