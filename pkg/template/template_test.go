package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mergepost/mergepost/pkg/template"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tpl  string
		vars map[string]string
		want string
	}{
		{
			name: "single placeholder",
			tpl:  "Hi {{name}}",
			vars: map[string]string{"name": "Ana"},
			want: "Hi Ana",
		},
		{
			name: "multiple placeholders",
			tpl:  "{{greeting}} {{name}}, welcome to {{company}}!",
			vars: map[string]string{"greeting": "Hello", "name": "Bob", "company": "Acme"},
			want: "Hello Bob, welcome to Acme!",
		},
		{
			name: "missing field renders empty",
			tpl:  "Hi {{name}}, your code is {{code}}",
			vars: map[string]string{"name": "Ana"},
			want: "Hi Ana, your code is ",
		},
		{
			name: "no placeholders passes through",
			tpl:  "plain text only",
			vars: map[string]string{"name": "Ana"},
			want: "plain text only",
		},
		{
			name: "empty template",
			tpl:  "",
			vars: map[string]string{"name": "Ana"},
			want: "",
		},
		{
			name: "nil vars",
			tpl:  "Hi {{name}}",
			vars: nil,
			want: "Hi ",
		},
		{
			name: "adjacent placeholders are matched non-greedily",
			tpl:  "{{a}}{{b}}",
			vars: map[string]string{"a": "1", "b": "2"},
			want: "12",
		},
		{
			name: "placeholder value containing braces is not re-expanded",
			tpl:  "{{a}}",
			vars: map[string]string{"a": "{{b}}", "b": "nope"},
			want: "{{b}}",
		},
		{
			name: "field name with spaces",
			tpl:  "{{first name}}",
			vars: map[string]string{"first name": "Ana"},
			want: "Ana",
		},
		{
			name: "unclosed placeholder is literal",
			tpl:  "Hi {{name",
			vars: map[string]string{"name": "Ana"},
			want: "Hi {{name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, template.Render(tt.tpl, tt.vars))
		})
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	t.Parallel()

	tpl := "Dear {{name}}, your order {{order}} ships to {{city}}."
	vars := map[string]string{"name": "Ana", "order": "42"}

	first := template.Render(tpl, vars)
	second := template.Render(tpl, vars)
	assert.Equal(t, first, second)
}

func TestRenderLeavesNoResolvedPlaceholders(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"name": "Ana", "city": "Lisbon"}
	out := template.Render("{{name}} / {{city}} / {{missing}}", vars)

	for k := range vars {
		assert.NotContains(t, out, "{{"+k+"}}")
	}
	assert.Equal(t, "Ana / Lisbon / ", out)
}

func TestHasPlaceholders(t *testing.T) {
	t.Parallel()

	assert.True(t, template.HasPlaceholders("Hi {{name}}"))
	assert.False(t, template.HasPlaceholders("Hi name"))
	assert.False(t, template.HasPlaceholders(""))
}
