package insights

import (
	"fmt"

	"github.com/osteele/liquid"
)

// DefaultPromptTemplate asks for the three sections the dashboard renders.
const DefaultPromptTemplate = `Analyze the following customer communication data and provide executive insights:

Total Communications: {{ total }}
Average Sentiment Score: {{ avg_sentiment | fixed: 2 }}
Escalation Rate: {{ escalation_rate | fixed: 1 }}%
Top Issues: {% for issue in top_issues %}{{ issue.label }} ({{ issue.count }}){% unless forloop.last %}, {% endunless %}{% else %}none{% endfor %}
Immediate Response Required: {{ immediate }}

Provide:
1. Key insights about customer satisfaction
2. Recommendations for improving customer experience
3. Priority actions for the customer service team`

var defaultRenderer = mustRenderer(DefaultPromptTemplate)

func mustRenderer(src string) *PromptRenderer {
	r, err := NewPromptRenderer(src)
	if err != nil {
		panic(err)
	}
	return r
}

// PromptRenderer renders PromptData through a Liquid template.
type PromptRenderer struct {
	tpl *liquid.Template
}

// NewPromptRenderer parses src, or DefaultPromptTemplate when src is empty.
func NewPromptRenderer(src string) (*PromptRenderer, error) {
	if src == "" {
		src = DefaultPromptTemplate
	}

	engine := liquid.NewEngine()
	engine.RegisterFilter("fixed", func(value float64, places int) string {
		return fmt.Sprintf("%.*f", places, value)
	})

	tpl, err := engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptRenderer{tpl: tpl}, nil
}

// Render binds data into the template.
func (r *PromptRenderer) Render(data PromptData) (string, error) {
	issues := make([]map[string]interface{}, len(data.TopIssues))
	for i, c := range data.TopIssues {
		issues[i] = map[string]interface{}{"label": c.Label, "count": c.Count}
	}

	out, err := r.tpl.RenderString(liquid.Bindings{
		"total":           data.TotalCommunications,
		"avg_sentiment":   data.AvgSentiment,
		"escalation_rate": data.EscalationRate,
		"top_issues":      issues,
		"immediate":       data.ImmediateCount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return out, nil
}
