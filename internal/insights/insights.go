// Package insights produces the narrative executive summary for the
// dashboard. A Completer turns a rendered prompt into text; Service adds the
// timeout and swaps in a static summary whenever the provider fails.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/pkg/logger"
)

var log = logger.With("component", "insights")

// ErrServiceUnavailable marks a completion that could not be obtained.
var ErrServiceUnavailable = errors.New("insights: completion service unavailable")

const DefaultTimeout = 20 * time.Second

// DefaultFallback is shown when no provider answers in time.
const DefaultFallback = `## Key Customer Insights

**Customer Satisfaction Analysis:**
- Overall sentiment indicates moderate customer satisfaction with room for improvement
- Escalation rate suggests need for enhanced first-contact resolution
- Communication volume shows active customer engagement

**Priority Recommendations:**
1. **Immediate Actions**: Address urgent response communications within 24 hours
2. **Process Improvement**: Implement proactive communication for technical issues
3. **Training Focus**: Enhance team skills for handling complex inquiries
4. **Technology**: Leverage AI insights for predictive customer service

**Strategic Opportunities:**
- Develop customer success programs for high-value accounts
- Create knowledge base for common technical issues
- Implement sentiment-based routing for critical communications`

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// PromptData is the statistical digest handed to the model.
type PromptData struct {
	TotalCommunications int                       `json:"total_communications"`
	AvgSentiment        float64                   `json:"avg_sentiment"`
	EscalationRate      float64                   `json:"escalation_rate"`
	TopIssues           []analytics.CategoryCount `json:"top_issues"`
	ImmediateCount      int                       `json:"immediate_count"`
}

// BuildPromptData digests records. Empty input yields analytics.ErrEmptyInput.
func BuildPromptData(records []analytics.CommunicationRecord) (PromptData, error) {
	s, err := analytics.Summarize(records)
	if err != nil {
		return PromptData{}, err
	}
	return PromptData{
		TotalCommunications: s.TotalRecords,
		AvgSentiment:        s.AvgSentiment,
		EscalationRate:      s.EscalationRate,
		TopIssues:           analytics.CountBy(records, analytics.ByClassification, 3),
		ImmediateCount:      s.ImmediateCount,
	}, nil
}

// Result is the outcome of one summary request. Err is set, and wraps
// ErrServiceUnavailable, whenever Fallback is true.
type Result struct {
	Text        string    `json:"text"`
	Fallback    bool      `json:"fallback"`
	Cause       string    `json:"cause,omitempty"`
	Provider    string    `json:"provider"`
	Prompt      string    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
	Err         error     `json:"-"`
}

// Service is safe for concurrent use.
type Service struct {
	completer Completer
	provider  string
	renderer  *PromptRenderer
	timeout   time.Duration
	fallback  string
	now       func() time.Time
}

// NewService wires a completer. A nil completer always falls back and a nil
// renderer uses DefaultPromptTemplate.
func NewService(c Completer, provider string, renderer *PromptRenderer, timeout time.Duration, fallback string) *Service {
	if renderer == nil {
		renderer = defaultRenderer
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallback
	}
	if provider == "" {
		provider = ProviderStatic
	}
	return &Service{
		completer: c,
		provider:  provider,
		renderer:  renderer,
		timeout:   timeout,
		fallback:  fallback,
		now:       time.Now,
	}
}

// Summarize renders the prompt for data and asks the provider, bounded by
// the service timeout. It never fails: any error yields the static text.
func (s *Service) Summarize(ctx context.Context, data PromptData) *Result {
	res := &Result{Provider: s.provider, GeneratedAt: s.now().UTC()}

	prompt, err := s.renderer.Render(data)
	if err != nil {
		return s.fallbackResult(res, err)
	}
	res.Prompt = prompt

	if s.completer == nil {
		return s.fallbackResult(res, errors.New("no completion provider configured"))
	}

	start := time.Now()
	text, err := s.complete(ctx, prompt)
	if err != nil {
		return s.fallbackResult(res, err)
	}

	log.Info("insight generated", "provider", s.provider, "duration_ms", time.Since(start).Milliseconds())
	res.Text = text
	return res
}

// complete runs the completer in its own goroutine so a provider that
// ignores ctx still cannot hold the caller past the timeout.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := s.completer.Complete(ctx, prompt)
		done <- outcome{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("completion timed out after %s: %w", s.timeout, ctx.Err())
	case o := <-done:
		if o.err != nil {
			return "", o.err
		}
		text := strings.TrimSpace(o.text)
		if text == "" {
			return "", errors.New("empty completion")
		}
		return text, nil
	}
}

func (s *Service) fallbackResult(res *Result, cause error) *Result {
	log.Warn("insight provider unavailable, using static summary", "provider", s.provider, "error", cause)
	res.Text = s.fallback
	res.Fallback = true
	res.Cause = cause.Error()
	res.Err = fmt.Errorf("%w: %w", ErrServiceUnavailable, cause)
	return res
}
