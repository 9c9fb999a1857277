package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/idea-mapper/apimodels"
	"github.com/sozercan/idea-mapper/internal/llm"
)

// stubProvider returns the queued errors in order, then the reply.
type stubProvider struct {
	errs  []error
	reply string
	calls int
	users []string
}

func (p *stubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...llm.Option) (*llm.Response, error) {
	p.calls++
	p.users = append(p.users, userPrompt)
	if p.calls <= len(p.errs) {
		return nil, p.errs[p.calls-1]
	}
	return &llm.Response{Content: p.reply, Model: "stub-model", Usage: llm.Usage{TotalTokens: 42}}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestAnalyzePhotosynthesis(t *testing.T) {
	provider := &stubProvider{reply: photosynthesisReply}
	a := New(llm.NewRequester(provider, "instructions", llm.WithSleeper(noSleep)))

	resp, err := a.Analyze(context.Background(), apimodels.AnalysisRequest{Text: "Photosynthesis converts light to energy."})
	require.NoError(t, err)

	assert.Equal(t, []string{"Photosynthesis converts light to energy."}, provider.users)
	assert.Equal(t, []apimodels.Idea{{ID: "M1", Content: "Light becomes chemical energy"}}, resp.Analysis.CoreIdeas.MainIdeas)
	assert.Empty(t, resp.Analysis.CoreIdeas.SupportingIdeas)
	assert.Empty(t, resp.Analysis.Relationships.Items)
	assert.Empty(t, resp.Analysis.Analogies.Items)

	assert.NotEmpty(t, resp.Metadata.ID)
	assert.Equal(t, "stub-model", resp.Metadata.Model)
	assert.Equal(t, int64(42), resp.Metadata.TokensUsed)
	assert.False(t, resp.Metadata.CreatedAt.IsZero())
}

func TestAnalyzeFencedReply(t *testing.T) {
	provider := &stubProvider{reply: "```json\n" + photosynthesisReply + "\n```"}
	a := New(llm.NewRequester(provider, "instructions", llm.WithSleeper(noSleep)))

	resp, err := a.Analyze(context.Background(), apimodels.AnalysisRequest{Text: "text"})
	require.NoError(t, err)
	assert.Len(t, resp.Analysis.CoreIdeas.MainIdeas, 1)
}

func TestAnalyzeRateLimitExhausted(t *testing.T) {
	rateLimit := errors.New("rate limit reached")
	provider := &stubProvider{errs: []error{rateLimit, rateLimit, rateLimit}, reply: photosynthesisReply}
	a := New(llm.NewRequester(provider, "instructions", llm.WithMaxAttempts(3), llm.WithSleeper(noSleep)))

	resp, err := a.Analyze(context.Background(), apimodels.AnalysisRequest{Text: "text"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, llm.ErrRateLimitExhausted)
	assert.Equal(t, 3, provider.calls, "a fourth attempt must never be made")
}

func TestAnalyzeMalformedReply(t *testing.T) {
	provider := &stubProvider{reply: `{"CoreIdeas": {`}
	a := New(llm.NewRequester(provider, "instructions", llm.WithSleeper(noSleep)))

	resp, err := a.Analyze(context.Background(), apimodels.AnalysisRequest{Text: "text"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, provider.calls, "malformed replies are not retried")
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	provider := &stubProvider{errs: []error{errors.New("connection refused")}}
	a := New(llm.NewRequester(provider, "instructions", llm.WithSleeper(noSleep)))

	_, err := a.Analyze(context.Background(), apimodels.AnalysisRequest{Text: "text"})
	var upstream *llm.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, 1, provider.calls)
}
