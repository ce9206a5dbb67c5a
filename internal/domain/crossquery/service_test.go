package crossquery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
	apperrors "github.com/yanqian/ai-booksum/pkg/errors"
)

type stubGateway struct {
	answer string
	err    error
	calls  []booksum.GenerateRequest
}

func (g *stubGateway) Generate(ctx context.Context, req booksum.GenerateRequest) (string, error) {
	g.calls = append(g.calls, req)
	return g.answer, g.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueryRejectsEmptyQuestion(t *testing.T) {
	gateway := &stubGateway{}
	svc := NewService(Config{Model: "test-model"}, gateway, newTestLogger())

	_, err := svc.Query(context.Background(), Request{Question: "  ", Excerpts: map[string]string{"Book": "text"}})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, booksum.CodeInvalidInput))
	require.Empty(t, gateway.calls)
}

func TestQueryRejectsMissingExcerpts(t *testing.T) {
	gateway := &stubGateway{}
	svc := NewService(Config{Model: "test-model"}, gateway, newTestLogger())

	_, err := svc.Query(context.Background(), Request{Question: "What changed?"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, booksum.CodeInvalidInput))
}

func TestQueryBuildsSortedLabeledPrompt(t *testing.T) {
	gateway := &stubGateway{answer: "Both books agree."}
	svc := NewService(Config{Model: "test-model"}, gateway, newTestLogger())

	resp, err := svc.Query(context.Background(), Request{
		Question: "What changed?",
		Excerpts: map[string]string{
			"Zulu Book":  "zulu content",
			"Alpha Book": "alpha content",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Both books agree.", resp.Answer)
	require.Equal(t, []string{"Alpha Book", "Zulu Book"}, resp.Sources)
	require.Equal(t, "test-model", resp.ModelUsed)

	require.Len(t, gateway.calls, 1)
	prompt := gateway.calls[0].Prompt
	require.Contains(t, prompt, "What changed?")
	require.Contains(t, prompt, "### Alpha Book\nalpha content")
	require.Contains(t, prompt, "### Zulu Book\nzulu content")
	require.Less(t, strings.Index(prompt, "### Alpha Book"), strings.Index(prompt, "### Zulu Book"))
}

func TestQueryTruncatesExcerptsToBudget(t *testing.T) {
	gateway := &stubGateway{answer: "ok"}
	svc := NewService(Config{Model: "test-model", ExcerptBudget: 10}, gateway, newTestLogger())

	excerpt := "abcdefghijklmnopqrstuvwxyz0123456789"
	_, err := svc.Query(context.Background(), Request{
		Question: "Q?",
		Excerpts: map[string]string{"Long Book": excerpt},
	})
	require.NoError(t, err)

	require.Len(t, gateway.calls, 1)
	require.Contains(t, gateway.calls[0].Prompt, excerpt[:10])
	require.NotContains(t, gateway.calls[0].Prompt, excerpt)
}

func TestQueryRequestOverridesModel(t *testing.T) {
	gateway := &stubGateway{answer: "ok"}
	svc := NewService(Config{Model: "test-model"}, gateway, newTestLogger())

	resp, err := svc.Query(context.Background(), Request{
		Question: "Q?",
		Excerpts: map[string]string{"Book": "text"},
		Model:    "other-model",
	})
	require.NoError(t, err)
	require.Equal(t, "other-model", resp.ModelUsed)
	require.Equal(t, "other-model", gateway.calls[0].Model)
}

func TestQueryMapsBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unreachable", booksum.ErrBackendUnreachable, booksum.CodeBackendUnreachable},
		{"http", &booksum.BackendHTTPError{StatusCode: 500}, booksum.CodeBackendHTTP},
		{"cancelled", context.Canceled, booksum.CodeCancelled},
		{"other", errors.New("boom"), booksum.CodeBackendHTTP},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &stubGateway{err: tc.err}
			svc := NewService(Config{Model: "test-model"}, gateway, newTestLogger())

			_, err := svc.Query(context.Background(), Request{
				Question: "Q?",
				Excerpts: map[string]string{"Book": "text"},
			})
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, tc.code))
		})
	}
}
