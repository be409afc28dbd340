package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
)

type stubRunnable struct {
	invoke func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error)
}

func (s *stubRunnable) Invoke(ctx context.Context, in model.TurnInput, opts ...compose.Option) (*model.CoachResult, error) {
	return s.invoke(ctx, in)
}

func (s *stubRunnable) Stream(ctx context.Context, in model.TurnInput, opts ...compose.Option) (*schema.StreamReader[*model.CoachResult], error) {
	return nil, errors.New("not implemented")
}

func (s *stubRunnable) Collect(ctx context.Context, in *schema.StreamReader[model.TurnInput], opts ...compose.Option) (*model.CoachResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRunnable) Transform(ctx context.Context, in *schema.StreamReader[model.TurnInput], opts ...compose.Option) (*schema.StreamReader[*model.CoachResult], error) {
	return nil, errors.New("not implemented")
}

func engineWith(invoke func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error)) *engineRunner {
	return &engineRunner{runnable: &stubRunnable{invoke: invoke}}
}

func TestIsOverloaded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"app error with 503 status", errx.WrapModel(errors.New("upstream"), http.StatusServiceUnavailable), true},
		{"app error with other status", errx.WrapEntity(errors.New("upstream")), false},
		{"raw 503 text", errors.New("rpc error: 503 Service Unavailable"), true},
		{"overloaded text", errors.New("The model is overloaded. Please try again later."), true},
		{"unavailable text", errors.New("service temporarily unavailable"), true},
		{"unrelated failure", errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isOverloaded(tt.err))
		})
	}
}

func TestProcessTurnOverloadedProvider(t *testing.T) {
	engine := engineWith(func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error) {
		return nil, fmt.Errorf("node ClassifierChatModel: %w",
			errx.WrapModel(errors.New("resource exhausted"), http.StatusServiceUnavailable))
	})

	out := engine.ProcessTurn(context.Background(), model.TurnInput{UserID: "u1", Text: "log an apple"})
	require.NotNil(t, out)
	assert.Equal(t, model.ActionNone, out.Action)
	assert.Contains(t, out.Response, "overloaded")
}

func TestProcessTurnGenericFailure(t *testing.T) {
	engine := engineWith(func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error) {
		return nil, errors.New("boom")
	})

	out := engine.ProcessTurn(context.Background(), model.TurnInput{UserID: "u1", Text: "hi"})
	require.NotNil(t, out)
	assert.Equal(t, model.ActionNone, out.Action)
	assert.Equal(t, "An unexpected error occurred while processing your request.", out.Response)
}

func TestProcessTurnNilOutput(t *testing.T) {
	engine := engineWith(func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error) {
		return nil, nil
	})

	out := engine.ProcessTurn(context.Background(), model.TurnInput{UserID: "u1", Text: "hi"})
	require.NotNil(t, out)
	assert.Equal(t, "An unexpected error occurred while processing your request.", out.Response)
}

func TestProcessTurnPassesResultThrough(t *testing.T) {
	want := &model.CoachResult{Action: model.ActionFoodAdded, Response: "Added Apple (2 piece): 190 calories."}
	engine := engineWith(func(ctx context.Context, in model.TurnInput) (*model.CoachResult, error) {
		return want, nil
	})

	out := engine.ProcessTurn(context.Background(), model.TurnInput{UserID: "u1", Text: "I ate 2 apples"})
	assert.Same(t, want, out)
}
