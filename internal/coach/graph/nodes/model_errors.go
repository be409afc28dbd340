package nodes

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/nutricoach/coach-core/internal/core/error"
)

// statusChatModel decorates a chat model so provider failures reach the
// engine as AppError values carrying the provider's HTTP status. The engine's
// error funnel reads that status to recognize an overloaded provider.
type statusChatModel struct {
	inner einomodel.BaseChatModel
}

func (m *statusChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		return nil, errx.WrapModel(err, providerStatus(err))
	}
	return out, nil
}

func (m *statusChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.inner.Stream(ctx, input, opts...)
	if err != nil {
		return nil, errx.WrapModel(err, providerStatus(err))
	}
	return out, nil
}

// providerStatus extracts the HTTP status the provider attached, or 0 when
// the error carries none.
func providerStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
