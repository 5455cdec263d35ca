package ocr

import (
	"context"

	"github.com/siherrmann/inscriber/model"
)

// Engine turns an image file into a word level token table.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (model.TokenTable, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, imagePath string) (model.TokenTable, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Recognize(ctx context.Context, imagePath string) (model.TokenTable, error) {
	return f(ctx, imagePath)
}
