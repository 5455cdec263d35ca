package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"github.com/siherrmann/inscriber/model"
)

// Tesseract levels as reported in tesseract's TSV output.
const (
	LevelPage  = 1
	LevelBlock = 2
	LevelPar   = 3
	LevelLine  = 4
	LevelWord  = 5
)

// TesseractEngine implements Engine with the gosseract client.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine creates an engine recognizing the given languages.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs tesseract on the image and returns one token per word in reading order.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (model.TokenTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	table := make(model.TokenTable, 0, len(boxes))
	for _, b := range boxes {
		table = append(table, model.Token{
			Level:    LevelWord,
			PageNum:  1,
			BlockNum: b.BlockNum,
			ParNum:   b.ParNum,
			LineNum:  b.LineNum,
			WordNum:  b.WordNum,
			Left:     b.Box.Min.X,
			Top:      b.Box.Min.Y,
			Width:    b.Box.Dx(),
			Height:   b.Box.Dy(),
			Conf:     model.Conf(b.Confidence),
			Text:     b.Word,
		})
	}
	return table, nil
}
