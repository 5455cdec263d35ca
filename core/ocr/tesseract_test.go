package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func writeTextImage(t *testing.T, text string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestTesseractEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	path := writeTextImage(t, "Hello Folder")
	engine := NewTesseractEngine("eng")

	table, err := engine.Recognize(context.Background(), path)

	require.NoError(t, err, "Expected recognition to succeed")
	require.NotEmpty(t, table, "Expected at least one word")
	for _, token := range table {
		assert.Equal(t, LevelWord, token.Level)
		assert.NotNil(t, token.Conf)
	}
	text := strings.ToLower(ReconstructText(table, 0))
	assert.Contains(t, text, "hello")
}

func TestTesseractEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseractEngine("eng").Recognize(ctx, "missing.png")

	assert.ErrorIs(t, err, context.Canceled)
}
