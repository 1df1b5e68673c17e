package main

import (
	"bytes"
	"image/color"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source for error image generation
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// MeasureText returns the advance width of the string in the given face.
func MeasureText(textString string, font *text.GoTextFace) float64 {
	w, _ := text.Measure(textString, font, 0)
	return w
}

// truncateText shortens s to at most max characters, replacing the tail with
// an ellipsis. Counts runes, not bytes, so multibyte filenames are never cut
// mid-character.
func truncateText(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// CreateBrokenThumb builds the placeholder shown for thumbnails that failed
// to decode: a dark cell with a diagonal cross.
func CreateBrokenThumb(size int) *ebiten.Image {
	if size <= 0 {
		size = thumbnailSizes[defaultThumbnailKey]
	}
	img := ebiten.NewImage(size, size)
	img.Fill(color.RGBA{40, 40, 40, 255})
	gray := color.RGBA{110, 110, 110, 255}
	vector.StrokeLine(img, 0, 0, float32(size), float32(size), 2, gray, false)
	vector.StrokeLine(img, float32(size), 0, 0, float32(size), 2, gray, false)
	return img
}

// CreateErrorImage creates an error placeholder image with filename and error message
func CreateErrorImage(width, height int, filename, errorMsg string) *ebiten.Image {
	// Default size if not specified
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	// Ensure we have a font source
	if globalFontSource == nil {
		// Fallback: create a simple colored rectangle without text
		errorImg := ebiten.NewImage(width, height)
		errorImg.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background

		// Draw white border
		DrawFilledRect(errorImg, 0, 0, float64(width), 3, color.RGBA{255, 255, 255, 255})
		DrawFilledRect(errorImg, 0, float64(height-3), float64(width), 3, color.RGBA{255, 255, 255, 255})
		DrawFilledRect(errorImg, 0, 0, 3, float64(height), color.RGBA{255, 255, 255, 255})
		DrawFilledRect(errorImg, float64(width-3), 0, 3, float64(height), color.RGBA{255, 255, 255, 255})

		return errorImg
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background

	// Create font for error text
	errorFont := &text.GoTextFace{
		Source: globalFontSource,
		Size:   20.0,
	}

	// Draw white border
	DrawFilledRect(errorImg, 0, 0, float64(width), 3, color.RGBA{255, 255, 255, 255})
	DrawFilledRect(errorImg, 0, float64(height-3), float64(width), 3, color.RGBA{255, 255, 255, 255})
	DrawFilledRect(errorImg, 0, 0, 3, float64(height), color.RGBA{255, 255, 255, 255})
	DrawFilledRect(errorImg, float64(width-3), 0, 3, float64(height), color.RGBA{255, 255, 255, 255})

	// Prepare text content
	errorTitle := "ERROR"
	fileText := "File: " + filepath.Base(filename)
	reasonText := "Reason: " + errorMsg

	// Truncate long text to fit within image bounds
	maxChars := (width - 20) / 10 // Rough estimate: 10px per character
	fileText = truncateText(fileText, maxChars)
	reasonText = truncateText(reasonText, maxChars)

	// Draw error text
	white := color.RGBA{255, 255, 255, 255}
	DrawText(errorImg, errorTitle, errorFont, 10, 30, white)
	DrawText(errorImg, fileText, errorFont, 10, 60, white)
	DrawText(errorImg, reasonText, errorFont, 10, 90, white)

	return errorImg
}
