package main

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorLightGray = color.RGBA{192, 192, 192, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}

	colorBackground = color.RGBA{24, 24, 24, 255}
	colorToolbar    = color.RGBA{40, 40, 40, 255}
	colorButton     = color.RGBA{64, 64, 64, 255}
	colorButtonHot  = color.RGBA{90, 90, 90, 255}
	colorCellBg     = color.RGBA{34, 34, 34, 255}

	bgColorLight = color.RGBA{0, 0, 0, 128}
)

const (
	toolbarHeight  = 36
	cellPaddingW   = 40 // Horizontal padding around each thumbnail
	captionHeight  = 50 // Space below each thumbnail for the filename
	scrollPerNotch = 60
)

// gridLayout holds the derived geometry of the thumbnail grid for one frame.
// Pure data so layout decisions are testable without a window.
type gridLayout struct {
	cols    int
	cellW   int
	cellH   int
	originY int
}

func computeGridLayout(winW, thumbPx int) gridLayout {
	cols := winW / (thumbPx + cellPaddingW)
	if cols < 1 {
		cols = 1
	}
	return gridLayout{
		cols:    cols,
		cellW:   winW / cols,
		cellH:   thumbPx + captionHeight,
		originY: toolbarHeight,
	}
}

// contentHeight is the total pixel height of count cells.
func (l gridLayout) contentHeight(count int) int {
	if count == 0 {
		return 0
	}
	rows := (count + l.cols - 1) / l.cols
	return rows * l.cellH
}

// maxScroll is the largest valid scroll offset for count cells in a window
// of height winH.
func (l gridLayout) maxScroll(count, winH int) float64 {
	max := float64(l.contentHeight(count) - (winH - l.originY))
	if max < 0 {
		return 0
	}
	return max
}

// cellAt maps a screen position to a cell index, or -1 when the position
// falls on the toolbar, in a gutter row beyond the last cell, or outside the
// window.
func (l gridLayout) cellAt(x, y int, scrollY float64, count int) int {
	if y < l.originY {
		return -1
	}
	contentY := y - l.originY + int(scrollY)
	row := contentY / l.cellH
	col := x / l.cellW
	if col >= l.cols {
		return -1
	}
	idx := row*l.cols + col
	if idx < 0 || idx >= count {
		return -1
	}
	return idx
}

// toolbarButton is a clickable labelled region.
type toolbarButton struct {
	label    string
	action   string
	x, w     float64
	disabled bool
}

func (b toolbarButton) contains(x, y int) bool {
	return float64(x) >= b.x && float64(x) < b.x+b.w && y >= 4 && y < toolbarHeight-4
}

// GridView renders the thumbnail grid screen and translates its mouse input
// into actions on the application.
type GridView struct {
	scrollY float64
	buttons []toolbarButton
	font    *text.GoTextFace
}

func NewGridView() *GridView {
	return &GridView{
		font: &text.GoTextFace{Source: globalFontSource, Size: 14},
	}
}

// ResetScroll rewinds to the top, e.g. after the folder changed.
func (g *GridView) ResetScroll() {
	g.scrollY = 0
}

// layoutButtons recomputes the toolbar buttons for the current state.
func (g *GridView) layoutButtons(sizeKey string, sortName string) {
	labels := []struct{ label, action string }{
		{"Open...", "choose_folder"},
		{"Refresh", "refresh"},
		{"Size: " + sizeKey, "cycle_thumbnail_size"},
		{"Sort: " + sortName, "cycle_sort"},
	}
	g.buttons = g.buttons[:0]
	x := 8.0
	for _, l := range labels {
		w := MeasureText(l.label, g.font) + 20
		g.buttons = append(g.buttons, toolbarButton{label: l.label, action: l.action, x: x, w: w})
		x += w + 8
	}
}

// Update handles grid-local input: wheel scrolling, toolbar clicks and
// thumbnail clicks. A click on cell i opens the viewer through the
// application.
func (g *GridView) Update(app InputAppState, actions InputActions) {
	winW, winH := app.WindowSize()
	refs := app.Refs()
	layout := computeGridLayout(winW, thumbnailSizePx(app.ThumbnailSizeKey()))

	g.layoutButtons(app.ThumbnailSizeKey(), app.SortName())

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		g.scrollY -= wheelY * scrollPerNotch
	}
	if g.scrollY < 0 {
		g.scrollY = 0
	}
	if max := layout.maxScroll(len(refs), winH); g.scrollY > max {
		g.scrollY = max
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if y < toolbarHeight {
			for _, b := range g.buttons {
				if b.contains(x, y) {
					globalActionExecutor.ExecuteAction(b.action, actions, app)
					return
				}
			}
			return
		}
		if idx := layout.cellAt(x, y, g.scrollY, len(refs)); idx >= 0 {
			app.OpenViewerAt(idx)
		}
	}
}

// Draw renders the toolbar, the visible slice of the grid and the captions.
func (g *GridView) Draw(screen *ebiten.Image, app InputAppState, thumbs *ThumbnailCache) {
	winW, winH := app.WindowSize()
	refs := app.Refs()
	thumbPx := thumbnailSizePx(app.ThumbnailSizeKey())
	layout := computeGridLayout(winW, thumbPx)

	screen.Fill(colorBackground)

	if len(refs) == 0 {
		msg := "No images in " + app.Folder()
		w := MeasureText(msg, g.font)
		DrawText(screen, msg, g.font, float64(winW)/2-w/2, float64(winH)/2, colorGray)
		g.drawToolbar(screen, winW, 0)
		return
	}

	// Only the visible rows are drawn; everything else stays untouched in
	// the thumbnail cache.
	firstRow := int(g.scrollY) / layout.cellH
	lastRow := (int(g.scrollY) + winH - layout.originY) / layout.cellH

	for row := firstRow; row <= lastRow; row++ {
		for col := 0; col < layout.cols; col++ {
			idx := row*layout.cols + col
			if idx >= len(refs) {
				break
			}
			g.drawCell(screen, refs[idx], thumbs, layout, row, col, thumbPx)
		}
	}

	g.drawToolbar(screen, winW, len(refs))
}

func (g *GridView) drawCell(screen *ebiten.Image, ref ImageRef, thumbs *ThumbnailCache, layout gridLayout, row, col, thumbPx int) {
	cellX := col * layout.cellW
	cellY := layout.originY + row*layout.cellH - int(g.scrollY)

	DrawFilledRect(screen, float64(cellX+2), float64(cellY+2), float64(layout.cellW-4), float64(layout.cellH-4), colorCellBg)

	thumb, ready := thumbs.Get(ref, thumbPx)
	if ready && thumb != nil {
		tw, th := thumb.Bounds().Dx(), thumb.Bounds().Dy()
		op := &ebiten.DrawImageOptions{}
		op.Filter = ebiten.FilterLinear
		op.GeoM.Translate(
			float64(cellX)+float64(layout.cellW)/2-float64(tw)/2,
			float64(cellY)+float64(thumbPx)/2-float64(th)/2+4,
		)
		screen.DrawImage(thumb, op)
	} else {
		// Loading placeholder
		DrawFilledRect(screen,
			float64(cellX)+float64(layout.cellW)/2-float64(thumbPx)/2,
			float64(cellY+4), float64(thumbPx), float64(thumbPx), colorToolbar)
	}

	caption := filepath.Base(ref.Path)
	if ref.EntryPath != "" {
		caption = filepath.Base(ref.EntryPath)
	}
	caption = truncateText(caption, (layout.cellW-8)/7)
	capW := MeasureText(caption, g.font)
	DrawText(screen, caption, g.font,
		float64(cellX)+float64(layout.cellW)/2-capW/2,
		float64(cellY+thumbPx+12), colorLightGray)
}

func (g *GridView) drawToolbar(screen *ebiten.Image, winW, count int) {
	DrawFilledRect(screen, 0, 0, float64(winW), toolbarHeight, colorToolbar)
	mx, my := ebiten.CursorPosition()
	for _, b := range g.buttons {
		bg := colorButton
		if b.contains(mx, my) {
			bg = colorButtonHot
		}
		DrawFilledRect(screen, b.x, 4, b.w, toolbarHeight-8, bg)
		DrawText(screen, b.label, g.font, b.x+10, 9, colorWhite)
	}

	status := statusLine(count)
	sw := MeasureText(status, g.font)
	DrawText(screen, status, g.font, float64(winW)-sw-10, 9, colorGray)
}

// statusLine builds the toolbar-right summary, e.g. "42 images".
func statusLine(count int) string {
	if count == 1 {
		return "1 image"
	}
	return fmt.Sprintf("%d images", count)
}
