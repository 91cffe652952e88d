// Package cover turns raw generated images into branded 16:9 blog covers.
package cover

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"blogr/app"
	"blogr/data"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	coverWidth  = 1200
	coverHeight = 675

	// fraction of the cover height added below for the caption band
	extendRatio = 0.25

	borderTolerance = 20
	jpegQuality     = 85
)

// Transform reshapes raw image bytes into a 1200x675 branded cover with a
// darkened caption band, optional logo and the post title. It saves the
// result as a JPEG under the category's image directory and returns the
// saved path plus a base64 data URI.
func Transform(raw []byte, title, category, safeName string) (string, string, error) {
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("decoding image: %w", err)
	}

	img := flatten(src)
	img = trimBorders(img)
	img = imaging.Fill(img, coverWidth, coverHeight, imaging.Center, imaging.Lanczos)
	img = enhance(img)

	canvas := extendCanvas(img)
	drawGradient(canvas, coverHeight)
	overlayLogo(canvas)
	if err := drawTitle(canvas, title); err != nil {
		app.Log("cover", "Skipping title overlay: %v", err)
	}

	dir := data.Dir("images", category)
	name := fmt.Sprintf("%s_%d.jpg", safeName, time.Now().Unix())
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", "", fmt.Errorf("encoding cover: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", "", err
	}

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	app.Log("cover", "Saved cover image %s (%d bytes)", name, buf.Len())
	return path, uri, nil
}

// flatten composites any transparency onto a white background.
func flatten(src image.Image) *image.NRGBA {
	b := src.Bounds()
	out := imaging.New(b.Dx(), b.Dy(), color.White)
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Over)
	return out
}

// trimBorders strips uniform near-black or near-white edges. The trim is
// only applied when the remaining image keeps at least 75% of each side.
func trimBorders(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	uniform := func(c color.NRGBA) bool {
		dark := c.R < borderTolerance && c.G < borderTolerance && c.B < borderTolerance
		light := c.R > 255-borderTolerance && c.G > 255-borderTolerance && c.B > 255-borderTolerance
		return dark || light
	}

	rowUniform := func(y int) bool {
		for x := 0; x < w; x++ {
			if !uniform(img.NRGBAAt(x, y)) {
				return false
			}
		}
		return true
	}
	colUniform := func(x int) bool {
		for y := 0; y < h; y++ {
			if !uniform(img.NRGBAAt(x, y)) {
				return false
			}
		}
		return true
	}

	top, bottom, left, right := 0, h, 0, w
	for top < bottom && rowUniform(top) {
		top++
	}
	for bottom > top && rowUniform(bottom-1) {
		bottom--
	}
	for left < right && colUniform(left) {
		left++
	}
	for right > left && colUniform(right-1) {
		right--
	}

	if right-left < w*3/4 || bottom-top < h*3/4 {
		return img
	}
	if top == 0 && left == 0 && bottom == h && right == w {
		return img
	}
	return imaging.Crop(img, image.Rect(left, top, right, bottom))
}

func enhance(img *image.NRGBA) *image.NRGBA {
	img = imaging.AdjustContrast(img, 10)
	img = imaging.AdjustSaturation(img, 5)
	return imaging.Sharpen(img, 0.5)
}

// extendCanvas grows the cover downward and fills the new band with the
// bottom strip of the image stretched vertically.
func extendCanvas(img *image.NRGBA) *image.NRGBA {
	ratio := float64(extendRatio)
	extH := int(float64(coverHeight) * ratio)
	canvas := imaging.New(coverWidth, coverHeight+extH, color.Black)
	canvas = imaging.Paste(canvas, img, image.Pt(0, 0))

	stripH := coverHeight / 20
	strip := imaging.Crop(img, image.Rect(0, coverHeight-stripH, coverWidth, coverHeight))
	stretched := imaging.New(coverWidth, extH, color.Black)
	xdraw.CatmullRom.Scale(stretched, stretched.Bounds(), strip, strip.Bounds(), xdraw.Src, nil)

	return imaging.Paste(canvas, stretched, image.Pt(0, coverHeight))
}

// drawGradient darkens the extension band, fading to near-black at the
// bottom edge.
func drawGradient(canvas *image.NRGBA, startY int) {
	b := canvas.Bounds()
	extH := b.Dy() - startY
	if extH <= 0 {
		return
	}
	for y := startY; y < b.Dy(); y++ {
		alpha := float64(y-startY) / float64(extH) * 0.95
		for x := 0; x < b.Dx(); x++ {
			c := canvas.NRGBAAt(x, y)
			c.R = uint8(float64(c.R) * (1 - alpha))
			c.G = uint8(float64(c.G) * (1 - alpha))
			c.B = uint8(float64(c.B) * (1 - alpha))
			canvas.SetNRGBA(x, y, c)
		}
	}
}

// overlayLogo pastes the brand logo top-right when one is configured.
func overlayLogo(canvas *image.NRGBA) {
	path := os.Getenv("BRANDING_LOGO_PATH")
	if path == "" {
		path = "assets/logo.png"
	}
	logo, err := imaging.Open(path)
	if err != nil {
		return
	}

	logoH := int(float64(coverHeight) * 0.08)
	logo = imaging.Resize(logo, 0, logoH, imaging.Lanczos)

	pad := int(float64(coverWidth) * 0.02)
	pt := image.Pt(coverWidth-logo.Bounds().Dx()-pad, pad)
	*canvas = *imaging.Overlay(canvas, logo, pt, 1.0)
}

// drawTitle renders the post title bottom-right over the caption band.
func drawTitle(canvas *image.NRGBA, title string) error {
	if title == "" {
		return nil
	}

	size := float64(coverHeight) * 0.035
	if size < 20 {
		size = 20
	}
	face, err := loadFace(size)
	if err != nil {
		return err
	}
	defer face.Close()

	maxWidth := int(float64(coverWidth) * 0.45)
	lines := wrapText(face, title, maxWidth)
	if len(lines) == 0 {
		return nil
	}

	lineHeight := int(size * 1.2)
	pad := int(float64(coverWidth) * 0.02)
	bottom := canvas.Bounds().Dy() - pad

	shadow := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{0, 0, 0, 180}),
		Face: face,
	}
	fg := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	y := bottom - lineHeight*(len(lines)-1)
	// a long title must not climb out of the band onto the photo
	if minY := coverHeight + pad; y < minY {
		y = minY
	}
	for _, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := coverWidth - w - pad

		shadow.Dot = fixed.P(x+2, y+2)
		shadow.DrawString(line)
		fg.Dot = fixed.P(x, y)
		fg.DrawString(line)

		y += lineHeight
	}
	return nil
}
