package cover

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTransform(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BRANDING_LOGO_PATH", "/nonexistent/logo.png")

	raw := encodeJPEG(t, testImage(1024, 576, color.NRGBA{200, 120, 40, 255}))

	path, uri, err := Transform(raw, "Bitcoin Breaks New Ground", "crypto", "bitcoin_breaks_new_ground")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("unexpected data uri prefix: %.40s", uri)
	}
	if !strings.Contains(path, "bitcoin_breaks_new_ground_") {
		t.Errorf("unexpected filename: %s", path)
	}
	if !strings.Contains(path, filepath.Join("images", "crypto")) {
		t.Errorf("cover should live under the category image dir, got %s", path)
	}

	out, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("opening saved cover: %v", err)
	}
	b := out.Bounds()
	ratio := float64(extendRatio)
	wantH := coverHeight + int(float64(coverHeight)*ratio)
	if b.Dx() != coverWidth || b.Dy() != wantH {
		t.Errorf("cover is %dx%d, want %dx%d", b.Dx(), b.Dy(), coverWidth, wantH)
	}
}

func TestTransformBadInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, _, err := Transform([]byte("not an image"), "t", "crypto", "t"); err == nil {
		t.Error("expected an error for undecodable bytes")
	}
}

func TestDrawTitleStaysInBand(t *testing.T) {
	face, err := loadFace(20)
	if err != nil {
		t.Skipf("no system font available: %v", err)
	}
	face.Close()

	ratio := float64(extendRatio)
	extH := int(float64(coverHeight) * ratio)
	canvas := testImage(coverWidth, coverHeight+extH, color.White)

	long := strings.Repeat("A Very Long Cryptocurrency Headline ", 10)
	if err := drawTitle(canvas, long); err != nil {
		t.Fatalf("drawTitle failed: %v", err)
	}

	// nothing may be drawn above the caption band
	for y := 0; y < coverHeight-int(20*1.2); y++ {
		for x := 0; x < coverWidth; x++ {
			if c := canvas.NRGBAAt(x, y); c.R != 255 || c.G != 255 || c.B != 255 {
				t.Fatalf("pixel (%d,%d) was painted above the band", x, y)
			}
		}
	}
}

func TestTrimBorders(t *testing.T) {
	// 100x100 grey content with a 5px black frame
	img := testImage(110, 110, color.Black)
	inner := testImage(100, 100, color.NRGBA{128, 128, 128, 255})
	img = imaging.Paste(img, inner, image.Pt(5, 5))

	trimmed := trimBorders(img)
	b := trimmed.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("trimmed to %dx%d, want 100x100", b.Dx(), b.Dy())
	}
}

func TestTrimBordersKeepsSmallImages(t *testing.T) {
	// a mostly-black image should not be trimmed away
	img := testImage(100, 100, color.Black)
	inner := testImage(10, 10, color.NRGBA{128, 128, 128, 255})
	img = imaging.Paste(img, inner, image.Pt(45, 45))

	trimmed := trimBorders(img)
	b := trimmed.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("over-trimmed to %dx%d, want original 100x100", b.Dx(), b.Dy())
	}
}

func TestDrawGradient(t *testing.T) {
	img := testImage(10, 20, color.White)
	drawGradient(img, 10)

	top := img.NRGBAAt(5, 0)
	if top.R != 255 {
		t.Error("gradient should not touch pixels above the band")
	}

	bandTop := img.NRGBAAt(5, 10)
	bandBottom := img.NRGBAAt(5, 19)
	if bandBottom.R >= bandTop.R {
		t.Errorf("band should darken downward: top %d bottom %d", bandTop.R, bandBottom.R)
	}
}

func TestWrapText(t *testing.T) {
	face, err := loadFace(20)
	if err != nil {
		t.Skipf("no system font available: %v", err)
	}
	defer face.Close()

	lines := wrapText(face, "Bitcoin Surges As Institutional Investors Pile Into Spot ETFs", 200)
	if len(lines) < 2 {
		t.Errorf("expected the title to wrap, got %d line(s)", len(lines))
	}
	for _, line := range lines {
		if line == "" {
			t.Error("wrapText produced an empty line")
		}
	}

	if got := wrapText(face, "", 200); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
