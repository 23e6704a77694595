// Package watermark composites a raster image onto every page of a
// sliced PDF.
//
// Image decoding and the DeviceRGB/DeviceGray-SMask XObject split follow
// core/write/image.go's AddImage. That function only ever receives
// stdlib-decodable formats (PNG/JPEG/GIF); a watermark source file may
// be a BMP, so golang.org/x/image/bmp is registered here alongside the
// stdlib decoders. Arbitrary-angle rotation, and the optional Resize,
// use golang.org/x/image/draw's bilinear interpolator; the watermark's
// size on the page is set by the content stream's cm matrix. image/draw
// in the standard library only supports nearest-neighbor copies through
// its Draw function, which produces visibly blocky output for anything
// but a 1:1 scale, so draw.BiLinear is used instead.
package watermark

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/isis-papyrus/rptx/internal/pdfslice"
	"github.com/isis-papyrus/rptx/internal/rptxerr"
)

func init() {
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig)
}

// Image is a decoded watermark source, pre-split into its RGB plane and
// an optional alpha-channel soft mask.
type Image struct {
	Width, Height int
	RGB           []byte // DeviceRGB, 3 bytes/pixel, row-major
	Gray          []byte // DeviceGray, 1 byte/pixel — used instead of RGB for grayscale sources
	IsGray        bool
	Alpha         []byte // DeviceGray soft mask, 1 byte/pixel; set for RGBA/NRGBA sources and after arbitrary-angle rotation, nil otherwise
}

// Decode loads a watermark image from raw bytes (PNG, JPEG, GIF, or
// BMP) and splits it into color and alpha planes exactly as
// core/write/image.go's AddImage does for embedded page images.
func Decode(raw []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, rptxerr.Wrap(rptxerr.CodeInvalidRpt, "failed to decode watermark image", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &Image{Width: w, Height: h}

	hasAlpha := false
	switch img.(type) {
	case *image.NRGBA, *image.RGBA:
		hasAlpha = true
	}

	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		out.IsGray = true
		out.Gray = make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
				out.Gray[y*w+x] = g.Y
			}
		}
	default:
		out.RGB = make([]byte, w*h*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				idx := (y*w + x) * 3
				out.RGB[idx] = uint8(r >> 8)
				out.RGB[idx+1] = uint8(g >> 8)
				out.RGB[idx+2] = uint8(b >> 8)
			}
		}
	}

	if hasAlpha {
		out.Alpha = make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				_, _, _, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				out.Alpha[y*w+x] = uint8(a >> 8)
			}
		}
	}

	return out, nil
}

// Resize scales the image to exactly w x h pixels using bilinear
// interpolation, for callers that want to pre-scale before placement
// rather than lean on the PDF content stream's own /cm scaling.
func Resize(src *Image, w, h int) *Image {
	srcImg := src.toGoImage()
	dstImg := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)

	out := &Image{Width: w, Height: h, RGB: make([]byte, w*h*3)}
	hasAlpha := src.Alpha != nil
	if hasAlpha {
		out.Alpha = make([]byte, w*h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := dstImg.At(x, y).RGBA()
			idx := (y*w + x) * 3
			out.RGB[idx] = uint8(r >> 8)
			out.RGB[idx+1] = uint8(g >> 8)
			out.RGB[idx+2] = uint8(b >> 8)
			if hasAlpha {
				out.Alpha[y*w+x] = uint8(a >> 8)
			}
		}
	}
	return out
}

// Rotate turns img by degrees counter-clockwise, per spec.md §4.6 step 1.
// 0/90/180/270 (mod 360) are exact pixel permutations — no resampling,
// no quality loss. Any other angle is painted into a transparent
// oversized canvas sized to the rotated bounding box and resampled with
// draw.BiLinear, since stdlib image/draw cannot rotate at all.
func Rotate(img *Image, degrees float64) *Image {
	norm := math.Mod(degrees, 360)
	if norm < 0 {
		norm += 360
	}
	switch norm {
	case 0:
		return img
	case 90:
		return rotate90(img)
	case 180:
		return rotate90(rotate90(img))
	case 270:
		return rotate90(rotate90(rotate90(img)))
	}
	return rotateArbitrary(img, norm)
}

// rotate90 rotates img 90 degrees counter-clockwise by index permutation.
func rotate90(img *Image) *Image {
	w, h := img.Width, img.Height
	out := &Image{Width: h, Height: w, IsGray: img.IsGray}
	if img.IsGray {
		out.Gray = make([]byte, w*h)
	} else {
		out.RGB = make([]byte, w*h*3)
	}
	if img.Alpha != nil {
		out.Alpha = make([]byte, w*h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// (x, y) in the source maps to (y, w-1-x) in a 90deg CCW
			// rotation of a w x h image into an h x w image.
			dx, dy := y, w-1-x
			srcIdx := y*w + x
			dstIdx := dy*h + dx
			if img.IsGray {
				out.Gray[dstIdx] = img.Gray[srcIdx]
			} else {
				copy(out.RGB[dstIdx*3:dstIdx*3+3], img.RGB[srcIdx*3:srcIdx*3+3])
			}
			if img.Alpha != nil {
				out.Alpha[dstIdx] = img.Alpha[srcIdx]
			}
		}
	}
	return out
}

func rotateArbitrary(img *Image, degrees float64) *Image {
	src := img.toGoImage()
	theta := degrees * math.Pi / 180

	w, h := float64(img.Width), float64(img.Height)
	cos, sin := math.Abs(math.Cos(theta)), math.Abs(math.Sin(theta))
	newW := int(math.Ceil(w*cos + h*sin))
	newH := int(math.Ceil(w*sin + h*cos))

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	// Rotate counter-clockwise (y grows downward, as in rotate90) about
	// the source image's center, translated to the destination canvas's
	// center, using the affine form draw.BiLinear expects:
	// dst = src2dst * src.
	srcCx, srcCy := w/2, h/2
	dstCx, dstCy := float64(newW)/2, float64(newH)/2
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	m := f64.Aff3{
		cosT, sinT, dstCx - cosT*srcCx - sinT*srcCy,
		-sinT, cosT, dstCy + sinT*srcCx - cosT*srcCy,
	}
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, nil)

	out := &Image{Width: newW, Height: newH, RGB: make([]byte, newW*newH*3), Alpha: make([]byte, newW*newH)}
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, b, a := dst.At(x, y).RGBA()
			idx := y*newW + x
			out.RGB[idx*3] = uint8(r >> 8)
			out.RGB[idx*3+1] = uint8(g >> 8)
			out.RGB[idx*3+2] = uint8(b >> 8)
			out.Alpha[idx] = uint8(a >> 8)
		}
	}
	return out
}

func (img *Image) toGoImage() image.Image {
	if img.IsGray {
		g := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
		copy(g.Pix, img.Gray)
		return g
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		a := uint8(255)
		if img.Alpha != nil {
			a = img.Alpha[i]
		}
		rgba.Pix[i*4] = img.RGB[i*3]
		rgba.Pix[i*4+1] = img.RGB[i*3+1]
		rgba.Pix[i*4+2] = img.RGB[i*3+2]
		rgba.Pix[i*4+3] = a
	}
	return rgba
}

// ApplyToPDF composites img onto every page of a sliced PDF document
// according to spec, returning the rewritten PDF bytes. img is rotated
// first (spec.md §4.6 step 1: "Rotate 0/90/180/270 by index permutation;
// other angles ... painting into a transparent oversized canvas"), then
// placed per-page by a Placements function built from spec.Position and
// spec.Scale (spec.md §4.6 step 2). pdfslice.ApplyWatermark shares one
// image XObject across every page and only varies the page content
// stream's placement matrix, mirroring how core/write/image.go keeps
// one ImageInfo per embed.
func ApplyToPDF(doc *pdfslice.Document, img *Image, spec Spec) ([]byte, error) {
	rotated := Rotate(img, spec.Rotation)
	placements := buildPlacements(spec.Position, spec.Scale, rotated.Width, rotated.Height)
	return pdfslice.ApplyWatermark(doc, toXObjectSource(rotated), clamp01(spec.Opacity/100), placements)
}

func toXObjectSource(img *Image) pdfslice.WatermarkImage {
	return pdfslice.WatermarkImage{
		Width:      img.Width,
		Height:     img.Height,
		ColorSpace: colorSpaceOf(img),
		Data:       pixelDataOf(img),
		SMask:      img.Alpha,
	}
}

func colorSpaceOf(img *Image) string {
	if img.IsGray {
		return "/DeviceGray"
	}
	return "/DeviceRGB"
}

func pixelDataOf(img *Image) []byte {
	if img.IsGray {
		return img.Gray
	}
	return img.RGB
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
