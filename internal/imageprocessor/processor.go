package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels - больше не декодируем: 40 Мп хватит любому логотипу
const maxSourcePixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions too large")

// Processor ужимает логотипы компаний до квадрата maxSide x maxSide
type Processor struct {
	quality int
	maxSide int
}

// NewProcessor: quality вне 1..100 -> 85, maxSide <= 0 -> 256
func NewProcessor(quality, maxSide int) *Processor {
	p := &Processor{quality: quality, maxSide: maxSide}
	if p.quality < 1 || p.quality > 100 {
		p.quality = 85
	}
	if p.maxSide <= 0 {
		p.maxSide = 256
	}
	return p
}

type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Thumbnail принимает png, jpeg или webp. PNG остается PNG ради прозрачности,
// остальное перекодируется в JPEG.
func (p *Processor) Thumbnail(data []byte) (*Result, error) {
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}
	if w*h > maxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := src
	if tw, th := fitWithin(w, h, p.maxSide); tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}
	return p.encode(out, format)
}

func (p *Processor) encode(img image.Image, format string) (*Result, error) {
	var buf bytes.Buffer
	res := &Result{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	if format == "png" {
		res.ContentType = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	} else {
		res.ContentType = "image/jpeg"
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	res.Data = buf.Bytes()
	return res, nil
}

// fitWithin вписывает w x h в квадрат side с сохранением пропорций, без увеличения
func fitWithin(w, h, side int) (int, int) {
	if w <= side && h <= side {
		return w, h
	}
	if w >= h {
		return side, max(1, h*side/w)
	}
	return max(1, w*side/h), side
}

// Dimensions читает только заголовок изображения
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
