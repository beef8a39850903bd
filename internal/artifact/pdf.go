package artifact

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"
)

// pdfImage returns the payload in a form the PDF writer embeds as-is,
// with its pixel size. JPEG goes through untouched; PNG is re-encoded
// as 8-bit non-interlaced NRGBA since fpdf rejects 16-bit and
// interlaced files.
func pdfImage(p Payload) (data []byte, imageType string, w, h int, err error) {
	if p.Ext == "jpg" {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
		if err != nil {
			return nil, "", 0, 0, fmt.Errorf("decode jpeg: %w", err)
		}
		return p.Data, "JPG", cfg.Width, cfg.Height, nil
	}

	img, err := png.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("decode png: %w", err)
	}
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, "", 0, 0, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), "PNG", b.Dx(), b.Dy(), nil
}

// writePDF writes a single-page PDF whose page is exactly the image
// (1 px = 1 pt) with the image drawn at the origin.
func writePDF(w io.Writer, name string, p Payload) error {
	data, imageType, pw, ph, err := pdfImage(p)
	if err != nil {
		return err
	}
	if pw == 0 || ph == 0 {
		return fmt.Errorf("image %s is %dx%d", name, pw, ph)
	}
	width, height := float64(pw), float64(ph)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetCreator("photobooth", false)
	pdf.SetTitle(name, false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(data))
	pdf.ImageOptions(name, 0, 0, width, height, false, opt, 0, "")
	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}
