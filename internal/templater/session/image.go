package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"

	_ "image/gif"

	"github.com/aisa-it/templater/internal/templater/editor"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/nfnt/resize"
)

// LoadedImage - изображение, подготовленное к вставке.
type LoadedImage struct {
	Src    string
	Format string
	Width  int
	Height int
}

// LoadImage читает и при необходимости уменьшает изображение вне цикла сессии,
// затем вставляет его в позицию курсора отдельной задачей цикла.
func (s *Session) LoadImage(ctx context.Context, r io.Reader) (LoadedImage, error) {
	img, err := PrepareImage(r, s.opts.ImageMaxWidth)
	if err != nil {
		imagesCounter.WithLabelValues("invalid").Inc()
		return LoadedImage{}, err
	}
	if err := ctx.Err(); err != nil {
		imagesCounter.WithLabelValues("canceled").Inc()
		return LoadedImage{}, err
	}

	err = s.do(ctx, func() error {
		node, err := s.state.Schema.Node(editor.NodeImage, map[string]any{
			"src":   img.Src,
			"width": fmt.Sprintf("%dpx", img.Width),
		})
		if err != nil {
			return err
		}
		tr := s.state.Tr()
		sel := tr.Selection()
		if err := tr.Replace(sel.From(), sel.To(), node); err != nil {
			return err
		}
		pos := sel.From() + node.NodeSize()
		if err := tr.SetSelection(model.Selection{Anchor: pos, Head: pos}); err != nil {
			return err
		}
		s.dispatch(tr)
		return nil
	})
	if err != nil {
		imagesCounter.WithLabelValues("failed").Inc()
		return LoadedImage{}, err
	}
	imagesCounter.WithLabelValues("inserted").Inc()
	return img, nil
}

// PrepareImage декодирует изображение и кодирует его в data URL. Изображения
// шире maxWidth уменьшаются с сохранением пропорций, gif не меняется.
func PrepareImage(r io.Reader, maxWidth uint) (LoadedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LoadedImage{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return LoadedImage{}, fmt.Errorf("decode image: %w", err)
	}

	res := LoadedImage{Format: format, Width: cfg.Width, Height: cfg.Height}
	if format == "gif" || maxWidth == 0 || uint(cfg.Width) <= maxWidth {
		res.Src = dataURL(format, data)
		return res, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return LoadedImage{}, fmt.Errorf("decode image: %w", err)
	}
	thmb := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	buf := new(bytes.Buffer)
	switch format {
	case "png":
		err = png.Encode(buf, thmb)
	default:
		format = "jpeg"
		err = jpeg.Encode(buf, thmb, &jpeg.Options{Quality: 80})
	}
	if err != nil {
		return LoadedImage{}, fmt.Errorf("encode image: %w", err)
	}
	slog.Debug("Resize image", "from", cfg.Width, "to", thmb.Bounds().Dx(), "format", format)

	res.Format = format
	res.Width = thmb.Bounds().Dx()
	res.Height = thmb.Bounds().Dy()
	res.Src = dataURL(format, buf.Bytes())
	return res, nil
}

func dataURL(format string, data []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}
