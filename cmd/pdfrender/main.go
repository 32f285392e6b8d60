// seehuhn.de/go/pdfrender - a renderer for PDF content streams
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Pdfrender renders one page of a PDF file into a PNG image.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfrender"
	"seehuhn.de/go/pdfrender/engine"
	"seehuhn.de/go/pdfrender/raster"
)

func main() {
	dpi := flag.Float64("dpi", 72.0, "resolution in dots per inch")
	pageNo := flag.Int("page", 1, "page number to render (1-based)")
	verbose := flag.Bool("v", false, "show rendering diagnostics")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] input.pdf output.png\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	err := run(flag.Arg(0), flag.Arg(1), *pageNo, *dpi, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(inName, outName string, pageNo int, dpi float64, verbose bool) error {
	in, err := os.Open(inName)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := pdf.NewReader(in, nil)
	if err != nil {
		return err
	}

	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return err
	}
	if pageNo < 1 || pageNo > numPages {
		return fmt.Errorf("page %d out of range (file has %d pages)",
			pageNo, numPages)
	}

	pageDict, err := pagetree.GetPage(r, pageNo-1)
	if err != nil {
		return err
	}

	img, err := renderPage(r, pageDict, dpi, verbose)
	if err != nil {
		return err
	}

	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	err = png.Encode(out, img)
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func renderPage(r pdf.Getter, pageDict pdf.Dict, dpi float64, verbose bool) (image.Image, error) {
	mediaBox, err := pdf.GetRectangle(r, pageDict["MediaBox"])
	if err != nil {
		return nil, err
	}
	if mediaBox == nil || mediaBox.URx <= mediaBox.LLx || mediaBox.URy <= mediaBox.LLy {
		return nil, fmt.Errorf("missing or invalid MediaBox")
	}

	rotate := 0
	if x, err := pdf.GetInteger(r, pageDict["Rotate"]); err == nil {
		rotate = ((int(x) % 360) + 360) % 360
	}

	width, height, deviceCTM := pageTransform(mediaBox, rotate, dpi/72)

	canvas := raster.New(width, height)
	draw.Draw(canvas.Image(), canvas.Bounds(), image.White, image.Point{}, draw.Src)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ren := pdfrender.New(canvas, &pdfrender.Options{
		Logger:   logger,
		Shadings: engine.NewShadingMapper(r),
	})
	eng := engine.New(r, ren)
	err = eng.RenderPage(pageDict, deviceCTM)
	if err != nil {
		return nil, err
	}
	err = eng.RenderAnnotations(pageDict, deviceCTM)
	if err != nil {
		logger.Warn("cannot render annotations", slog.Any("err", err))
	}
	return canvas.Image(), nil
}

// pageTransform computes the pixel dimensions of the rendered page
// and the matrix mapping default user space to device pixels, taking
// the page's rotation attribute into account.
func pageTransform(b *pdf.Rectangle, rotate int, s float64) (int, int, matrix.Matrix) {
	w := int(math.Ceil((b.URx - b.LLx) * s))
	h := int(math.Ceil((b.URy - b.LLy) * s))

	switch rotate {
	case 90:
		return h, w, matrix.Matrix{
			0, s, -s, 0,
			b.URy * s, -b.LLx * s,
		}
	case 180:
		return w, h, matrix.Matrix{
			-s, 0, 0, s,
			b.URx * s, -b.LLy * s,
		}
	case 270:
		return h, w, matrix.Matrix{
			0, -s, s, 0,
			-b.LLy * s, b.URx * s,
		}
	default:
		// device y runs downwards
		return w, h, matrix.Matrix{
			s, 0, 0, -s,
			-b.LLx * s, b.URy * s,
		}
	}
}
