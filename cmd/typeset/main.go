// Command typeset lays text out in a frame and renders it to a PNG image.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/typeset"
	"github.com/gogpu/typeset/bidi"
	"github.com/gogpu/typeset/shape"
)

func main() {
	var (
		text      = flag.String("text", "The quick brown fox jumps over the lazy dog.", "text to typeset")
		fontPath  = flag.String("font", "", "TrueType/OpenType font file (default: Go Regular)")
		size      = flag.Float64("size", 24, "text size in pixels")
		width     = flag.Int("width", 400, "image width")
		height    = flag.Int("height", 200, "image height")
		padding   = flag.Int("padding", 10, "frame padding")
		align     = flag.String("align", "intrinsic", "horizontal alignment [intrinsic|extrinsic|center]")
		valign    = flag.String("valign", "top", "vertical alignment [top|middle|bottom]")
		maxLines  = flag.Int("max-lines", 0, "maximum number of lines (0 = unlimited)")
		truncate  = flag.String("truncate", "none", "truncation place [none|start|middle|end]")
		justify   = flag.Bool("justify", false, "justify lines")
		direction = flag.String("dir", "auto", "paragraph direction [auto|ltr|rtl]")
		output    = flag.String("output", "typeset.png", "output file")
		verbose   = flag.Bool("v", false, "log layout decisions")
		dump      = flag.Bool("dump", false, "print the composed lines")
	)
	flag.Parse()

	if *verbose {
		typeset.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts, err := frameOptions(*width, *height, *padding, *align, *valign, *truncate)
	if err != nil {
		log.Fatal(err)
	}
	opts.MaxLines = *maxLines
	opts.Justify = *justify

	face, err := loadFace(*fontPath)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	tsOpts, err := typesetterOptions(*direction)
	if err != nil {
		log.Fatal(err)
	}

	ts, err := typeset.NewTypesetter(*text, nil, []typeset.Attribute{
		typeset.FontFace{Typeface: face},
		typeset.TextSize(*size),
		typeset.Foreground{Color: color.NRGBA{R: 0x20, G: 0x20, B: 0x30, A: 0xff}},
	}, tsOpts...)
	if err != nil {
		log.Fatalf("Failed to typeset: %v", err)
	}
	defer ts.Close()

	frame, err := typeset.NewFrameResolver(ts, opts).CreateFrame(0, ts.Len())
	if err != nil {
		log.Fatalf("Failed to compose frame: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	frame.Draw(typeset.NewImageCanvas(img, nil), 0, 0)

	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if *dump {
		printFrame(frame, ts)
	}
	pterm.Info.Printf("Frame saved to %s (%d lines, %d of %d characters)\n",
		*output, len(frame.Lines()), frame.CharEnd(), ts.Len())
}

func loadFace(path string) (*shape.Typeface, error) {
	if path == "" {
		return shape.NewTypeface(goregular.TTF, shape.WithName("Go Regular"))
	}
	return shape.LoadTypeface(path)
}

func frameOptions(w, h, pad int, align, valign, truncate string) (typeset.FrameOptions, error) {
	opts := typeset.DefaultFrameOptions()
	opts.X, opts.Y = float64(pad), float64(pad)
	opts.Width, opts.Height = float64(w-2*pad), float64(h-2*pad)

	switch strings.ToLower(align) {
	case "intrinsic":
		opts.TextAlignment = typeset.AlignIntrinsic
	case "extrinsic":
		opts.TextAlignment = typeset.AlignExtrinsic
	case "center":
		opts.TextAlignment = typeset.AlignCenter
	default:
		return opts, fmt.Errorf("unknown alignment %q", align)
	}

	switch strings.ToLower(valign) {
	case "top":
		opts.VerticalAlignment = typeset.AlignTop
	case "middle":
		opts.VerticalAlignment = typeset.AlignMiddle
	case "bottom":
		opts.VerticalAlignment = typeset.AlignBottom
	default:
		return opts, fmt.Errorf("unknown vertical alignment %q", valign)
	}

	switch strings.ToLower(truncate) {
	case "none":
		opts.TruncationPlace = typeset.TruncateNone
	case "start":
		opts.TruncationPlace = typeset.TruncateStart
	case "middle":
		opts.TruncationPlace = typeset.TruncateMiddle
	case "end":
		opts.TruncationPlace = typeset.TruncateEnd
	default:
		return opts, fmt.Errorf("unknown truncation place %q", truncate)
	}
	return opts, nil
}

func typesetterOptions(dir string) ([]typeset.TypesetterOption, error) {
	switch strings.ToLower(dir) {
	case "auto":
		return nil, nil
	case "ltr":
		return []typeset.TypesetterOption{typeset.WithBaseDirection(bidi.LeftToRight)}, nil
	case "rtl":
		return []typeset.TypesetterOption{typeset.WithBaseDirection(bidi.RightToLeft)}, nil
	}
	return nil, fmt.Errorf("unknown direction %q", dir)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printFrame renders a table of the frame's lines.
func printFrame(f *typeset.ComposedFrame, ts *typeset.Typesetter) {
	text := []rune(ts.Text())
	data := [][]string{
		{"Line", "Range", "Dir", "Runs", "Width", "Baseline", "Text"},
	}
	for i, l := range f.Lines() {
		dir := "LTR"
		if l.IsRTL() {
			dir = "RTL"
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("[%d, %d)", l.CharStart(), l.CharEnd()),
			dir,
			fmt.Sprintf("%d", len(l.Runs())),
			fmt.Sprintf("%.1f", l.Width()),
			fmt.Sprintf("%.1f", l.OriginY()),
			fmt.Sprintf("%q", string(text[l.CharStart():l.CharEnd()])),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
