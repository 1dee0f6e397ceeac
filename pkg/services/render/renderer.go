package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
	"time"

	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

// Engine renders a ReportRecord into a paginated PDF byte stream.
type Engine interface {
	Render(ctx context.Context, rec domain.ReportRecord) ([]byte, error)
}

const (
	fontFamily      = "Helvetica"
	titleFontSize   = 20
	sectionFontSize = 14
	bodyFontSize    = 12
	commentFontSize = 11
	commentIndent   = 20
)

// Layout holds the page geometry used by the flowing sections. All values
// are in points on a 612x792 letter page.
type Layout struct {
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	LineHeight   float64

	// AnswerX is the column where survey answer tokens are drawn.
	AnswerX float64

	// Images are scaled to fit an ImageBoxWidth x ImageBoxHeight box,
	// preserving aspect ratio, and separated by ImageGap.
	ImageBoxWidth  float64
	ImageBoxHeight float64
	ImageGap       float64
}

func DefaultLayout() Layout {
	return Layout{
		MarginLeft:     50,
		MarginRight:    50,
		MarginTop:      50,
		MarginBottom:   60,
		LineHeight:     20,
		AnswerX:        350,
		ImageBoxWidth:  100,
		ImageBoxHeight: 75,
		ImageGap:       10,
	}
}

type Config struct {
	// Layout geometry. Zero value means DefaultLayout.
	Layout Layout
	// CreationDate pins the document metadata date. Zero means "now".
	CreationDate time.Time
	// DisableCompression emits uncompressed content streams.
	DisableCompression bool
}

// Renderer is the layout engine. It holds no mutable state between calls,
// so concurrent renders are fully independent.
type Renderer struct {
	cfg Config
}

func NewRenderer(cfg Config) *Renderer {
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout()
	}
	return &Renderer{cfg: cfg}
}

// flow tracks the vertical cursor of the current page. The cursor holds the
// baseline of the most recently drawn line; ensure inserts a page break when
// the next element would cross the bottom margin, re-running onBreak so
// multi-page sections can re-draw a continued header.
type flow struct {
	doc     *fpdf.Fpdf
	lay     Layout
	y       float64
	onBreak func(f *flow)
}

func (f *flow) maxY() float64 {
	_, pageH := f.doc.GetPageSize()
	return pageH - f.lay.MarginBottom
}

func (f *flow) ensure(need float64) {
	if f.y+need <= f.maxY() {
		return
	}
	f.doc.AddPage()
	f.y = f.lay.MarginTop
	if f.onBreak != nil {
		f.onBreak(f)
	}
}

func (f *flow) next(h float64) float64 {
	f.y += h
	return f.y
}

// line reserves h of vertical space, breaking the page first if needed, and
// returns the baseline to draw at.
func (f *flow) line(h float64) float64 {
	f.ensure(h)
	return f.next(h)
}

// Render maps rec onto letter-sized pages and returns the PDF bytes. An
// image that cannot be decoded is skipped; any other composition error
// aborts the render and no partial output is returned.
func (r *Renderer) Render(ctx context.Context, rec domain.ReportRecord) ([]byte, error) {
	logger := zerolog.Ctx(ctx)
	lay := r.cfg.Layout

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	// Resource objects are emitted in sorted order so identical records
	// produce byte-identical output.
	doc.SetCatalogSort(true)
	if r.cfg.DisableCompression {
		doc.SetCompression(false)
	}
	if !r.cfg.CreationDate.IsZero() {
		doc.SetCreationDate(r.cfg.CreationDate)
		doc.SetModificationDate(r.cfg.CreationDate)
	}
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	f := &flow{doc: doc, lay: lay}
	f.y = r.drawHeader(doc, tr, rec)

	r.drawSummary(f, tr, rec.Summary)
	r.drawSurvey(f, tr, rec.Survey)
	r.drawImages(f, logger, rec.Batches)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("compose pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawHeader places the fixed-position identity fields and returns the
// baseline the flowing content starts below.
func (r *Renderer) drawHeader(doc *fpdf.Fpdf, tr func(string) string, rec domain.ReportRecord) float64 {
	lay := r.cfg.Layout
	top := lay.MarginTop

	doc.SetFont(fontFamily, "B", titleFontSize)
	doc.Text(lay.MarginLeft, top, "Site Visit Report")

	doc.SetFont(fontFamily, "", bodyFontSize)
	doc.Text(lay.MarginLeft, top+30, tr("Project: "+rec.ProjectTitle))
	doc.Text(lay.MarginLeft, top+50, tr("Location: "+rec.SiteAddress))
	doc.Text(lay.AnswerX, top+30, tr("Date of Visit: "+rec.VisitDate.Format("2006-01-02")))
	doc.Text(lay.AnswerX, top+50, tr("Visitor: "+rec.Visitor))
	doc.Text(lay.MarginLeft, top+70,
		tr("Captured: "+rec.CapturedAt.Format("2006-01-02 15:04:05 MST")+"   Temperature: "+rec.Temperature.String()))

	doc.SetFont(fontFamily, "B", sectionFontSize)
	doc.Text(lay.MarginLeft, top+90, "Brief Summary:")
	return top + 90
}

func (r *Renderer) drawSummary(f *flow, tr func(string) string, summary string) {
	f.onBreak = nil
	f.doc.SetFont(fontFamily, "", bodyFontSize)
	// One output line per input line; even an empty summary reserves one.
	for _, line := range strings.Split(summary, "\n") {
		y := f.line(f.lay.LineHeight)
		f.doc.Text(f.lay.MarginLeft, y, tr(line))
	}
}

func (r *Renderer) drawSurvey(f *flow, tr func(string) string, entries []domain.SurveyEntry) {
	lay := f.lay

	f.onBreak = nil
	f.doc.SetFont(fontFamily, "B", sectionFontSize)
	hdrY := f.line(2 * lay.LineHeight)
	f.doc.Text(lay.MarginLeft, hdrY, "Survey:")

	f.onBreak = func(f *flow) {
		f.doc.SetFont(fontFamily, "B", sectionFontSize)
		y := f.next(lay.LineHeight)
		f.doc.Text(lay.MarginLeft, y, "Survey (continued):")
	}
	defer func() { f.onBreak = nil }()

	for _, e := range entries {
		need := lay.LineHeight
		if e.Comment != "" {
			need *= 2
		}
		f.ensure(need)

		y := f.next(lay.LineHeight)
		f.doc.SetFont(fontFamily, "", bodyFontSize)
		f.doc.Text(lay.MarginLeft, y, tr(e.Question))
		f.doc.Text(lay.AnswerX, y, tr("Answer: "+string(e.Answer)))

		if e.Comment != "" {
			y = f.next(lay.LineHeight)
			f.doc.SetFont(fontFamily, "I", commentFontSize)
			f.doc.Text(lay.MarginLeft+commentIndent, y, tr("Comment: "+e.Comment))
		}
	}
}

func (r *Renderer) drawImages(f *flow, logger *zerolog.Logger, batches []domain.ImageBatch) {
	lay := f.lay

	// Clip to the batch invariants so a mis-built record cannot mis-render.
	// The record stays untouched; clipping works on a copy.
	if len(batches) > domain.MaxBatches {
		batches = batches[:domain.MaxBatches]
	}
	clipped := make([]domain.ImageBatch, 0, len(batches))
	total := 0
	for _, b := range batches {
		if len(b) > domain.BatchSize {
			b = b[:domain.BatchSize]
		}
		clipped = append(clipped, b)
		total += len(b)
	}
	if total == 0 {
		return
	}
	batches = clipped

	f.onBreak = nil
	f.doc.SetFont(fontFamily, "B", sectionFontSize)
	hdrY := f.line(2 * lay.LineHeight)
	f.doc.Text(lay.MarginLeft, hdrY, "Photos:")

	pageW, pageH := f.doc.GetPageSize()
	rightEdge := pageW - lay.MarginRight
	maxY := pageH - lay.MarginBottom

	x := lay.MarginLeft
	rowTop := f.y + lay.ImageGap
	rowH := 0.0

	for bi, batch := range batches {
		for ii, img := range batch {
			w, h, imgType, err := probeImage(img.Data)
			if err != nil {
				logger.Warn().Err(err).Str("image", img.Name).Msg("skipping undecodable image")
				continue
			}

			scale := math.Min(lay.ImageBoxWidth/w, lay.ImageBoxHeight/h)
			drawW, drawH := w*scale, h*scale

			if x+drawW > rightEdge {
				x = lay.MarginLeft
				rowTop += rowH + lay.ImageGap
				rowH = 0
			}
			if rowTop+drawH > maxY {
				f.doc.AddPage()
				rowTop = lay.MarginTop
				x = lay.MarginLeft
				rowH = 0
			}

			name := fmt.Sprintf("photo_%d_%d", bi, ii)
			opts := fpdf.ImageOptions{ImageType: imgType}
			f.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
			f.doc.ImageOptions(name, x, rowTop, drawW, drawH, false, opts, 0, "")

			if drawH > rowH {
				rowH = drawH
			}
			x += drawW + lay.ImageGap
		}
	}
	f.y = rowTop + rowH
}

// probeImage reads just enough of data to learn its intrinsic size and type.
// It runs before registration because a bad image must be skipped without
// poisoning the document's sticky error state.
func probeImage(data []byte) (w, h float64, imgType string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, "", fmt.Errorf("image has empty dimensions %dx%d", cfg.Width, cfg.Height)
	}
	switch format {
	case "png":
		imgType = "PNG"
	case "jpeg":
		imgType = "JPG"
	default:
		return 0, 0, "", fmt.Errorf("unsupported image format %q", format)
	}
	return float64(cfg.Width), float64(cfg.Height), imgType, nil
}
