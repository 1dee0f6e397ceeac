package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/fieldtools/site-report/pkg/services/assembler"
	"github.com/fieldtools/site-report/pkg/services/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// reportFile is the JSON shape accepted by the render command. Survey
// entries are optional; missing questions default to N/A.
type reportFile struct {
	ProjectTitle string `json:"project_title"`
	SiteAddress  string `json:"site_address"`
	Visitor      string `json:"visitor"`
	VisitDate    string `json:"visit_date"`
	Summary      string `json:"summary"`
	Survey       []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Comment  string `json:"comment"`
	} `json:"survey"`
}

type RenderCmd struct {
	inputPath  string
	outputPath string
	batch1     []string
	batch2     []string

	assembler assembler.Service
	engine    render.Engine
	logger    zerolog.Logger
	out       io.Writer
}

func NewRenderCmd(asm assembler.Service, engine render.Engine, logger zerolog.Logger, out io.Writer) *cobra.Command {
	rc := &RenderCmd{assembler: asm, engine: engine, logger: logger, out: out}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a site visit report to a PDF file",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.inputPath, "input", "", "Path to the report JSON file")
	cmd.Flags().StringVar(&rc.outputPath, "out", "", "Output PDF path (default: generated SiteVisit_* name)")
	cmd.Flags().StringSliceVar(&rc.batch1, "images1", nil, "Image paths for batch 1 (up to 4)")
	cmd.Flags().StringSliceVar(&rc.batch2, "images2", nil, "Image paths for batch 2 (up to 4)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (rc *RenderCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(rc.logger.WithContext(context.Background()), 60*time.Second)
	defer cancel()

	in, err := rc.loadInput()
	if err != nil {
		return err
	}

	rec, err := rc.assembler.Assemble(ctx, in)
	if err != nil {
		return fmt.Errorf("assemble report: %w", err)
	}

	data, err := rc.engine.Render(ctx, rec)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	outPath := rc.outputPath
	if outPath == "" {
		outPath = domain.OutputFilename(rec.CapturedAt)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(rc.out, "wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}

func (rc *RenderCmd) loadInput() (assembler.FormInput, error) {
	raw, err := os.ReadFile(rc.inputPath)
	if err != nil {
		return assembler.FormInput{}, fmt.Errorf("read %s: %w", rc.inputPath, err)
	}

	var rf reportFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return assembler.FormInput{}, fmt.Errorf("parse %s: %w", rc.inputPath, err)
	}

	in := assembler.FormInput{
		ProjectTitle: rf.ProjectTitle,
		SiteAddress:  rf.SiteAddress,
		Visitor:      rf.Visitor,
		VisitDate:    rf.VisitDate,
		Summary:      rf.Summary,
	}
	for _, e := range rf.Survey {
		in.Survey = append(in.Survey, domain.SurveyEntry{
			Question: e.Question,
			Answer:   domain.Answer(e.Answer),
			Comment:  e.Comment,
		})
	}

	for _, paths := range [][]string{rc.batch1, rc.batch2} {
		batch, err := loadImages(paths)
		if err != nil {
			return assembler.FormInput{}, err
		}
		in.Batches = append(in.Batches, batch)
	}
	return in, nil
}

func loadImages(paths []string) (domain.ImageBatch, error) {
	var batch domain.ImageBatch
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", p, err)
		}
		batch = append(batch, domain.Image{Name: filepath.Base(p), Data: data})
	}
	return batch, nil
}
