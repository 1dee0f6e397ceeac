package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/fieldtools/site-report/pkg/services/weather"
	"github.com/rs/zerolog"
)

// FormInput carries the raw form values as submitted. Survey entries may
// arrive in any order; batches may be oversized. The assembler normalizes
// both before the record reaches the layout engine.
type FormInput struct {
	ProjectTitle string
	SiteAddress  string
	Visitor      string
	VisitDate    string // 2006-01-02
	Summary      string
	Survey       []domain.SurveyEntry
	Batches      []domain.ImageBatch
}

// ValidationError reports a missing or malformed required field. Rendering
// never starts when assembly fails with one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Service builds invariant-satisfying ReportRecords from raw form input.
type Service interface {
	Assemble(ctx context.Context, in FormInput) (domain.ReportRecord, error)
}

type assembler struct {
	weather weather.Service
	loc     *time.Location
	now     func() time.Time
}

// Options configure the assembler. Now is injectable so tests can pin the
// capture timestamp.
type Options struct {
	Weather  weather.Service
	Location *time.Location
	Now      func() time.Time
}

func New(opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &assembler{
		weather: opts.Weather,
		loc:     opts.Location,
		now:     opts.Now,
	}
}

func (a *assembler) Assemble(ctx context.Context, in FormInput) (domain.ReportRecord, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(in.ProjectTitle) == "" {
		return domain.ReportRecord{}, &ValidationError{Field: "project_title", Reason: "required"}
	}
	if strings.TrimSpace(in.Visitor) == "" {
		return domain.ReportRecord{}, &ValidationError{Field: "visitor", Reason: "required"}
	}
	visitDate, err := time.ParseInLocation("2006-01-02", in.VisitDate, a.loc)
	if err != nil {
		return domain.ReportRecord{}, &ValidationError{Field: "visit_date", Reason: "must be YYYY-MM-DD"}
	}

	survey, err := normalizeSurvey(in.Survey)
	if err != nil {
		return domain.ReportRecord{}, err
	}

	temp := domain.Temperature{}
	if a.weather != nil {
		temp = a.weather.CurrentTemperature(ctx)
	}

	return domain.ReportRecord{
		ProjectTitle: in.ProjectTitle,
		SiteAddress:  in.SiteAddress,
		Visitor:      in.Visitor,
		VisitDate:    visitDate,
		CapturedAt:   a.now().In(a.loc),
		Temperature:  temp,
		Summary:      in.Summary,
		Survey:       survey,
		Batches:      truncateBatches(logger, in.Batches),
	}, nil
}

// normalizeSurvey reorders entries into canonical question order. Unknown
// questions and duplicates are rejected; a question with no submitted entry
// defaults to N/A with no comment.
func normalizeSurvey(entries []domain.SurveyEntry) ([]domain.SurveyEntry, error) {
	byQuestion := make(map[string]domain.SurveyEntry, len(entries))
	for _, e := range entries {
		if _, ok := byQuestion[e.Question]; ok {
			return nil, &ValidationError{Field: "survey", Reason: fmt.Sprintf("duplicate question %q", e.Question)}
		}
		if !knownQuestion(e.Question) {
			return nil, &ValidationError{Field: "survey", Reason: fmt.Sprintf("unknown question %q", e.Question)}
		}
		if !e.Answer.Valid() {
			return nil, &ValidationError{Field: "survey", Reason: fmt.Sprintf("invalid answer %q", e.Answer)}
		}
		byQuestion[e.Question] = e
	}

	survey := make([]domain.SurveyEntry, 0, len(domain.CanonicalQuestions))
	for _, q := range domain.CanonicalQuestions {
		e, ok := byQuestion[q]
		if !ok {
			e = domain.SurveyEntry{Question: q, Answer: domain.AnswerNA}
		}
		survey = append(survey, e)
	}
	return survey, nil
}

func knownQuestion(q string) bool {
	for _, c := range domain.CanonicalQuestions {
		if c == q {
			return true
		}
	}
	return false
}

// truncateBatches enforces the hard cap: extra batches and extra images per
// batch are dropped, with a warning per truncation.
func truncateBatches(logger *zerolog.Logger, batches []domain.ImageBatch) []domain.ImageBatch {
	if len(batches) > domain.MaxBatches {
		logger.Warn().Int("batches", len(batches)).Msg("dropping extra image batches")
		batches = batches[:domain.MaxBatches]
	}
	out := make([]domain.ImageBatch, len(batches))
	for i, b := range batches {
		if len(b) > domain.BatchSize {
			logger.Warn().Int("batch", i+1).Int("images", len(b)).Msg("truncating oversized image batch")
			b = b[:domain.BatchSize]
		}
		out[i] = b
	}
	return out
}
