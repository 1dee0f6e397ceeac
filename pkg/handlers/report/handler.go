package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fieldtools/site-report/pkg/models/api"
	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/fieldtools/site-report/pkg/services/assembler"
	"github.com/fieldtools/site-report/pkg/services/mail"
	"github.com/fieldtools/site-report/pkg/services/render"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 32 << 20

// batchFields are the multipart file fields carrying the two image batches.
var batchFields = []string{"images1", "images2"}

type Handler struct {
	assembler assembler.Service
	engine    render.Engine
	sender    mail.Sender // nil when email delivery is not configured
}

func NewHandler(asm assembler.Service, engine render.Engine, sender mail.Sender) *Handler {
	return &Handler{
		assembler: asm,
		engine:    engine,
		sender:    sender,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// CreateReport accepts the multipart submission, assembles and renders the
// report, and returns the PDF as a download. With deliver=email the rendered
// document is also mailed; a mail failure is reported in a response header
// but the download still succeeds.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.ErrorResponse{Error: "expected multipart form data"})
		return
	}

	in, err := parseForm(r)
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	rec, err := h.assembler.Assemble(ctx, in)
	if err != nil {
		var ve *assembler.ValidationError
		if errors.As(err, &ve) {
			writeJSON(ctx, w, http.StatusBadRequest, api.ErrorResponse{Error: ve.Error()})
			return
		}
		logger.Error().Err(err).Msg("report assembly failed")
		writeJSON(ctx, w, http.StatusInternalServerError, api.ErrorResponse{Error: "failed to assemble report"})
		return
	}

	data, err := h.engine.Render(ctx, rec)
	if err != nil {
		logger.Error().Err(err).Msg("report render failed")
		writeJSON(ctx, w, http.StatusInternalServerError,
			api.ErrorResponse{Error: fmt.Sprintf("failed to render report: %v", err)})
		return
	}

	filename := domain.OutputFilename(rec.CapturedAt)

	if r.FormValue("deliver") == "email" {
		w.Header().Set(api.DeliveryHeader, h.deliver(r, rec, filename, data))
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Error().Err(err).Msg("failed to write report response")
	}
}

func (h *Handler) deliver(r *http.Request, rec domain.ReportRecord, filename string, data []byte) string {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.sender == nil {
		logger.Warn().Msg("email delivery requested but not configured")
		return api.DeliveryUnconfigured
	}

	msg := mail.Message{
		Subject: fmt.Sprintf("Site Visit Report - %s (%s)", rec.ProjectTitle, rec.VisitDate.Format("2006-01-02")),
		Body: fmt.Sprintf("Site visit report for %s, captured %s by %s.",
			rec.ProjectTitle, rec.CapturedAt.Format("2006-01-02 15:04:05"), rec.Visitor),
		Attachment: mail.Attachment{Filename: filename, Data: data},
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("email delivery failed")
		return api.DeliveryFailed
	}
	return api.DeliverySent
}

func parseForm(r *http.Request) (assembler.FormInput, error) {
	in := assembler.FormInput{
		ProjectTitle: r.FormValue("project_title"),
		SiteAddress:  r.FormValue("site_address"),
		Visitor:      r.FormValue("visitor"),
		VisitDate:    r.FormValue("visit_date"),
		Summary:      r.FormValue("summary"),
	}

	for i, q := range domain.CanonicalQuestions {
		key := fmt.Sprintf("q%d", i+1)
		ans := r.FormValue(key)
		if ans == "" {
			ans = string(domain.AnswerNA)
		}
		in.Survey = append(in.Survey, domain.SurveyEntry{
			Question: q,
			Answer:   domain.Answer(ans),
			Comment:  r.FormValue(key + "_comment"),
		})
	}

	for _, field := range batchFields {
		batch, err := readBatch(r, field)
		if err != nil {
			return assembler.FormInput{}, err
		}
		in.Batches = append(in.Batches, batch)
	}
	return in, nil
}

func readBatch(r *http.Request, field string) (domain.ImageBatch, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var batch domain.ImageBatch
	for _, fh := range r.MultipartForm.File[field] {
		if !acceptedImageName(fh.Filename) {
			return nil, fmt.Errorf("unsupported image %q: only PNG and JPEG are accepted", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		batch = append(batch, domain.Image{Name: fh.Filename, Data: data})
	}
	return batch, nil
}

func acceptedImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
