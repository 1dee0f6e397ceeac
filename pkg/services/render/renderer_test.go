package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldtools/site-report/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer() *Renderer {
	return NewRenderer(Config{
		CreationDate:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		DisableCompression: true,
	})
}

func baseRecord() domain.ReportRecord {
	survey := make([]domain.SurveyEntry, 0, len(domain.CanonicalQuestions))
	for _, q := range domain.CanonicalQuestions {
		survey = append(survey, domain.SurveyEntry{Question: q, Answer: domain.AnswerNA})
	}
	return domain.ReportRecord{
		ProjectTitle: "Bridge Retrofit",
		SiteAddress:  "400 Roma Ave NW",
		Visitor:      "J. Smith",
		VisitDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CapturedAt:   time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC),
		Summary:      "Walked the site.\nChecked formwork.\nNo issues found.",
		Survey:       survey,
	}
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// pageCount counts page objects; the pages-tree node is excluded by
// subtracting the plural form it also matches.
func pageCount(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

func imageCount(data []byte) int {
	return bytes.Count(data, []byte("/Subtype /Image"))
}

func TestRender_EndToEndScenario(t *testing.T) {
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{
		{
			{Name: "north.png", Data: pngImage(t, 200, 150)},
			{Name: "south.jpg", Data: jpegImage(t, 150, 200)},
		},
		{},
	}

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	assert.Contains(t, string(data), "J. Smith")
	assert.Contains(t, string(data), "2025-06-01")
	assert.Contains(t, string(data), "Temperature: N/A")
	assert.Contains(t, string(data), "Answer: N/A")

	// Questions appear in canonical order in the text layer.
	prev := -1
	for _, q := range domain.CanonicalQuestions {
		idx := bytes.Index(data, []byte(q))
		require.GreaterOrEqual(t, idx, 0, "question %q missing", q)
		assert.Greater(t, idx, prev, "question %q out of order", q)
		prev = idx
	}

	assert.Equal(t, 2, imageCount(data))
	assert.LessOrEqual(t, pageCount(data), 2)
}

func TestRender_Idempotent(t *testing.T) {
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{{{Name: "a.png", Data: pngImage(t, 120, 90)}}}

	r := testRenderer()
	first, err := r.Render(context.Background(), rec)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_NoImages(t *testing.T) {
	rec := baseRecord()

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, 0, imageCount(data))
	assert.NotContains(t, string(data), "Photos:")
	assert.Equal(t, 1, pageCount(data))
}

func TestRender_EmptySummaryReservesOneLine(t *testing.T) {
	rec := baseRecord()
	rec.Summary = ""

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(data))
}

func TestRender_SurveyComments(t *testing.T) {
	rec := baseRecord()
	rec.Survey[4] = domain.SurveyEntry{
		Question: domain.CanonicalQuestions[4],
		Answer:   domain.AnswerYes,
		Comment:  "rebar delivered, stored under cover",
	}

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)

	assert.Contains(t, string(data), "Answer: Yes")
	assert.Contains(t, string(data), "Comment: rebar delivered, stored under cover")
}

func TestRender_LongSummaryBreaksPageAndContinuesSurvey(t *testing.T) {
	rec := baseRecord()
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = fmt.Sprintf("observation line %d", i+1)
	}
	rec.Summary = strings.Join(lines, "\n")

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pageCount(data), 2)
	assert.Contains(t, string(data), "continued")

	// Deterministic: same input, same page count.
	again, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, pageCount(data), pageCount(again))
}

func TestRender_EightImagesAcrossTwoBatches(t *testing.T) {
	batch := func(n int) domain.ImageBatch {
		var b domain.ImageBatch
		for i := 0; i < n; i++ {
			b = append(b, domain.Image{
				Name: fmt.Sprintf("img%d.png", i),
				Data: pngImage(t, 100+10*i, 80),
			})
		}
		return b
	}
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{batch(4), batch(4)}

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 8, imageCount(data))
}

func TestRender_OversizedBatchClipped(t *testing.T) {
	var batch domain.ImageBatch
	for i := 0; i < 6; i++ {
		batch = append(batch, domain.Image{Name: fmt.Sprintf("img%d.png", i), Data: pngImage(t, 100, 80)})
	}
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{batch}

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, domain.BatchSize, imageCount(data))
	// The caller's record is left untouched.
	assert.Len(t, rec.Batches[0], 6)
}

func TestRender_UndecodableImageSkipped(t *testing.T) {
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{{
		{Name: "ok1.png", Data: pngImage(t, 100, 80)},
		{Name: "broken.png", Data: []byte("definitely not a png")},
		{Name: "ok2.jpg", Data: jpegImage(t, 100, 80)},
	}}

	data, err := testRenderer().Render(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 2, imageCount(data))
}

func TestRender_ConcurrentRendersIndependent(t *testing.T) {
	rec := baseRecord()
	rec.Batches = []domain.ImageBatch{{{Name: "a.png", Data: pngImage(t, 160, 120)}}}
	r := testRenderer()

	want, err := r.Render(context.Background(), rec)
	require.NoError(t, err)

	const workers = 8
	results := make([][]byte, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Render(context.Background(), rec)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestProbeImage(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		w, h, imgType, err := probeImage(pngImage(t, 320, 240))
		require.NoError(t, err)
		assert.Equal(t, float64(320), w)
		assert.Equal(t, float64(240), h)
		assert.Equal(t, "PNG", imgType)
	})

	t.Run("jpeg", func(t *testing.T) {
		_, _, imgType, err := probeImage(jpegImage(t, 32, 32))
		require.NoError(t, err)
		assert.Equal(t, "JPG", imgType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, _, err := probeImage([]byte("nope"))
		assert.Error(t, err)
	})
}
