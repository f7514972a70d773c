package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/llm"
	"github.com/noah-isme/kelas-qna-api/internal/models"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/storage"
)

// MaterialFetcher loads context material bytes by URL.
type MaterialFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPMaterialFetcher fetches materials over plain HTTP GET.
type HTTPMaterialFetcher struct {
	client *http.Client
}

// NewHTTPMaterialFetcher builds a fetcher with a bounded timeout.
func NewHTTPMaterialFetcher(timeout time.Duration) *HTTPMaterialFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPMaterialFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the material payload.
func (f *HTTPMaterialFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build material request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch material: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch material: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ImagePromotion records a drawing moved from inline base64 to the blob store
// during a categorization pass. The caller persists it alongside the analysis.
type ImagePromotion struct {
	ResponseID string
	URL        string
}

// CategorizeInput carries everything one categorization pass needs.
type CategorizeInput struct {
	TeacherID   string
	Lesson      *models.Lesson
	Questions   []models.LessonQuestion
	NewlyLocked []string
	Responses   []models.LessonResponse
}

// CategorizeResult is the outcome of a pass. Analyses holds the full map,
// prior entries included, ready for a single commit.
type CategorizeResult struct {
	Analyses   map[string]*models.LessonQuestionAnalysis
	Promotions []ImagePromotion
}

// noCategoryLabel is the catch-all bucket the model is told to use for
// responses it cannot place.
const noCategoryLabel = "No category"

// Categorizer groups student responses into thematic categories by prompting
// the model once per newly locked question.
type Categorizer struct {
	client      llm.Client
	blobs       storage.BlobStore
	materials   MaterialFetcher
	metrics     *MetricsService
	logger      *zap.Logger
	maxAttempts int
}

// NewCategorizer constructs a Categorizer.
func NewCategorizer(client llm.Client, blobs storage.BlobStore, materials MaterialFetcher, metrics *MetricsService, logger *zap.Logger, maxAttempts int) *Categorizer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Categorizer{client: client, blobs: blobs, materials: materials, metrics: metrics, logger: logger, maxAttempts: maxAttempts}
}

// Categorize runs one pass over the newly locked questions in plan order.
// Category labels seen earlier in the pass, from prior analyses or from an
// unanalyzed question's guidance, form a preset pool that later prompts must
// reuse exactly. Nothing is persisted here; the caller commits the returned
// analyses atomically.
func (c *Categorizer) Categorize(ctx context.Context, input CategorizeInput) (*CategorizeResult, error) {
	if len(input.NewlyLocked) > 0 && len(input.Responses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no responses to analyze")
	}

	newlyLocked := make(map[string]bool, len(input.NewlyLocked))
	for _, id := range input.NewlyLocked {
		newlyLocked[id] = true
	}

	analyses := make(map[string]*models.LessonQuestionAnalysis)
	if input.Lesson != nil {
		for id, analysis := range input.Lesson.AnalysisByQuestionID {
			analyses[id] = analysis
		}
	}

	byQuestion := make(map[string][]models.LessonResponse)
	for _, response := range input.Responses {
		byQuestion[response.QuestionID] = append(byQuestion[response.QuestionID], response)
	}

	result := &CategorizeResult{Analyses: analyses}
	var presetPool []string

	for i := range input.Questions {
		question := &input.Questions[i]

		// A question analyzed in an earlier pass keeps its grouping; its
		// labels seed the pool so later questions reuse them.
		if existing, ok := analyses[question.ID]; ok {
			presetPool = mergeLabels(presetPool, existing.Categories())
			continue
		}
		if !newlyLocked[question.ID] {
			continue
		}
		responses := byQuestion[question.ID]
		if len(responses) == 0 {
			continue
		}

		promotions, err := c.promoteDrawings(ctx, input.TeacherID, responses)
		if err != nil {
			return nil, err
		}
		result.Promotions = append(result.Promotions, promotions...)

		// The question's own guidance joins the pool before the model runs,
		// so a model that strays on one question cannot displace the
		// teacher's labels for the rest of the pass.
		presetPool = mergeLabels(presetPool, guidanceLabels(question.CategorizationGuidance))

		grouped, err := c.categorizeQuestion(ctx, question, responses, presetPool)
		if err != nil {
			return nil, err
		}
		analyses[question.ID] = grouped
		presetPool = mergeLabels(presetPool, grouped.Categories())
	}

	return result, nil
}

func (c *Categorizer) categorizeQuestion(ctx context.Context, question *models.LessonQuestion, responses []models.LessonResponse, presetPool []string) (*models.LessonQuestionAnalysis, error) {
	parts, err := c.buildPrompt(ctx, question, responses, presetPool)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		raw, err := c.client.Complete(ctx, llm.Request{Parts: parts})
		if c.metrics != nil {
			c.metrics.ObserveLLMCall("categorize", time.Since(start), err == nil)
		}
		if err != nil {
			lastErr = err
			c.logger.Warn("categorization attempt failed",
				zap.String("question_id", question.ID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		grouping, err := parseGrouping(raw)
		if err != nil {
			lastErr = err
			c.logger.Warn("categorization output unparseable",
				zap.String("question_id", question.ID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return buildAnalysis(question.ID, grouping, responses), nil
	}

	return nil, appErrors.Wrap(lastErr, appErrors.ErrAnalysisFailed.Code, appErrors.ErrAnalysisFailed.Status,
		fmt.Sprintf("categorization failed after %d attempts", c.maxAttempts))
}

func (c *Categorizer) buildPrompt(ctx context.Context, question *models.LessonQuestion, responses []models.LessonResponse, presetPool []string) ([]llm.Part, error) {
	var parts []llm.Part

	framing := &strings.Builder{}
	framing.WriteString("You are helping a teacher group student answers by theme.\n")
	if question.FieldOfStudy != "" {
		fmt.Fprintf(framing, "Field of study: %s\n", question.FieldOfStudy)
	}
	if question.SpecificTopic != "" {
		fmt.Fprintf(framing, "Specific topic: %s\n", question.SpecificTopic)
	}
	fmt.Fprintf(framing, "The question asked was: %s\n", question.BodyText)
	parts = append(parts, llm.TextPart(framing.String()))

	for _, url := range question.ContextMaterialURLs {
		mime := materialMIME(url)
		if mime == "" {
			c.logger.Debug("skipping unsupported context material", zap.String("url", url))
			continue
		}
		data, err := c.materials.Fetch(ctx, url)
		if err != nil {
			c.logger.Warn("context material unavailable", zap.String("url", url), zap.Error(err))
			continue
		}
		if mime == "application/pdf" {
			parts = append(parts, llm.DocumentPart(mime, data))
		} else {
			parts = append(parts, llm.ImagePart(mime, data))
		}
	}

	if len(presetPool) > 0 {
		guidance := &strings.Builder{}
		guidance.WriteString("Use exactly the following categories, no others:\n")
		for _, label := range presetPool {
			fmt.Fprintf(guidance, "- %s\n", label)
		}
		parts = append(parts, llm.TextPart(guidance.String()))
	}

	answers := &strings.Builder{}
	answers.WriteString("Student answers:\n")
	for _, response := range responses {
		fmt.Fprintf(answers, "- %s: %s\n", response.StudentName, response.SummaryOrText())
	}
	parts = append(parts, llm.TextPart(answers.String()))

	instruction := fmt.Sprintf(
		"Respond with a single JSON object and nothing else. Keys are category names, "+
			"values are arrays of student names. Every student must appear in at least one "+
			"category; a student may appear in several. Put answers that fit nowhere under "+
			"the key %q.", noCategoryLabel)
	parts = append(parts, llm.TextPart(instruction))

	return parts, nil
}

// promoteDrawings moves inline base64 drawings into the blob store so the
// grouped snapshots carry a URL instead of a megabyte of base64.
func (c *Categorizer) promoteDrawings(ctx context.Context, teacherID string, responses []models.LessonResponse) ([]ImagePromotion, error) {
	var promotions []ImagePromotion
	for i := range responses {
		response := &responses[i]
		if response.ResponseImageBase64 == "" {
			continue
		}
		data, err := decodeInlineImage(response.ResponseImageBase64)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedRecord.Code, appErrors.ErrMalformedRecord.Status,
				fmt.Sprintf("response %s carries an undecodable drawing", response.ID))
		}
		url, err := c.blobs.Upload(ctx, fmt.Sprintf("drawings/%s/%s.png", teacherID, response.ID), data, "image/png")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store drawing")
		}
		response.ResponseImageBase64 = ""
		response.ResponseImageURL = url
		promotions = append(promotions, ImagePromotion{ResponseID: response.ID, URL: url})
	}
	return promotions, nil
}

func decodeInlineImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func materialMIME(url string) string {
	switch strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0])) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return ""
	}
}

// splitGuidance breaks a free-text guidance field into candidate labels.
// Teachers write either comma- or newline-separated lists; whichever split
// yields at least as many parts wins, commas first.
func splitGuidance(guidance string) []string {
	byComma := cleanParts(strings.Split(guidance, ","))
	byLine := cleanParts(strings.Split(guidance, "\n"))
	if len(byComma) >= len(byLine) {
		return byComma
	}
	return byLine
}

// guidanceLabels turns a guidance field into normalized pool labels.
func guidanceLabels(guidance string) []string {
	if guidance == "" {
		return nil
	}
	parts := splitGuidance(guidance)
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if label := normalizeLabel(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func cleanParts(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseGrouping(raw string) (map[string][]string, error) {
	object, err := llm.ExtractObject(raw)
	if err != nil {
		return nil, err
	}
	var grouping map[string][]string
	if err := json.Unmarshal(object, &grouping); err != nil {
		return nil, fmt.Errorf("grouping is not a name map: %w", err)
	}
	if len(grouping) == 0 {
		return nil, fmt.Errorf("grouping is empty")
	}
	return grouping, nil
}

// buildAnalysis maps the model's student-name grouping onto response
// snapshots. No response is dropped (strays land under the catch-all) and no
// category lists the same response twice.
func buildAnalysis(questionID string, grouping map[string][]string, responses []models.LessonResponse) *models.LessonQuestionAnalysis {
	byStudent := make(map[string][]models.LessonResponse)
	for _, response := range responses {
		key := normalizeName(response.StudentName)
		byStudent[key] = append(byStudent[key], response)
	}

	analysis := &models.LessonQuestionAnalysis{
		QuestionID:          questionID,
		ResponsesByCategory: make(map[string][]models.LessonResponse),
	}
	assigned := make(map[string]bool)

	for rawLabel, names := range grouping {
		label := normalizeLabel(rawLabel)
		if label == "" {
			label = noCategoryLabel
		}
		seen := make(map[string]bool)
		for _, name := range names {
			for _, response := range byStudent[normalizeName(name)] {
				if seen[response.ID] {
					continue
				}
				seen[response.ID] = true
				assigned[response.ID] = true
				analysis.ResponsesByCategory[label] = append(analysis.ResponsesByCategory[label], response)
			}
		}
		if len(analysis.ResponsesByCategory[label]) == 0 && len(names) == 0 {
			delete(analysis.ResponsesByCategory, label)
		}
	}

	for _, response := range responses {
		if !assigned[response.ID] {
			analysis.ResponsesByCategory[noCategoryLabel] = append(analysis.ResponsesByCategory[noCategoryLabel], response)
		}
	}
	return analysis
}

func normalizeLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(first)) + trimmed[size:]
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func mergeLabels(pool, labels []string) []string {
	seen := make(map[string]bool, len(pool))
	for _, label := range pool {
		seen[label] = true
	}
	sort.Strings(labels)
	for _, label := range labels {
		if label == noCategoryLabel || seen[label] {
			continue
		}
		seen[label] = true
		pool = append(pool, label)
	}
	return pool
}
