package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/llm"
	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/pkg/config"
	"github.com/noah-isme/kelas-qna-api/pkg/jobs"
)

// summaryUnavailable is recorded when summarization exhausts its retries.
// The raw response is kept either way.
const summaryUnavailable = "summary unavailable"

type summarizerResponseStore interface {
	FindByID(ctx context.Context, teacherID, lessonID, responseID string) (*models.LessonResponse, error)
	SetSummary(ctx context.Context, teacherID, lessonID, responseID, summary string) error
}

type summarizerLessonStore interface {
	FindByID(ctx context.Context, teacherID, lessonID string) (*models.Lesson, error)
}

type summarizerQuestionStore interface {
	ListQuestions(ctx context.Context, teacherID, planID string) ([]models.LessonQuestion, error)
}

// SummarizeJob identifies one response awaiting an image summary.
type SummarizeJob struct {
	TeacherID  string
	LessonID   string
	ResponseID string
}

// Summarizer turns drawing submissions into short text summaries in the
// background so submission latency never waits on the model.
type Summarizer struct {
	client    llm.Client
	responses summarizerResponseStore
	lessons   summarizerLessonStore
	plans     summarizerQuestionStore
	metrics   *MetricsService
	logger    *zap.Logger
	queue     *jobs.Queue
}

// NewSummarizer constructs the summarizer and its worker queue.
func NewSummarizer(client llm.Client, responses summarizerResponseStore, lessons summarizerLessonStore, plans summarizerQuestionStore, metrics *MetricsService, logger *zap.Logger, cfg config.SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Summarizer{
		client:    client,
		responses: responses,
		lessons:   lessons,
		plans:     plans,
		metrics:   metrics,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("summarizer", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnExhaust:  s.exhaust,
	})
	if metrics != nil {
		metrics.RegisterQueueDepth("summarizer", s.queue.Depth)
	}
	return s
}

// Start launches the worker pool.
func (s *Summarizer) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *Summarizer) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a response for summarization.
func (s *Summarizer) Enqueue(teacherID, lessonID, responseID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      responseID,
		Type:    "summarize",
		Payload: SummarizeJob{TeacherID: teacherID, LessonID: lessonID, ResponseID: responseID},
	})
}

func (s *Summarizer) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(SummarizeJob)
	if !ok {
		s.logger.Error("summarize job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	response, err := s.responses.FindByID(ctx, payload.TeacherID, payload.LessonID, payload.ResponseID)
	if err != nil {
		return fmt.Errorf("load response: %w", err)
	}
	if response.Analysis != nil && response.Analysis.ResponseSummary != "" {
		return nil
	}
	if response.ResponseImageBase64 == "" {
		// Image already promoted or never present; keep the raw text.
		return s.responses.SetSummary(ctx, payload.TeacherID, payload.LessonID, payload.ResponseID, response.ResponseText)
	}

	image, err := decodeInlineImage(response.ResponseImageBase64)
	if err != nil {
		return fmt.Errorf("decode drawing: %w", err)
	}

	question, err := s.questionFor(ctx, payload.TeacherID, payload.LessonID, response.QuestionID)
	if err != nil {
		return err
	}

	prompt := &strings.Builder{}
	fmt.Fprintf(prompt, "A student named %s answered the question below with a drawing.\n", response.StudentName)
	fmt.Fprintf(prompt, "Question: %s\n", question.BodyText)
	if response.ResponseText != "" {
		fmt.Fprintf(prompt, "The student also wrote: %s\n", response.ResponseText)
	}
	prompt.WriteString("Describe what the drawing shows in one or two short sentences. " +
		"Transcribe any words in the drawing literally. Do not judge correctness.")

	start := time.Now()
	description, err := s.client.Complete(ctx, llm.Request{Parts: []llm.Part{
		llm.TextPart(prompt.String()),
		llm.ImagePart("image/png", image),
	}})
	if s.metrics != nil {
		s.metrics.ObserveLLMCall("summarize", time.Since(start), err == nil)
	}
	if err != nil {
		return fmt.Errorf("summarize drawing: %w", err)
	}

	summary := joinSummary(response.ResponseText, strings.TrimSpace(description))
	if err := s.responses.SetSummary(ctx, payload.TeacherID, payload.LessonID, payload.ResponseID, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

// exhaust records the fallback marker once a job runs out of retries.
func (s *Summarizer) exhaust(ctx context.Context, job jobs.Job, cause error) {
	payload, ok := job.Payload.(SummarizeJob)
	if !ok {
		return
	}
	s.logger.Error("summarization abandoned",
		zap.String("response_id", payload.ResponseID), zap.Error(cause))

	response, err := s.responses.FindByID(ctx, payload.TeacherID, payload.LessonID, payload.ResponseID)
	if err != nil {
		s.logger.Error("failed to load response for fallback summary", zap.Error(err))
		return
	}
	summary := joinSummary(response.ResponseText, summaryUnavailable)
	if err := s.responses.SetSummary(ctx, payload.TeacherID, payload.LessonID, payload.ResponseID, summary); err != nil {
		s.logger.Error("failed to store fallback summary", zap.Error(err))
	}
}

func (s *Summarizer) questionFor(ctx context.Context, teacherID, lessonID, questionID string) (*models.LessonQuestion, error) {
	lesson, err := s.lessons.FindByID(ctx, teacherID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	questions, err := s.plans.ListQuestions(ctx, teacherID, lesson.LessonPlanID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, fmt.Errorf("question %s not found on plan %s", questionID, lesson.LessonPlanID)
}

func joinSummary(rawText, addition string) string {
	if rawText == "" {
		return addition
	}
	if addition == "" {
		return rawText
	}
	return rawText + "\n\n" + addition
}
