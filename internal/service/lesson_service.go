package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/export"
)

// lessonIDAlphabet omits look-alike characters since lesson ids are read out
// loud and typed by students.
const lessonIDAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

type responseCategorizer interface {
	Categorize(ctx context.Context, input CategorizeInput) (*CategorizeResult, error)
}

// PutLessonRequest represents the lesson create/update payload. Locking is
// one-way: ids present in QuestionsLocked are added to the stored set, never
// removed.
type PutLessonRequest struct {
	LessonName      string   `json:"lesson_name" validate:"required,max=300"`
	LessonPlanID    string   `json:"lesson_plan_id" validate:"required"`
	ClassID         string   `json:"class_id" validate:"required"`
	QuestionsLocked []string `json:"questions_locked"`
}

// LessonService orchestrates lessons: creation, the lock-triggered
// categorization pass, public student reads and report export.
type LessonService struct {
	store       docstore.Store
	teachers    *repository.TeacherRepository
	classes     *repository.ClassRepository
	plans       *repository.LessonPlanRepository
	lessons     *repository.LessonRepository
	responses   *repository.ResponseRepository
	categorizer responseCategorizer
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	idLength    int
}

// NewLessonService constructs a LessonService over the document store.
func NewLessonService(store docstore.Store, categorizer responseCategorizer, cache *CacheService, validate *validator.Validate, logger *zap.Logger, idLength int) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if idLength <= 0 {
		idLength = 8
	}
	return &LessonService{
		store:       store,
		teachers:    repository.NewTeacherRepository(store),
		classes:     repository.NewClassRepository(store),
		plans:       repository.NewLessonPlanRepository(store),
		lessons:     repository.NewLessonRepository(store),
		responses:   repository.NewResponseRepository(store),
		categorizer: categorizer,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		idLength:    idLength,
	}
}

// List returns the teacher's lessons without joins.
func (s *LessonService) List(ctx context.Context, teacher *models.Teacher) ([]models.Lesson, error) {
	lessons, err := s.lessons.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// Get returns one lesson with class, plan and responses joined in.
func (s *LessonService) Get(ctx context.Context, teacher *models.Teacher, lessonID string) (*models.Lesson, error) {
	return s.getJoined(ctx, teacher.ID, lessonID)
}

// Put creates or updates a lesson. An empty lessonID creates a new lesson
// under a generated short id. Newly locked questions trigger a categorization
// pass; the lock flip and its analysis commit together or not at all.
func (s *LessonService) Put(ctx context.Context, teacher *models.Teacher, lessonID string, req PutLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	plan, err := s.plans.FindByID(ctx, teacher.ID, req.LessonPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson plan")
	}
	class, err := s.classes.FindByID(ctx, teacher.ID, req.ClassID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	var lesson *models.Lesson
	if lessonID == "" {
		id, err := s.newLessonID(ctx, teacher.ID)
		if err != nil {
			return nil, err
		}
		lesson = &models.Lesson{ID: id}
	} else {
		lesson, err = s.lessons.FindByID(ctx, teacher.ID, lessonID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
		}
	}

	newlyLocked := subtract(req.QuestionsLocked, lesson.QuestionsLocked)

	lesson.LessonName = strings.TrimSpace(req.LessonName)
	lesson.LessonPlanID = plan.ID
	lesson.LessonPlanName = plan.Title
	lesson.ClassID = class.ID
	lesson.ClassName = class.Name
	lesson.TeacherName = teacher.Nickname
	lesson.TeacherEmail = teacher.Email

	if len(newlyLocked) == 0 {
		if err := s.lessons.Upsert(ctx, teacher.ID, lesson); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save lesson")
		}
		s.invalidatePublic(ctx, teacher.Email, lesson.ID)
		return s.getJoined(ctx, teacher.ID, lesson.ID)
	}

	responses, err := s.responses.ListByLesson(ctx, teacher.ID, lesson.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}

	result, err := s.categorizer.Categorize(ctx, CategorizeInput{
		TeacherID:   teacher.ID,
		Lesson:      lesson,
		Questions:   plan.Questions,
		NewlyLocked: newlyLocked,
		Responses:   responses,
	})
	if err != nil {
		return nil, err
	}

	locked := union(lesson.QuestionsLocked, newlyLocked)

	// The lock flip, its analysis and any drawing promotions land together.
	err = s.store.InTx(ctx, func(tx docstore.Store) error {
		lessonsTx := repository.NewLessonRepository(tx)
		responsesTx := repository.NewResponseRepository(tx)
		if err := lessonsTx.Upsert(ctx, teacher.ID, lesson); err != nil {
			return err
		}
		if err := lessonsTx.CommitAnalysis(ctx, teacher.ID, lesson.ID, locked, result.Analyses); err != nil {
			return err
		}
		for _, promotion := range result.Promotions {
			if err := responsesTx.PromoteImage(ctx, teacher.ID, lesson.ID, promotion.ResponseID, promotion.URL); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit analysis")
	}

	s.invalidatePublic(ctx, teacher.Email, lesson.ID)
	return s.getJoined(ctx, teacher.ID, lesson.ID)
}

// Delete soft-deletes the lesson; responses stay for audit.
func (s *LessonService) Delete(ctx context.Context, teacher *models.Teacher, lessonID string) error {
	if _, err := s.find(ctx, teacher.ID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.SoftDelete(ctx, teacher.ID, lessonID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.invalidatePublic(ctx, teacher.Email, lessonID)
	return nil
}

// Public returns the student-facing lesson view. Students poll this while a
// lesson runs, so results are cached in Redis behind a short TTL.
func (s *LessonService) Public(ctx context.Context, teacherEmail, lessonID string) (*models.Lesson, error) {
	key := publicLessonKey(teacherEmail, lessonID)
	var cached models.Lesson
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	teacher, err := s.resolveOwner(ctx, teacherEmail)
	if err != nil {
		return nil, err
	}
	lesson, err := s.getJoined(ctx, teacher.ID, lessonID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, lesson, 0)
	return lesson, nil
}

// StudentStarted appends a student name to the lesson's started log.
func (s *LessonService) StudentStarted(ctx context.Context, teacherEmail, lessonID, studentName string) error {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student name required")
	}
	teacher, err := s.resolveOwner(ctx, teacherEmail)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, teacher.ID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.AppendStudentStarted(ctx, teacher.ID, lessonID, studentName); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record student start")
	}
	s.invalidatePublic(ctx, teacherEmail, lessonID)
	return nil
}

// Export renders the lesson's analysis as a CSV or PDF report.
func (s *LessonService) Export(ctx context.Context, teacher *models.Teacher, lessonID, format string) ([]byte, string, error) {
	lesson, err := s.getJoined(ctx, teacher.ID, lessonID)
	if err != nil {
		return nil, "", err
	}
	if len(lesson.AnalysisByQuestionID) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "lesson has no analysis to export")
	}

	report := buildAnalysisReport(lesson)
	switch format {
	case "csv":
		data, err := s.csv.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func buildAnalysisReport(lesson *models.Lesson) export.Report {
	report := export.Report{Title: lesson.LessonName}

	var questions []models.LessonQuestion
	if lesson.LessonPlan != nil {
		questions = lesson.LessonPlan.Questions
	}
	appendSection := func(questionID, title string) {
		analysis := lesson.AnalysisByQuestionID[questionID]
		if analysis == nil {
			return
		}
		section := export.Section{Title: title, Headers: []string{"category", "student", "summary"}}
		labels := analysis.Categories()
		sort.Strings(labels)
		for _, label := range labels {
			for _, response := range analysis.ResponsesByCategory[label] {
				section.Rows = append(section.Rows, map[string]string{
					"category": label,
					"student":  response.StudentName,
					"summary":  response.SummaryOrText(),
				})
			}
		}
		report.Sections = append(report.Sections, section)
	}

	covered := make(map[string]bool)
	for _, question := range questions {
		appendSection(question.ID, question.BodyText)
		covered[question.ID] = true
	}
	// Analyses for questions since removed from the plan still export.
	var orphans []string
	for questionID := range lesson.AnalysisByQuestionID {
		if !covered[questionID] {
			orphans = append(orphans, questionID)
		}
	}
	sort.Strings(orphans)
	for _, questionID := range orphans {
		appendSection(questionID, questionID)
	}
	return report
}

func (s *LessonService) resolveOwner(ctx context.Context, teacherEmail string) (*models.Teacher, error) {
	if teacherEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_email required")
	}
	teacher, err := s.teachers.FindByEmail(ctx, teacherEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lesson owner")
	}
	return teacher, nil
}

func (s *LessonService) find(ctx context.Context, teacherID, lessonID string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, teacherID, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

func (s *LessonService) getJoined(ctx context.Context, teacherID, lessonID string) (*models.Lesson, error) {
	lesson, err := s.find(ctx, teacherID, lessonID)
	if err != nil {
		return nil, err
	}

	if class, err := s.classes.FindByID(ctx, teacherID, lesson.ClassID); err == nil {
		lesson.ClassData = class
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if plan, err := s.plans.FindByID(ctx, teacherID, lesson.LessonPlanID); err == nil {
		lesson.LessonPlan = plan
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson plan")
	}
	responses, err := s.responses.ListByLesson(ctx, teacherID, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	lesson.Responses = responses
	return lesson, nil
}

func (s *LessonService) invalidatePublic(ctx context.Context, teacherEmail, lessonID string) {
	_ = s.cache.Invalidate(ctx, publicLessonKey(teacherEmail, lessonID))
}

func (s *LessonService) newLessonID(ctx context.Context, teacherID string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id, err := randomLessonID(s.idLength)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate lesson id")
		}
		_, err = s.lessons.FindByID(ctx, teacherID, id)
		if errors.Is(err, repository.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson id")
		}
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique lesson id")
}

func randomLessonID(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = lessonIDAlphabet[int(b)%len(lessonIDAlphabet)]
	}
	return string(buf), nil
}

func publicLessonKey(teacherEmail, lessonID string) string {
	return fmt.Sprintf("lesson:public:%s:%s", teacherEmail, lessonID)
}

func subtract(next, prior []string) []string {
	seen := make(map[string]bool, len(prior))
	for _, id := range prior {
		seen[id] = true
	}
	var out []string
	for _, id := range next {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func union(prior, added []string) []string {
	out := make([]string, 0, len(prior)+len(added))
	seen := make(map[string]bool, len(prior)+len(added))
	for _, id := range append(append([]string{}, prior...), added...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
