package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogCacheTTL     = 5 * time.Minute
	catalogVersionKey   = "courses:catalog:ver"
	catalogKeyTemplate  = "courses:catalog:v%d:%s|%s|%s|%s"
	newLessonNotifyBody = "%d new lesson(s) added to \"%s\""
)

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	Notifier       Notifier
	Redis          *redis.Client
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	notifier Notifier,
	rdb *redis.Client,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Notifier:       notifier,
		Redis:          rdb,
	}
}

type CreateCourseRequest struct {
	Title       string            `json:"title" binding:"required,min=5,max=100"`
	Description string            `json:"description" binding:"required,min=20"`
	Category    string            `json:"category" binding:"required"`
	Level       model.CourseLevel `json:"level"`
	Price       float64           `json:"price" binding:"gte=0"`
	Thumbnail   string            `json:"thumbnail"`
	Language    string            `json:"language"`
}

func (s *CourseService) Create(instructorID uint, req CreateCourseRequest) (*model.Course, error) {
	if !model.ValidCategory(req.Category) {
		return nil, util.ErrInvalidCategory
	}
	if req.Level == "" {
		req.Level = model.LevelBeginner
	}
	if req.Language == "" {
		req.Language = "English"
	}

	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructorID,
		Category:     req.Category,
		Level:        req.Level,
		Price:        req.Price,
		Thumbnail:    req.Thumbnail,
		Language:     req.Language,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}

	s.bumpCatalogVersion()
	return course, nil
}

// ListPublished serves the public catalog, cached in Redis per filter
// combination. Mutations bump a version counter instead of scanning
// for keys to delete.
func (s *CourseService) ListPublished(filter repository.CourseFilter) ([]model.Course, error) {
	ctx := context.Background()
	var cacheKey string

	if s.Redis != nil {
		ver, _ := s.Redis.Get(ctx, catalogVersionKey).Int64()
		cacheKey = fmt.Sprintf(catalogKeyTemplate, ver, filter.Category, filter.Level, filter.Search, filter.Sort)

		if cached, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var courses []model.Course
			if err := json.Unmarshal(cached, &courses); err == nil {
				return courses, nil
			}
		}
	}

	courses, err := s.CourseRepo.FindPublished(filter)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(courses); err == nil {
			s.Redis.Set(ctx, cacheKey, payload, catalogCacheTTL)
		}
	}
	return courses, nil
}

func (s *CourseService) GetByID(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDWithInstructor(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) InstructorCourses(instructorID uint) ([]model.Course, error) {
	return s.CourseRepo.FindByInstructor(instructorID)
}

type UpdateCourseRequest struct {
	Title       *string            `json:"title" binding:"omitempty,min=5,max=100"`
	Description *string            `json:"description" binding:"omitempty,min=20"`
	Category    *string            `json:"category"`
	Level       *model.CourseLevel `json:"level"`
	Price       *float64           `json:"price" binding:"omitempty,gte=0"`
	Thumbnail   *string            `json:"thumbnail"`
	Language    *string            `json:"language"`
}

func (s *CourseService) Update(callerID, courseID uint, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.ownedCourse(callerID, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return nil, util.ErrInvalidCategory
		}
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Thumbnail != nil {
		course.Thumbnail = *req.Thumbnail
	}
	if req.Language != nil {
		course.Language = *req.Language
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}

	s.bumpCatalogVersion()
	return course, nil
}

func (s *CourseService) Delete(callerID, courseID uint) error {
	course, err := s.ownedCourse(callerID, courseID)
	if err != nil {
		return err
	}
	if err := s.CourseRepo.Delete(course); err != nil {
		return err
	}
	s.bumpCatalogVersion()
	return nil
}

// TogglePublish flips visibility. Publishing announces nothing; only
// lesson additions notify enrolled students.
func (s *CourseService) TogglePublish(callerID, courseID uint) (*model.Course, error) {
	course, err := s.ownedCourse(callerID, courseID)
	if err != nil {
		return nil, err
	}

	if course.IsPublished {
		course.Unpublish()
	} else {
		course.Publish(time.Now())
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}

	s.bumpCatalogVersion()
	return course, nil
}

type LessonRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl"`
	Thumbnail   string `json:"videoThumbnail"`
	Duration    int    `json:"duration" binding:"gte=0"`
	Order       int    `json:"order"`
	IsPreview   bool   `json:"isPreview"`
}

// AddLesson appends a lesson, recomputes the course duration, and
// notifies every enrolled student. Enrollment percentages are NOT
// recomputed here: they are derived against the current lesson count on
// the next progress mutation.
func (s *CourseService) AddLesson(callerID, courseID uint, req LessonRequest) (*model.Course, error) {
	course, err := s.ownedCourse(callerID, courseID)
	if err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		order = len(course.Lessons) + 1
	}

	lesson := &model.Lesson{
		CourseID:       courseID,
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		VideoThumbnail: req.Thumbnail,
		Duration:       req.Duration,
		Order:          order,
		IsPreview:      req.IsPreview,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}

	course.Lessons = append(course.Lessons, *lesson)
	s.refreshDuration(course)
	s.bumpCatalogVersion()

	s.notifyEnrolledStudents(course, 1)

	return course, nil
}

func (s *CourseService) UpdateLesson(callerID, courseID, lessonID uint, req LessonRequest) (*model.Lesson, error) {
	if _, err := s.ownedCourse(callerID, courseID); err != nil {
		return nil, err
	}

	lesson, err := s.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	lesson.Title = req.Title
	lesson.Description = req.Description
	lesson.VideoURL = req.VideoURL
	lesson.VideoThumbnail = req.Thumbnail
	lesson.Duration = req.Duration
	if req.Order != 0 {
		lesson.Order = req.Order
	}
	lesson.IsPreview = req.IsPreview

	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}

	if course, err := s.CourseRepo.FindByID(courseID); err == nil {
		s.refreshDuration(course)
	}
	return lesson, nil
}

// DeleteLesson removes a lesson even when students have completed it;
// their percentage shifts on the next recomputation (accepted drift,
// the evaluator does not re-run on course edits).
func (s *CourseService) DeleteLesson(callerID, courseID, lessonID uint) error {
	if _, err := s.ownedCourse(callerID, courseID); err != nil {
		return err
	}

	lesson, err := s.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrLessonNotFound
		}
		return err
	}

	if err := s.CourseRepo.DeleteLesson(lesson); err != nil {
		return err
	}

	if course, err := s.CourseRepo.FindByID(courseID); err == nil {
		s.refreshDuration(course)
	}
	return nil
}

func (s *CourseService) ownedCourse(callerID, courseID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, util.ErrPermissionDenied
	}
	return course, nil
}

func (s *CourseService) refreshDuration(course *model.Course) {
	course.CalculateDuration()
	if err := s.CourseRepo.UpdateDuration(course.ID, course.Duration); err != nil {
		logger.Log.Warn("course duration update failed",
			zap.Uint("course", course.ID), zap.Error(err))
	}
}

func (s *CourseService) notifyEnrolledStudents(course *model.Course, newLessons int) {
	enrollments, err := s.EnrollmentRepo.FindByCourse(course.ID)
	if err != nil {
		logger.Log.Warn("listing enrollments for lesson notification failed",
			zap.Uint("course", course.ID), zap.Error(err))
		return
	}

	courseID := course.ID
	for _, enrollment := range enrollments {
		s.Notifier.Notify(
			enrollment.StudentID,
			model.NotifyNewLesson,
			"New Lesson Added!",
			fmt.Sprintf(newLessonNotifyBody, newLessons, course.Title),
			model.NotificationData{CourseID: &courseID},
		)
	}
}

func (s *CourseService) bumpCatalogVersion() {
	if s.Redis == nil {
		return
	}
	s.Redis.Incr(context.Background(), catalogVersionKey)
}
