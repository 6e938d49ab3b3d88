package service

import (
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadService handles lesson video ingestion: MIME validation,
// duration probing, thumbnail extraction, and handoff to storage.
type UploadService struct {
	CourseRepo *repository.CourseRepository
	Storage    *StorageService
}

func NewUploadService(courseRepo *repository.CourseRepository, storage *StorageService) *UploadService {
	return &UploadService{CourseRepo: courseRepo, Storage: storage}
}

// UploadLessonVideo attaches an uploaded video to a lesson of the
// caller's course. The file lands in a temp directory first so ffmpeg
// can probe it and cut a thumbnail before it moves to storage.
func (s *UploadService) UploadLessonVideo(ctx context.Context, callerID, courseID, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
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

	lesson, err := s.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedVideoExt(ext) {
		return nil, util.ErrUnsupportedVideoType
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeVideo, util.MimeOctetStream})
	if err != nil {
		return nil, util.ErrUnsupportedVideoType
	}
	if _, err := src.Seek(0, 0); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "lesson-video-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	tmpVideo := filepath.Join(tmpDir, "source"+ext)
	out, err := os.Create(tmpVideo)
	if err != nil {
		return nil, err
	}
	if _, err := out.ReadFrom(src); err != nil {
		out.Close()
		return nil, err
	}
	out.Close()

	baseName := fmt.Sprintf("courses/%d/lessons/%d/%s", courseID, lessonID, uuid.New().String())
	videoURL, err := s.Storage.UploadFile(ctx, baseName+ext, tmpVideo, mimeType)
	if err != nil {
		return nil, err
	}

	lesson.VideoURL = videoURL
	if info, err := util.GetVideoInfo(tmpVideo); err == nil {
		lesson.Duration = int(math.Round(info.Duration / 60))
	} else {
		logger.Log.Warn("video probe failed, duration left unchanged",
			zap.Uint("lesson", lessonID), zap.Error(err))
	}

	// Thumbnail failures are tolerated; the lesson just has no preview
	// image.
	tmpThumb := filepath.Join(tmpDir, "thumb.jpg")
	if err := util.GenerateThumbnail(tmpVideo, tmpThumb, "00:00:01"); err == nil {
		if thumbURL, err := s.Storage.UploadFile(ctx, baseName+".jpg", tmpThumb, "image/jpeg"); err == nil {
			lesson.VideoThumbnail = thumbURL
		}
	} else {
		logger.Log.Warn("thumbnail generation failed",
			zap.Uint("lesson", lessonID), zap.Error(err))
	}

	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}

	s.refreshCourseDuration(courseID)
	return lesson, nil
}

// DeleteLessonVideo removes the stored video and thumbnail for a lesson
// of the caller's course and clears the lesson's video fields. Missing
// objects are logged and skipped.
func (s *UploadService) DeleteLessonVideo(ctx context.Context, callerID, courseID, lessonID uint) (*model.Lesson, error) {
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

	lesson, err := s.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	for _, url := range []string{lesson.VideoURL, lesson.VideoThumbnail} {
		if url == "" {
			continue
		}
		if err := s.Storage.Delete(ctx, objectKeyFromURL(url)); err != nil {
			logger.Log.Warn("stored object removal failed",
				zap.String("url", url), zap.Error(err))
		}
	}

	lesson.VideoURL = ""
	lesson.VideoThumbnail = ""
	lesson.Duration = 0
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}

	s.refreshCourseDuration(courseID)
	return lesson, nil
}

// objectKeyFromURL strips the provider prefix ("/uploads/" or the
// bucket segment) from a stored URL, leaving the object key.
func objectKeyFromURL(url string) string {
	trimmed := strings.TrimPrefix(url, "/")
	if _, key, found := strings.Cut(trimmed, "/"); found {
		return key
	}
	return trimmed
}

func (s *UploadService) refreshCourseDuration(courseID uint) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return
	}
	if err := s.CourseRepo.UpdateDuration(courseID, course.CalculateDuration()); err != nil {
		logger.Log.Warn("course duration refresh failed",
			zap.Uint("course", courseID), zap.Error(err))
	}
}

func allowedVideoExt(ext string) bool {
	for _, allowed := range util.AllowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
