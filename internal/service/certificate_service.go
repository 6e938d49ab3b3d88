package service

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"edunexus_backend/internal/config"
	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/logger"
	"edunexus_backend/pkg/monitoring"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Certificate brand palette.
var (
	certPrimary   = [3]int{29, 78, 216}   // #1D4ED8
	certAccent    = [3]int{251, 191, 36}  // #FBBF24
	certText      = [3]int{15, 23, 42}    // #0F172A
	certSecondary = [3]int{100, 116, 139} // #64748B
)

// CertificateService renders completion certificates as PDFs and
// answers public verification queries. Rendering requires a completed
// enrollment; verification is unauthenticated and discloses nothing
// for enrollments that are missing or not completed.
type CertificateService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	Config         *config.Config
}

func NewCertificateService(enrollmentRepo *repository.EnrollmentRepository, cfg *config.Config) *CertificateService {
	return &CertificateService{EnrollmentRepo: enrollmentRepo, Config: cfg}
}

// VerificationResult is the public verification payload. Private
// fields stay empty unless Valid is true.
type VerificationResult struct {
	Valid          bool       `json:"valid"`
	StudentName    string     `json:"studentName,omitempty"`
	CourseTitle    string     `json:"courseTitle,omitempty"`
	CourseCategory string     `json:"courseCategory,omitempty"`
	InstructorName string     `json:"instructorName,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Verify checks whether an enrollment backs a genuine certificate. It
// never returns an error for a missing enrollment; absence is just an
// invalid certificate.
func (s *CertificateService) Verify(enrollmentID uint) (*VerificationResult, error) {
	enrollment, err := s.EnrollmentRepo.FindByIDWithRelations(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &VerificationResult{Valid: false}, nil
		}
		return nil, err
	}
	if enrollment.Status != model.StatusCompleted {
		return &VerificationResult{Valid: false}, nil
	}

	result := &VerificationResult{
		Valid:       true,
		CompletedAt: enrollment.CompletedAt,
	}
	if enrollment.Student != nil {
		result.StudentName = enrollment.Student.Name
	}
	if enrollment.Course != nil {
		result.CourseTitle = enrollment.Course.Title
		result.CourseCategory = enrollment.Course.Category
		if enrollment.Course.Instructor != nil {
			result.InstructorName = enrollment.Course.Instructor.Name
		}
	}
	return result, nil
}

// RenderedCertificate is a certificate PDF ready to stream.
type RenderedCertificate struct {
	Filename string
	Content  []byte
}

// Render produces the certificate PDF for a completed enrollment. The
// caller must be the enrollment's student or the course's instructor.
func (s *CertificateService) Render(callerID, enrollmentID uint) (*RenderedCertificate, error) {
	enrollment, err := s.EnrollmentRepo.FindByIDWithRelations(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.StudentID != callerID &&
		(enrollment.Course == nil || enrollment.Course.InstructorID != callerID) {
		return nil, util.ErrPermissionDenied
	}
	if enrollment.Status != model.StatusCompleted {
		return nil, util.ErrCourseNotCompleted
	}

	content, err := s.renderPDF(enrollment)
	if err != nil {
		return nil, err
	}
	monitoring.CertificatesRendered.Inc()

	studentName := "Student"
	if enrollment.Student != nil {
		studentName = enrollment.Student.Name
	}
	courseTitle := "Course"
	if enrollment.Course != nil {
		courseTitle = enrollment.Course.Title
	}

	return &RenderedCertificate{
		Filename: certificateFilename(studentName, courseTitle),
		Content:  content,
	}, nil
}

func (s *CertificateService) renderPDF(enrollment *model.Enrollment) ([]byte, error) {
	course := enrollment.Course
	student := enrollment.Student

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// Double border frame.
	pdf.SetDrawColor(certPrimary[0], certPrimary[1], certPrimary[2])
	pdf.SetLineWidth(1.2)
	pdf.Rect(8, 8, pageW-16, pageH-16, "D")
	pdf.SetDrawColor(certAccent[0], certAccent[1], certAccent[2])
	pdf.SetLineWidth(0.4)
	pdf.Rect(11, 11, pageW-22, pageH-22, "D")

	// Brand mark.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(certPrimary[0], certPrimary[1], certPrimary[2])
	pdf.SetXY(0, 22)
	pdf.CellFormat(pageW, 8, "EduNexus", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(certText[0], certText[1], certText[2])
	pdf.SetXY(0, 38)
	pdf.CellFormat(pageW, 12, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
	pdf.SetXY(0, 56)
	pdf.CellFormat(pageW, 7, "This is to certify that", "", 1, "C", false, 0, "")

	studentName := "Student"
	if student != nil {
		studentName = student.Name
	}
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(certPrimary[0], certPrimary[1], certPrimary[2])
	pdf.SetXY(0, 68)
	pdf.CellFormat(pageW, 11, studentName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
	pdf.SetXY(0, 84)
	pdf.CellFormat(pageW, 7, "has successfully completed the course", "", 1, "C", false, 0, "")

	courseTitle := "Course"
	if course != nil {
		courseTitle = course.Title
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(certText[0], certText[1], certText[2])
	pdf.SetXY(0, 95)
	pdf.CellFormat(pageW, 9, courseTitle, "", 1, "C", false, 0, "")

	if course != nil {
		hours := float64(course.Duration) / 60
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
		pdf.SetXY(0, 108)
		pdf.CellFormat(pageW, 6,
			fmt.Sprintf("%d lessons  |  %.1f hours of content", course.TotalLessons(), hours),
			"", 1, "C", false, 0, "")
	}

	completed := "N/A"
	if enrollment.CompletedAt != nil {
		completed = enrollment.CompletedAt.Format("January 2, 2006")
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(certText[0], certText[1], certText[2])
	pdf.SetXY(0, 120)
	pdf.CellFormat(pageW, 6, "Completed on "+completed, "", 1, "C", false, 0, "")

	// Instructor signature block, bottom left.
	if course != nil && course.Instructor != nil {
		pdf.SetLineWidth(0.3)
		pdf.SetDrawColor(certText[0], certText[1], certText[2])
		pdf.Line(30, pageH-42, 95, pageH-42)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetXY(30, pageH-40)
		pdf.CellFormat(65, 6, course.Instructor.Name, "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
		pdf.SetXY(30, pageH-34)
		pdf.CellFormat(65, 5, "Instructor", "", 1, "C", false, 0, "")
	}

	// Verification QR, bottom right. Rendering proceeds without it if
	// encoding fails.
	verifyURL := fmt.Sprintf("%s/verify/%d",
		strings.TrimRight(s.Config.App.FrontendURL, "/"), enrollment.ID)
	if png, err := qrcode.Encode(verifyURL, qrcode.Medium, 256); err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("verify-qr", pageW-58, pageH-58, 30, 30, false, opts, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
		pdf.SetXY(pageW-58, pageH-27)
		pdf.CellFormat(30, 4, "Scan to verify", "", 1, "C", false, 0, "")
	} else {
		logger.Log.Warn("certificate qr encode failed",
			zap.Uint("enrollment", enrollment.ID), zap.Error(err))
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(certSecondary[0], certSecondary[1], certSecondary[2])
	pdf.SetXY(0, pageH-22)
	pdf.CellFormat(pageW, 4, fmt.Sprintf("Certificate ID: %d", enrollment.ID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}
	return buf.Bytes(), nil
}

var filenameCleaner = regexp.MustCompile(`[^A-Za-z0-9]+`)

func certificateFilename(studentName, courseTitle string) string {
	clean := func(s string) string {
		return strings.Trim(filenameCleaner.ReplaceAllString(s, "_"), "_")
	}
	return fmt.Sprintf("Certificate_%s_%s.pdf", clean(studentName), clean(courseTitle))
}
