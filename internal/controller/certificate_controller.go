package controller

import (
	"fmt"

	"edunexus_backend/internal/service"
	"edunexus_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// Download godoc
// @Summary Download a completion certificate as PDF
// @Description Available to the enrolled student and the course's instructor
// @Tags certificates
// @Produce  application/pdf
// @Security ApiKeyAuth
// @Param   enrollmentId path int true "Enrollment ID"
// @Success 200 {file} binary "PDF certificate"
// @Failure 400 {object} util.Response "Course not completed"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/certificates/{enrollmentId} [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	cert, err := c.CertificateService.Render(claims.UserID, util.MustParseUint(ctx.Param("enrollmentId")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.Filename))
	ctx.Data(200, "application/pdf", cert.Content)
}

// Verify godoc
// @Summary Verify a certificate
// @Description Public endpoint behind the QR code on each certificate
// @Tags certificates
// @Produce  json
// @Param   enrollmentId path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=service.VerificationResult} "Success"
// @Router /api/certificates/{enrollmentId}/verify [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	result, err := c.CertificateService.Verify(util.MustParseUint(ctx.Param("enrollmentId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
