package app

import (
	"edunexus_backend/docs"
	"edunexus_backend/internal/config"
	"edunexus_backend/internal/middleware"
	"edunexus_backend/internal/model"
	"edunexus_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// Course catalog is browsable without an account.
		public.GET("/courses", c.course.List)
		public.GET("/courses/:id", c.course.Get)

		// Certificate verification backs the QR code on each PDF.
		public.GET("/certificates/:enrollmentId/verify", c.certificate.Verify)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/auth/me", c.auth.Me)

	rg.POST("/courses/:id/enroll", c.enrollment.Enroll)
	rg.GET("/enrollments", c.enrollment.Mine)
	rg.GET("/enrollments/:id", c.enrollment.Get)
	rg.POST("/enrollments/:id/lessons/:lessonId/complete", c.enrollment.CompleteLesson)
	rg.POST("/enrollments/:id/drop", c.enrollment.Drop)
	rg.POST("/enrollments/:id/rate", c.enrollment.Rate)

	rg.GET("/certificates/:enrollmentId", c.certificate.Download)

	rg.GET("/notifications", c.notification.List)
	rg.GET("/notifications/unread-count", c.notification.UnreadCount)
	rg.PATCH("/notifications/:id/read", c.notification.MarkRead)
	rg.PATCH("/notifications/read-all", c.notification.MarkAllRead)
	rg.DELETE("/notifications/:id", c.notification.Delete)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.POST("/courses", c.course.Create)
		instructor.GET("/courses/mine", c.course.Mine)
		instructor.PUT("/courses/:id", c.course.Update)
		instructor.DELETE("/courses/:id", c.course.Delete)
		instructor.PATCH("/courses/:id/publish", c.course.TogglePublish)

		instructor.POST("/courses/:id/lessons", c.course.AddLesson)
		instructor.PUT("/courses/:id/lessons/:lessonId", c.course.UpdateLesson)
		instructor.DELETE("/courses/:id/lessons/:lessonId", c.course.DeleteLesson)
		instructor.POST("/courses/:id/lessons/:lessonId/video", c.upload.UploadLessonVideo)
		instructor.DELETE("/courses/:id/lessons/:lessonId/video", c.upload.DeleteLessonVideo)

		instructor.GET("/courses/:id/students", c.enrollment.CourseStudents)
		instructor.POST("/enrollments/:id/certificate", c.enrollment.IssueCertificate)
	}
}
