package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/controllers"
	"github.com/dyilmaz/schoolhub/internal/middleware"
	"github.com/dyilmaz/schoolhub/internal/pkg/websocket"
)

// SetupRouter registers every application route. Everything except
// registration and login requires an authenticated principal; finer
// authorization lives in the policy engine, not here.
func SetupRouter(
	router *gin.Engine,
	ctrls *controllers.Controllers,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/api/v1")

	// --- Public auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrls.Auth.Register)
		auth.POST("/login", ctrls.Auth.Login)
		auth.POST("/federated", ctrls.Auth.FederatedLogin)
	}

	// --- Authenticated routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", ctrls.Auth.Me)
		authenticated.POST("/auth/logout", ctrls.Auth.Logout)

		users := authenticated.Group("/users")
		{
			users.GET("", ctrls.User.List)
			users.POST("", ctrls.User.Create)
			users.GET("/children", ctrls.User.Children)
			users.GET("/teachers", ctrls.User.Teachers)
			users.GET("/:id", ctrls.User.Get)
			users.PUT("/:id", ctrls.User.Update)
			users.DELETE("/:id", ctrls.User.Delete)
		}

		courses := authenticated.Group("/courses")
		{
			courses.GET("", ctrls.Course.List)
			courses.POST("", ctrls.Course.Create)
			courses.GET("/:id", ctrls.Course.Get)
			courses.PUT("/:id", ctrls.Course.Update)
			courses.DELETE("/:id", ctrls.Course.Delete)
			courses.POST("/:id/enroll", ctrls.Course.Enroll)
			courses.POST("/:id/unenroll", ctrls.Course.Unenroll)
			courses.GET("/:id/materials", ctrls.Course.ListMaterials)
			courses.POST("/:id/materials", ctrls.Course.AddMaterial)
			courses.DELETE("/:id/materials/:materialId", ctrls.Course.RemoveMaterial)

			courses.GET("/:id/assignments", ctrls.Assignment.ListByCourse)
			courses.POST("/:id/assignments", ctrls.Assignment.Create)
		}

		assignments := authenticated.Group("/assignments")
		{
			assignments.GET("/:id", ctrls.Assignment.Get)
			assignments.PUT("/:id", ctrls.Assignment.Update)
			assignments.DELETE("/:id", ctrls.Assignment.Delete)
			assignments.POST("/:id/publish", ctrls.Assignment.Publish)
			assignments.POST("/:id/submit", ctrls.Assignment.Submit)
			assignments.GET("/:id/submissions", ctrls.Assignment.ListSubmissions)
			assignments.POST("/:id/attachments", ctrls.Assignment.AttachToAssignment)
		}

		submissions := authenticated.Group("/submissions")
		{
			submissions.GET("/:id", ctrls.Assignment.GetSubmission)
			submissions.POST("/:id/grade", ctrls.Assignment.GradeSubmission)
			submissions.POST("/:id/attachments", ctrls.Assignment.AttachToSubmission)
		}

		attendance := authenticated.Group("/attendance")
		{
			attendance.GET("", ctrls.Attendance.List)
			attendance.POST("", ctrls.Attendance.Record)
			attendance.POST("/bulk", ctrls.Attendance.BulkRecord)
			attendance.GET("/stats", ctrls.Attendance.Stats)
			attendance.GET("/:id", ctrls.Attendance.Get)
			attendance.DELETE("/:id", ctrls.Attendance.Delete)
		}

		grades := authenticated.Group("/grades")
		{
			grades.GET("", ctrls.Grade.List)
			grades.POST("", ctrls.Grade.Record)
			grades.POST("/bulk", ctrls.Grade.BulkRecord)
			grades.GET("/summary", ctrls.Grade.Summary)
			grades.GET("/:id", ctrls.Grade.Get)
			grades.PUT("/:id", ctrls.Grade.Update)
			grades.POST("/:id/publish", ctrls.Grade.Publish)
			grades.DELETE("/:id", ctrls.Grade.Delete)
		}

		enrollment := authenticated.Group("/enrollment-requests")
		{
			enrollment.GET("", ctrls.Enrollment.List)
			enrollment.POST("", ctrls.Enrollment.Create)
			enrollment.GET("/:id", ctrls.Enrollment.Get)
			enrollment.POST("/:id/decide", ctrls.Enrollment.Decide)
			enrollment.DELETE("/:id", ctrls.Enrollment.Cancel)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", ctrls.Notification.List)
			notifications.POST("", ctrls.Notification.Send)
			notifications.POST("/read-all", ctrls.Notification.MarkAllRead)
			notifications.GET("/unread-count", ctrls.Notification.UnreadCount)
			notifications.POST("/:id/read", ctrls.Notification.MarkRead)
			notifications.DELETE("/:id", ctrls.Notification.Delete)
		}

		authenticated.GET("/ws", wsHandler.HandleConnection)
	}
}
