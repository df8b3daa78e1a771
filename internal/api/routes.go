package api

import (
	"net/http"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

// Services are the application services the HTTP layer exposes.
type Services struct {
	Auth         service.AuthService
	Identity     service.IdentityService
	Tenant       service.TenantService
	Member       service.MemberService
	Subscription service.SubscriptionService
	Attendance   service.AttendanceService
	Class        service.ClassService
	Workout      service.WorkoutService
	Content      service.ContentService
	Notification service.NotificationService
	Report       service.ReportService
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	tenantHandler := NewTenantHandler(svc.Tenant, svc.Subscription)
	memberHandler := NewMemberHandler(svc.Member, svc.Subscription)
	attendanceHandler := NewAttendanceHandler(svc.Attendance, svc.Report)
	classHandler := NewClassHandler(svc.Class)
	workoutHandler := NewWorkoutHandler(svc.Workout)
	contentHandler := NewContentHandler(svc.Content)
	notificationHandler := NewNotificationHandler(svc.Notification)
	reportHandler := NewReportHandler(svc.Report)
	adminHandler := NewAdminHandler(svc.Subscription, svc.Report)

	can := RequireCapability
	gate := func(feature string) gin.HandlerFunc { return FeatureGate(svc.Subscription, feature) }

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(svc.Auth, svc.Identity))
	protected.GET("/me", authHandler.Me)

	// --- Onboarding: the caller has no gym yet ---
	onboarding := protected.Group("/onboarding")
	{
		onboarding.POST("/gyms", tenantHandler.CreateGym)
		onboarding.POST("/join", tenantHandler.JoinGym)
	}

	// --- Platform administration ---
	admin := protected.Group("/admin")
	{
		admin.GET("/plans", can(domain.CapManagePlatform, domain.CapManageGym), adminHandler.ListPlans)

		platform := admin.Group("")
		platform.Use(can(domain.CapManagePlatform))
		platform.POST("/plans", adminHandler.CreatePlan)
		platform.PUT("/plans/:id", adminHandler.UpdatePlan)
		platform.DELETE("/plans/:id", adminHandler.DeactivatePlan)
		platform.POST("/gyms/:id/subscription", adminHandler.AssignPlan)
		platform.GET("/gyms", adminHandler.ListGyms)
		platform.GET("/dashboard", adminHandler.Dashboard)
	}

	// Everything below is scoped to the caller's gym.
	tenant := protected.Group("")
	tenant.Use(RequireTenant())

	tenant.GET("/features/:name/blocked", tenantHandler.FeatureBlocked)

	gymGroup := tenant.Group("/gym")
	{
		gymGroup.GET("", tenantHandler.GetGym)
		gymGroup.PUT("", can(domain.CapManageGym), tenantHandler.UpdateGym)
		gymGroup.GET("/branches", tenantHandler.ListBranches)
		gymGroup.POST("/branches", can(domain.CapManageGym), tenantHandler.CreateBranch)
		gymGroup.DELETE("/branches/:id", can(domain.CapManageGym), tenantHandler.DeactivateBranch)
		gymGroup.GET("/limits", can(domain.CapManageGym), tenantHandler.GetLimits)
	}

	memberGroup := tenant.Group("/members")
	{
		memberGroup.GET("", memberHandler.ListMembers)
		memberGroup.POST("", can(domain.CapManageMembers), memberHandler.CreateMember)
		memberGroup.GET("/:id", memberHandler.GetMember)
		memberGroup.PUT("/:id", can(domain.CapManageMembers), memberHandler.UpdateMember)
		memberGroup.DELETE("/:id", can(domain.CapManageMembers), memberHandler.DeactivateMember)
		memberGroup.GET("/:id/qr", memberHandler.MemberQR)
		memberGroup.GET("/:id/subscriptions", memberHandler.ListSubscriptions)
		memberGroup.POST("/:id/subscriptions", can(domain.CapManageMemberSubscriptions), memberHandler.CreateSubscription)
	}

	attendanceGroup := tenant.Group("/attendance")
	{
		attendanceGroup.POST("/scan", can(domain.CapScanAttendance), attendanceHandler.Scan)
		attendanceGroup.POST("/scan-image", can(domain.CapScanAttendance), attendanceHandler.ScanImage)
		attendanceGroup.GET("", can(domain.CapViewReports), gate(domain.FeatureReports), attendanceHandler.ListAttendance)
		attendanceGroup.GET("/stats", can(domain.CapViewReports), gate(domain.FeatureReports), attendanceHandler.Stats)
		attendanceGroup.GET("/overview", can(domain.CapViewAttendance), attendanceHandler.Overview)
		attendanceGroup.GET("/export", can(domain.CapExportReports), attendanceHandler.Export)
	}

	classGroup := tenant.Group("/classes")
	{
		classGroup.GET("", classHandler.ListClasses)
		classGroup.POST("", can(domain.CapManageClasses), classHandler.CreateClass)
		classGroup.POST("/:id/cancel", can(domain.CapManageClasses), classHandler.CancelClass)
		classGroup.DELETE("/:id", can(domain.CapManageClasses), classHandler.DeleteClass)
		classGroup.POST("/:id/bookings", can(domain.CapBookClasses), gate(domain.FeatureClassBooking), classHandler.BookClass)
		classGroup.DELETE("/:id/bookings", can(domain.CapBookClasses), classHandler.CancelBooking)
	}

	workoutGroup := tenant.Group("/workouts")
	{
		workoutGroup.GET("/templates", can(domain.CapManageWorkouts), workoutHandler.ListTemplates)
		workoutGroup.POST("/templates", can(domain.CapManageWorkouts), workoutHandler.CreateTemplate)
		workoutGroup.DELETE("/templates/:id", can(domain.CapManageWorkouts), workoutHandler.DeactivateTemplate)
		workoutGroup.POST("/templates/:id/assign", can(domain.CapManageWorkouts), workoutHandler.AssignTemplate)
		workoutGroup.GET("/programs", gate(domain.FeatureWorkoutPlans), workoutHandler.ListPrograms)
	}

	contentGroup := tenant.Group("/content")
	{
		contentGroup.POST("/upload-url", can(domain.CapManageContent), contentHandler.RequestUploadURL)
		contentGroup.POST("", can(domain.CapManageContent), contentHandler.ConfirmUpload)
		contentGroup.GET("", can(domain.CapViewContent), gate(domain.FeatureContentLibrary), contentHandler.ListContent)
		contentGroup.GET("/:id/download", can(domain.CapViewContent), gate(domain.FeatureContentLibrary), contentHandler.DownloadURL)
		contentGroup.DELETE("/:id", can(domain.CapManageContent), contentHandler.DeleteContent)
	}

	notificationGroup := tenant.Group("/notifications")
	{
		notificationGroup.GET("", notificationHandler.List)
		notificationGroup.POST("", can(domain.CapSendNotifications), notificationHandler.Send)
		notificationGroup.POST("/:id/read", notificationHandler.MarkRead)
	}

	reportGroup := tenant.Group("/reports")
	{
		reportGroup.GET("/members", can(domain.CapViewReports), reportHandler.MemberStats)
		reportGroup.GET("/dashboard", can(domain.CapManageGym), reportHandler.GymDashboard)
	}
}
