package routes

import (
	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/controllers"
	"fibernet/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine) {
	// Public routes (no authentication required)
	public := r.Group("/api")
	{
		public.POST("/auth/login", controllers.Login)
	}

	// Protected routes (authentication required)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/profile", controllers.GetProfile)
		protected.POST("/profile/change-password", controllers.ChangePassword)

		// Companies: only super admins manage tenants, company admins may
		// read their own.
		companies := protected.Group("/companies")
		{
			companies.GET("", middleware.AdminAuthMiddleware(), controllers.GetCompanies)
			companies.GET("/:id", middleware.AdminAuthMiddleware(), controllers.GetCompanyByID)
			companies.POST("", middleware.SuperAdminAuthMiddleware(), controllers.CreateCompany)
			companies.PUT("/:id", middleware.SuperAdminAuthMiddleware(), controllers.UpdateCompany)
			companies.DELETE("/:id", middleware.SuperAdminAuthMiddleware(), controllers.DeleteCompany)
		}

		// Staff accounts
		users := protected.Group("/users")
		users.Use(middleware.AdminAuthMiddleware())
		{
			users.GET("", controllers.GetUsers)
			users.GET("/:id", controllers.GetUserByID)
			users.POST("", controllers.CreateUser)
			users.PUT("/:id", controllers.UpdateUser)
			users.DELETE("/:id", controllers.DeleteUser)
		}

		// Telecom centers
		centers := protected.Group("/telecom-centers")
		{
			centers.GET("", controllers.GetTelecomCenters)
			centers.GET("/:id", controllers.GetTelecomCenterByID)
			centers.POST("", middleware.AdminAuthMiddleware(), controllers.CreateTelecomCenter)
			centers.PUT("/:id", middleware.AdminAuthMiddleware(), controllers.UpdateTelecomCenter)
			centers.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteTelecomCenter)
		}

		// FATs
		fats := protected.Group("/fats")
		{
			fats.GET("", controllers.GetFATs)
			fats.GET("/:id", controllers.GetFATByID)
			fats.POST("", middleware.AdminAuthMiddleware(), controllers.CreateFAT)
			fats.PUT("/:id", middleware.AdminAuthMiddleware(), controllers.UpdateFAT)
			fats.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteFAT)
		}

		// Subscribers
		subscribers := protected.Group("/subscribers")
		{
			subscribers.GET("", middleware.AdminAuthMiddleware(), controllers.GetSubscribers)
			subscribers.GET("/:id", middleware.AdminAuthMiddleware(), controllers.GetSubscriberByID)
			subscribers.POST("", middleware.AdminAuthMiddleware(), controllers.CreateSubscriber)
			subscribers.PUT("/:id", middleware.AdminAuthMiddleware(), controllers.UpdateSubscriber)
			subscribers.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteSubscriber)
		}

		// Subscriptions: installers read their assigned ones, admins manage
		subscriptions := protected.Group("/subscriptions")
		{
			subscriptions.GET("", controllers.GetSubscriptions)
			subscriptions.GET("/:id", controllers.GetSubscriptionByID)
			subscriptions.POST("", middleware.AdminAuthMiddleware(), controllers.CreateSubscription)
			subscriptions.PUT("/:id", middleware.AdminAuthMiddleware(), controllers.UpdateSubscription)
			subscriptions.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteSubscription)
		}

		// Support tickets: support staff read their assigned ones
		tickets := protected.Group("/tickets")
		{
			tickets.GET("", middleware.AdminOrSupportAuthMiddleware(), controllers.GetTickets)
			tickets.GET("/:id", middleware.AdminOrSupportAuthMiddleware(), controllers.GetTicketByID)
			tickets.POST("", middleware.AdminAuthMiddleware(), controllers.CreateTicket)
			tickets.PUT("/:id", middleware.AdminAuthMiddleware(), controllers.UpdateTicket)
			tickets.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteTicket)
		}

		// Work dispatch and completion
		protected.GET("/assignments", middleware.RequireRoles(auth.RoleInstaller, auth.RoleSupport), controllers.GetAssignments)
		protected.POST("/assignments", middleware.AdminAuthMiddleware(), controllers.CreateAssignment)
		protected.GET("/tasks", middleware.AdminAuthMiddleware(), controllers.GetTasks)
		protected.POST("/workflow-reports", middleware.RequireRoles(auth.RoleInstaller, auth.RoleSupport), controllers.FileWorkReport)

		// Reporting
		protected.GET("/reports/subscriptions", middleware.AdminAuthMiddleware(), controllers.GetSubscriptionReport)
	}
}
