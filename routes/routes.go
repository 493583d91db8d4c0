package routes

import (
	"time"

	"github.com/Gandasoft/polylearner-web/controllers"
	"github.com/Gandasoft/polylearner-web/middleware"
	"github.com/Gandasoft/polylearner-web/services"

	"github.com/gin-gonic/gin"
)

// Deps 伴生 API 依赖，全部显式注入
type Deps struct {
	Session      *services.Session
	Client       *services.APIClient
	Loader       *services.Loader
	Flows        *services.FlowRegistry
	Location     *time.Location
	DailyStart   int
	DailyEnd     int
	LoopbackOnly bool
	Now          func() time.Time
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Location == nil {
		d.Location = time.Local
	}

	authController := controllers.AuthController{Session: d.Session, Flows: d.Flows}
	dashboardController := controllers.DashboardController{Loader: d.Loader}
	goalController := controllers.GoalController{Client: d.Client, Loader: d.Loader}
	taskController := controllers.TaskController{Client: d.Client, Loader: d.Loader, Location: d.Location}
	calendarController := controllers.CalendarController{Loader: d.Loader, Location: d.Location, Now: d.Now}
	planningController := controllers.PlanningController{
		Client:     d.Client,
		Loader:     d.Loader,
		DailyStart: d.DailyStart,
		DailyEnd:   d.DailyEnd,
	}
	onboardingController := controllers.OnboardingController{Flows: d.Flows}
	coachController := controllers.CoachController{Client: d.Client, Now: d.Now}

	if d.LoopbackOnly {
		r.Use(middleware.LoopbackOnly())
	}

	// 公开路由（无需登录）
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authController.Login)
		public.POST("/auth/logout", authController.Logout)
	}

	// 需要登录的路由
	private := r.Group("/api/v1")
	private.Use(middleware.RequireSession(d.Session))
	{
		private.GET("/auth/me", authController.Me)
		private.GET("/dashboard", dashboardController.Dashboard)
		private.GET("/profile/stats", dashboardController.ProfileStats)

		private.GET("/goals", goalController.List)
		private.POST("/goals", goalController.Create)
		private.GET("/goals/:id", goalController.Detail)
		private.DELETE("/goals/:id", goalController.Delete)

		private.GET("/tasks", taskController.List)
		private.POST("/tasks", taskController.Create)
		private.POST("/tasks/:id/complete", taskController.Complete)

		private.GET("/calendar/day", calendarController.Day)

		private.GET("/weekly-goals", planningController.ListWeeklyGoals)
		private.POST("/weekly-goals", planningController.CreateWeeklyGoal)
		private.POST("/weekly-goals/:id/review", planningController.AddWeeklyReview)
		private.GET("/schedule", planningController.Schedule)
		private.GET("/recommendations", planningController.Recommendations)

		private.POST("/onboarding", onboardingController.Start)
		private.GET("/onboarding/:id", onboardingController.Get)
		private.DELETE("/onboarding/:id", onboardingController.Abandon)
		private.POST("/onboarding/:id/proceed", onboardingController.Proceed())
		private.POST("/onboarding/:id/validate", onboardingController.Validate)
		private.POST("/onboarding/:id/edit", onboardingController.Edit())
		private.POST("/onboarding/:id/refine", onboardingController.Refine)
		private.POST("/onboarding/:id/suggest", onboardingController.Suggest)
		private.POST("/onboarding/:id/toggle", onboardingController.Toggle)
		private.POST("/onboarding/:id/select-all", onboardingController.SelectAll())
		private.POST("/onboarding/:id/clear", onboardingController.ClearSelection())
		private.POST("/onboarding/:id/back", onboardingController.Back())
		private.POST("/onboarding/:id/create", onboardingController.Create)

		private.GET("/coach/sessions", coachController.Sessions)
		private.POST("/coach/sessions", coachController.CreateSession)
		private.POST("/coach/chat", coachController.Chat)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
