package router

import (
	"github.com/findoc-ai/analyzer-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())
	r.Use(OptionalAuth(deps.Store, deps.Logger))

	h := handler.NewHandler(deps)

	// Health check endpoint
	r.GET("/", h.Health)

	// User registration and profile
	users := r.Group("/users")
	{
		// POST /users - Register a new user and issue an API key
		users.POST("", h.RegisterUser)

		// GET /users/me - Current user profile
		users.GET("/me", RequireAuth(), h.GetMe)
	}

	// POST /analyze - Submit a document for analysis
	r.POST("/analyze", h.SubmitAnalysis)

	jobs := r.Group("/jobs")
	{
		// GET /jobs - List jobs (owner-scoped, or recent window for anonymous)
		jobs.GET("", h.ListJobs)

		// GET /jobs/:job_id - Get job status
		jobs.GET("/:job_id", h.GetJob)

		// GET /jobs/:job_id/result - Get the analysis result
		jobs.GET("/:job_id/result", h.GetResult)

		// DELETE /jobs/:job_id - Delete a job and its result
		jobs.DELETE("/:job_id", RequireAuth(), h.DeleteJob)
	}

	return r
}
