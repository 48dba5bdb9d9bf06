package routes

import (
	"net/http"
	"time"

	"hoa-http-service/internal/app/controllers"
	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/jobs"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"

	"github.com/gin-gonic/gin"
)

const (
	cacheViolationTypes  = "violation-types"
	cacheAssessmentRates = "assessment-rates"
)

// SetupRouter builds the gin engine serving the portal API
func SetupRouter(container *container.ServiceContainer, runner *jobs.Runner) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	allowedOrigin := container.GetConfig().AllowedOrigin
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Cache")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	cache := middleware.NewResponseCache()
	registerRoutes(r, container, runner, cache)
	return r
}

// registerRoutes configures every API route
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
	runner *jobs.Runner,
	cache *middleware.ResponseCache,
) {
	api := r.Group("/api")
	api.Use(middleware.IPRateLimiter(20, 40))

	registerPublicRoutes(api, container)
	registerAuthenticatedRoutes(api, container, cache)
	registerBoardRoutes(api, container, runner, cache)
}

// registerPublicRoutes registers the routes reachable without a token
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "health"))

	authGroup := api.Group("/auth")
	authGroup.POST("/login", middleware.CombinedRateLimiter(1, 10), controllers.HandleAuthFunc(container, "login"))
	authGroup.POST("/refresh", controllers.HandleAuthFunc(container, "refresh"))
	authGroup.POST("/register", middleware.CombinedRateLimiter(1, 5), controllers.HandleAuthFunc(container, "register"))
	authGroup.POST("/forgot-password", middleware.CombinedRateLimiter(0.2, 3), controllers.HandleAuthFunc(container, "forgotPassword"))
}

// registerAuthenticatedRoutes registers the routes open to every signed in owner
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	cache *middleware.ResponseCache,
) {
	jwtService := container.GetService("jwt").(services.InterfaceJWTService)

	// A temporary password only allows changing it
	temp := api.Group("/auth")
	temp.Use(middleware.Authenticate(jwtService, true))
	temp.POST("/change-password", controllers.HandleAuthFunc(container, "changePassword"))

	auth := api.Group("/")
	auth.Use(middleware.Authenticate(jwtService, false))

	ownerGroup := auth.Group("/owners/me")
	ownerGroup.GET("", controllers.HandleOwnerFunc(container, "getMe"))
	ownerGroup.PUT("", controllers.HandleOwnerFunc(container, "updateMe"))
	ownerGroup.PUT("/preferences", controllers.HandleOwnerFunc(container, "updatePreferences"))

	accountGroup := auth.Group("/accounts")
	accountGroup.GET("", controllers.HandleBillingFunc(container, "listAccounts"))
	accountGroup.GET("/:id", controllers.HandleBillingFunc(container, "getAccount"))
	accountGroup.GET("/:id/charges", controllers.HandleBillingFunc(container, "listCharges"))
	accountGroup.GET("/:id/payments", controllers.HandleBillingFunc(container, "listPayments"))
	accountGroup.GET("/:id/cards", controllers.HandleBillingFunc(container, "listCards"))

	paymentGroup := auth.Group("/payments")
	paymentGroup.POST("", controllers.HandleBillingFunc(container, "makePayment"))
	paymentGroup.GET("/:id/receipt", controllers.HandleBillingFunc(container, "receipt"))

	messageGroup := auth.Group("/messages")
	messageGroup.GET("", controllers.HandleMessageFunc(container, "inbox"))
	messageGroup.POST("", controllers.HandleMessageFunc(container, "send"))
	messageGroup.GET("/sent", controllers.HandleMessageFunc(container, "sent"))
	messageGroup.GET("/board-recipients", controllers.HandleMessageFunc(container, "boardRecipients"))
	messageGroup.GET("/:id", controllers.HandleMessageFunc(container, "thread"))
	messageGroup.PUT("/:id/read", controllers.HandleMessageFunc(container, "markRead"))

	announcementGroup := auth.Group("/announcements")
	announcementGroup.GET("", controllers.HandleAnnouncementFunc(container, "list"))
	announcementGroup.GET("/:id", controllers.HandleAnnouncementFunc(container, "get"))
	announcementGroup.GET("/:id/image", controllers.HandleAnnouncementFunc(container, "image"))

	documentGroup := auth.Group("/documents")
	documentGroup.GET("", controllers.HandleDocumentFunc(container, "list"))
	documentGroup.GET("/:id/download", controllers.HandleDocumentFunc(container, "download"))

	surveyGroup := auth.Group("/surveys")
	surveyGroup.GET("", controllers.HandleSurveyFunc(container, "list"))
	surveyGroup.POST("/:id/responses", controllers.HandleSurveyFunc(container, "respond"))
	surveyGroup.GET("/:id/results", controllers.HandleSurveyFunc(container, "results"))

	auth.GET("/violation-types", cache.Cache(cacheViolationTypes, 5*time.Minute), controllers.HandleChargeFunc(container, "listViolationTypes"))
	auth.GET("/assessment-rates", cache.Cache(cacheAssessmentRates, 5*time.Minute), controllers.HandleChargeFunc(container, "listAssessmentRates"))
}

// registerBoardRoutes registers the routes limited to active board members.
// Capability checks happen in the services.
func registerBoardRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	runner *jobs.Runner,
	cache *middleware.ResponseCache,
) {
	jwtService := container.GetService("jwt").(services.InterfaceJWTService)

	boardService := container.GetService("board").(services.InterfaceBoardService)

	board := api.Group("/board")
	board.Use(middleware.Authenticate(jwtService, false), middleware.RequireBoardMember(boardService))

	board.GET("/owners", controllers.HandleOwnerFunc(container, "listOwners"))
	board.POST("/owners", controllers.HandleOwnerFunc(container, "createAccount"))
	board.PUT("/ownerships/:id/sale", controllers.HandleOwnerFunc(container, "recordSale"))

	board.POST("/violations", controllers.HandleChargeFunc(container, "issueViolation"))
	board.POST("/assessments", controllers.HandleChargeFunc(container, "issueAssessment"))

	violationTypeGroup := board.Group("/violation-types")
	violationTypeGroup.Use(cache.PurgeOnWrite(cacheViolationTypes))
	violationTypeGroup.POST("", controllers.HandleChargeFunc(container, "createViolationType"))
	violationTypeGroup.PUT("/:id", controllers.HandleChargeFunc(container, "updateViolationType"))

	rateGroup := board.Group("/assessment-rates")
	rateGroup.Use(cache.PurgeOnWrite(cacheAssessmentRates))
	rateGroup.POST("", controllers.HandleChargeFunc(container, "createAssessmentRate"))
	rateGroup.PUT("/:id", controllers.HandleChargeFunc(container, "updateAssessmentRate"))

	announcementGroup := board.Group("/announcements")
	announcementGroup.POST("", controllers.HandleAnnouncementFunc(container, "create"))
	announcementGroup.PUT("/:id", controllers.HandleAnnouncementFunc(container, "update"))
	announcementGroup.DELETE("/:id", controllers.HandleAnnouncementFunc(container, "delete"))

	documentGroup := board.Group("/documents")
	documentGroup.POST("", controllers.HandleDocumentFunc(container, "upload"))
	documentGroup.DELETE("/:id", controllers.HandleDocumentFunc(container, "delete"))

	board.POST("/surveys", controllers.HandleSurveyFunc(container, "create"))

	roleGroup := board.Group("/roles")
	roleGroup.GET("", controllers.HandleBoardFunc(container, "listRoles"))
	roleGroup.POST("", controllers.HandleBoardFunc(container, "createRole"))
	roleGroup.PUT("/:id", controllers.HandleBoardFunc(container, "updateRole"))

	memberGroup := board.Group("/members")
	memberGroup.GET("", controllers.HandleBoardFunc(container, "listMembers"))
	memberGroup.POST("", controllers.HandleBoardFunc(container, "assignRole"))
	memberGroup.DELETE("/:ownerId", controllers.HandleBoardFunc(container, "endRole"))

	jobGroup := board.Group("/jobs")
	jobGroup.GET("", controllers.HandleJobFunc(container, runner, "list"))
	jobGroup.POST("/:name/run", controllers.HandleJobFunc(container, runner, "run"))
	jobGroup.GET("/:name/runs", controllers.HandleJobFunc(container, runner, "runs"))
}
