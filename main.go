package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
	gateway "github.com/timerd/timerd/apigateway"
	"github.com/timerd/timerd/dashboard"
	"github.com/timerd/timerd/fields"
	"github.com/timerd/timerd/scheduler"
	"github.com/timerd/timerd/utils"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

var log = logrus.New()
var timerdConfig fields.Config
var auth gateway.JWTAuth
var redisClient *redis.Client
var schedService *scheduler.Service
var dashService dashboard.Service

// GetMainEngine wires every timerd route into one gin engine.
func GetMainEngine() *gin.Engine {
	route := gin.Default()

	p := ginprometheus.NewPrometheus("gin")
	p.Use(route)
	instrument := gateway.Instrumentation()
	route.Use(instrument)

	route.HandleMethodNotAllowed = true
	route.Use(gateway.OptionsMiddleware)

	route.POST("/register", schedService.CreateUser)
	route.POST("/login", schedService.LoginHandler)
	// minting sign-in codes is a relay operation reserved for trusted clients
	route.POST("/otp/generate", gateway.APIKeyMiddleware(redisClient), schedService.GenerateSignInCode)
	route.POST("/otp/login", schedService.SingleLoginHandler)
	route.POST("/generate_api_key", schedService.GenerateAPIKey)

	timers := route.Group("/timers")
	{
		timers.GET("", schedService.ListTimers)
		timers.GET("/:uuid", schedService.GetTimer)
		timers.Use(auth.AuthMiddleware())
		timers.POST("", schedService.CreateTimer)
		timers.POST("/:uuid/start", schedService.StartTimer)
		timers.POST("/:uuid/stop", schedService.StopTimer)
		timers.POST("/:uuid/reset", schedService.ResetTimer)
		timers.DELETE("/:uuid", schedService.DeleteTimer)
	}

	dashboardGroup := route.Group("/dashboard")
	{
		dashboardGroup.GET("/count", dashService.TimersCount)
		dashboardGroup.GET("/firings", dashService.RecentFirings)
		dashboardGroup.GET("/daily", dashService.DailySummary)
	}

	return route
}

func init() {
	log.Level = logrus.DebugLevel
	log.SetReportCaller(true) // get the method/function where the logging occurred

	var err error
	timerdConfig, err = fields.LoadConfig("")
	if err != nil {
		log.Printf("Error in reading config file: %v", err)
	}

	database, err := utils.Database(timerdConfig.DatabasePath)
	if err != nil {
		log.Fatalf("unable to open database: %v", err)
	}
	if err := database.AutoMigrate(&fields.User{}, &fields.TimerRecord{}, &fields.FiringEvent{}); err != nil {
		log.Fatalf("unable to migrate database: %v", err)
	}
	redisClient = utils.GetRedis(timerdConfig.RedisAddress)

	binding.Validator = new(fields.DefaultValidator)

	if timerdConfig.JWTKey != "" {
		auth.Key = []byte(timerdConfig.JWTKey)
	} else {
		auth.Key = gateway.KeyFromEnv(redisClient)
	}
	auth.Init()

	schedService = &scheduler.Service{
		Db:     database,
		Redis:  redisClient,
		Logger: log,
		Config: timerdConfig,
		Auth:   &auth,
	}
	dashService = dashboard.Service{
		Db:               database,
		Redis:            redisClient,
		RecentFiringsKey: timerdConfig.RecentFiringsKey,
	}
}

func main() {
	file, err := os.OpenFile("logrus.log", os.O_CREATE|os.O_WRONLY, 0666)
	if err == nil {
		log.Out = file
	} else {
		log.Out = os.Stderr
	}

	log.Fatal(GetMainEngine().Run(":" + timerdConfig.Port))
}
