package main

import (
	"fmt"
	"os"
	"time"

	"storefront/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()

	gormDB, err := openDatabase(configs)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB)
	if err != nil {
		log.Fatalf("Error building composition root: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting background jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(&app, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	config := cmd.Config{
		HTTPPort:                goDotEnvVariable("HTTP_PORT"),
		DBHost:                  goDotEnvVariable("DB_HOST"),
		DBPort:                  goDotEnvVariable("DB_PORT"),
		DBUser:                  goDotEnvVariable("DB_USER"),
		DBPassword:              goDotEnvVariable("DB_PASSWORD"),
		DBName:                  goDotEnvVariable("DB_NAME"),
		DBSslMode:               goDotEnvVariable("DB_SSLMODE"),
		StripeAPIKey:            goDotEnvVariable("STRIPE_API_KEY"),
		StripeWebhookSecret:     goDotEnvVariable("STRIPE_WEBHOOK_SECRET"),
		ShippoAPIToken:          goDotEnvVariable("SHIPPO_API_TOKEN"),
		TrackingRefreshSchedule: goDotEnvVariable("TRACKING_REFRESH_SCHEDULE"),
		ProviderTimeout:         goDotEnvDuration("PROVIDER_TIMEOUT"),
	}
	return config
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func goDotEnvDuration(key string) time.Duration {
	value := goDotEnvVariable(key)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Error parsing %s as duration: %v", key, err)
	}
	return duration
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func startWebServer(app *cmd.CompositionRoot, port string) {
	e := echo.New()
	app.CreateHTTPServer().RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
