// @title EduNexus API
// @version 1.0
// @description Backend server for the EduNexus learning platform.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"edunexus_backend/internal/app"
	"edunexus_backend/internal/config"
	"edunexus_backend/pkg/configwatcher"
	"edunexus_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs/config.yaml", func(updated *config.Config) {
		logger.Log.Info("Configuration reloaded")
	})

	application.Run()
}
