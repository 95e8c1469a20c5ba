package main

import (
	"go.uber.org/zap"

	"gitlab.com/phonebookapi/phonebook-service/internal/auth"
	"gitlab.com/phonebookapi/phonebook-service/internal/config"
	"gitlab.com/phonebookapi/phonebook-service/internal/service"
	"gitlab.com/phonebookapi/phonebook-service/internal/storage"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=phonebook DBPWD=secret DBHOST=localhost AUTH_MODE=basic BASIC_USER=admin BASIC_PASSWORD=admin GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sqlDB := storage.CreateDatabase(cfg)
	store, err := storage.New(sqlDB)
	if err != nil {
		logger.Fatal("could not prepare database statements", zap.Error(err))
	}
	defer store.Close()

	var guard auth.Guard
	switch cfg.AuthMode {
	case config.AuthModeToken:
		if err := auth.EnsureSuperuser(store, cfg.SuperuserName, cfg.SuperuserPassword); err != nil {
			logger.Fatal("could not bootstrap superuser", zap.Error(err))
		}
		guard = auth.NewTokenGuard(cfg, store, logger)
	case config.AuthModeBasic:
		guard = auth.NewBasicGuard(cfg)
	default:
		logger.Fatal("unknown AUTH_MODE", zap.String("mode", cfg.AuthMode))
	}

	svc := service.New(store, logger)
	router := service.SetupHttpRouter(svc, guard, cfg)
	logger.Info("starting phonebook service",
		zap.String("port", cfg.Port),
		zap.String("auth_mode", cfg.AuthMode))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
