package main

import (
	"os"

	"github.com/mercalog/go-backend/internal/app"
	config "github.com/mercalog/go-backend/internal/cfg"
	"github.com/mercalog/go-backend/pkg/logger"
)

//	@title			Mercalog Catalog API
//	@version		1.0
//	@description	API каталога товаров с доступом по общему коду

//	@BasePath	/api

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
