package main

import (
	"github.com/apex/log"

	"skysafe/backend/auth"
	"skysafe/backend/config"
	"skysafe/backend/db"
	"skysafe/backend/server"
	"skysafe/common"
)

func main() {
	cfg := config.Load()

	dbc, err := common.DBConnect(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbc.Close()

	if err := db.InitializeSchema(dbc); err != nil {
		log.Fatalf("Failed to initialize the database schema: %v", err)
	}

	authService := auth.NewService(dbc, cfg.JWTSecret)
	server.StartService(cfg, dbc, authService)
}
