package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"cleannav/internal/config"
	"cleannav/internal/serverapp"
	"cleannav/internal/session"
)

func main() {
	cfg, err := config.Load("cleannav.yml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := serverapp.New(serverapp.Options{
		Config:        cfg,
		UseDiskStatic: serverapp.UseDiskStaticByEnv(),
		Logger:        log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	ctx := context.Background()

	// The model loads in the background; photo checks return 503 until it
	// is ready.
	go func() {
		if err := app.Classifier.Load(ctx); err != nil {
			log.Printf("classifier load: %v", err)
		}
	}()

	ticker := session.NewTicker(app.Sessions, cfg.Room.ID, time.Second, log.Default())
	go ticker.Run(ctx)

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, app.Handler))
}
