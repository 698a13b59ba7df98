package main

import (
	"context"
	"fmt"
	"log"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/api"
	"github.com/sendit2sri/artifact-os/internal/api/handler"
	"github.com/sendit2sri/artifact-os/internal/database"
	"github.com/sendit2sri/artifact-os/internal/pkg/pubsub"
	"github.com/sendit2sri/artifact-os/internal/pkg/queue"
	"github.com/sendit2sri/artifact-os/internal/pkg/ws"
	"github.com/sendit2sri/artifact-os/internal/repository"
	"github.com/sendit2sri/artifact-os/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	jobQueue := queue.NewQueue(rdb, cfg.Queue.IngestQueue)

	wsHub := ws.NewHub()

	// Bridge worker progress events onto project websocket streams.
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ProgressMessage) {
			if err := wsHub.SendToProject(msg.ProjectID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to forward progress for project %s: %v", msg.ProjectID, err)
			}
		})
		if err != nil {
			log.Printf("Progress subscription ended: %v", err)
		}
	}()
	log.Println("Progress bridge started")

	jobRepo := repository.NewJobRepository(db)
	docRepo := repository.NewSourceDocRepository(db)
	nodeRepo := repository.NewNodeRepository(db)

	ingestService := service.NewIngestService(jobRepo, docRepo, jobQueue)
	dedupService := service.NewDedupService(nodeRepo, &cfg.Dedup)

	router := api.NewRouter(
		handler.NewIngestHandler(ingestService, cfg),
		handler.NewProjectHandler(dedupService),
		handler.NewWebSocketHandler(wsHub),
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
