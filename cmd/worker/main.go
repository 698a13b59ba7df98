package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/database"
	"github.com/sendit2sri/artifact-os/internal/extractor"
	"github.com/sendit2sri/artifact-os/internal/facts"
	"github.com/sendit2sri/artifact-os/internal/pkg/oss"
	"github.com/sendit2sri/artifact-os/internal/pkg/pubsub"
	"github.com/sendit2sri/artifact-os/internal/pkg/queue"
	"github.com/sendit2sri/artifact-os/internal/repository"
	"github.com/sendit2sri/artifact-os/internal/worker"
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
	publisher := pubsub.NewPublisher(rdb)

	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: failed to init OSS client: %v", err)
			ossClient = nil
		} else {
			log.Println("OSS client initialized")
		}
	}

	httpClient := extractor.NewHTTPClient(
		time.Duration(cfg.Ingest.FetchTimeoutSeconds)*time.Second,
		cfg.Ingest.UserAgent,
	)
	extractors := worker.Extractors{
		Web:     extractor.NewWebExtractor(httpClient),
		Reddit:  extractor.NewRedditExtractor(httpClient, cfg.Ingest.MaxCommentCount),
		YouTube: extractor.NewYouTubeExtractor(httpClient, extractor.NewTimedTextProvider(httpClient, "en")),
		Media: extractor.NewMediaExtractor(
			extractor.NewCommandTranscriber(cfg.Transcribe.Command, cfg.Transcribe.Args...)),
	}

	factExtractor := facts.NewOpenAIExtractor(
		cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model,
		facts.WithLimits(cfg.LLM.MaxChars, cfg.LLM.ChunkSize, cfg.LLM.Overlap),
	)

	docRepo := repository.NewSourceDocRepository(db)
	processor := worker.NewProcessor(
		repository.NewJobRepository(db),
		docRepo,
		repository.NewNodeRepository(db),
		extractors,
		factExtractor,
		publisher,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	if ossClient != nil {
		go worker.NewArchiver(docRepo, ossClient).Start(ctx)
		log.Println("Media archiver started")
	}

	log.Printf("Worker started, max workers: %d", cfg.Queue.MaxWorkers)

	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := jobQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop job: %v", workerID, err)
						continue
					}

					if msg == nil {
						continue
					}

					log.Printf("Worker %d: processing job %s", workerID, msg.JobID)
					if err := processor.Process(ctx, msg); err != nil {
						log.Printf("Worker %d: job %s failed: %v", workerID, msg.JobID, err)
					}
				}
			}
		}(i)
	}

	<-ctx.Done()
	log.Println("Worker shutdown complete")
}
