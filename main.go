package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/kyawlabs/fin-agent/api"
	"github.com/kyawlabs/fin-agent/chat"
	"github.com/kyawlabs/fin-agent/config"
	"github.com/kyawlabs/fin-agent/database"
	"github.com/kyawlabs/fin-agent/embeddings"
	"github.com/kyawlabs/fin-agent/ingestion"
	"github.com/kyawlabs/fin-agent/llm"
	"github.com/kyawlabs/fin-agent/rag"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.Addr, "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	if err := cfg.ValidateChat(); err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	chatSvc, ingestSvc, err := buildServices(cfg, pool, logger)
	if err != nil {
		logger.Fatalf("service setup: %v", err)
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, chatSvc, ingestSvc, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := flags.String("file", "", "path to a single document (.txt, .md, .pdf)")
	dir := flags.String("dir", cfg.DataDir, "path to a directory of documents")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	if err := cfg.ValidateIngest(); err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(rag.NewPostgresVectorStore(pool), embedder, ingestion.Options{
		Limiter:      rate.NewLimiter(rate.Every(cfg.IngestDelay), 1),
		Logger:       logger,
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	})

	var result ingestion.Result
	if *file != "" {
		result, err = svc.IngestFile(ctx, *file)
	} else {
		logger.Printf("ingesting documents from %s", *dir)
		result, err = svc.IngestDirectory(ctx, *dir)
	}
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}

	logger.Printf("done: %d chunks stored, %d failed", result.Stored, result.Failed)
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	question := flags.String("question", "", "one-shot question (omit for interactive mode)")
	deep := flags.Bool("deep", false, "route to the high-capability model")
	imagePath := flags.String("image", "", "path to an image attachment")
	limit := flags.Int("limit", rag.DefaultLimit, "number of context chunks to retrieve")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	if err := cfg.ValidateChat(); err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	retriever := rag.NewRetriever(embedder, rag.NewPostgresVectorStore(pool), logger)
	router, err := newRouter(cfg, logger)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}
	svc := chat.NewService(retriever, router, *limit, logger)

	image := ""
	if *imagePath != "" {
		image, err = encodeImageFile(*imagePath)
		if err != nil {
			logger.Fatalf("read image: %v", err)
		}
	}

	session := chat.NewSession()

	ask := func(text string) {
		userMsg := chat.Message{Sender: chat.SenderUser, Text: text, Image: image}
		reply, chatErr := svc.Chat(ctx, chat.Request{
			Message:  text,
			History:  session.History(),
			DeepMode: *deep,
			Image:    image,
		})
		session.Append(userMsg)
		if chatErr != nil {
			session.Append(chat.Message{Sender: chat.SenderSystem, Text: reply.Text, Provider: reply.Provider})
			fmt.Printf("[%s] %s\n", reply.Provider, reply.Text)
			return
		}
		session.Append(chat.Message{Sender: chat.SenderAssistant, Text: reply.Text, Provider: reply.Provider})
		fmt.Printf("[%s] %s\n", reply.Provider, reply.Text)
		// Attachments apply to the turn they were supplied for.
		image = ""
	}

	if strings.TrimSpace(*question) != "" {
		ask(*question)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read question: %v", err)
			}
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return
		}
		ask(text)
	}
}

func buildServices(cfg config.Config, pool *pgxpool.Pool, logger *log.Logger) (api.ChatService, api.IngestService, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := newRouter(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := rag.NewPostgresVectorStore(pool)
	retriever := rag.NewRetriever(embedder, store, logger)

	chatSvc := chat.NewService(retriever, router, rag.DefaultLimit, logger)
	ingestSvc := ingestion.NewService(store, embedder, ingestion.Options{
		Limiter:      rate.NewLimiter(rate.Every(cfg.IngestDelay), 1),
		Logger:       logger,
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	})

	return chatSvc, ingestSvc, nil
}

func newEmbedder(cfg config.Config) (embeddings.Embedder, error) {
	return embeddings.NewGeminiEmbedder(embeddings.Options{
		APIKey:    cfg.GoogleAPIKey,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.Embeddings.Dimension,
		BaseURL:   cfg.GeminiBaseURL,
	})
}

func newRouter(cfg config.Config, logger *log.Logger) (*chat.Router, error) {
	groq, err := llm.NewGroqClient(llm.GroqOptions{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
	})
	if err != nil {
		return nil, err
	}

	gemini, err := llm.NewGeminiClient(llm.GeminiOptions{
		APIKey:  cfg.GoogleAPIKey,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		return nil, err
	}

	return chat.NewRouter(groq, gemini, logger), nil
}

func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mimeType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mimeType = "image/png"
	case ".webp":
		mimeType = "image/webp"
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

func printUsage() {
	fmt.Println("Usage: fin-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Run the HTTP API (chat routing + ingestion endpoint)")
	fmt.Println("  ingest   Ingest documents into the vector store (--file or --dir)")
	fmt.Println("  chat     Ask the analyst from the terminal (--question for one-shot)")
}
