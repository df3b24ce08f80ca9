package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/packlens/backend/config"
	httpDelivery "github.com/packlens/backend/internal/delivery/http"
	"github.com/packlens/backend/internal/domain"
	"github.com/packlens/backend/internal/infrastructure/gemini"
	"github.com/packlens/backend/internal/infrastructure/ocr"
	"github.com/packlens/backend/internal/infrastructure/search"
	"github.com/packlens/backend/internal/infrastructure/store"
	"github.com/packlens/backend/internal/usecase"
)

func main() {
	// Local development reads secrets from .env; missing file is fine.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PackLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Extraction strategy: %s", cfg.Extraction.Strategy)

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Initialize infrastructure dependencies
	productStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer productStore.Close()
	log.Printf("Database: %s", cfg.Database.Path)

	visionClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	defer visionClient.Close()
	if visionClient.Available() {
		log.Printf("Vision model configured: %s", cfg.Gemini.Model)
	} else {
		log.Printf("WARNING: no vision API key set, extraction will return stub records")
	}

	var engine domain.RecognitionEngine
	if cfg.Extraction.Strategy == usecase.StrategyPattern {
		ocrEngine := ocr.Default()
		if cfg.OCR.Languages != "" {
			ocrEngine = ocr.NewEngine(strings.Split(cfg.OCR.Languages, "+")...)
		}
		defer ocrEngine.Close()
		engine = ocrEngine
		log.Printf("Text recognition languages: %s", cfg.OCR.Languages)
	}

	searchClient := search.NewClient(cfg.Search.BaseURL, cfg.Search.Region)

	// Enable debug mode in development environment
	debug := cfg.Extraction.DebugLogging || cfg.Server.Environment == "development"
	if debug {
		searchClient.SetDebug(true)
		log.Printf("Debug logging enabled")
	}

	// Initialize usecase layer
	visionExtractor := usecase.NewVisionExtractor(visionClient, debug)
	extractionService := usecase.NewExtractionService(
		engine,
		visionExtractor,
		usecase.ExtractionConfig{
			Strategy:           cfg.Extraction.Strategy,
			EnableDebugLogging: debug,
		},
	)
	commerceService := usecase.NewCommerceService(
		searchClient,
		usecase.CommerceConfig{
			SitePause:          300 * time.Millisecond,
			EnableDebugLogging: debug,
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(extractionService, commerceService, productStore, cfg.Server.UploadDir)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
