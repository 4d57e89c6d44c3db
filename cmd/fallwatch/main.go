package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rohanpai/fallwatch/internal/app"
	"github.com/rohanpai/fallwatch/internal/detector"
	"github.com/rohanpai/fallwatch/internal/pipeline"
	"github.com/rohanpai/fallwatch/internal/server"
	"github.com/rohanpai/fallwatch/internal/store"
)

func main() {
	fmt.Println("Fallwatch - Real-Time Fall Detection")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".fallwatch")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "fallwatch.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	detectorConfig := detector.DefaultConfig()
	if modelPath := findModelPath(); modelPath != "" {
		detectorConfig.ModelPath = modelPath
		fmt.Printf("Using detection model: %s\n", modelPath)
	}

	application := app.New(app.Config{
		Store:          st,
		DetectorConfig: detectorConfig,
		PipelineConfig: pipeline.DefaultConfig(),
		SnapshotDir:    filepath.Join(dataDir, "snapshots"),
		WebhookURL:     os.Getenv("FALLWATCH_WEBHOOK_URL"),
	})
	defer application.Close()

	hub := server.NewEventsHub()
	application.SetEventCallback(hub.Broadcast)

	// Find web directory for the dashboard
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	cfg := server.Config{
		StaticDir: webDir,
		Store:     st,
		Adapter:   application.Adapter(),
		Hub:       hub,
	}

	srv := server.New(cfg)

	addr := ":8080"
	if v := os.Getenv("FALLWATCH_ADDR"); v != "" {
		addr = v
	}
	fmt.Printf("Starting server on %s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// findModelPath searches for the detection model in common locations.
// It checks: "models/yolov8n.onnx", "../models/yolov8n.onnx", and
// ~/.fallwatch/models/yolov8n.onnx, plus the FALLWATCH_MODEL override.
// Returns the first existing file or empty string if none found.
func findModelPath() string {
	if env := os.Getenv("FALLWATCH_MODEL"); env != "" {
		return env
	}

	relativePaths := []string{"models/yolov8n.onnx", "../models/yolov8n.onnx"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeModel := filepath.Join(homeDir, ".fallwatch", "models", "yolov8n.onnx")
	if info, err := os.Stat(homeModel); err == nil && !info.IsDir() {
		return homeModel
	}

	return ""
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.fallwatch/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".fallwatch", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
