// Worker process for pdplab.
// Polls for pending subject statements and runs PDP extraction on them.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pdplab/pdplab-go/pkg/config"
	"github.com/pdplab/pdplab-go/pkg/extractor"
	"github.com/pdplab/pdplab-go/pkg/logging"
	"github.com/pdplab/pdplab-go/pkg/store"
	"github.com/pdplab/pdplab-go/pkg/worker"
)

const workerVersion = "v0.1.0"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("pdplab worker version:", workerVersion)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	logger := logging.GetLogger()

	if cfg.OpenAIAPIKey == "" {
		logger.Fatal("Missing OPENAI_API_KEY", nil, logging.Component("worker"))
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open store", err, logging.Component("worker"))
	}
	defer st.Close()

	ex := extractor.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	svc := worker.NewService(st, ex, cfg.WorkerBatchSize)

	if err := svc.Start(cfg.WorkerSchedule); err != nil {
		logger.Fatal("Failed to start worker", err, logging.Component("worker"))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Received shutdown signal", logging.Component("worker"))
	svc.Stop()
}
