package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"NPIReportSvc/internal/appmanager"
)

func main() {
	// Load .env for local dev
	_ = godotenv.Load("../.env")

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence(servicesPath())
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}

// servicesPath resolves services.yaml whether the binary runs from the repo
// root or from inside cmd/.
func servicesPath() string {
	if _, err := os.Stat("services.yaml"); err == nil {
		return "services.yaml"
	}
	return "../services.yaml"
}
