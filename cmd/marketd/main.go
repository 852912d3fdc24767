package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/artmart/marketplace-engine/internal/config"
	"github.com/artmart/marketplace-engine/internal/config/di"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var container *di.Container

func main() {
	config.Init("marketd")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	container.GetElastic().InstallMappings()
	container.GetAuditIndexer().Subscribe()

	go health()
	go api()

	zap.L().With(
		zap.String("apiPort", config.Get().ApiPort),
		zap.String("healthPort", config.Get().HealthPort),
	).Info("Marketplace Started")

	persistLoop()
}

// persistLoop flushes buffered audit writes to elasticsearch.
func persistLoop() {
	for {
		time.Sleep(5 * time.Second)
		container.GetElastic().Persist()
	}
}

func api() {
	server := container.GetApiServer()
	if err := http.ListenAndServe(":"+config.Get().ApiPort, server.Router()); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start api")
	}
}

func health() {
	if err := http.ListenAndServe(":"+config.Get().HealthPort, router()); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start health check")
	}
}

func router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	}).Methods("GET")

	return r
}
