package npireport

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"NPIReportSvc/internal/config"
)

// NewRouter wires the report endpoints.
func NewRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/npi/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from NPI Report Service"))
	}).Methods("GET")
	router.HandleFunc("/npi/report/generate", GenerateReport()).Methods("POST")
	router.HandleFunc("/npi/report/preview", PreviewSources()).Methods("POST")

	return router
}

func StartNPIReportService(cfg map[string]interface{}) {
	port := config.DefaultNPIReportPort
	if cfg != nil {
		if v, ok := cfg["port"]; ok && v != nil {
			switch t := v.(type) {
			case int:
				port = t
			case int64:
				port = int(t)
			case float64:
				port = int(t)
			}
		}
	}

	router := NewRouter()
	log.Printf("NPI Report Service started on :%d", port)
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), router)
	if err != nil {
		log.Fatalf("NPI Report Service failed: %v", err)
	}
}
