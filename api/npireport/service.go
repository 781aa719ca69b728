package npireport

import (
	"NPIReportSvc/internal/serviceiface"
)

type NPIReportService struct {
	config map[string]interface{}
}

func NewNPIReportService(cfg map[string]interface{}) serviceiface.Service {
	return &NPIReportService{config: cfg}
}

func (s *NPIReportService) Name() string {
	return "npireport"
}

func (s *NPIReportService) Start() error {
	go StartNPIReportService(s.config)
	return nil
}

func (s *NPIReportService) Stop() error {
	// Implement stop logic if needed
	return nil
}
