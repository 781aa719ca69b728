package serviceiface

// Service is one startable unit in the services.yaml sequence. Start must
// not block; long-running work belongs in a goroutine the service owns.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
