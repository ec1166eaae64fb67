package rpc

import (
	"net/http"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/feedoracle/log"
)

// Config controls the HTTP endpoint.
type Config struct {
	CORSOrigins []string
	// BodyLimit caps request bodies in bytes. Zero keeps the library default.
	BodyLimit int
}

// NewServer registers api under Namespace on a fresh JSON-RPC server.
func NewServer(api *OracleAPI, cfg Config) (*gethrpc.Server, error) {
	srv := gethrpc.NewServer()
	if cfg.BodyLimit > 0 {
		srv.SetHTTPBodyLimit(cfg.BodyLimit)
	}
	if err := srv.RegisterName(Namespace, api); err != nil {
		srv.Stop()
		return nil, err
	}
	return srv, nil
}

// NewHandler wraps srv with the HTTP middleware stack.
func NewHandler(srv http.Handler, cfg Config, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	mws := []HTTPMiddleware{LoggingMiddleware(logger.Module("rpc"))}
	if len(cfg.CORSOrigins) > 0 {
		mws = append(mws, CORSMiddleware(CORSConfig{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         3600,
		}))
	}
	return MiddlewareChain(srv, mws...)
}
