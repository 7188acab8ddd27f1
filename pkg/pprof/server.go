package pprof

import (
	"context"
	"net/http"
	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"
)

func NewServer(listenAddr string) *http.Server {
	return &http.Server{Addr: listenAddr, Handler: http.DefaultServeMux}
}

// ListenAndWait starts the server and shuts down when the context
// signals.
func ListenAndWait(ctx context.Context, server *http.Server) {
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("error starting pprof http server: %s", err.Error())
		}
	}()
	<-ctx.Done()
	log.Infof("shutting down pprof server")
	server.Shutdown(context.Background())
}
