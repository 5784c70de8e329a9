package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/valyala/fasthttp"

	"connkit/pkg/banner"
	"connkit/pkg/serve"
	"connkit/pkg/upload"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" && a.commit != "" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" && a.buildDate != "" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff.Addr, a.adapterKind(), a.eff.Source, verStr)
}

// setupHTTPHandlers mounts the ops endpoints and, for the nethttp adapter,
// the connection-powered API on the router.
func (a *App) setupHTTPHandlers(r *mux.Router) {
	r.HandleFunc("/healthz", healthzHandler)
	r.HandleFunc("/readyz", a.readyzHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	if a.adapterKind() == "nethttp" {
		r.PathPrefix("/v1/").Handler(serve.NetHTTP(a.dispatch, a.serveOptions()))
	}
}

func (a *App) serveOptions() serve.Options {
	return serve.Options{
		RPS:   a.eff.Config.Limits.RPS,
		Burst: a.eff.Config.Limits.Burst,
	}
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

// readyzHandler reports readiness: the upload ledger must be open.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !upload.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("{\"status\":\"not ready\"}"))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\",\"version\":\"" + ver + "\"}"))
}

// startHTTP builds the handlers, starts the server(s) in goroutines and
// returns a channel that will carry any fatal server error.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	r := mux.NewRouter()
	a.setupHTTPHandlers(r)

	srv := &http.Server{Addr: a.eff.Addr, Handler: r}

	errCh := make(chan error, 2)
	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	var fsrv *fasthttp.Server
	if a.adapterKind() == "fasthttp" {
		fastAddr := a.eff.Config.Server.FastAddress
		if fastAddr == "" {
			fastAddr = ":8081"
		}
		fsrv = &fasthttp.Server{
			Handler:           serve.FastHTTP(a.dispatch, a.serveOptions()),
			Name:              "connkit-fasthttp",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			StreamRequestBody: true,
		}
		go func() {
			errCh <- fsrv.ListenAndServe(fastAddr)
		}()
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		if fsrv != nil {
			_ = fsrv.Shutdown()
		}
	}()
	return errCh
}
