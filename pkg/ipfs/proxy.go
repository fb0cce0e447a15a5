package ipfs

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/ape/problems"
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// ProxyConfig - config for proxy server
type ProxyConfig interface {
	comfig.Logger
	comfig.Listenerer
	IPFSer
}

func RunProxy(ctx context.Context, cfg ProxyConfig) {
	log := cfg.Log().WithField("runner", "ipfs_proxy")

	const slowRequestDurationThreshold = 3 * time.Second
	r := newRouter(cfg.Log(), cfg.IPFS(), slowRequestDurationThreshold)

	log.WithFields(logan.F{
		"service": "api",
		"addr":    cfg.Listener().Addr(),
	}).Info("listening for http requests")
	ape.Serve(ctx, r, cfg, ape.ServeOpts{})
}

func newRouter(log *logan.Entry, gateway Gateway, slowThreshold time.Duration) chi.Router {
	r := chi.NewRouter()

	ape.DefaultMiddlewares(r, log, slowThreshold)
	handler := proxyHandler{
		ipfs: gateway,
	}

	r.Get("/readiness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ipfs/*", handler.Handle)

	return r
}

type proxyHandler struct {
	ipfs Gateway
}

func (p *proxyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	resp, err := p.ipfs.GetReader(r.Context(), r.URL.Path)
	if err != nil {
		if IsNotFound(err) {
			ape.RenderErr(w, problems.NotFound())
			return
		}
		if _, ok := AsResolutionFailed(err); ok {
			ape.RenderErr(w, problems.InternalError())
			return
		}

		panic(errors.Wrap(err, "failed to get resource from IPFS"))
	}
	defer resp.Close()

	// sniffing needs at most 512 bytes
	body := bufio.NewReaderSize(resp, 512)
	head, _ := body.Peek(512)

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, body)
	if err != nil {
		panic(errors.Wrap(err, "failed to copy result"))
	}
}
