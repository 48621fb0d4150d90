// Package httpclient builds the outbound HTTP clients. Every adapter shares
// one connection pool and picks its own per-request timeout.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/uniedit/reelforge/internal/infra/config"
)

// Pool owns the transport shared by the provider, scorer and render clients.
type Pool struct {
	transport *http.Transport
}

// NewPool creates the shared transport from the http_client settings.
func NewPool(cfg config.HTTPClientConfig) *Pool {
	return &Pool{transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}}
}

// Client returns a client on the shared transport. timeout caps a whole
// exchange including the body read; zero leaves it to the request context.
func (p *Pool) Client(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	return &http.Client{Transport: p.transport, Timeout: timeout}
}

// Close drops idle connections.
func (p *Pool) Close() {
	p.transport.CloseIdleConnections()
}
