// Package util holds HTTP plumbing shared by the scraper and the LLM clients.
package util

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/ppiankov/newstag/internal/model"
)

// MaxRedirects caps redirect chains followed by clients from NewHTTPClient
const MaxRedirects = 3

// NewProxyFunc creates a proxy function from explicit settings. With no
// proxy configured it falls back to the environment. noProxy follows the
// NO_PROXY syntax.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	proxy := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// NewHTTPClient builds a client honoring the timeout, proxy and TLS settings
func NewHTTPClient(cfg model.HTTPConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxRedirects)
			}
			return nil
		},
	}
}
