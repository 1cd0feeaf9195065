package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"builderbridge/internal/logging"
)

// DefaultTimeout bounds outbound requests when the caller does not supply a
// tighter deadline of its own.
const DefaultTimeout = 30 * time.Second

// New returns an http.Client configured for outbound Builder backend calls.
//
// It respects HTTP(S)_PROXY/ALL_PROXY/NO_PROXY; proxy routing decisions are
// surfaced on the debug logger.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: Transport(logger),
	}
}

// Transport returns an http.Transport clone with environment-driven proxy
// resolution.
func Transport(logger logging.Logger) *http.Transport {
	logger = logging.OrNop(logger)

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: proxyFunc(logger)}
	}

	transport := base.Clone()
	transport.Proxy = proxyFunc(logger)
	return transport
}

func proxyFunc(logger logging.Logger) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		proxyURL, err := http.ProxyFromEnvironment(req)
		if err != nil {
			logger.Debug("proxy resolution for %s failed: %v", req.URL.Host, err)
			return nil, err
		}
		if proxyURL != nil {
			logger.Debug("routing %s via proxy %s", req.URL.Host, proxyURL.Host)
		}
		return proxyURL, nil
	}
}
