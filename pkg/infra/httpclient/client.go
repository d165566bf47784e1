package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"golang.org/x/net/proxy"
)

// Config describes the shared outbound HTTP client
type Config struct {
	// ProxyURL accepts http, https and socks5 schemes. Empty means direct connection.
	ProxyURL string
	// NoProxy lists hosts (glob patterns allowed) that bypass the proxy
	NoProxy []string
	// Timeout applies to the whole request. Zero disables it; search requests rely on that.
	Timeout time.Duration
}

// New builds an *http.Client from cfg
func New(ctx context.Context, cfg Config) (*http.Client, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.ProxyURL == "" {
		logging.From(ctx).Debug("Proxy not configured, using direct connection")
	} else if err := configureProxy(ctx, transport, cfg.ProxyURL, cfg.NoProxy); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

func configureProxy(ctx context.Context, transport *http.Transport, proxyURL string, noProxy []string) error {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return goerr.Wrap(err, "failed to parse proxy URL")
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsed, directDialer())
		if err != nil {
			return goerr.Wrap(err, "failed to create SOCKS5 dialer", goerr.V("proxy", parsed.Redacted()))
		}
		transport.DialContext = bypassDialContext(dialer, noProxy)
	case "http", "https":
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			if matchAny(req.URL.Hostname(), noProxy) {
				return nil, nil
			}
			return parsed, nil
		}
	default:
		return goerr.New("unsupported proxy scheme", goerr.V("scheme", parsed.Scheme))
	}

	logging.From(ctx).Info("Proxy configured",
		"proxy", parsed.Redacted(),
		"no_proxy", noProxy,
	)
	return nil
}

func directDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

func bypassDialContext(proxyDialer proxy.Dialer, noProxy []string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	direct := directDialer()
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if matchAny(host, noProxy) {
			return direct.DialContext(ctx, network, addr)
		}
		if cd, ok := proxyDialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return proxyDialer.Dial(network, addr)
	}
}

// matchAny reports whether host matches one of the patterns. Patterns use shell
// glob syntax, e.g. "*.internal".
func matchAny(host string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == host {
			return true
		}
		if ok, err := path.Match(pattern, host); err == nil && ok {
			return true
		}
	}
	return false
}
