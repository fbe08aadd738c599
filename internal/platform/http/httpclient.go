// Package http builds outbound HTTP clients for external APIs.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は外部API（Gemini など）呼び出し用に設定されたHTTPクライアントを作成します。
//
// timeout bounds a whole request and should exceed the LLM call timeout,
// which is enforced per call through the context. Proxies come from the
// environment (HTTP_PROXY, HTTPS_PROXY).
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
