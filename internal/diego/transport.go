package diego

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// Config describes how to reach the BBS.
type Config struct {
	URL            string
	CACertFile     string
	ClientCertFile string
	ClientKeyFile  string
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
}

// newHTTPClient maps the connect timeout to the dialer, the send timeout
// to the TLS handshake and expect-continue wait, and the receive timeout
// to the response header wait.
func newHTTPClient(cfg Config, serverName string) (*http.Client, error) {
	tlsCfg, err := loadTLS(cfg, serverName)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   cfg.SendTimeout,
		ExpectContinueTimeout: cfg.SendTimeout,
		ResponseHeaderTimeout: cfg.ReceiveTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}, nil
}

// loadTLS returns nil when no TLS material is configured. ServerName is
// pinned to the logical hostname because requests dial replica IPs.
func loadTLS(cfg Config, serverName string) (*tls.Config, error) {
	if cfg.CACertFile == "" && cfg.ClientCertFile == "" && cfg.ClientKeyFile == "" {
		return nil, nil
	}
	tlsCfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
	if cfg.CACertFile != "" {
		pem, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("read bbs ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("bbs ca cert %s: no certificates found", cfg.CACertFile)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.ClientCertFile != "" || cfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load bbs client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}
