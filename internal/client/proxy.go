// ABOUTME: SSH+SOCKS5 jumpbox dialer for reaching backends on private networks
// ABOUTME: Parses ssh+socks5://user@host:port?private-key=/path proxy URLs

package client

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
)

// validateKeyPath rejects traversal, directories and missing files.
func validateKeyPath(path string) error {
	if path == "" {
		return fmt.Errorf("missing required 'private-key' query param")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("private-key path must not contain '..'")
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("private-key: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("private-key %s is a directory", path)
	}
	return nil
}

// SOCKS5DialContext builds a dial function that tunnels through the SSH
// jumpbox described by allProxy. The SSH connection is opened on first use.
func SOCKS5DialContext(allProxy string) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" {
		return nil, fmt.Errorf("unsupported proxy scheme %q, expected ssh+socks5", proxyURL.Scheme)
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	keyPath := proxyURL.Query().Get("private-key")
	if err := validateKeyPath(keyPath); err != nil {
		return nil, err
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading SSH private key: %w", err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		d := dialer
		mut.RUnlock()

		if d != nil {
			return d(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(key), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}, nil
}
