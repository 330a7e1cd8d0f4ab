package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const (
	fetchTimeout   = 20 * time.Second
	fetchUserAgent = "productshot/1.0"
	maxRedirects   = 5
)

// Fetcher downloads a remote image, refusing bodies larger than maxBytes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, maxBytes int) ([]byte, string, error)
}

// HTTPFetcher is the default Fetcher. Targets are checked with IsSafeURL unless
// AllowPrivate is set.
type HTTPFetcher struct {
	Client       *http.Client
	AllowPrivate bool
	LookupIP     func(host string) ([]net.IP, error)
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout, Transport: NewSafeTransport()}
	}
	return &HTTPFetcher{Client: client}
}

// NewSafeTransport returns a transport that refuses to connect to private,
// loopback or link-local addresses. The check runs on the address actually
// dialed, so redirects and DNS rebinding cannot reach internal hosts.
func NewSafeTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   safeDialControl,
	}).DialContext
	return t
}

func safeDialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("dial %q: not an IP address", address)
	}
	return checkIP(ip)
}

// client returns f.Client with every redirect hop run through the URL check.
func (f *HTTPFetcher) client() *http.Client {
	c := *f.Client
	next := c.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("too many redirects")
		}
		if !f.AllowPrivate {
			if err := checkSafeURL(req.URL.String(), f.LookupIP); err != nil {
				return fmt.Errorf("redirect: %w", err)
			}
		}
		if next != nil {
			return next(req, via)
		}
		return nil
	}
	return &c
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, maxBytes int) ([]byte, string, error) {
	if !f.AllowPrivate {
		if err := checkSafeURL(rawURL, f.LookupIP); err != nil {
			return nil, "", err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBytes {
		return nil, "", fmt.Errorf("image too large (limit %d bytes)", maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty body")
	}
	mime := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(strings.ToLower(mime), "image/") {
		mime = ""
	}
	return data, mime, nil
}

// IsSafeURL reports whether rawURL uses http(s) and resolves only to public
// addresses.
func IsSafeURL(rawURL string) (bool, error) {
	if err := checkSafeURL(rawURL, nil); err != nil {
		return false, err
	}
	return true, nil
}

func checkSafeURL(rawURL string, lookup func(string) ([]net.IP, error)) error {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme %q is not allowed", parsed.Scheme)
	}
	if ip := net.ParseIP(parsed.Hostname()); ip != nil {
		return checkIP(ip)
	}
	if lookup == nil {
		lookup = net.LookupIP
	}
	ips, err := lookup(parsed.Hostname())
	if err != nil {
		return fmt.Errorf("resolve %q: %w", parsed.Hostname(), err)
	}
	for _, ip := range ips {
		if err := checkIP(ip); err != nil {
			return err
		}
	}
	return nil
}

func checkIP(ip net.IP) error {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("address %s is not allowed", ip)
	}
	return nil
}
