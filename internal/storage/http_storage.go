package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/upload"

	"github.com/go-resty/resty/v2"
)

const maxRedirects = 3

// ErrBlockedAddress is returned when a source resolves to a loopback,
// private or link-local address.
var ErrBlockedAddress = errors.New("address not allowed")

// HTTPFetcherOptions configures NewHTTPImageFetcher.
type HTTPFetcherOptions struct {
	Timeout time.Duration
	MaxSize int64
	// AllowPrivateNetworks lets sources resolve to loopback, private and
	// link-local addresses. Off by default.
	AllowPrivateNetworks bool
}

// HTTPImageFetcher downloads http(s) URLs. A failed download is reported
// once; there is no retry.
type HTTPImageFetcher struct {
	client  *resty.Client
	maxSize int64
}

func NewHTTPImageFetcher(opts HTTPFetcherOptions) *HTTPImageFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}
	if !opts.AllowPrivateNetworks {
		// The check runs on the resolved address, so a proxy would hide the
		// real target.
		dialer.Control = checkDialAddress
		transport.Proxy = nil
	}

	client := resty.New().
		SetDebug(false).
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeaders(map[string]string{
			"Accept":     "image/jpeg, image/png, image/webp, image/gif, */*",
			"User-Agent": "Go-Image-Detector/1.0",
		})

	return &HTTPImageFetcher{client: client, maxSize: opts.MaxSize}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*upload.File, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	res, err := h.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	body := res.RawBody()
	defer body.Close()

	switch {
	case res.StatusCode() == http.StatusNotFound:
		return nil, apperrors.NewNotFoundError("image not found", fmt.Errorf("GET %s: status %d", imageURL, res.StatusCode()))
	case res.IsError() || res.StatusCode() != http.StatusOK:
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("remote server returned status %d", res.StatusCode()),
			fmt.Errorf("GET %s: status %d", imageURL, res.StatusCode()),
		)
	}

	if cl := res.RawResponse.ContentLength; cl > h.maxSize {
		return nil, tooLarge(h.maxSize)
	}
	data, err := readLimited(body, h.maxSize)
	if err != nil {
		return nil, err
	}

	return &upload.File{
		Name:        fileName(u.Path),
		ContentType: declaredType(res.Header().Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// checkDialAddress refuses connections to addresses that are not publicly
// routable. It also covers every redirect hop.
func checkDialAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func classifyFetchError(err error) error {
	if errors.Is(err, ErrBlockedAddress) {
		return apperrors.NewValidationError("URL host not allowed", err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError("timed out fetching image", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
