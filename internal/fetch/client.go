// Package fetch downloads record images and normalizes them to opaque RGB.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	// Decoders beyond the ones imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kwsong/biodigitalviz/internal/config"
	"github.com/kwsong/biodigitalviz/internal/locator"
	mw "github.com/kwsong/biodigitalviz/internal/middleware"
)

const maxImageSize = 20 * 1024 * 1024 // 20 MB

var (
	ErrIndirectURL = errors.New("url is a search or redirect page")
	ErrNotImage    = errors.New("response is not an image")
	ErrTooLarge    = errors.New("image exceeds size limit")
)

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type Client struct {
	HTTPClient  http.Client
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *slog.Logger
}

func NewClient(cfg config.FetchConfig, tp trace.TracerProvider, logger *slog.Logger) *Client {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	transport := mw.Chain(
		otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(tp)),
		mw.Logging(logger),
		mw.Headers(BrowserHeaders(cfg.UserAgent)),
		mw.RateLimit(rate.Limit(cfg.RateLimit), cfg.Burst, logger),
	)

	return &Client{
		HTTPClient:  http.Client{Timeout: cfg.Timeout, Transport: transport},
		MaxRetries:  cfg.MaxRetries,
		BaseBackoff: cfg.BaseBackoff,
		Logger:      logger,
	}
}

// BrowserHeaders is the header set sent with every image request; some hosts
// refuse clients that do not look like a browser.
func BrowserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}

// Fetch downloads rawURL and returns it as an opaque NRGBA image. Transport
// errors and non-200 responses are retried up to MaxRetries attempts;
// anything else fails at once.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*image.NRGBA, error) {
	if locator.IsIndirect(rawURL) {
		return nil, ErrIndirectURL
	}

	attempts := max(c.MaxRetries, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && c.BaseBackoff > 0 {
			backoff := c.BaseBackoff << (attempt - 1)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		img, retry, err := c.get(ctx, rawURL)
		if err == nil {
			return img, nil
		}
		if !retry {
			return nil, err
		}
		c.Logger.WarnContext(ctx, "download attempt failed",
			"url", rawURL,
			"attempt", attempt+1,
			"error", err,
		)
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("exceeded %d attempts: %w", attempts, lastErr)
}

// get performs a single attempt. retry reports whether another attempt could
// succeed.
func (c *Client) get(ctx context.Context, rawURL string) (img *image.NRGBA, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("error creating http request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("error making http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, true, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isImageResponse(contentType, resp.Request.URL) {
		return nil, false, fmt.Errorf("%w: content type %q", ErrNotImage, contentType)
	}

	if resp.ContentLength > maxImageSize {
		return nil, false, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	lr := &io.LimitedReader{R: resp.Body, N: maxImageSize + 1}
	decoded, err := imaging.Decode(lr, imaging.AutoOrientation(true))
	if lr.N <= 0 {
		return nil, false, ErrTooLarge
	}
	if err != nil {
		return nil, false, fmt.Errorf("error decoding image: %w", err)
	}

	return Normalize(decoded), false, nil
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// isImageResponse trusts an image/* content type, and falls back to the URL
// extension when the server sends no type or a generic binary one.
func isImageResponse(contentType string, u *url.URL) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(mediaType, "image/") {
		return true
	}

	switch mediaType {
	case "", "application/octet-stream", "binary/octet-stream":
	default:
		return false
	}
	if u == nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Normalize copies src into an opaque NRGBA image. Colour channels are kept
// and alpha is dropped, so grayscale, paletted and alpha-bearing inputs all
// end up as three-channel colour.
func Normalize(src image.Image) *image.NRGBA {
	dst := imaging.Clone(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
