package httpUtils

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/utils"
)

var (
	log               = logger.New("httpUtils")
	DefaultHttpClient *http.Client
)

func init() {
	DefaultHttpClient = NewHttpClient(utils.DefaultRequestTimeout)
}

// NewHttpClient returns a client with a tuned transport. timeout bounds each
// request as a whole; zero disables it.
func NewHttpClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = 7 * time.Second
	transport.ResponseHeaderTimeout = 15 * time.Second
	transport.MaxIdleConnsPerHost = 20
	transport.IdleConnTimeout = 5 * time.Minute

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

type HttpOptions struct {
	Client *http.Client
}

func (o *HttpOptions) client() *http.Client {
	if o != nil && o.Client != nil {
		return o.Client
	}
	return DefaultHttpClient
}

// GetRequestWithHeader performs a GET and returns the raw body of a 2xx
// response. Any other status yields *HttpError.
func GetRequestWithHeader(ctx context.Context, url string, headers map[string]string, options *HttpOptions) ([]byte, error) {
	log.Debug().
		Str("url", url).
		Send()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", utils.UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := options.client().Do(req)
	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Err(err).Msg("Failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HttpError{
			StatusCode: resp.StatusCode,
			URL:        url,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, utils.MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > utils.MaxResponseSize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, utils.MaxResponseSize)
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Send()

	return body, nil
}

// BearerHeaders builds the headers for an authenticated JSON request.
func BearerHeaders(token string) map[string]string {
	headers := map[string]string{
		"Accept": "application/json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}
