package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidRequest indicates that a request could not be created - for example due to a malformed URL.
var ErrInvalidRequest = errors.New("invalid request")

// Transport sends HTTP requests to the engine.
type Transport interface {
	// Do sends a request and returns the response.
	// If the engine responds with a status code >= 400, a [*ResponseError] must be returned, carrying the response.
	Do(ctx context.Context, method string, url string, options RequestOptions) (*http.Response, error)
}

// RequestOptions are the options of a single request.
// At most one of Query, JSON or Multipart is set.
type RequestOptions struct {
	Header    http.Header
	Query     *Object // Query string parameters.
	JSON      *Object // JSON request body.
	Multipart []Part  // Multipart parts. An empty, non-nil slice results in an empty multipart body.
}

// ResponseError is returned by a transport, when the engine responds with an HTTP error status code.
type ResponseError struct {
	Response *http.Response
}

func (e *ResponseError) Error() string {
	req := e.Response.Request
	if req == nil {
		return fmt.Sprintf("HTTP %d", e.Response.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d", req.Method, req.URL.Path, e.Response.StatusCode)
}

// NewTransport creates a transport, which resolves request URLs against the engine's REST API base URL.
func NewTransport(baseURL string, customizers ...func(*Options)) (Transport, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/"
	if baseURL == "/" {
		return nil, errors.New("URL is empty")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %s: %v", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("URL %s is not absolute", baseURL)
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{
		Timeout: options.Timeout,
	}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t := httpTransport{
		httpClient: &httpClient,
		base:       base,
		options:    options,
		logger:     logger,
	}

	return &t, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,
	}
}

type Options struct {
	Username string `validate:"required_with=Password"` // Optional basic auth username.
	Password string `validate:"required_with=Username"` // Optional basic auth password.

	Timeout time.Duration `validate:"gte=0"` // Time limit for requests, made by the HTTP client. 0 means no limit.

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.

	Logger  *zap.Logger // Optional logger, used to log requests at debug level.
	Metrics *Metrics    // Optional metrics, used to record requests.
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}

		messages := make([]string, len(validationErrors))
		for i, fieldError := range validationErrors {
			messages[i] = fmt.Sprintf("option %s: %s %s", fieldError.Field(), fieldError.Tag(), fieldError.Param())
		}
		return errors.New(strings.TrimSpace(strings.Join(messages, "\n")))
	}
	return nil
}

type httpTransport struct {
	httpClient *http.Client
	base       *url.URL
	options    Options
	logger     *zap.Logger
}

// CloseIdleConnections closes idle connections of the underlying HTTP client.
func (t *httpTransport) CloseIdleConnections() {
	t.httpClient.CloseIdleConnections()
}

func (t *httpTransport) Do(ctx context.Context, method string, rawURL string, options RequestOptions) (*http.Response, error) {
	req, err := t.newRequest(ctx, method, rawURL, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if t.options.OnRequest != nil {
		if err := t.options.OnRequest(req); err != nil {
			return nil, err
		}
	}

	requestId := req.Header.Get(HeaderRequestId)

	start := time.Now()
	res, err := t.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		t.options.Metrics.observe(method, 0, duration)
		t.logger.Debug("request failed",
			zap.String("method", method),
			zap.Stringer("url", req.URL),
			zap.String("requestId", requestId),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to execute %s %s: %w", method, req.URL, err)
	}

	t.options.Metrics.observe(method, res.StatusCode, duration)
	t.logger.Debug("request executed",
		zap.String("method", method),
		zap.Stringer("url", req.URL),
		zap.String("requestId", requestId),
		zap.Int("statusCode", res.StatusCode),
		zap.Duration("duration", duration),
	)

	if t.options.OnResponse != nil {
		if err := t.options.OnResponse(res); err != nil {
			res.Body.Close()
			return nil, err
		}
	}

	if res.StatusCode >= 400 {
		return nil, &ResponseError{Response: res}
	}

	return res, nil
}

func (t *httpTransport) newRequest(ctx context.Context, method string, rawURL string, options RequestOptions) (*http.Request, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request URL %s: %v", rawURL, err)
	}

	u := t.base.ResolveReference(ref)

	if options.Query != nil && options.Query.Len() != 0 {
		query, err := encodeQuery(options.Query)
		if err != nil {
			return nil, err
		}
		if u.RawQuery != "" {
			u.RawQuery = u.RawQuery + "&" + query
		} else {
			u.RawQuery = query
		}
	}

	var (
		reqBody     io.Reader
		contentType string
	)

	switch {
	case options.JSON != nil:
		b, err := json.Marshal(options.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to create JSON request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
		contentType = ContentTypeJson
	case options.Multipart != nil:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for _, part := range options.Multipart {
			if err := writePart(w, part); err != nil {
				return nil, fmt.Errorf("failed to create multipart request body: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to create multipart request body: %v", err)
		}
		reqBody = buf
		contentType = w.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %v", method, err)
	}

	for name, values := range options.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	if contentType != "" && req.Header.Get(HeaderContentType) == "" {
		req.Header.Set(HeaderContentType, contentType)
	}
	if req.Header.Get(HeaderRequestId) == "" {
		req.Header.Set(HeaderRequestId, uuid.New().String())
	}

	if t.options.Username != "" {
		req.SetBasicAuth(t.options.Username, t.options.Password)
	}

	return req, nil
}

func writePart(w *multipart.Writer, part Part) error {
	var (
		pw  io.Writer
		err error
	)

	if part.Filename != "" {
		pw, err = w.CreateFormFile(part.Name, part.Filename)
	} else {
		pw, err = w.CreateFormField(part.Name)
	}
	if err != nil {
		return err
	}

	_, err = pw.Write(part.Contents)
	return err
}
