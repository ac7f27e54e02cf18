package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTransport(t *testing.T) {
	assert := assert.New(t)

	t.Run("URL is empty", func(t *testing.T) {
		_, err := NewTransport("  ")
		assert.EqualError(err, "URL is empty")
	})

	t.Run("URL is not absolute", func(t *testing.T) {
		_, err := NewTransport("engine-rest")
		assert.Error(err)
	})

	t.Run("username without password", func(t *testing.T) {
		_, err := NewTransport("http://localhost:8080", func(o *Options) {
			o.Username = "demo"
		})
		assert.ErrorContains(err, "option Password: required_with Username")
	})

	t.Run("negative timeout", func(t *testing.T) {
		_, err := NewTransport("http://localhost:8080", func(o *Options) {
			o.Timeout = -1
		})
		assert.ErrorContains(err, "option Timeout: gte 0")
	})

	t.Run("configure", func(t *testing.T) {
		var configured bool
		_, err := NewTransport("http://localhost:8080", func(o *Options) {
			o.Configure = func(c *http.Client) {
				configured = true
			}
		})
		assert.NoError(err)
		assert.True(configured)
	})
}

func TestTransport(t *testing.T) {
	assert := assert.New(t)

	var (
		lastReq  *http.Request
		lastBody []byte
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/engine-rest/", func(w http.ResponseWriter, r *http.Request) {
		lastReq = r

		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if r.MultipartForm == nil {
			lastBody, _ = io.ReadAll(r.Body)
		}

		w.Header().Set(HeaderContentType, ContentTypeJson)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/engine-rest/not-found", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, ContentTypeJson)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"type":"RestException","message":"not found"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)

	transport, err := NewTransport(server.URL+"/engine-rest//", func(o *Options) {
		o.Username = "demo"
		o.Password = "secret"
		o.Logger = zap.New(core)
		o.Metrics = metrics
	})
	if err != nil {
		t.Fatalf("failed to create transport: %v", err)
	}

	t.Run("query", func(t *testing.T) {
		// when
		res, err := transport.Do(context.Background(), http.MethodGet, "deployment", RequestOptions{
			Query: NewObject().Set("name", "order").Set("maxResults", 10),
		})

		// then
		assert.NoError(err)
		res.Body.Close()

		assert.Equal(http.MethodGet, lastReq.Method)
		assert.Equal("/engine-rest/deployment", lastReq.URL.Path)
		assert.Equal("name=order&maxResults=10", lastReq.URL.RawQuery)

		username, password, ok := lastReq.BasicAuth()
		assert.True(ok)
		assert.Equal("demo", username)
		assert.Equal("secret", password)

		assert.NotEmpty(lastReq.Header.Get(HeaderRequestId))
	})

	t.Run("request ID is preserved", func(t *testing.T) {
		header := make(http.Header)
		header.Set(HeaderRequestId, "my-request")

		res, err := transport.Do(context.Background(), http.MethodGet, "engine", RequestOptions{Header: header})

		assert.NoError(err)
		res.Body.Close()
		assert.Equal("my-request", lastReq.Header.Get(HeaderRequestId))
	})

	t.Run("absolute path replaces base path", func(t *testing.T) {
		res, err := transport.Do(context.Background(), http.MethodGet, "/engine-rest/version", RequestOptions{})

		assert.NoError(err)
		res.Body.Close()
		assert.Equal("/engine-rest/version", lastReq.URL.Path)
	})

	t.Run("json", func(t *testing.T) {
		// when
		res, err := transport.Do(context.Background(), http.MethodPost, "message", RequestOptions{
			JSON: NewObject().
				Set("messageName", "orderReceived").
				Set("processVariables", NewVariables().Add("amount", 5, "Integer")),
		})

		// then
		assert.NoError(err)
		res.Body.Close()

		assert.Equal(http.MethodPost, lastReq.Method)
		assert.Equal(ContentTypeJson, lastReq.Header.Get(HeaderContentType))
		assert.Equal(`{"messageName":"orderReceived","processVariables":{"amount":{"value":5,"type":"Integer"}}}`, string(lastBody))
	})

	t.Run("json content type without body", func(t *testing.T) {
		header := make(http.Header)
		header.Set(HeaderContentType, ContentTypeJson)

		res, err := transport.Do(context.Background(), http.MethodPost, "task/1/complete", RequestOptions{Header: header})

		assert.NoError(err)
		res.Body.Close()

		assert.Equal(ContentTypeJson, lastReq.Header.Get(HeaderContentType))
		assert.Empty(lastBody)
	})

	t.Run("multipart", func(t *testing.T) {
		// when
		res, err := transport.Do(context.Background(), http.MethodPost, "deployment/create", RequestOptions{
			Multipart: []Part{
				{Name: "deployment-name", Contents: []byte("order")},
				{Name: "order.bpmn", Contents: []byte("<bpmn/>"), Filename: "order.bpmn"},
			},
		})

		// then
		assert.NoError(err)
		res.Body.Close()

		if !assert.NotNil(lastReq.MultipartForm) {
			return
		}

		assert.Equal([]string{"order"}, lastReq.MultipartForm.Value["deployment-name"])

		fileHeaders := lastReq.MultipartForm.File["order.bpmn"]
		if !assert.Len(fileHeaders, 1) {
			return
		}
		assert.Equal("order.bpmn", fileHeaders[0].Filename)

		f, err := fileHeaders[0].Open()
		if err != nil {
			t.Fatalf("failed to open file: %v", err)
		}
		defer f.Close()

		b, _ := io.ReadAll(f)
		assert.Equal("<bpmn/>", string(b))
	})

	t.Run("HTTP error status returns response error", func(t *testing.T) {
		// when
		res, err := transport.Do(context.Background(), http.MethodGet, "not-found", RequestOptions{})

		// then
		assert.Nil(res)

		var responseErr *ResponseError
		if !assert.ErrorAs(err, &responseErr) {
			return
		}
		defer responseErr.Response.Body.Close()

		assert.Equal(http.StatusNotFound, responseErr.Response.StatusCode)
		assert.Equal("GET /engine-rest/not-found: HTTP 404", responseErr.Error())

		var contents map[string]any
		assert.NoError(json.NewDecoder(responseErr.Response.Body).Decode(&contents))
		assert.Equal("not found", contents["message"])
	})

	t.Run("invalid URL returns invalid request error", func(t *testing.T) {
		_, err := transport.Do(context.Background(), http.MethodGet, "%zz", RequestOptions{})

		assert.ErrorIs(err, ErrInvalidRequest)
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(float64(1), testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "404")))
		assert.Equal(float64(3), testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodPost, "200")))
	})

	t.Run("logs", func(t *testing.T) {
		entries := logs.FilterMessage("request executed").All()
		assert.NotEmpty(entries)
	})
}

func TestTransportWithoutResponse(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport, err := NewTransport(url)
	if err != nil {
		t.Fatalf("failed to create transport: %v", err)
	}

	// when
	result, err := NewService(transport).SetURL("engine").Run(context.Background(), false)

	// then
	assert.NoError(err)
	assert.Equal(0, result.StatusCode)
	assert.Equal("", result.Contents)
	assert.ErrorIs(result.Err(), ErrNoResponse)
}

func TestTransportHooks(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, "text/plain")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	var (
		requested bool
		responded bool
	)

	transport, err := NewTransport(server.URL, func(o *Options) {
		o.OnRequest = func(r *http.Request) error {
			requested = true
			return nil
		}
		o.OnResponse = func(r *http.Response) error {
			responded = true
			return nil
		}
	})
	if err != nil {
		t.Fatalf("failed to create transport: %v", err)
	}

	result, err := NewService(transport).Run(context.Background(), false)

	assert.NoError(err)
	assert.Equal(http.StatusOK, result.StatusCode)
	assert.Equal("ok", result.Contents)
	assert.True(requested)
	assert.True(responded)
}
