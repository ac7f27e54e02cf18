package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// NewService creates a service, which dispatches requests via the given transport.
func NewService(transport Transport) *Service {
	return &Service{
		transport:   transport,
		method:      http.MethodGet,
		contentType: ContentTypeQuery,
	}
}

// Service configures, dispatches and normalizes a single engine request.
//
// A service is not safe for concurrent use. Parallel requests require separate services, which may share a transport.
type Service struct {
	transport Transport

	url         string
	method      string
	contentType ContentType
	entity      *Entity

	result Result
}

func (s *Service) ContentType() ContentType {
	return s.contentType
}

// Contents returns the decoded contents of the last result.
func (s *Service) Contents() any {
	return s.result.Contents
}

func (s *Service) Entity() *Entity {
	return s.entity
}

func (s *Service) Method() string {
	return s.method
}

// Result returns the last result.
func (s *Service) Result() Result {
	return s.result
}

// StatusCode returns the status code of the last result.
func (s *Service) StatusCode() int {
	return s.result.StatusCode
}

func (s *Service) URL() string {
	return s.url
}

// Reset restores the default configuration: no URL, method GET, content type JSON and no entity.
func (s *Service) Reset() *Service {
	s.url = ""
	s.method = http.MethodGet
	s.contentType = ContentTypeJSON
	s.entity = nil
	return s
}

// SetContentType sets the content type: query, json or multipart, regardless of the letter case.
// Other values are ignored and the current content type is retained.
func (s *Service) SetContentType(contentType string) *Service {
	if v := MapContentType(contentType); v != 0 {
		s.contentType = v
	}
	return s
}

// SetEntity sets the entity, whose fields are sent. nil removes the entity.
func (s *Service) SetEntity(entity *Entity) *Service {
	s.entity = entity
	return s
}

func (s *Service) SetMethod(method string) *Service {
	s.method = strings.ToUpper(method)
	return s
}

// SetURL sets the request URL. A relative URL is resolved against the base URL of the transport.
func (s *Service) SetURL(url string) *Service {
	s.url = url
	return s
}

// Run dispatches the configured request. If hal is true, a HAL response is requested.
//
// An HTTP error response is not returned as error, but as result - see [Result.Err].
// If no response has been received at all, the result has status code 0 and empty contents.
// An error is returned, when the request cannot be created or a JSON response body cannot be decoded.
func (s *Service) Run(ctx context.Context, hal bool) (Result, error) {
	b, err := s.entity.flatten(s.contentType)
	if err != nil {
		return Result{}, err
	}

	options := RequestOptions{Header: make(http.Header)}

	if hal {
		options.Header.Set(HeaderAccept, ContentTypeHalJson)
	}

	switch {
	case b.isEmpty() && s.contentType == ContentTypeJSON:
		options.Header.Set(HeaderContentType, ContentTypeJson)
	case s.contentType == ContentTypeQuery:
		options.Query = b.params
	case s.contentType == ContentTypeJSON:
		options.JSON = b.params
	case s.contentType == ContentTypeMultipart:
		options.Multipart = b.parts
	}

	res, err := s.transport.Do(ctx, s.method, s.url, options)
	if err != nil {
		var responseErr *ResponseError
		if errors.As(err, &responseErr) && responseErr.Response != nil {
			res = responseErr.Response
		} else if errors.Is(err, ErrInvalidRequest) {
			s.result = Result{}
			return s.result, err
		} else {
			s.result = Result{Contents: "", err: err}
			return s.result, nil
		}
	}

	if res == nil {
		s.result = Result{Contents: ""}
		return s.result, nil
	}

	result, err := newResult(res)
	s.result = result
	return result, err
}
