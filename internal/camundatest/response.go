package camundatest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
)

const (
	contentTypeHalJson = "application/hal+json"
	contentTypeJson    = "application/json"
)

// decodeJSONRequestBody decodes the request body using v. An empty request body is accepted.
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != contentTypeJson {
			writeError(w, http.StatusUnsupportedMediaType, errorTypeRest, fmt.Sprintf("media type %s is not supported", mediaType))
			return false
		}
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, errorType string, message string) {
	writeJSON(w, status, map[string]any{
		"type":    errorType,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeBody(w, status, contentTypeJson, v)
}

// writeList writes a list of results. If HAL is accepted, the results are embedded into a HAL resource.
func writeList[T any](w http.ResponseWriter, r *http.Request, name string, results []T) {
	if r.Header.Get("Accept") != contentTypeHalJson {
		writeJSON(w, http.StatusOK, results)
		return
	}

	writeBody(w, http.StatusOK, contentTypeHalJson, map[string]any{
		"_links": map[string]any{},
		"_embedded": map[string]any{
			name: results,
		},
		"count": len(results),
	})
}

func writeBody(w http.ResponseWriter, status int, contentType string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to encode JSON response body: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(b)
}

// page applies the query parameters firstResult and maxResults.
func page[T any](r *http.Request, results []T) []T {
	query := r.URL.Query()

	if firstResult, err := strconv.Atoi(query.Get("firstResult")); err == nil && firstResult > 0 {
		if firstResult >= len(results) {
			return results[:0]
		}
		results = results[firstResult:]
	}
	if maxResults, err := strconv.Atoi(query.Get("maxResults")); err == nil && maxResults >= 0 && maxResults < len(results) {
		results = results[:maxResults]
	}
	return results
}

// toDescriptor converts a variable into a descriptor with value, type and value info.
func toDescriptor(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		if _, ok := m["value"]; ok {
			descriptor := map[string]any{"value": m["value"], "type": m["type"], "valueInfo": m["valueInfo"]}
			if descriptor["type"] == nil {
				descriptor["type"] = inferType(m["value"])
			}
			if descriptor["valueInfo"] == nil {
				descriptor["valueInfo"] = map[string]any{}
			}
			return descriptor
		}
	}
	return map[string]any{"value": v, "type": inferType(v), "valueInfo": map[string]any{}}
}

func toDescriptors(variables map[string]any) map[string]any {
	descriptors := make(map[string]any, len(variables))
	for name, variable := range variables {
		descriptors[name] = toDescriptor(variable)
	}
	return descriptors
}

func inferType(v any) string {
	switch v.(type) {
	case nil:
		return "Null"
	case bool:
		return "Boolean"
	case int, int32, int64:
		return "Integer"
	case float64:
		return "Double"
	case string:
		return "String"
	default:
		return "Json"
	}
}
