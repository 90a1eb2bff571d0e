package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
	}{
		{"no keys passes through", nil, "/v1/searches", "", http.StatusOK},
		{"blank keys pass through", []string{"", ""}, "/v1/searches", "", http.StatusOK},
		{"missing header", []string{"secret"}, "/v1/searches", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/v1/searches", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "/v1/records", "Bearer wrong-key", http.StatusUnauthorized},
		{"valid key", []string{"secret"}, "/v1/records", "Bearer secret", http.StatusOK},
		{"second key", []string{"key1", "key2"}, "/v1/records", "Bearer key2", http.StatusOK},
		{"key prefix is not a key", []string{"secret"}, "/v1/records", "Bearer secre", http.StatusUnauthorized},
		{"health exempt", []string{"secret"}, "/health", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tc.keys)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("got %d, want %d", rr.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized {
				var errResp errorResponse
				if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if errResp.Code != codeUnauthorized {
					t.Errorf("error code: got %s, want %s", errResp.Code, codeUnauthorized)
				}
			}
		})
	}
}
