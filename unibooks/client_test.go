package unibooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequires201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	token, err := client.Login(context.Background(), "a@b.c", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = client.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestLoginRejectsPlain200(t *testing.T) {
	// Success for login is specifically 201; a 200 with a token body is
	// not accepted.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Book{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	client.SetToken("my-token")

	_, err := client.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)

	client.ClearToken()
	_, err = client.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestListLoansQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prestamos", r.URL.Path)
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]Loan{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	_, err := client.ListLoans(context.Background(), ListLoansOptions{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)

	_, err = client.ListLoans(context.Background(), ListLoansOptions{UserID: 9, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "limit=5&userId=9", gotQuery)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"validation", http.StatusBadRequest, KindValidation},
		{"auth 401", http.StatusUnauthorized, KindAuth},
		{"auth 403", http.StatusForbidden, KindAuth},
		{"conflict", http.StatusConflict, KindConflict},
		{"server", http.StatusInternalServerError, KindServer},
		{"teapot", http.StatusTeapot, KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(errorEnvelope{
					StatusCode: tt.status,
					Message:    "nope",
					Code:       "NOPE",
				})
			}))
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			_, err := client.ListBooks(context.Background())
			require.Error(t, err)

			assert.Equal(t, tt.kind, KindOf(err))
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
			assert.Equal(t, "NOPE", apiErr.Code)
		})
	}
}

func TestNetworkErrorKind(t *testing.T) {
	// A server that no longer exists: transport error, no HTTP response.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, 500*time.Millisecond)
	_, err := client.ListBooks(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestReturnLoanPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	require.NoError(t, client.ReturnLoan(context.Background(), 12))
	assert.Equal(t, "/prestamos/12/devolver", gotPath)
	assert.Equal(t, http.MethodPatch, gotMethod)
}
