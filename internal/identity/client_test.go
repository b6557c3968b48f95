package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdeck/teamdeck/internal/errors"
)

func TestSignIn(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantTok  string
		wantCode errors.ErrorCode
	}{
		{
			name:    "success",
			status:  http.StatusOK,
			body:    map[string]string{"refresh_token": "tok-123"},
			wantTok: "tok-123",
		},
		{
			name:     "rejected credentials",
			status:   http.StatusUnauthorized,
			body:     map[string]string{"message": "wrong password"},
			wantCode: errors.ErrCodeInvalidCredentials,
		},
		{
			name:     "200 without token is a failure",
			status:   http.StatusOK,
			body:     map[string]string{"message": "ok"},
			wantCode: errors.ErrCodeMalformedResponse,
		},
		{
			name:     "200 with empty token is a failure",
			status:   http.StatusOK,
			body:     map[string]string{"refresh_token": ""},
			wantCode: errors.ErrCodeMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/signin", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "a@b.com", req["email"])

				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.SignIn(context.Background(), "a@b.com", "pw")

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTok, result.Token)
		})
	}
}

func TestSignInNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	_, err := client.SignIn(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetwork, errors.Code(err))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantUser string
		wantCode errors.ErrorCode
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"userid":"u-1"}`,
			wantUser: "u-1",
		},
		{
			name:     "rejected token",
			status:   http.StatusUnauthorized,
			body:     `{}`,
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "200 with empty body is unauthorized not success",
			status:   http.StatusOK,
			body:     `{}`,
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "200 with unparseable body is unauthorized",
			status:   http.StatusOK,
			body:     `{nope`,
			wantCode: errors.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/verify", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.Verify(context.Background(), "tok")

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, result.UserID)
		})
	}
}

func TestSignOut(t *testing.T) {
	t.Run("acknowledged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/signout", r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		require.NoError(t, NewClient(server.URL).SignOut(context.Background(), "tok"))
	})

	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		err := NewClient(server.URL).SignOut(context.Background(), "tok")
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.Code(err))
	})
}

func TestSignUpVariants(t *testing.T) {
	t.Run("user variant posts roleCode to /signup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/signup", r.URL.Path)
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "RC-7", req["roleCode"])
			_, hasLicense := req["license_key"]
			assert.False(t, hasLicense)
			json.NewEncoder(w).Encode(map[string]string{"message": "welcome"})
		}))
		defer server.Close()

		msg, err := NewClient(server.URL).SignUp(context.Background(), SignUpUser, SignUpFields{
			Email: "a@b.com", Password: "pw", Name: "Ada", RoleCode: "RC-7",
		})
		require.NoError(t, err)
		assert.Equal(t, "welcome", msg)
	})

	t.Run("admin variant posts license_key to /admin-signup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin-signup", r.URL.Path)
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "LIC-1", req["license_key"])
			json.NewEncoder(w).Encode(map[string]string{"message": "admin created"})
		}))
		defer server.Close()

		msg, err := NewClient(server.URL).SignUp(context.Background(), SignUpAdmin, SignUpFields{
			Email: "a@b.com", Password: "pw", Name: "Ada", LicenseKey: "LIC-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "admin created", msg)
	})

	t.Run("rejection surfaces server message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid license"})
		}))
		defer server.Close()

		_, err := NewClient(server.URL).SignUp(context.Background(), SignUpAdmin, SignUpFields{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeSignupRejected, errors.Code(err))
		assert.Contains(t, err.Error(), "invalid license")
	})
}

func TestGetProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Profile{
			UserID: "u-1", Email: "a@b.com", Name: "Ada", Role: "Manager", CreatedAt: "2026-01-01T00:00:00Z",
		})
	}))
	defer server.Close()

	profile, err := NewClient(server.URL).GetProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "Manager", profile.Role)
}

func TestGetProfileMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"a@b.com"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetProfile(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedResponse, errors.Code(err))
}
