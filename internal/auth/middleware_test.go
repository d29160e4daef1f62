package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockSessions struct {
	users map[string]*User
}

func (m *mockSessions) LookupSession(_ context.Context, token string) (*User, error) {
	u, ok := m.users[token]
	if !ok {
		return nil, errors.New("session not found")
	}
	return u, nil
}

func TestUserContext_RoundTrip(t *testing.T) {
	u := &User{ID: "u1", Email: "a@example.com", Name: "Alice"}
	got := UserFromContext(ContextWithUser(context.Background(), u))
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected user u1 from context, got %+v", got)
	}
	if UserFromContext(context.Background()) != nil {
		t.Error("expected nil user from empty context")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer  padded ", "padded"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := ExtractBearerToken(req); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestSessionMiddleware(t *testing.T) {
	sessions := &mockSessions{users: map[string]*User{
		"good-token": {ID: "u1", Email: "a@example.com", Name: "Alice"},
	}}

	var seen []bool
	mw := SessionMiddleware(sessions, func(ok bool) { seen = append(seen, ok) })

	var gotUser *User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"missing header", "", http.StatusUnauthorized, "Token is missing or not provided"},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized, "Token is missing or not provided"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "User is not authorized"},
		{"valid token", "Bearer good-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/team", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMessage != "" {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decoding body: %v", err)
				}
				if body["message"] != tt.wantMessage {
					t.Errorf("message = %q, want %q", body["message"], tt.wantMessage)
				}
				if gotUser != nil {
					t.Error("handler should not run on auth failure")
				}
			} else if gotUser == nil || gotUser.ID != "u1" {
				t.Errorf("expected user u1 in context, got %+v", gotUser)
			}
		})
	}

	want := []bool{false, false, false, true}
	if len(seen) != len(want) {
		t.Fatalf("observer calls = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observer call %d = %v, want %v", i, seen[i], want[i])
		}
	}
}
