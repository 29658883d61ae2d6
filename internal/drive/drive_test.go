package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SKU-001", "sku001"},
		{"  Card #12 (front) ", "card12front"},
		{"___", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeLabel(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDirectURL(t *testing.T) {
	expected := "https://drive.google.com/uc?export=view&id=abc123"
	if got := DirectURL("abc123"); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

var folder = []File{
	{ID: "1", Name: "sku-001.jpg", MimeType: "image/jpeg"},
	{ID: "2", Name: "sku-002-back.jpg", MimeType: "image/jpeg"},
	{ID: "3", Name: "sku-002-front.jpg", MimeType: "image/jpeg"},
	{ID: "4", Name: "lot-sku-003.png", MimeType: "image/png"},
	{ID: "5", Name: "notes.txt", MimeType: "text/plain"},
	{ID: "6", Name: "zebra.jpg", MimeType: "image/jpeg"},
}

func TestAssignByLabel(t *testing.T) {
	labels := []string{"SKU-001", "SKU 002", "sku003", "unknown", "SKU-001"}
	current := []string{"", "", "", "", "https://img/already.jpg"}

	got := Assigner{}.Assign(labels, current, folder)

	expected := []Match{MatchExact, MatchPrefix, MatchContains, MatchNone, MatchNone}
	for i, want := range expected {
		if got[i].Match != want {
			t.Errorf("Row %d: expected match %q, got %q", i, want, got[i].Match)
		}
	}
	if got[1].File.ID != "2" {
		t.Errorf("Expected first image by name for prefix match, got %s", got[1].File.Name)
	}
	if got[0].URL != DirectURL("1") {
		t.Errorf("Expected %s, got %s", DirectURL("1"), got[0].URL)
	}
	if got[4].URL != "" {
		t.Errorf("Expected existing photo to be kept, got %s", got[4].URL)
	}
}

func TestAssignFuzzy(t *testing.T) {
	labels := []string{"zebre"}

	if got := (Assigner{}).Assign(labels, nil, folder[5:]); got[0].Match != MatchOrder {
		t.Errorf("Expected order fallback without fuzzy matching, got %q", got[0].Match)
	}

	got := Assigner{MinSimilarity: 0.85}.Assign(labels, nil, folder)
	if got[0].Match != MatchFuzzy || got[0].File.ID != "6" {
		t.Errorf("Expected fuzzy match on zebra.jpg, got %+v", got[0])
	}
}

func TestAssignByOrder(t *testing.T) {
	labels := []string{"SKU-001", "", "x", "y", "z", "w"}
	current := []string{"", "https://img/keep.jpg", "", "", "", ""}

	got := Assigner{ByOrder: true}.Assign(labels, current, folder)

	var ids []string
	for _, a := range got {
		ids = append(ids, a.File.ID)
	}
	expected := []string{"4", "", "1", "2", "3", "6"}
	if diff := cmp.Diff(expected, ids); diff != "" {
		t.Error(diff)
	}
}

func TestAssignOrderFallbackWhenNothingMatched(t *testing.T) {
	got := Assigner{}.Assign([]string{"nothing", "matches"}, nil, folder)
	if got[0].Match != MatchOrder || got[0].File.Name != "lot-sku-003.png" {
		t.Errorf("Unexpected first assignment: %+v", got[0])
	}
	if got[1].File.Name != "sku-001.jpg" {
		t.Errorf("Unexpected second assignment: %+v", got[1])
	}
}

func TestListFiles(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/files") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "page2",
				"files": []map[string]string{
					{"id": "b", "name": "b.jpg", "mimeType": "image/jpeg"},
					{"id": "t", "name": "a.txt", "mimeType": "text/plain"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{{"id": "a", "name": "a.jpg", "mimeType": "image/jpeg"}},
		})
	}))
	defer server.Close()

	srv, err := gdrive.NewService(context.Background(), option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	s := &Service{srv: srv}

	images, err := ListImages(context.Background(), s, "folder1")
	require.NoError(t, err)

	expected := []File{
		{ID: "a", Name: "a.jpg", MimeType: "image/jpeg"},
		{ID: "b", Name: "b.jpg", MimeType: "image/jpeg"},
	}
	if diff := cmp.Diff(expected, images); diff != "" {
		t.Error(diff)
	}
	require.Len(t, queries, 2)
	require.Equal(t, "'folder1' in parents and trashed = false", queries[0])
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, saveToken(path, tok))
	loaded, err := readToken(path)
	require.NoError(t, err)
	require.Equal(t, tok.AccessToken, loaded.AccessToken)
	require.Equal(t, tok.RefreshToken, loaded.RefreshToken)
	require.True(t, tok.Expiry.Equal(loaded.Expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOAuthClientUsesCachedToken(t *testing.T) {
	tmpDir := t.TempDir()
	creds := filepath.Join(tmpDir, "client_secret.json")
	secret := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(creds, []byte(secret), 0600))

	token := filepath.Join(tmpDir, "token.json")
	require.NoError(t, saveToken(token, &oauth2.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)}))

	prompted := false
	_, err := oauthClient(context.Background(), Auth{
		CredsPath: creds,
		TokenPath: token,
		Prompt: func(string) (string, error) {
			prompted = true
			return "", nil
		},
	})
	require.NoError(t, err)
	require.False(t, prompted, "cached token should skip the consent flow")
}

func TestOAuthClientMissingCreds(t *testing.T) {
	_, err := oauthClient(context.Background(), Auth{CredsPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}

func TestStdinPrompt(t *testing.T) {
	var out bytes.Buffer
	code, err := stdinPrompt(strings.NewReader("4/abc\n"), &out)("https://consent")
	require.NoError(t, err)
	require.Equal(t, "4/abc\n", code)
	require.Contains(t, out.String(), "https://consent")
}
