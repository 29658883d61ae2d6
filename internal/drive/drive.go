// Package drive lists images in a Google Drive folder and assigns them to
// seed rows as public photo URLs.
package drive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// File is one entry in a Drive folder.
type File struct {
	ID       string
	Name     string
	MimeType string
}

// IsImage reports whether the file has an image MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// Lister is the drive collaborator consumed by the photos command.
type Lister interface {
	ListFiles(ctx context.Context, folderID string) ([]File, error)
}

// Auth selects how the Drive API is called. An APIKey is enough for public
// folders; otherwise the installed-app OAuth flow runs with CredsPath and
// caches the token at TokenPath.
type Auth struct {
	APIKey    string
	CredsPath string
	TokenPath string
	// Prompt receives the consent URL and supplies the authorization code.
	// Defaults to stdin/stdout.
	Prompt func(authURL string) (string, error)
}

// Defaults for Auth paths.
const (
	DefaultCredsPath = "client_secret.json"
	DefaultTokenPath = "token.json"
)

type Service struct {
	srv *gdrive.Service
}

// NewService builds a Drive client from auth.
func NewService(ctx context.Context, auth Auth) (*Service, error) {
	var opts []option.ClientOption
	if auth.APIKey != "" {
		opts = append(opts, option.WithAPIKey(auth.APIKey))
	} else {
		client, err := oauthClient(ctx, auth)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	}

	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{srv: srv}, nil
}

// ListFiles returns the untrashed files in folderID, ordered by name.
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))

	var files []File
	pageToken := ""
	for {
		call := s.srv.Files.List().
			Q(query).
			Spaces("drive").
			Fields("nextPageToken, files(id, name, mimeType)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list drive folder %s: %w", folderID, err)
		}
		for _, f := range resp.Files {
			files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}
		slog.Debug("Listed drive page", "folder", folderID, "files", len(resp.Files))
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	SortByName(files)
	return files, nil
}

// ListImages returns only the image files in folderID, ordered by name.
func ListImages(ctx context.Context, l Lister, folderID string) ([]File, error) {
	files, err := l.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return Images(files), nil
}

// Images filters files down to images.
func Images(files []File) []File {
	var images []File
	for _, f := range files {
		if f.IsImage() {
			images = append(images, f)
		}
	}
	return images
}

func SortByName(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
}

func oauthClient(ctx context.Context, auth Auth) (*http.Client, error) {
	credsPath := auth.CredsPath
	if credsPath == "" {
		credsPath = DefaultCredsPath
	}
	tokenPath := auth.TokenPath
	if tokenPath == "" {
		tokenPath = DefaultTokenPath
	}

	b, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gdrive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	tok, err := readToken(tokenPath)
	if err != nil {
		prompt := auth.Prompt
		if prompt == nil {
			prompt = stdinPrompt(os.Stdin, os.Stdout)
		}
		tok, err = exchangeToken(ctx, config, prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

func exchangeToken(ctx context.Context, config *oauth2.Config, prompt func(string) (string, error)) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := prompt(authURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

func stdinPrompt(in io.Reader, out io.Writer) func(string) (string, error) {
	return func(authURL string) (string, error) {
		fmt.Fprintf(out, "Open this link in your browser, then paste the authorization code:\n%s\n> ", authURL)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return line, nil
	}
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to save oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	slog.Info("Saved oauth token", "path", path)
	return nil
}
