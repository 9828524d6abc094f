package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sdkdocs/internal/config"
	"sdkdocs/internal/logging"
)

// Provider downloads the source archive of an SDK and unpacks it.
type Provider interface {
	// CacheKey names the cache directory for the SDK's source.
	CacheKey(sdk config.SDK) string
	// Download unpacks the SDK's source into dest and returns a reference
	// describing what was fetched.
	Download(ctx context.Context, sdk config.SDK, dest string) (ref string, err error)
}

// HTTPError is a non-2xx response from a download.
type HTTPError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: %d %s: %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ErrUnknownSource is returned for a source type no provider handles.
var ErrUnknownSource = errors.New("unknown source type")

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

// GitHubProvider downloads a branch tarball through the GitHub REST API.
type GitHubProvider struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (p *GitHubProvider) CacheKey(sdk config.SDK) string {
	return "github_" + strings.ReplaceAll(sdk.Source.Repo, "/", "_") + "_" + sanitize(sdk.Source.Branch)
}

func (p *GitHubProvider) Download(ctx context.Context, sdk config.SDK, dest string) (string, error) {
	base := strings.TrimRight(p.BaseURL, "/")
	if base == "" {
		base = "https://api.github.com"
	}
	u := fmt.Sprintf("%s/repos/%s/tarball/%s", base, sdk.Source.Repo, url.PathEscape(sdk.Source.Branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	logging.OrDefault(p.Logger).Info("downloading tarball", "repo", sdk.Source.Repo, "branch", sdk.Source.Branch)
	resp, err := client(p.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", sdk.Source.Repo, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(u, resp); err != nil {
		return "", err
	}

	if err := ExtractStream(resp.Body, FormatTarGz, dest); err != nil {
		return "", fmt.Errorf("extract %s: %w", sdk.Source.Repo, err)
	}
	return sdk.Source.Repo + "@" + sdk.Source.Branch, nil
}

// URLProvider downloads an archive from a plain URL.
type URLProvider struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (p *URLProvider) CacheKey(sdk config.SDK) string {
	name := sdk.Source.URL
	if u, err := url.Parse(sdk.Source.URL); err == nil {
		name = path.Base(u.Path)
	}
	return "url_" + sanitize(name)
}

func (p *URLProvider) Download(ctx context.Context, sdk config.SDK, dest string) (string, error) {
	u, err := url.Parse(sdk.Source.URL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	format, err := FormatFromName(u.Path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sdk.Source.URL, nil)
	if err != nil {
		return "", err
	}
	logging.OrDefault(p.Logger).Info("downloading archive", "url", sdk.Source.URL)
	resp, err := client(p.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", sdk.Source.URL, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(sdk.Source.URL, resp); err != nil {
		return "", err
	}

	if format != FormatZip {
		if err := ExtractStream(resp.Body, format, dest); err != nil {
			return "", fmt.Errorf("extract %s: %w", sdk.Source.URL, err)
		}
		return sdk.Source.URL, nil
	}

	// zip needs random access.
	tmp, err := os.CreateTemp("", "sdkdocs-*.zip")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download %s: %w", sdk.Source.URL, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := ExtractFile(tmp.Name(), FormatZip, dest); err != nil {
		return "", fmt.Errorf("extract %s: %w", sdk.Source.URL, err)
	}
	return sdk.Source.URL, nil
}

func client(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

func checkResponse(u string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &HTTPError{URL: u, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

// resolveSourcePath finds sub inside an extracted archive. Archives often
// wrap their content in a single top-level directory (GitHub tarballs
// always do), so sub is also tried one level down.
func resolveSourcePath(root, sub string) (string, error) {
	sub = filepath.FromSlash(strings.Trim(sub, "/"))
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}

	if sub != "" {
		if isDir(filepath.Join(root, sub)) {
			return filepath.Join(root, sub), nil
		}
		for _, e := range entries {
			if e.IsDir() && isDir(filepath.Join(root, e.Name(), sub)) {
				return filepath.Join(root, e.Name(), sub), nil
			}
		}
		return "", fmt.Errorf("path %q not found in downloaded source", sub)
	}

	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(root, entries[0].Name()), nil
	}
	return root, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
