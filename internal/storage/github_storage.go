package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const (
	defaultGitHubAPIURL  = "https://api.github.com"
	defaultGitHubBranch  = "main"
	defaultGitHubTimeout = 30 * time.Second
	githubUserAgent      = "media_server"
)

// GitHubStorage commits media into a repository through the GitHub contents
// API. Every write is one commit on the configured branch.
type GitHubStorage struct {
	client  *fasthttp.Client
	config  GitHubConfig
	root    string
	timeout time.Duration
}

type githubContent struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size uint64 `json:"size"`
}

type githubWriteRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type githubDeleteRequest struct {
	Message string `json:"message"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha"`
}

type githubErrorBody struct {
	Message string `json:"message"`
}

func NewGitHubStorage(config *BackendConfig) (*GitHubStorage, error) {
	if config.GitHub.Owner == "" || config.GitHub.Repo == "" {
		return nil, fmt.Errorf("github storage requires owner and repo")
	}
	client := &fasthttp.Client{
		Name:                     githubUserAgent,
		NoDefaultUserAgentHeader: true,
	}
	return newGitHubStorage(config.GitHub, config.MediaRoot, client), nil
}

func newGitHubStorage(config GitHubConfig, mediaRoot string, client *fasthttp.Client) *GitHubStorage {
	if config.APIURL == "" {
		config.APIURL = defaultGitHubAPIURL
	}
	config.APIURL = strings.TrimSuffix(config.APIURL, "/")
	if config.Branch == "" {
		config.Branch = defaultGitHubBranch
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultGitHubTimeout
	}
	return &GitHubStorage{
		client:  client,
		config:  config,
		root:    strings.Trim(mediaRoot, "/"),
		timeout: timeout,
	}
}

func (s *GitHubStorage) List(ctx context.Context, folder string) ([]MediaEntry, error) {
	status, body, err := s.do(fasthttp.MethodGet, s.contentsURL(joinRoot(s.root, folder), true), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	if status == fasthttp.StatusNotFound {
		return nil, nil
	}
	if !isSuccess(status) {
		return nil, &RemoteError{Status: status, Message: fmt.Sprintf("GitHub API %d", status)}
	}

	var contents []githubContent
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, fmt.Errorf("failed to decode listing of %s: %w", folder, err)
	}

	entries := make([]MediaEntry, 0, len(contents))
	for _, content := range contents {
		entries = append(entries, MediaEntry{
			IsFile:   content.Type == "file",
			Size:     content.Size,
			Filename: content.Name,
		})
	}
	return entries, nil
}

// Upload checks the destination for an existing blob first: replacing a file
// requires its current sha, creating one requires omitting it.
func (s *GitHubStorage) Upload(ctx context.Context, filePath string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	repoPath := joinRoot(s.root, filePath)
	sha, err := s.currentSHA(repoPath)
	if err != nil {
		return err
	}

	return s.put(repoPath, githubWriteRequest{
		Message: "Upload media: " + repoPath,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.config.Branch,
		SHA:     sha,
	})
}

func (s *GitHubStorage) Mkdir(ctx context.Context, folder string) error {
	return s.put(joinRoot(s.root, folder+"/"+placeholderName), githubWriteRequest{
		Message: "Create media folder: " + folder,
		Branch:  s.config.Branch,
	})
}

func (s *GitHubStorage) Delete(ctx context.Context, filePath string) error {
	repoPath := joinRoot(s.root, filePath)

	sha, err := s.currentSHA(repoPath)
	if err != nil {
		return err
	}
	if sha == "" {
		return fmt.Errorf("%w: File not found in repo", ErrNotFound)
	}

	status, body, err := s.do(fasthttp.MethodDelete, s.contentsURL(repoPath, false), githubDeleteRequest{
		Message: "Delete media: " + repoPath,
		Branch:  s.config.Branch,
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", repoPath, err)
	}
	if !isSuccess(status) {
		return remoteError(status, body)
	}
	return nil
}

// currentSHA returns the blob sha of repoPath, or "" when no file exists there.
func (s *GitHubStorage) currentSHA(repoPath string) (string, error) {
	status, body, err := s.do(fasthttp.MethodGet, s.contentsURL(repoPath, true), nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", repoPath, err)
	}
	if !isSuccess(status) {
		return "", nil
	}

	var content githubContent
	if err := json.Unmarshal(body, &content); err != nil {
		// a directory listing is an array, not a file
		return "", nil
	}
	return content.SHA, nil
}

func (s *GitHubStorage) put(repoPath string, payload githubWriteRequest) error {
	status, body, err := s.do(fasthttp.MethodPut, s.contentsURL(repoPath, false), payload)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", repoPath, err)
	}
	if !isSuccess(status) {
		return remoteError(status, body)
	}
	return nil
}

func (s *GitHubStorage) contentsURL(repoPath string, withRef bool) string {
	segments := strings.Split(repoPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.config.APIURL,
		url.PathEscape(s.config.Owner),
		url.PathEscape(s.config.Repo),
		strings.Join(segments, "/"),
	)
	if withRef {
		u += "?ref=" + url.QueryEscape(s.config.Branch)
	}
	return u
}

// do sends one request and returns a copy of the response body.
func (s *GitHubStorage) do(method, uri string, payload any) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "token "+s.config.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.SetUserAgent(githubUserAgent)

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)
	}

	if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
		return 0, nil, err
	}

	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

func remoteError(status int, body []byte) *RemoteError {
	var errBody githubErrorBody
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Message != "" {
		return &RemoteError{Status: status, Message: errBody.Message}
	}
	return &RemoteError{Status: status, Message: fmt.Sprintf("GitHub API %d", status)}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
