// Package hosting wraps the code-hosting API calls the bridge needs:
// creating pull requests and listing workflow runs.
package hosting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

// RunInfo summarizes one workflow run for chat display.
type RunInfo struct {
	Name       string
	Status     string
	Conclusion string
	Branch     string
	URL        string
	CreatedAt  time.Time
}

// Client talks to the GitHub API for a single owner/repo.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	logger *logrus.Entry
}

// NewClient creates a Client with bearer authentication. An empty token is
// an error; callers degrade the corresponding commands to a user message
// instead of constructing a client.
func NewClient(ctx context.Context, token, owner, repo string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not set")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("GitHub owner/repo not configured")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &Client{
		gh:     github.NewClient(tc),
		owner:  owner,
		repo:   repo,
		logger: logging.NewLogger("hosting"),
	}, nil
}

// CreatePullRequest opens a pull request from head into base and returns its
// URL.
func (c *Client) CreatePullRequest(ctx context.Context, title, body, head, base string) (string, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(head),
		Base:  github.String(base),
	})
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"number": pr.GetNumber(),
		"head":   head,
		"base":   base,
	}).Info("Created pull request")
	return pr.GetHTMLURL(), nil
}

// ListWorkflowRuns returns the most recent workflow runs for a branch,
// newest first, capped at limit.
func (c *Client) ListWorkflowRuns(ctx context.Context, branch string, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 5
	}

	runs, _, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, &github.ListWorkflowRunsOptions{
		Branch:      branch,
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}

	infos := make([]RunInfo, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		infos = append(infos, RunInfo{
			Name:       run.GetName(),
			Status:     run.GetStatus(),
			Conclusion: run.GetConclusion(),
			Branch:     run.GetHeadBranch(),
			URL:        run.GetHTMLURL(),
			CreatedAt:  run.GetCreatedAt().Time,
		})
		if len(infos) == limit {
			break
		}
	}
	return infos, nil
}
