package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/gate"
	"github.com/wbaxter3/codex-telegram-bridge/git"
	"github.com/wbaxter3/codex-telegram-bridge/hosting"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
	"github.com/wbaxter3/codex-telegram-bridge/output"
	"github.com/wbaxter3/codex-telegram-bridge/repo"
	"github.com/wbaxter3/codex-telegram-bridge/session"
	"github.com/wbaxter3/codex-telegram-bridge/task"
)

// TaskRunner executes one external task invocation.
type TaskRunner interface {
	Run(ctx context.Context, req task.Request) (string, error)
	Timeout() time.Duration
}

// PushChecker runs the confirmed leg of a staged push.
type PushChecker interface {
	ConfirmPush(ctx context.Context, dir, branch, remote string, fn git.TaskFunc) (*git.PushReport, error)
}

// HostingClient is the code-hosting API surface the handler consumes.
type HostingClient interface {
	CreatePullRequest(ctx context.Context, title, body, head, base string) (string, error)
	ListWorkflowRuns(ctx context.Context, branch string, limit int) ([]hosting.RunInfo, error)
}

const startMessage = `Codex bridge ready. Talk to me in plain text to run a task, or use:
/push <description> - stage a commit+push
/confirmpush - execute the staged push
/cancelpush - discard the staged push
/state - current session and repository state
/new - start a fresh session
/repo - manage repository contexts
/pr <title>[|body] - open a pull request
/ci - recent workflow runs`

const repoHelpMessage = `Usage:
/repo list
/repo add <alias> <path> [branch] [remote]
/repo use <alias>
/repo remove <alias>`

// Params bundles the owned service instances a Handler dispatches over.
type Params struct {
	Gate     *gate.Gate
	Store    *session.Store
	Registry *repo.Registry
	Runner   TaskRunner
	Checker  PushChecker

	// Hosting may be nil; the /pr and /ci commands then degrade to a
	// message instead of failing.
	Hosting HostingClient

	Git *command.Runner

	SandboxToken string
	ContextTurns int
	ChunkSize    int
}

// Handler parses incoming messages and dispatches them over its owned
// services. It is the single writer of session and registry state; the gate
// rejects any overlap.
type Handler struct {
	gate     *gate.Gate
	store    *session.Store
	registry *repo.Registry
	runner   TaskRunner
	checker  PushChecker
	hosting  HostingClient
	git      *command.Runner

	sandbox      string
	contextTurns int
	chunkSize    int

	logger *logrus.Entry
}

// NewHandler creates a Handler from its dependencies.
func NewHandler(p Params) *Handler {
	contextTurns := p.ContextTurns
	if contextTurns <= 0 {
		contextTurns = 10
	}
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = output.DefaultChunkSize
	}
	return &Handler{
		gate:         p.Gate,
		store:        p.Store,
		registry:     p.Registry,
		runner:       p.Runner,
		checker:      p.Checker,
		hosting:      p.Hosting,
		git:          p.Git,
		sandbox:      p.SandboxToken,
		contextTurns: contextTurns,
		chunkSize:    chunkSize,
		logger:       logging.NewLogger("bot"),
	}
}

// Handle processes one incoming message and returns the ordered replies to
// send, already chunked to the transport limit.
func (h *Handler) Handle(ctx context.Context, chatID, text string) []string {
	cmd := Parse(text)

	if h.needsGate(cmd.Kind) {
		if !h.gate.TryAcquire() {
			return h.errorReply(errors.Busy())
		}
		defer h.gate.Release()
	}

	switch cmd.Kind {
	case KindStart:
		return []string{startMessage}
	case KindNewSession:
		return h.handleNewSession(chatID)
	case KindState:
		return h.handleState(ctx, chatID)
	case KindPush:
		return h.handlePush(chatID, cmd.Text)
	case KindConfirmPush:
		return h.handleConfirmPush(ctx, chatID)
	case KindCancelPush:
		return h.handleCancelPush(chatID)
	case KindRepo:
		return h.handleRepo(ctx, cmd.Repo)
	case KindPullRequest:
		return h.handlePullRequest(ctx, cmd.PRTitle, cmd.PRBody)
	case KindCI:
		return h.handleCI(ctx)
	case KindPrompt:
		return h.handlePrompt(ctx, chatID, cmd.Text)
	case KindUnknown:
		return []string{fmt.Sprintf("Unrecognized command %s. Send /start for the command list.", cmd.Text)}
	default:
		return []string{fmt.Sprintf("Unrecognized command %s. Send /start for the command list.", cmd.Text)}
	}
}

// needsGate reports whether the command mutates shared state or runs a task
// and therefore requires the single-flight gate. A rejected caller's state
// is untouched.
func (h *Handler) needsGate(kind Kind) bool {
	switch kind {
	case KindNewSession, KindPush, KindConfirmPush, KindCancelPush, KindRepo, KindPrompt:
		return true
	default:
		return false
	}
}

func (h *Handler) handleNewSession(chatID string) []string {
	h.store.Clear(chatID)
	if err := h.store.Save(); err != nil {
		return h.errorReply(err)
	}
	return []string{"Started a fresh session. Prior context is gone."}
}

func (h *Handler) handleState(ctx context.Context, chatID string) []string {
	name, def := h.registry.Active()
	sess := h.store.Get(chatID)

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s (%s)\n", name, def.Dir)
	fmt.Fprintf(&b, "Tracking: %s/%s\n", def.Remote, def.Branch)
	fmt.Fprintf(&b, "History: %d turn(s)\n", len(sess.History))

	if sess.PendingPush != nil {
		fmt.Fprintf(&b, "Staged push: %q (since %s)\n",
			sess.PendingPush.Description,
			sess.PendingPush.CreatedAt.Format(time.RFC3339))
	} else {
		b.WriteString("Staged push: none\n")
	}

	if status, err := git.NewContext(h.git, def.Dir).Status(ctx); err == nil {
		fmt.Fprintf(&b, "Branch: %s, dirty: %t, ahead: %d", status.Branch, status.IsDirty, status.AheadCount)
	}

	return h.chunk(b.String())
}

func (h *Handler) handlePush(chatID, description string) []string {
	if strings.TrimSpace(description) == "" {
		return []string{"A push needs a description: /push <what should be committed>"}
	}

	h.store.SetPendingPush(chatID, strings.TrimSpace(description))
	if err := h.store.Save(); err != nil {
		return h.errorReply(err)
	}
	return []string{fmt.Sprintf("Staged push: %q\nSend /confirmpush to execute it or /cancelpush to discard it.", strings.TrimSpace(description))}
}

func (h *Handler) handleCancelPush(chatID string) []string {
	if h.store.PendingPush(chatID) == nil {
		return []string{"No push is staged."}
	}
	h.store.ClearPendingPush(chatID)
	if err := h.store.Save(); err != nil {
		return h.errorReply(err)
	}
	return []string{"Staged push discarded."}
}

func (h *Handler) handleConfirmPush(ctx context.Context, chatID string) []string {
	pending := h.store.PendingPush(chatID)
	if pending == nil {
		return []string{"Nothing is staged. Stage a push first with /push <description>."}
	}

	// The staged push is consumed exactly once, whatever happens downstream.
	// A failed confirmation must be re-staged, never blindly re-executed.
	defer func() {
		h.store.ClearPendingPush(chatID)
		if err := h.store.Save(); err != nil {
			h.logger.WithError(err).Error("Failed to persist session store after push confirmation")
		}
	}()

	_, def := h.registry.Active()
	h.store.AddHistory(chatID, session.RoleUser, "Commit and push: "+pending.Description)

	report, err := h.checker.ConfirmPush(ctx, def.Dir, def.Branch, def.Remote, func(taskCtx context.Context) (string, error) {
		contextBlock := h.store.BuildContext(chatID, h.contextTurns)
		instruction := buildInstruction(pushPolicy, contextBlock, buildPushRequest(pending.Description))
		return h.runner.Run(taskCtx, task.Request{
			Dir:          def.Dir,
			Env:          git.PinnedEnv(def.Dir),
			SandboxToken: h.sandbox,
			Instruction:  instruction,
		})
	})
	if err != nil {
		if report != nil && errors.Is(err, errors.ErrCodePushFailed) {
			// The commit landed but delivery failed. The task output is still
			// part of the conversation, and the user needs the raw failure.
			h.store.AddHistory(chatID, session.RoleAssistant, output.Sanitize(report.TaskOutput))
			return h.chunk(fmt.Sprintf("❌ The commit was created, but pushing it failed:\n%s\nThe commit remains local; resolve the failure and stage a new push.", err.Error()))
		}
		return h.errorReply(err)
	}

	cleaned := output.Sanitize(report.TaskOutput)
	h.store.AddHistory(chatID, session.RoleAssistant, cleaned)

	switch report.Outcome {
	case git.OutcomeSkipped:
		msg := "No commit was produced, so nothing was pushed."
		if report.WorkTreeDirty {
			msg += " The working tree has uncommitted changes."
		} else {
			msg += " The working tree is clean."
		}
		if cleaned != "" {
			msg += "\n\n" + cleaned
		}
		return h.chunk(msg)
	default:
		msg := fmt.Sprintf("Pushed %.8s -> %s/%s.", report.HeadAfter, def.Remote, def.Branch)
		if cleaned != "" {
			msg += "\n\n" + cleaned
		}
		return h.chunk(msg)
	}
}

func (h *Handler) handlePrompt(ctx context.Context, chatID, text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"Send a request in plain text, or /start for the command list."}
	}

	_, def := h.registry.Active()

	h.store.AddHistory(chatID, session.RoleUser, text)
	contextBlock := h.store.BuildContext(chatID, h.contextTurns)
	instruction := buildInstruction(plainPolicy, contextBlock, text)

	out, err := h.runner.Run(ctx, task.Request{
		Dir:          def.Dir,
		Env:          git.PinnedEnv(def.Dir),
		SandboxToken: h.sandbox,
		Instruction:  instruction,
	})
	if err != nil {
		if saveErr := h.store.Save(); saveErr != nil {
			h.logger.WithError(saveErr).Error("Failed to persist session store")
		}
		return h.errorReply(err)
	}

	h.store.AddHistory(chatID, session.RoleAssistant, out)
	if err := h.store.Save(); err != nil {
		h.logger.WithError(err).Error("Failed to persist session store")
	}
	return h.chunk(out)
}

func (h *Handler) handleRepo(ctx context.Context, cmd RepoCommand) []string {
	switch cmd.Action {
	case RepoList:
		var b strings.Builder
		b.WriteString("Repository contexts:\n")
		for _, alias := range h.registry.List() {
			marker := " "
			if alias.Active {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %s -> %s (%s/%s)\n", marker, alias.Name, alias.Definition.Dir, alias.Definition.Remote, alias.Definition.Branch)
		}
		return h.chunk(strings.TrimRight(b.String(), "\n"))

	case RepoAdd:
		if cmd.Alias == "" || cmd.Definition.Dir == "" {
			return []string{repoHelpMessage}
		}
		if err := h.registry.AddAlias(ctx, cmd.Alias, cmd.Definition); err != nil {
			return h.errorReply(err)
		}
		return []string{fmt.Sprintf("Added repository alias %q. Activate it with /repo use %s.", repo.Normalize(cmd.Alias), repo.Normalize(cmd.Alias))}

	case RepoUse:
		if cmd.Alias == "" {
			return []string{repoHelpMessage}
		}
		def, err := h.registry.SwitchActive(ctx, cmd.Alias)
		if err != nil {
			return h.errorReply(err)
		}
		// History is tied to a repository context, so a switch clears every
		// conversation.
		h.store.ClearAll()
		if err := h.store.Save(); err != nil {
			return h.errorReply(err)
		}
		return []string{fmt.Sprintf("Switched to %q (%s). All sessions were cleared.", repo.Normalize(cmd.Alias), def.Dir)}

	case RepoRemove:
		if cmd.Alias == "" {
			return []string{repoHelpMessage}
		}
		fellBack, err := h.registry.RemoveAlias(cmd.Alias)
		if err != nil {
			return h.errorReply(err)
		}
		if fellBack {
			h.store.ClearAll()
			if err := h.store.Save(); err != nil {
				return h.errorReply(err)
			}
			return []string{fmt.Sprintf("Removed active alias %q; back on %q. All sessions were cleared.", repo.Normalize(cmd.Alias), repo.ReservedName)}
		}
		return []string{fmt.Sprintf("Removed repository alias %q.", repo.Normalize(cmd.Alias))}

	default:
		return []string{repoHelpMessage}
	}
}

func (h *Handler) handlePullRequest(ctx context.Context, title, body string) []string {
	if h.hosting == nil {
		return []string{"GitHub is not configured. Set github.token, github.owner and github.repo to use /pr."}
	}
	if title == "" {
		return []string{"A pull request needs a title: /pr <title>[|body]"}
	}

	_, def := h.registry.Active()
	head, err := git.NewContext(h.git, def.Dir).Branch(ctx)
	if err != nil {
		return h.errorReply(err)
	}
	if head == def.Branch {
		return []string{fmt.Sprintf("The current branch is %q, which is the base branch; there is nothing to open a pull request from.", head)}
	}

	url, err := h.hosting.CreatePullRequest(ctx, title, body, head, def.Branch)
	if err != nil {
		return h.errorReply(err)
	}
	return []string{fmt.Sprintf("Opened pull request: %s", url)}
}

func (h *Handler) handleCI(ctx context.Context) []string {
	if h.hosting == nil {
		return []string{"GitHub is not configured. Set github.token, github.owner and github.repo to use /ci."}
	}

	_, def := h.registry.Active()
	runs, err := h.hosting.ListWorkflowRuns(ctx, def.Branch, 5)
	if err != nil {
		return h.errorReply(err)
	}
	if len(runs) == 0 {
		return []string{fmt.Sprintf("No workflow runs found for %s.", def.Branch)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workflow runs on %s:\n", def.Branch)
	for _, run := range runs {
		state := run.Status
		if run.Conclusion != "" {
			state = run.Conclusion
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", run.Name, state, run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return h.chunk(strings.TrimRight(b.String(), "\n"))
}

// chunk splits a reply to the transport limit.
func (h *Handler) chunk(text string) []string {
	chunks := output.Chunk(text, h.chunkSize)
	if len(chunks) == 0 {
		return []string{task.EmptyOutputPlaceholder}
	}
	return chunks
}

// errorReply formats an error as a single visually distinct reply, truncated
// to the transport limit.
func (h *Handler) errorReply(err error) []string {
	msg := err.Error()
	if bridgeErr, ok := err.(*errors.BridgeError); ok {
		msg = bridgeErr.Message
	}
	return []string{output.Truncate("❌ "+msg, h.chunkSize)}
}
