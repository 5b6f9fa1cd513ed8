package bot

import (
	"strings"

	"github.com/wbaxter3/codex-telegram-bridge/repo"
)

// Kind tags a parsed chat command.
type Kind int

const (
	// KindPrompt is a plain request relayed to the task executor.
	KindPrompt Kind = iota
	KindStart
	KindNewSession
	KindState
	KindPush
	KindConfirmPush
	KindCancelPush
	KindRepo
	KindPullRequest
	KindCI
	KindUnknown
)

// RepoAction tags the /repo subcommand.
type RepoAction int

const (
	RepoList RepoAction = iota
	RepoAdd
	RepoUse
	RepoRemove
	RepoHelp
)

// Command is the tagged result of parsing one incoming message. Dispatch is
// an exhaustive switch over Kind, never scattered prefix checks.
type Command struct {
	Kind Kind

	// Text carries the prompt, the push description, or the unknown command
	// word, depending on Kind.
	Text string

	// PRTitle and PRBody are set for KindPullRequest.
	PRTitle string
	PRBody  string

	// Repo is set for KindRepo.
	Repo RepoCommand
}

// RepoCommand is the parsed form of a /repo subcommand.
type RepoCommand struct {
	Action     RepoAction
	Alias      string
	Definition repo.Definition
}

// Parse turns raw message text into a tagged Command.
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	if text == "" || !strings.HasPrefix(text, "/") {
		return Command{Kind: KindPrompt, Text: text}
	}

	word, rest := splitWord(text)
	switch strings.ToLower(word) {
	case "/start":
		return Command{Kind: KindStart}
	case "/new", "/clear":
		return Command{Kind: KindNewSession}
	case "/state":
		return Command{Kind: KindState}
	case "/push":
		return Command{Kind: KindPush, Text: rest}
	case "/confirmpush":
		return Command{Kind: KindConfirmPush}
	case "/cancelpush":
		return Command{Kind: KindCancelPush}
	case "/repo":
		return Command{Kind: KindRepo, Repo: parseRepo(rest)}
	case "/pr":
		title, body := splitPR(rest)
		return Command{Kind: KindPullRequest, PRTitle: title, PRBody: body}
	case "/ci":
		return Command{Kind: KindCI}
	default:
		return Command{Kind: KindUnknown, Text: word}
	}
}

func splitWord(text string) (word, rest string) {
	parts := strings.SplitN(text, " ", 2)
	word = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return word, rest
}

// splitPR splits "/pr <title>[|body]" payload into title and body.
func splitPR(rest string) (title, body string) {
	parts := strings.SplitN(rest, "|", 2)
	title = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		body = strings.TrimSpace(parts[1])
	}
	return title, body
}

func parseRepo(rest string) RepoCommand {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return RepoCommand{Action: RepoHelp}
	}

	switch strings.ToLower(fields[0]) {
	case "list":
		return RepoCommand{Action: RepoList}
	case "add":
		cmd := RepoCommand{Action: RepoAdd}
		if len(fields) > 1 {
			cmd.Alias = fields[1]
		}
		if len(fields) > 2 {
			cmd.Definition.Dir = fields[2]
		}
		if len(fields) > 3 {
			cmd.Definition.Branch = fields[3]
		}
		if len(fields) > 4 {
			cmd.Definition.Remote = fields[4]
		}
		return cmd
	case "use":
		cmd := RepoCommand{Action: RepoUse}
		if len(fields) > 1 {
			cmd.Alias = fields[1]
		}
		return cmd
	case "remove":
		cmd := RepoCommand{Action: RepoRemove}
		if len(fields) > 1 {
			cmd.Alias = fields[1]
		}
		return cmd
	default:
		return RepoCommand{Action: RepoHelp}
	}
}
