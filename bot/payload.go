package bot

import (
	"fmt"
	"strings"
)

// plainPolicy guards ordinary requests: the task may inspect and modify the
// working tree but all git history operations stay with the bridge.
const plainPolicy = `You are working on the repository in the current directory.
You may read and modify files as the request demands.
Do NOT run git commit or git push, and do NOT switch to any other git repository or directory; committing and pushing are handled separately.`

// pushPolicy guards the confirmed leg of a staged push: exactly one commit,
// and the push itself stays with the bridge.
const pushPolicy = `You are working on the repository in the current directory.
Modify the files as described and create EXACTLY ONE git commit with a clear message.
Do NOT push, and do NOT use any other git repository, directory, or git configuration; the push is performed separately after you finish.`

// buildInstruction assembles the stateless instruction payload for one task
// invocation: policy, then rendered conversation context, then the request.
func buildInstruction(policy, context, request string) string {
	var b strings.Builder
	b.WriteString(policy)
	b.WriteString("\n\nConversation so far:\n")
	b.WriteString(context)
	b.WriteString("\n\nRequest:\n")
	b.WriteString(request)
	return b.String()
}

// buildPushRequest phrases a staged-push description as the task request.
func buildPushRequest(description string) string {
	return fmt.Sprintf("Apply the following change and commit it: %s", description)
}
