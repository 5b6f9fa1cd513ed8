package git

import "path/filepath"

// PinnedEnv returns environment variables that pin git's directory pointers
// to the given working directory. The task executor inherits these so it
// cannot silently redirect its git context at a different repository, and
// the safety checker queries the same pinned context before confirming a
// push.
func PinnedEnv(dir string) []string {
	return []string{
		"GIT_DIR=" + filepath.Join(dir, ".git"),
		"GIT_WORK_TREE=" + dir,
	}
}
