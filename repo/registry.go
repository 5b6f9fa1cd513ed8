// Package repo tracks the named repository contexts the bridge can operate
// on. One static definition is always addressable as "default"; further
// aliases are added at runtime and persisted to a JSON store.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wbaxter3/codex-telegram-bridge/command"
	"github.com/wbaxter3/codex-telegram-bridge/errors"
	"github.com/wbaxter3/codex-telegram-bridge/git"
	"github.com/wbaxter3/codex-telegram-bridge/logging"
)

// ReservedName always resolves to the statically configured definition and
// can never be stored as an alias.
const ReservedName = "default"

// Definition addresses one version-controlled working directory plus the
// branch and remote used for ahead-count and push operations.
type Definition struct {
	Dir    string `json:"dir"`
	Branch string `json:"branch"`
	Remote string `json:"remote"`
}

// Alias pairs a normalized alias name with its definition, for listings.
type Alias struct {
	Name       string
	Definition Definition
	Active     bool
}

// manifest is the persisted shape of the alias store.
type manifest struct {
	Aliases map[string]Definition `json:"aliases"`
	Active  *string               `json:"active"`
}

// Registry holds the alias map and the active selection. Mutations are
// serialized by the bridge's single-flight gate; the registry itself only
// guards its persistence format.
type Registry struct {
	path      string
	defaultDef Definition
	aliases   map[string]Definition
	active    string // empty means the reserved default
	runner    *command.Runner
	logger    *logrus.Entry
}

// NewRegistry creates a Registry persisting to path, with def as the
// reserved default definition.
func NewRegistry(path string, def Definition, runner *command.Runner) *Registry {
	return &Registry{
		path:       path,
		defaultDef: def,
		aliases:    make(map[string]Definition),
		runner:     runner,
		logger:     logging.NewLogger("repo-registry"),
	}
}

// Normalize trims and case-folds an alias name for lookup and storage.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads the persisted alias store. A corrupt store is backed up under a
// timestamped name and the registry continues empty.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read alias store: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		corrupt := errors.StoreCorrupt(r.path, err)
		backup := fmt.Sprintf("%s.corrupt-%s", r.path, time.Now().Format("20060102-150405"))
		if renameErr := os.Rename(r.path, backup); renameErr != nil {
			r.logger.WithError(renameErr).Warn("Failed to back up corrupt alias store")
		} else {
			r.logger.WithError(corrupt).WithField("backup", backup).Warn("Alias store was corrupt, starting empty")
		}
		return nil
	}

	if m.Aliases != nil {
		r.aliases = m.Aliases
	}
	if m.Active != nil {
		r.active = *m.Active
	}
	return nil
}

// Save writes the full alias store.
func (r *Registry) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("create alias store directory: %w", err)
	}

	m := manifest{Aliases: r.aliases}
	if r.active != "" {
		m.Active = &r.active
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alias store: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write alias store: %w", err)
	}
	return nil
}

// Active returns the name and definition of the active repository context.
func (r *Registry) Active() (string, Definition) {
	if r.active == "" {
		return ReservedName, r.defaultDef
	}
	if def, ok := r.aliases[r.active]; ok {
		return r.active, def
	}
	// Stored active alias disappeared; fall back to the default.
	return ReservedName, r.defaultDef
}

// Resolve returns the definition for a (possibly unnormalized) alias name.
func (r *Registry) Resolve(name string) (Definition, error) {
	name = Normalize(name)
	if name == ReservedName {
		return r.defaultDef, nil
	}
	def, ok := r.aliases[name]
	if !ok {
		return Definition{}, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown repository alias %q", name)).
			WithDetail("alias", name)
	}
	return def, nil
}

// AddAlias validates and persists a new alias. The reserved name, empty
// paths, and directories without a git marker are rejected.
func (r *Registry) AddAlias(ctx context.Context, name string, def Definition) error {
	name = Normalize(name)
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "alias name cannot be empty")
	}
	if name == ReservedName {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("%q is reserved and cannot be redefined", ReservedName))
	}
	if strings.TrimSpace(def.Dir) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "repository path cannot be empty")
	}
	if !git.NewContext(r.runner, def.Dir).IsRepo(ctx) {
		return errors.NotARepository(def.Dir)
	}

	if def.Branch == "" {
		def.Branch = r.defaultDef.Branch
	}
	if def.Remote == "" {
		def.Remote = r.defaultDef.Remote
	}

	r.aliases[name] = def
	if err := r.Save(); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{"alias": name, "dir": def.Dir}).Info("Added repository alias")
	return nil
}

// SwitchActive validates the target's git marker again and makes it the
// active repository context. The caller is responsible for clearing session
// state, since conversation history is tied to a repository context.
func (r *Registry) SwitchActive(ctx context.Context, name string) (Definition, error) {
	name = Normalize(name)

	def, err := r.Resolve(name)
	if err != nil {
		return Definition{}, err
	}
	if !git.NewContext(r.runner, def.Dir).IsRepo(ctx) {
		return Definition{}, errors.NotARepository(def.Dir)
	}

	if name == ReservedName {
		r.active = ""
	} else {
		r.active = name
	}
	if err := r.Save(); err != nil {
		return Definition{}, err
	}
	r.logger.WithField("alias", name).Info("Switched active repository")
	return def, nil
}

// RemoveAlias removes an alias. When the alias is currently active, the
// active selection falls back to the reserved default and the returned flag
// is true so the caller knows to clear session state.
func (r *Registry) RemoveAlias(name string) (fellBack bool, err error) {
	name = Normalize(name)
	if name == ReservedName {
		return false, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("%q cannot be removed", ReservedName))
	}
	if _, ok := r.aliases[name]; !ok {
		return false, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown repository alias %q", name)).
			WithDetail("alias", name)
	}

	delete(r.aliases, name)
	if r.active == name {
		r.active = ""
		fellBack = true
	}
	if err := r.Save(); err != nil {
		return fellBack, err
	}
	r.logger.WithFields(logrus.Fields{"alias": name, "fellBack": fellBack}).Info("Removed repository alias")
	return fellBack, nil
}

// List returns every addressable context, the reserved default first and the
// rest sorted by name.
func (r *Registry) List() []Alias {
	activeName, _ := r.Active()

	aliases := []Alias{{
		Name:       ReservedName,
		Definition: r.defaultDef,
		Active:     activeName == ReservedName,
	}}

	names := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		aliases = append(aliases, Alias{
			Name:       name,
			Definition: r.aliases[name],
			Active:     name == activeName,
		})
	}
	return aliases
}
