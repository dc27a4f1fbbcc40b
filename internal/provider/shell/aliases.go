// Package shell maintains the helper alias block in the operator's shell
// startup file.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// AliasSection names the managed block holding the aliases.
const AliasSection = "aliases"

// AliasesAction writes the alias block into an rc file.
type AliasesAction struct {
	fs      ports.FileSystem
	rcPath  string
	aliases map[string]string
}

// NewAliasesAction creates an AliasesAction.
func NewAliasesAction(fs ports.FileSystem, rcPath string, aliases map[string]string) *AliasesAction {
	copied := make(map[string]string, len(aliases))
	for k, v := range aliases {
		copied[k] = v
	}
	return &AliasesAction{fs: fs, rcPath: rcPath, aliases: copied}
}

// Path returns the rc file path.
func (a *AliasesAction) Path() string {
	return a.rcPath
}

func (a *AliasesAction) read() (string, error) {
	data, err := a.fs.ReadFile(a.rcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", a.rcPath, err)
	}
	return string(data), nil
}

// Satisfied reports whether the rc file already holds the exact block.
func (a *AliasesAction) Satisfied(_ context.Context) (bool, error) {
	content, err := a.read()
	if err != nil {
		return false, err
	}
	want, err := generateAliasBlock(a.aliases)
	if err != nil {
		return false, err
	}
	return HasManagedBlock(content, AliasSection) && ReadManagedBlock(content, AliasSection) == want, nil
}

// Apply writes or replaces the block. Lines outside it are preserved.
func (a *AliasesAction) Apply(_ context.Context) error {
	block, err := generateAliasBlock(a.aliases)
	if err != nil {
		return err
	}
	content, err := a.read()
	if err != nil {
		return err
	}

	updated := WriteManagedBlock(content, AliasSection, block)
	if updated == content {
		return nil
	}
	if err := a.fs.WriteFile(a.rcPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.rcPath, err)
	}
	return nil
}

// Undo removes the block.
func (a *AliasesAction) Undo(_ context.Context) error {
	content, err := a.read()
	if err != nil {
		return err
	}
	updated := RemoveManagedBlock(content, AliasSection)
	if updated == content {
		return nil
	}
	if err := a.fs.WriteFile(a.rcPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.rcPath, err)
	}
	return nil
}
