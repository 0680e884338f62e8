package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leeineian/logbot/sys"
)

// Erase removes folder and everything in it. The admin scope, the guild
// folder and the log root are never removed.
func (a *Archive) Erase(folder Folder) error {
	if a.protected(folder) {
		sys.LogArchiveError(sys.MsgArchiveEraseForbidden, folder.Path)
		return ErrForbidden
	}

	unlock := a.lock(folder.Path)
	defer unlock()

	if err := os.RemoveAll(folder.Path); err != nil {
		sys.LogArchiveError(sys.MsgArchiveEraseFail, folder.Path, err)
		return fmt.Errorf("remove %s: %w", folder.Path, err)
	}
	sys.LogArchive(sys.MsgArchiveErased, folder.Path)
	return nil
}

func (a *Archive) protected(folder Folder) bool {
	if folder.IsAdmin() {
		return true
	}
	path := filepath.Clean(folder.Path)
	if strings.EqualFold(path, filepath.Clean(a.AdminFolder(folder.GuildID).Path)) {
		return true
	}
	if strings.EqualFold(filepath.Base(path), AdminScope) {
		return true
	}
	for _, p := range []string{a.root, a.guildRoot(folder.GuildID)} {
		if path == filepath.Clean(p) {
			return true
		}
	}
	// anything outside <root>/<guild>/ is not a channel folder
	rel, err := filepath.Rel(a.guildRoot(folder.GuildID), path)
	return err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator)
}

func isAdminToken(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), AdminScope)
}
