package archive

import (
	"path/filepath"

	"github.com/disgoorg/snowflake/v2"
)

const (
	// AdminScope is the channel token of a guild's audit folder.
	AdminScope = "admin"
	// AllDates asks for every dated file of a folder at once.
	AllDates = "all"
	// CombinedFile is the derived output of Combine and never a source.
	CombinedFile = "combined.log"
	logExt       = ".log"
)

// Folder is a resolved per-guild log folder.
type Folder struct {
	GuildID snowflake.ID
	Channel string
	Path    string
}

// IsAdmin reports whether the folder is the guild's audit scope.
func (f Folder) IsAdmin() bool {
	return isAdminToken(f.Channel)
}

// File joins a file name onto the folder path.
func (f Folder) File(name string) string {
	return filepath.Join(f.Path, name)
}

// DailyFile names the log file of one date.
func DailyFile(date string) string {
	return date + logExt
}

// ChannelFolder resolves <root>/<guild>/<channel>. The channel may be the
// AdminScope token.
func (a *Archive) ChannelFolder(guildID snowflake.ID, channel string) Folder {
	if isAdminToken(channel) {
		return a.AdminFolder(guildID)
	}
	return Folder{
		GuildID: guildID,
		Channel: channel,
		Path:    filepath.Join(a.root, guildID.String(), channel),
	}
}

// AdminFolder resolves the guild's audit folder.
func (a *Archive) AdminFolder(guildID snowflake.ID) Folder {
	return Folder{
		GuildID: guildID,
		Channel: AdminScope,
		Path:    filepath.Join(a.root, guildID.String(), AdminScope),
	}
}

func (a *Archive) guildRoot(guildID snowflake.ID) string {
	return filepath.Join(a.root, guildID.String())
}
