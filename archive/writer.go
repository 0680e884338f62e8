package archive

import (
	"fmt"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/sys"
)

// Append writes rec as one line to folder/filename, creating both on demand.
// A missing timestamp is taken from the archive clock.
func (a *Archive) Append(folder Folder, filename string, rec Record) error {
	if rec.Timestamp == "" {
		rec.Timestamp = a.clock.Stamp()
	}

	unlock := a.lock(folder.Path)
	defer unlock()

	if err := os.MkdirAll(folder.Path, 0o755); err != nil {
		sys.LogArchiveError(sys.MsgArchiveFolderFail, folder.Path, err)
		return a.fail(folder, fmt.Errorf("create folder %s: %w", folder.Path, err))
	}

	path := folder.File(filename)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		sys.LogArchiveError(sys.MsgArchiveWriteFail, path, err)
		return a.fail(folder, fmt.Errorf("open %s: %w", path, err))
	}

	_, err = f.WriteString(rec.String() + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		sys.LogArchiveError(sys.MsgArchiveWriteFail, path, err)
		return a.fail(folder, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

// Record appends rec to today's file in folder.
func (a *Archive) Record(folder Folder, rec Record) error {
	t := a.clock.now()
	if rec.Timestamp == "" {
		rec.Timestamp = t.Format(DateLayout) + " " + t.Format(TimeLayout)
	}
	return a.Append(folder, DailyFile(t.Format(DateLayout)), rec)
}

// Audit appends rec to the guild's admin folder.
func (a *Archive) Audit(guildID snowflake.ID, rec Record) error {
	return a.Record(a.AdminFolder(guildID), rec)
}

func (a *Archive) fail(folder Folder, err error) error {
	if a.reporter != nil {
		a.reporter.ReportWriteFailure(folder, err)
	}
	return err
}
