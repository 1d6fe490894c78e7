package treecopy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
	"github.com/paulschiretz/pgl-treecopy/pkg/util"
)

// copyDirectory creates the destination directory, then walks the source
// directory once and submits one task per directory or regular file found.
// It never waits for the tasks it submits.
func (r *run) copyDirectory(ctx context.Context, t Task, res *Result) error {
	src, dst := t.Arg.Source, t.Arg.Destination

	// No lock and no cache: concurrent creators of the same path are
	// reconciled by tolerating "already exists".
	if err := util.MkdirTolerant(dst, util.CopyDirPerms); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dst, err)
	}
	r.metrics.AddDirsCreated(1)

	plog.Info("copy_directory start", "task", t.ID, "src", src)

	dir, err := r.retry.OpenDir(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", src, err)
	}
	defer dir.Close()

	// Scratch space for the joined child paths; the longest one is a
	// parent path plus separator plus a maximum-length name.
	scratch := r.pathPool.Get(max(len(src), len(dst)) + 1 + nameMax(src))
	defer r.pathPool.Put(scratch)

	var enumErr error
	for enumErr == nil {
		entries, err := dir.ReadDir(readDirBatch)
		for _, entry := range entries {
			r.spawnEntry(t, entry, scratch, res)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			enumErr = fmt.Errorf("failed to read directory %s: %w", src, err)
		}
	}

	// Enumeration errors end this directory early but the entries seen so far
	// have been handed out, so the task still reports its finish line.
	plog.Info("copy_directory finish", "task", t.ID, "src", src)
	return enumErr
}

// spawnEntry classifies one directory entry and submits the matching task.
// Every failure here is local to the entry.
func (r *run) spawnEntry(parent Task, entry fs.DirEntry, scratch *[]byte, res *Result) {
	name := entry.Name()
	if name == "." || name == ".." {
		return
	}

	srcPath := joinInto(scratch, parent.Arg.Source, name)
	dstPath := joinInto(scratch, parent.Arg.Destination, name)

	// Follows symlinks; a dangling link fails here and is skipped.
	info, err := os.Stat(srcPath)
	if err != nil {
		res.Skipped++
		r.metrics.AddEntriesSkipped(1)
		plog.Warn("SKIP", "reason", "failed to stat entry", "task", parent.ID, "src", srcPath, "error", err)
		return
	}

	// The type recorded in the directory stream decides traversal, so
	// symlinks are never followed even when they point at a directory.
	entryType := entry.Type()
	if !entryType.IsDir() && !entryType.IsRegular() {
		res.Skipped++
		r.metrics.AddEntriesSkipped(1)
		plog.Notice("SKIP", "reason", "not a regular file or directory", "task", parent.ID, "src", srcPath, "type", entryType.String())
		return
	}

	var kind TaskKind
	switch {
	case info.IsDir():
		kind = DirectoryTask
	case info.Mode().IsRegular():
		kind = FileTask
	default:
		// Changed type between readdir and stat.
		res.Skipped++
		r.metrics.AddEntriesSkipped(1)
		plog.Notice("SKIP", "reason", "entry changed type during enumeration", "task", parent.ID, "src", srcPath, "mode", info.Mode().String())
		return
	}

	child := Task{
		ID:       r.nextID(),
		ParentID: parent.ID,
		Kind:     kind,
		Arg:      Argument{Source: srcPath, Destination: dstPath},
	}
	if err := r.sched.submit(child); err != nil {
		plog.Error("Failed to spawn task", "task", parent.ID, "kind", kind.String(), "src", srcPath, "error", err)
		return
	}
	res.Spawned++
	r.metrics.AddTasksSpawned(1)
}

// joinInto builds dir + separator + name in scratch and returns it as a new
// string. The returned string does not share memory with scratch.
func joinInto(scratch *[]byte, dir, name string) string {
	b := append((*scratch)[:0], dir...)
	if len(dir) > 0 && !os.IsPathSeparator(dir[len(dir)-1]) {
		b = append(b, os.PathSeparator)
	}
	b = append(b, name...)
	*scratch = b
	return string(b)
}
