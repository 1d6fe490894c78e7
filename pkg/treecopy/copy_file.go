package treecopy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/paulschiretz/pgl-treecopy/pkg/fdretry"
	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
	"github.com/paulschiretz/pgl-treecopy/pkg/util"
)

// copyFile streams one regular file into its destination in fixed-size chunks.
// The destination is created or truncated with CopyFilePerms; the source's own
// mode and timestamps are not carried over.
func (r *run) copyFile(ctx context.Context, t Task, res *Result) error {
	src, dst := t.Arg.Source, t.Arg.Destination
	plog.Info("copy_file start", "task", t.ID, "src", src)

	in, out, err := r.openPair(ctx, src, dst)
	if err != nil {
		return err
	}
	defer in.Close()
	defer out.Close() // Ensure closed on error.

	bufPtr := r.chunkPool.Get()
	defer r.chunkPool.Put(bufPtr)

	written, err := copyChunks(out, in, *bufPtr)
	res.BytesCopied = written
	r.metrics.AddBytesCopied(written)
	if err != nil {
		return fmt.Errorf("failed to copy content from %s to %s: %w", src, dst, err)
	}

	// Close explicitly so a failed flush is reported instead of swallowed by the defer.
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	r.metrics.AddFilesCopied(1)
	plog.Info("copy_file finish", "task", t.ID, "src", src)
	return nil
}

// filePair is the source and destination descriptor of one file task.
type filePair struct {
	in, out *os.File
}

// openPair opens the source read-only and the destination for writing as one
// unit. When the destination open runs out of descriptors the source is
// closed again before the retry, so a waiting task never holds a descriptor
// another task needs to finish.
func (r *run) openPair(ctx context.Context, src, dst string) (*os.File, *os.File, error) {
	pair, err := fdretry.Acquire(ctx, r.retry, func() (filePair, error) {
		in, err := os.Open(src)
		if err != nil {
			return filePair{}, fmt.Errorf("failed to open source file %s: %w", src, err)
		}
		out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, util.CopyFilePerms)
		if err != nil {
			in.Close()
			return filePair{}, fmt.Errorf("failed to open destination file %s: %w", dst, err)
		}
		return filePair{in: in, out: out}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pair.in, pair.out, nil
}

// copyChunks reads len(buf) bytes at a time from src and writes them to dst
// until src reports EOF. A write that accepts fewer bytes than were read is
// an error; it is never resumed.
func copyChunks(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, fmt.Errorf("write: %w", werr)
			}
			if w != n {
				return total, fmt.Errorf("wrote %d of %d bytes: %w", w, n, io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("read: %w", rerr)
		}
	}
}
