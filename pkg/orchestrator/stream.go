package orchestrator

import "io"

// pipe wraps io.Pipe for the directory-pack path: a goroutine writes the zip
// archive into the writer side while the caller reads the reader side. The
// file-stream path does not use it; it wraps the backend reader in a
// releasingReadCloser instead.
func pipe() (*io.PipeReader, *io.PipeWriter) {
	return io.Pipe()
}

// releasingReadCloser calls release exactly once when the wrapped stream is
// closed, whether the caller reads to EOF or aborts early — this is the
// scheduler permit's scoped release for the proxied-bytes download path
// (spec §4.6: "The permit is released when the response completes").
type releasingReadCloser struct {
	io.ReadCloser
	release func()
	done    bool
}

func (r *releasingReadCloser) Close() error {
	err := r.ReadCloser.Close()
	if !r.done {
		r.done = true
		r.release()
	}
	return err
}
