package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func TestSanitizeEntryName(t *testing.T) {
	cases := map[string]string{
		"a/b/c.txt":         "a/b/c.txt",
		"/a/b.txt":          "a/b.txt",
		"../../etc/passwd":  "etc/passwd",
		"a/../b.txt":        "a/b.txt",
		"./a.txt":           "a.txt",
		"C:/windows/sys":    "windows/sys",
		"..":                "",
		".":                 "",
		"\\a\\b.txt":        "a/b.txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeEntryName(in), "input %q", in)
	}
}

type fakeGetBackend struct {
	backend.Backend
	objects map[string][]byte
}

func (f *fakeGetBackend) GetStream(_ context.Context, key string) (io.ReadCloser, uint64, error) {
	data := f.objects[key]
	return io.NopCloser(bytes.NewReader(data)), uint64(len(data)), nil
}

func TestPackProducesValidZip(t *testing.T) {
	be := &fakeGetBackend{objects: map[string][]byte{
		"k1": []byte("file one contents"),
		"k2": []byte("file two contents"),
	}}
	packer := NewPacker(be, 0)

	// Packing directory "reports" (itself at the root, ParentPath ""):
	// its descendants keep "reports" as the archive root.
	descendants := []catalog.Record{
		{ParentPath: "reports", Name: "a.txt", StorageKey: "k1", SizeBytes: 18},
		{ParentPath: "reports/q1", Name: "b.txt", StorageKey: "k2", SizeBytes: 18},
	}

	var buf bytes.Buffer
	require.NoError(t, packer.Pack(context.Background(), &buf, "", descendants))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["reports/a.txt"])
	assert.True(t, names["reports/q1/b.txt"])
}

func TestPackRejectsOversizedTotal(t *testing.T) {
	be := &fakeGetBackend{objects: map[string][]byte{}}
	packer := NewPacker(be, 10)

	descendants := []catalog.Record{
		{ParentPath: "d", Name: "big.bin", StorageKey: "k1", SizeBytes: 1000},
	}
	var buf bytes.Buffer
	err := packer.Pack(context.Background(), &buf, "", descendants)
	assert.ErrorIs(t, err, ErrTooLarge)
}
