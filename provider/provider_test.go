package provider

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxfmt/nx/errs"
)

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}

	return data
}

func TestInputProviders(t *testing.T) {
	payload := testPayload(4096)

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	fileInput, err := FromFile(path)
	require.NoError(t, err)
	defer fileInput.Close()
	assert.Equal(t, uint64(len(payload)), fileInput.Size())

	inputs := map[string]Input{
		"slice":      FromSlice(payload),
		"bytes":      FromBytes(append([]byte(nil), payload...)),
		"readerAt":   FromReaderAt(bytes.NewReader(payload)),
		"readSeeker": FromReadSeeker(bytes.NewReader(payload)),
		"file":       fileInput,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			h, err := input.GetFileData(100, 256)
			require.NoError(t, err)
			assert.Equal(t, payload[100:356], h.Bytes())
			require.NoError(t, h.Close())

			// Whole range.
			h, err = input.GetFileData(0, uint64(len(payload)))
			require.NoError(t, err)
			assert.Equal(t, payload, h.Bytes())
			require.NoError(t, h.Close())

			// Past the end.
			_, err = input.GetFileData(uint64(len(payload))-10, 100)
			assert.Error(t, err)
		})
	}
}

func TestInputConcurrentReads(t *testing.T) {
	payload := testPayload(1 << 16)

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	fileInput, err := FromFile(path)
	require.NoError(t, err)
	defer fileInput.Close()

	for _, input := range []Input{FromSlice(payload), FromReadSeeker(bytes.NewReader(payload)), fileInput} {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				start := uint64(g * 1000)
				h, err := input.GetFileData(start, 500)
				if assert.NoError(t, err) {
					assert.Equal(t, payload[start:start+500], h.Bytes())
					h.Close()
				}
			}(g)
		}
		wg.Wait()
	}
}

func TestFileInputClosed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(path, testPayload(128), 0o644))

	input, err := FromFile(path)
	require.NoError(t, err)
	require.NoError(t, input.Close())
	require.NoError(t, input.Close())

	_, err = input.GetFileData(0, 16)
	assert.ErrorIs(t, err, errs.ErrProviderClosed)
}

type staticBlockSource struct {
	data []byte
}

func (s *staticBlockSource) Data() ([]byte, error) { return s.data, nil }

func TestFromExistingBlock(t *testing.T) {
	block := testPayload(1000)
	source := &staticBlockSource{data: block}

	// A file living at offset 200, 300 bytes long.
	input := FromExistingBlock(source, 200, 300)

	h, err := input.GetFileData(0, 300)
	require.NoError(t, err)
	assert.Equal(t, block[200:500], h.Bytes())

	h, err = input.GetFileData(50, 100)
	require.NoError(t, err)
	assert.Equal(t, block[250:350], h.Bytes())

	_, err = input.GetFileData(250, 100)
	assert.Error(t, err)
}

func TestOutputBuffer(t *testing.T) {
	entry := FileDescriptor{DecompressedSize: 1000, FirstBlockIndex: 2}
	out := NewOutputBuffer(entry)
	assert.Equal(t, entry, out.Entry())

	// Concurrent disjoint writers.
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			h, err := out.GetFileData(uint64(g*100), 100)
			if assert.NoError(t, err) {
				b := h.Bytes()
				for i := range b {
					b[i] = byte(g)
				}
				h.Close()
			}
		}(g)
	}
	wg.Wait()

	data := out.Data()
	for g := 0; g < 10; g++ {
		assert.Equal(t, byte(g), data[g*100])
		assert.Equal(t, byte(g), data[g*100+99])
	}

	_, err := out.GetFileData(950, 100)
	assert.Error(t, err)
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	entry := FileDescriptor{DecompressedSize: 512}
	out, err := NewOutputFile(path, entry)
	require.NoError(t, err)

	h, err := out.GetFileData(0, 256)
	require.NoError(t, err)
	copy(h.Bytes(), testPayload(256))
	require.NoError(t, h.Close())

	h, err = out.GetFileData(256, 256)
	require.NoError(t, err)
	copy(h.Bytes(), testPayload(512)[256:])
	require.NoError(t, h.Close())

	require.NoError(t, out.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testPayload(512), got)
}

func TestOutputFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")

	out, err := NewOutputFile(path, FileDescriptor{})
	require.NoError(t, err)
	require.NoError(t, out.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
