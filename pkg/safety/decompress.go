package safety

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"gdelt/pkg/apperror"
)

// Limits bounds a single decompression operation.
type Limits struct {
	// MaxCompressedBytes caps the compressed input size.
	MaxCompressedBytes int64
	// MaxDecompressedBytes caps the cumulative decompressed output size.
	MaxDecompressedBytes int64
	// MaxRatio caps decompressed/compressed, checked incrementally.
	MaxRatio float64
}

// checkChunkSize is the increment at which the decompression guard
// re-evaluates its size and ratio caps.
const checkChunkSize = 64 * 1024

// boundedReader wraps an io.Reader and aborts with DecompressBomb the
// moment either the absolute size cap or the decompression-ratio cap is
// exceeded, checked every checkChunkSize bytes read.
type boundedReader struct {
	src             io.Reader
	compressedSize  int64
	limits          Limits
	decompressedLen int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if len(p) > checkChunkSize {
		p = p[:checkChunkSize]
	}
	n, err := b.src.Read(p)
	if n > 0 {
		b.decompressedLen += int64(n)
		if b.decompressedLen > b.limits.MaxDecompressedBytes {
			return n, apperror.New(apperror.CodeDecompressBomb,
				"decompressed size exceeds cap")
		}
		if b.compressedSize > 0 {
			ratio := float64(b.decompressedLen) / float64(b.compressedSize)
			if ratio > b.limits.MaxRatio {
				return n, apperror.New(apperror.CodeDecompressBomb,
					"decompression ratio exceeds cap")
			}
		}
	}
	return n, err
}

// GunzipBounded decompresses a single-stream gzip blob under limits,
// returning the decompressed bytes or a DecompressBomb error mid-extraction.
func GunzipBounded(compressed []byte, limits Limits) ([]byte, error) {
	if int64(len(compressed)) > limits.MaxCompressedBytes {
		return nil, apperror.New(apperror.CodeDecompressBomb, "compressed size exceeds cap")
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeDecompressBomb, "invalid gzip stream")
	}
	defer gz.Close()

	guarded := &boundedReader{
		src:            gz,
		compressedSize: int64(len(compressed)),
		limits:         limits,
	}

	out, err := io.ReadAll(guarded)
	if err != nil {
		if apperror.Is(err, apperror.CodeDecompressBomb) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.CodeDecompressBomb, "gzip read failed")
	}
	return out, nil
}

// UnzipSingleBounded decompresses the one entry of a single-file zip
// archive under limits. A zip archive holding more than one entry is
// rejected as malformed.
func UnzipSingleBounded(compressed []byte, limits Limits) ([]byte, error) {
	if int64(len(compressed)) > limits.MaxCompressedBytes {
		return nil, apperror.New(apperror.CodeDecompressBomb, "compressed size exceeds cap")
	}

	zr, err := zip.NewReader(bytes.NewReader(compressed), int64(len(compressed)))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeDecompressBomb, "invalid zip stream")
	}
	if len(zr.File) != 1 {
		return nil, apperror.New(apperror.CodeDecompressBomb,
			"zip archive must contain exactly one file, found multiple entries")
	}

	entry := zr.File[0]
	rc, err := entry.Open()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeDecompressBomb, "failed to open zip entry")
	}
	defer rc.Close()

	guarded := &boundedReader{
		src:            rc,
		compressedSize: int64(entry.CompressedSize64),
		limits:         limits,
	}

	out, err := io.ReadAll(guarded)
	if err != nil {
		if apperror.Is(err, apperror.CodeDecompressBomb) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.CodeDecompressBomb, "zip read failed")
	}
	return out, nil
}
