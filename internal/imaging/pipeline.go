// Package imaging turns uploaded images into data URLs small enough to store
// inline and renders cached preview thumbnails.
//
// Nothing in this package fails loudly on a bad image. Resizing reports a
// nil *File, batches skip the offending file and thumbnails fall back to the
// original input.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/metrics"
	"go.uber.org/zap"
)

const (
	// MaxBatchFiles bounds how many files one ProcessImages call looks at.
	MaxBatchFiles = 10

	// PassthroughSize is the size under which an image that already fits its
	// bounds is stored as is.
	PassthroughSize = 500 * 1024

	DefaultDecodeTimeout    = 5 * time.Second
	DefaultReadTimeout      = 10 * time.Second
	DefaultThumbnailTimeout = 5 * time.Second

	thumbnailQuality   = 90
	thumbnailKeyPrefix = 50
)

var ErrReadTimeout = errors.New("file reading timed out")

// DecodeFunc decodes an image and reports its format name.
type DecodeFunc func(r io.Reader) (image.Image, string, error)

// Pipeline validates, resizes and encodes images.
type Pipeline struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	cache   *ThumbnailCache
	decode  DecodeFunc

	decodeTimeout    time.Duration
	readTimeout      time.Duration
	thumbnailTimeout time.Duration
}

type Option func(*Pipeline)

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = logging.OrNop(log) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithCache(c *ThumbnailCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithDecoder replaces image.Decode.
func WithDecoder(fn DecodeFunc) Option {
	return func(p *Pipeline) { p.decode = fn }
}

func WithTimeouts(decode, read, thumbnail time.Duration) Option {
	return func(p *Pipeline) {
		p.decodeTimeout = decode
		p.readTimeout = read
		p.thumbnailTimeout = thumbnail
	}
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		log:              zap.NewNop(),
		decode:           image.Decode,
		decodeTimeout:    DefaultDecodeTimeout,
		readTimeout:      DefaultReadTimeout,
		thumbnailTimeout: DefaultThumbnailTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewThumbnailCache(DefaultCacheSize)
	}
	return p
}

// Cache returns the pipeline's thumbnail cache.
func (p *Pipeline) Cache() *ThumbnailCache {
	return p.cache
}

// ResizeImage scales f down to fit maxWidth×maxHeight and re-encodes it at
// quality. A file that already fits and is under PassthroughSize is returned
// unchanged. Any failure, including a decode that outlives the decode
// timeout, yields nil.
func (p *Pipeline) ResizeImage(ctx context.Context, f File, maxWidth, maxHeight, quality int) *File {
	data, err := p.read(ctx, f)
	if err != nil {
		p.log.Warn("failed to read image for resize", zap.String("file", f.Name), zap.Error(err))
		p.metrics.ImageProcessed("failed")
		return nil
	}

	img, err := p.decodeWithin(ctx, data, p.decodeTimeout)
	if err != nil {
		p.log.Warn("failed to decode image for resize", zap.String("file", f.Name), zap.Error(err))
		p.metrics.ImageProcessed("failed")
		return nil
	}

	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight && f.Size < PassthroughSize {
		p.metrics.ImageProcessed("passthrough")
		out := f
		return &out
	}

	outType, err := outputType(f.Type)
	if err != nil {
		p.log.Warn("unsupported output type", zap.String("file", f.Name), zap.String("type", f.Type))
		p.metrics.ImageProcessed("failed")
		return nil
	}

	w, h := fitWithin(b.Dx(), b.Dy(), maxWidth, maxHeight)
	encoded, err := encode(scale(img, w, h, outType == "image/jpeg"), outType, quality)
	if err != nil {
		p.log.Warn("failed to encode resized image", zap.String("file", f.Name), zap.Error(err))
		p.metrics.ImageProcessed("failed")
		return nil
	}

	p.log.Debug("resized image",
		zap.String("file", f.Name),
		zap.Int64("from_bytes", f.Size),
		zap.Int("to_bytes", len(encoded)),
		zap.Int("width", w),
		zap.Int("height", h),
	)
	p.metrics.ImageProcessed("resized")

	out := FromBytes(f.Name, outType, encoded)
	return &out
}

// FileToBase64 reads f into a data URL. It fails if reading outlives the
// read timeout.
func (p *Pipeline) FileToBase64(ctx context.Context, f File) (string, error) {
	data, err := p.read(ctx, f)
	if err != nil {
		return "", err
	}

	mediaType := f.Type
	if mediaType == "" {
		mediaType = DetectType(data)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ProcessImages converts up to MaxBatchFiles files into data URLs using the
// bounds of profile. Files with a disallowed type or over the profile's size
// limit are skipped. When resizing fails a file is encoded directly, but only
// if it is under half the size limit. Failures never abort the batch.
func (p *Pipeline) ProcessImages(ctx context.Context, files []File, profile Profile) []string {
	if len(files) > MaxBatchFiles {
		p.log.Warn("limiting image batch", zap.Int("selected", len(files)), zap.Int("limit", MaxBatchFiles))
		files = files[:MaxBatchFiles]
	}

	processed := make([]string, 0, len(files))
	for _, f := range files {
		if !IsValidImageFile(f) {
			p.log.Warn("skipping non-image file", zap.String("file", f.Name), zap.String("type", f.Type))
			p.metrics.ImageProcessed("skipped")
			continue
		}
		if f.Size > profile.MaxFileSize {
			p.log.Warn("skipping large file", zap.String("file", f.Name), zap.Int64("bytes", f.Size))
			p.metrics.ImageProcessed("skipped")
			continue
		}

		if resized := p.ResizeImage(ctx, f, profile.MaxWidth, profile.MaxHeight, profile.Quality); resized != nil {
			encoded, err := p.FileToBase64(ctx, *resized)
			if err == nil && strings.HasPrefix(encoded, "data:") {
				processed = append(processed, encoded)
				continue
			}
		}

		if f.Size >= profile.MaxFileSize/2 {
			p.log.Warn("skipping direct conversion for large file", zap.String("file", f.Name))
			p.metrics.ImageProcessed("failed")
			continue
		}

		encoded, err := p.FileToBase64(ctx, f)
		if err != nil {
			p.log.Warn("direct conversion failed", zap.String("file", f.Name), zap.Error(err))
			p.metrics.ImageProcessed("failed")
			continue
		}
		p.metrics.ImageProcessed("fallback")
		processed = append(processed, encoded)
	}

	p.log.Debug("processed images", zap.Int("processed", len(processed)), zap.Int("considered", len(files)))
	return processed
}

// GetThumbnail renders a JPEG preview of a data URL that fits in a size×size
// square. Results are cached by input prefix, size and key. Invalid input,
// decode errors and timeouts return encoded unchanged.
func (p *Pipeline) GetThumbnail(ctx context.Context, encoded string, size int, key string) string {
	if !strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	if size <= 0 {
		size = constants.DefaultThumbnailSize
	}

	prefix := encoded
	if len(prefix) > thumbnailKeyPrefix {
		prefix = prefix[:thumbnailKeyPrefix]
	}
	cacheKey := prefix + strconv.Itoa(size) + key

	if cached, ok := p.cache.Get(cacheKey); ok {
		p.metrics.ThumbnailCache("hit")
		return cached
	}
	p.metrics.ThumbnailCache("miss")

	data, err := decodeDataURL(encoded)
	if err != nil {
		p.log.Warn("invalid image data for thumbnail", zap.Error(err))
		return encoded
	}

	img, err := p.decodeWithin(ctx, data, p.thumbnailTimeout)
	if err != nil {
		p.log.Warn("failed to decode image for thumbnail", zap.Error(err))
		return encoded
	}

	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), size, size)
	out, err := encode(scale(img, w, h, true), "image/jpeg", thumbnailQuality)
	if err != nil {
		p.log.Warn("failed to encode thumbnail", zap.Error(err))
		return encoded
	}

	thumbnail := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(out)
	p.cache.Put(cacheKey, thumbnail)
	return thumbnail
}

func (p *Pipeline) read(ctx context.Context, f File) ([]byte, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rc, err := f.Open()
		if err != nil {
			done <- result{err: err}
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		done <- result{data: data, err: err}
	}()

	timer := time.NewTimer(p.readTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.data, r.err
	case <-timer.C:
		return nil, ErrReadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipeline) decodeWithin(ctx context.Context, data []byte, timeout time.Duration) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, _, err := p.decode(bytes.NewReader(data))
		done <- result{img: img, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.img, r.err
	case <-timer.C:
		return nil, fmt.Errorf("image decode timed out after %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decodeDataURL(s string) ([]byte, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}
