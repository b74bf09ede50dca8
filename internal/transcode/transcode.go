// Package transcode downloads generated artwork and re-encodes it to JPEG.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const ContentTypeJPEG = "image/jpeg"

var (
	ErrFetch  = errors.New("failed to download image")
	ErrDecode = errors.New("failed to decode image")
	ErrEncode = errors.New("failed to encode image")
)

type Options struct {
	Quality  int
	Timeout  time.Duration
	MaxBytes int64
	// Local images are encoded in place of downloading their location.
	Local map[string]image.Image
}

type Fetcher struct {
	httpClient *http.Client
	opts       Options
}

func New(httpClient *http.Client, opts Options) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{
		httpClient: httpClient,
		opts:       opts,
	}
}

// FetchAndTranscode downloads location, or takes it from Options.Local, and
// returns it re-encoded as JPEG. Download failures are returned as errors.
func (f *Fetcher) FetchAndTranscode(ctx context.Context, location string) ([]byte, string, error) {
	if img, ok := f.opts.Local[location]; ok {
		data, err := encodeJPEG(img, f.opts.Quality)
		if err != nil {
			return nil, "", err
		}
		return data, ContentTypeJPEG, nil
	}

	raw, err := f.fetch(ctx, location)
	if err != nil {
		return nil, "", err
	}

	data, err := Transcode(raw, f.opts.Quality)
	if err != nil {
		return nil, "", err
	}

	return data, ContentTypeJPEG, nil
}

func (f *Fetcher) fetch(ctx context.Context, location string) ([]byte, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err.Error())
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.opts.MaxBytes+1)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err.Error())
	}
	if f.opts.MaxBytes > 0 && int64(len(raw)) > f.opts.MaxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, f.opts.MaxBytes)
	}

	return raw, nil
}

// Transcode decodes any registered image format and encodes it as JPEG at quality.
func Transcode(raw []byte, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}

	return encodeJPEG(img, quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncode, err.Error())
	}

	return buf.Bytes(), nil
}
