package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"brewspot/config"
)

var errPhotoTooLarge = errors.New("photo too large")

// Photo is a downloaded listing image ready to be sent inline to the model.
type Photo struct {
	URL      string
	Data     []byte
	MIMEType string
}

// PhotoFetcher downloads listing photos for the vision prompt.
type PhotoFetcher struct {
	client    *resty.Client
	maxPhotos int
	maxBytes  int64
}

// NewPhotoFetcher builds a fetcher whose downloads stop once MaxPhotoBytes is
// exceeded, so an oversized image is never buffered in full.
func NewPhotoFetcher(cfg config.LLMConfig) *PhotoFetcher {
	client := resty.New().
		SetDebug(false).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "image/*")
	if cfg.MaxPhotoBytes > 0 {
		client.SetTransport(&contentLengthCap{
			base: http.DefaultTransport.(*http.Transport).Clone(),
			max:  cfg.MaxPhotoBytes,
		})
		client.SetResponseBodyLimit(int(cfg.MaxPhotoBytes))
	}
	return &PhotoFetcher{
		client:    client,
		maxPhotos: cfg.MaxPhotos,
		maxBytes:  cfg.MaxPhotoBytes,
	}
}

// contentLengthCap rejects responses that announce a body larger than max
// before any of it is read.
type contentLengthCap struct {
	base http.RoundTripper
	max  int64
}

func (t *contentLengthCap) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.ContentLength > t.max {
		res.Body.Close()
		return nil, fmt.Errorf("%w: content-length %d", errPhotoTooLarge, res.ContentLength)
	}
	return res, nil
}

// Fetch downloads up to maxPhotos images in order. Photos that fail, are too
// large or are not images are skipped; ErrNoPhotos is returned if none remain.
func (f *PhotoFetcher) Fetch(ctx context.Context, urls []string) ([]Photo, error) {
	photos := make([]Photo, 0, f.maxPhotos)
	for _, u := range urls {
		if f.maxPhotos > 0 && len(photos) >= f.maxPhotos {
			break
		}
		p, err := f.fetchOne(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			config.Logger.Warnf("photo skipped %s: %v", u, err)
			continue
		}
		photos = append(photos, p)
	}
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	return photos, nil
}

func (f *PhotoFetcher) fetchOne(ctx context.Context, url string) (Photo, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return Photo{}, fmt.Errorf("%w: more than %d bytes", errPhotoTooLarge, f.maxBytes)
		}
		return Photo{}, err
	}
	if res.IsError() {
		return Photo{}, fmt.Errorf("request failed: %s", res.Status())
	}
	body := res.Body()
	if len(body) == 0 {
		return Photo{}, fmt.Errorf("empty body")
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return Photo{}, fmt.Errorf("%w: %d bytes", errPhotoTooLarge, len(body))
	}

	mime := strings.TrimSpace(strings.Split(res.Header().Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(body)
	}
	if !strings.HasPrefix(mime, "image/") {
		return Photo{}, fmt.Errorf("not an image: %s", mime)
	}
	return Photo{URL: url, Data: body, MIMEType: mime}, nil
}
