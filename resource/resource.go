package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Remote fetches give up after this long.
var FetchTimeout = 30 * time.Second

// Resource wraps a streamable local file or remote document.
type Resource struct {
	io.ReadCloser
	url    *url.URL
	cancel context.CancelFunc
}

// Path returns the location this resource was opened from.
func (r *Resource) Path() string {
	return r.url.String()
}

// Close releases the underlying stream.
func (r *Resource) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// Open creates a resource stream for location. Locations without a scheme or
// with the file scheme are opened from disk; http and https locations are
// fetched. If relTo is non-empty and location is a relative path, location
// is resolved against the directory of relTo.
//
// The caller must close the returned resource.
func Open(ctx context.Context, location, relTo string) (*Resource, error) {
	loc, err := url.Parse(strings.Replace(location, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if loc.Scheme == "" && relTo != "" && !filepath.IsAbs(loc.Path) {
		if loc, err = resolve(loc.Path, relTo); err != nil {
			return nil, err
		}
	}

	switch loc.Scheme {
	case "", "file":
		f, err := os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, err
		}
		return &Resource{ReadCloser: f, url: loc}, nil
	case "http", "https":
		return fetch(ctx, loc)
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", loc.Scheme)
	}
}

// ReadAll opens location, resolved against relTo like Open does, and returns
// its contents.
func ReadAll(ctx context.Context, location, relTo string) ([]byte, error) {
	res, err := Open(ctx, location, relTo)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return io.ReadAll(res)
}

func resolve(path, relTo string) (*url.URL, error) {
	base, err := url.Parse(strings.Replace(relTo, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	prefix := base.Path
	if base.Scheme == "" {
		if prefix, err = filepath.Abs(base.Path); err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo, err.Error())
		}
		prefix = filepath.ToSlash(prefix)
	}

	resolved := *base
	resolved.Path = filepath.ToSlash(filepath.Dir(prefix)) + "/" + path
	return &resolved, nil
}

func fetch(ctx context.Context, loc *url.URL) (*Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", loc.String(), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", loc.String(), resp.StatusCode)
	}

	return &Resource{ReadCloser: resp.Body, url: loc, cancel: cancel}, nil
}
