package asset

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// A Resource wraps a stream backed by a local file or a remote http(s) URL.
// Scene descriptions and the meshes they reference are loaded through
// resources so that relative references resolve against the referencing file.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Path returns the resolved location of this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Ext returns the lowercase file extension of this resource including the dot.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// IsRemote returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is not nil and pathToResource does not define a
// scheme, the location is resolved against the directory containing relTo.
//
// The caller must close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	loc, err := resolve(pathToResource, relTo)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(loc.String())
		if err != nil {
			return nil, errors.Errorf("resource: could not fetch '%s': %s", loc.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch '%s': status %d", loc.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Errorf("resource: unsupported scheme '%s'", loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

// Create a resource from an in-memory stream. The name is only used for
// reporting and for resolving relative references.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(filepath.ToSlash(name))
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
	}
}

func resolve(pathToResource string, relTo *Resource) (*url.URL, error) {
	loc, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: invalid location %q", pathToResource)
	}

	if loc.Scheme != "" || relTo == nil || filepath.IsAbs(loc.Path) {
		return loc, nil
	}

	// Clone parent location and replace its path
	rel := *relTo.url
	prefix := rel.Path
	if rel.Scheme == "" {
		if prefix, err = filepath.Abs(relTo.url.Path); err != nil {
			return nil, errors.Wrapf(err, "resource: could not detect abs path for %s", relTo.Path())
		}
	}
	rel.Path = path.Join(filepath.ToSlash(filepath.Dir(prefix)), loc.Path)
	rel.RawPath = ""
	return &rel, nil
}
