package command

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/ds124wfegd/image-transform/internal/entity"
)

const (
	DefaultPrefix    = "/static-file-transform"
	DefaultExtension = "png"
)

// Builder binds a chain to one master image and renders the URL under which
// the rendition is served.
type Builder struct {
	chain     Chain
	objectID  int64
	name      string
	extension string
	prefix    string
	baseURL   string
}

func NewBuilder(master *entity.MasterImage) *Builder {
	return &Builder{
		objectID: master.ID,
		name:     master.Name,
		prefix:   DefaultPrefix,
	}
}

func (b *Builder) WithExtension(ext string) *Builder {
	b.extension = strings.TrimPrefix(ext, ".")
	return b
}

func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = NormalizePrefix(prefix)
	return b
}

// NormalizePrefix turns a configured route prefix into "/<prefix>", or ""
// when the rendition routes live at the root.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// WithBaseURL makes URL return an absolute URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = strings.TrimRight(baseURL, "/")
	return b
}

func (b *Builder) Thumbnail(width, height uint, filter ...entity.FilterMode) *Builder {
	b.chain.Thumbnail(width, height, filter...)
	return b
}

func (b *Builder) Resize(width, height uint, filter ...entity.FilterMode) *Builder {
	b.chain.Resize(width, height, filter...)
	return b
}

func (b *Builder) Fit(width, height uint, filter ...entity.FilterMode) *Builder {
	b.chain.Fit(width, height, filter...)
	return b
}

// Validate reports whether the bound chain would produce a URL that parses
// back into the same chain.
func (b *Builder) Validate() error {
	return b.chain.Validate()
}

func (b *Builder) Chain() *Chain {
	return &b.chain
}

// Extension resolves the output extension: the explicit one, else the
// master's own file extension, else png.
func (b *Builder) Extension() string {
	if b.extension != "" {
		return b.extension
	}
	if ext := strings.TrimPrefix(path.Ext(b.name), "."); ext != "" {
		return ext
	}
	return DefaultExtension
}

// URL renders <prefix>/<id>/<commands>.<ext>, with extra as the query string.
func (b *Builder) URL(extra url.Values) string {
	var sb strings.Builder
	sb.WriteString(b.baseURL)
	sb.WriteString(b.prefix)
	sb.WriteString("/")
	sb.WriteString(strconv.FormatInt(b.objectID, 10))
	sb.WriteString("/")
	sb.WriteString(b.chain.String())
	sb.WriteString(".")
	sb.WriteString(b.Extension())
	if len(extra) > 0 {
		sb.WriteString("?")
		sb.WriteString(extra.Encode())
	}
	return sb.String()
}

func (b *Builder) String() string {
	return b.URL(nil)
}
