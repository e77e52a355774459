// Package cases loads ordered pattern/result lists from YAML, TOML or JSON
// files and builds them into dispatchers.
package cases

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/knadh/koanf/providers/file"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"pmatch/internal/builtin"
	"pmatch/pkg/errors"
	"pmatch/pkg/matcher"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Entry is one alternative. A nil Result makes the case return its
// captures; otherwise Result is returned with "$N" strings replaced by
// capture N (1-based).
type Entry struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Result  any    `json:"result,omitempty" yaml:"result,omitempty" toml:"result,omitempty"`
}

// File is a case file. Extractors names the built-in extractors the cases
// rely on.
type File struct {
	Extractors []string `json:"extractors,omitempty" yaml:"extractors,omitempty" toml:"extractors,omitempty"`
	Cases      []Entry  `json:"cases" yaml:"cases" toml:"cases"`
}

// FormatOf picks a format from the file extension. Unknown extensions are
// read as YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

func Parse(data []byte, format Format) (*File, error) {
	var (
		f   File
		err error
	)
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	default:
		return nil, errors.Newf(errors.ErrCasesLoad, "unknown case file format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCasesLoad, "decoding %s cases", format)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the case file at path.
func Load(path string) (*File, error) {
	data, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCasesLoad, "reading %s", path)
	}
	f, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("cases", len(f.Cases)).Msg("loaded case file")
	return f, nil
}

func (f *File) Validate() error {
	if len(f.Cases) == 0 {
		return errors.New(errors.ErrCasesLoad, "case file has no cases")
	}
	for i, c := range f.Cases {
		if strings.TrimSpace(c.Pattern) == "" {
			return errors.Newf(errors.ErrCasesLoad, "case %d has no pattern", i).WithDetail("case", i)
		}
	}
	return nil
}

// Build compiles every case on env into one dispatcher, in file order,
// after registering the built-in extractors the file asks for.
func (f *File) Build(env *matcher.Env) (*matcher.Dispatcher, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(f.Extractors) > 0 {
		if err := builtin.Register(env.Runtime.Extractors, f.Extractors...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCasesLoad, "registering extractors")
		}
	}
	list := make([]matcher.Case, len(f.Cases))
	for i, c := range f.Cases {
		list[i] = matcher.Case{Pattern: c.Pattern, Handler: c.handler()}
	}
	d, err := env.Cases(list)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCasesLoad, "building dispatcher")
	}
	return d, nil
}

func (e Entry) handler() matcher.Handler {
	if e.Result == nil {
		return matcher.Captures
	}
	return func(caps ...any) (any, error) {
		return render(e.Result, caps), nil
	}
}

var captureRef = regexp.MustCompile(`^\$([1-9][0-9]*)$`)

func render(tmpl any, caps []any) any {
	switch t := tmpl.(type) {
	case string:
		m := captureRef.FindStringSubmatch(t)
		if m == nil {
			return t
		}
		i, _ := strconv.Atoi(m[1])
		if i > len(caps) {
			return nil
		}
		return caps[i-1]
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = render(v, caps)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = render(v, caps)
		}
		return out
	default:
		return tmpl
	}
}
