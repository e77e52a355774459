// Package builtin holds the extractors pmatch ships with. None is
// registered until asked for.
package builtin

import (
	"net/mail"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"pmatch/pkg/errors"
	"pmatch/pkg/runtime"
)

var extractors = map[string]runtime.Extractor{
	"email":  email,
	"domain": domain,
	"etld1":  etld1,
	"int":    integer,
	"number": number,
	"trim":   stringFunc(strings.TrimSpace),
	"lower":  stringFunc(strings.ToLower),
	"json":   decodeJSON,
}

// Names lists the built-in extractor names, sorted.
func Names() []string {
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds the named built-ins to ex, or all of them when names is
// empty.
func Register(ex *runtime.Extractors, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		fn, ok := extractors[name]
		if !ok {
			return errors.Newf(errors.ErrNotFound, "no built-in extractor %q", name).WithDetail("extractor", name)
		}
		if err := ex.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// email passes {user, host} for a bare address like "ann@example.org".
func email(v any, pass runtime.PassFunc) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return nil
	}
	user, host, ok := strings.Cut(addr.Address, "@")
	if !ok {
		return nil
	}
	return pass(map[string]any{"user": user, "host": host})
}

// domain passes the lower case ASCII form of a host name.
func domain(v any, pass runtime.PassFunc) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(s, "."))
	if err != nil || ascii == "" {
		return nil
	}
	return pass(ascii)
}

// etld1 passes the registrable domain: "a.b.example.co.uk" gives
// "example.co.uk".
func etld1(v any, pass runtime.PassFunc) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(s, "."))
	if err != nil {
		return nil
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return nil
	}
	return pass(reg)
}

// integer passes integral numbers and decimal integer strings as float64.
func integer(v any, pass runtime.PassFunc) any {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil
		}
		return pass(float64(n))
	}
	f, ok := runtime.AsNumber(v)
	if !ok || f != float64(int64(f)) {
		return nil
	}
	return pass(f)
}

func number(v any, pass runtime.PassFunc) any {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		return pass(f)
	}
	if f, ok := runtime.AsNumber(v); ok {
		return pass(f)
	}
	return nil
}

func stringFunc(fn func(string) string) runtime.Extractor {
	return func(v any, pass runtime.PassFunc) any {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return pass(fn(s))
	}
}

func decodeJSON(v any, pass runtime.PassFunc) any {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return pass(out)
}
