package cases

import (
	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog/log"

	"pmatch/pkg/errors"
)

// Watcher reloads a case file whenever it changes on disk.
type Watcher struct {
	path string
	fp   *file.File
}

// Watch calls fn with the freshly parsed file after every change to path.
// A file that fails to parse is reported through err and the previous
// cases stay in effect for the caller to decide.
func Watch(path string, fn func(f *File, err error)) (*Watcher, error) {
	fp := file.Provider(path)
	err := fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			fn(nil, errors.Wrapf(err, errors.ErrCasesLoad, "watching %s", path))
			return
		}
		log.Info().Str("path", path).Msg("case file changed, reloading")
		fn(Load(path))
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCasesLoad, "watching %s", path)
	}
	return &Watcher{path: path, fp: fp}, nil
}

func (w *Watcher) Close() error { return w.fp.Unwatch() }
