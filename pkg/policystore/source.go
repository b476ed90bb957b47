package policystore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/kyverno/admission-engine/ext/file"
	"github.com/pkg/errors"
)

// LoadFS loads every YAML file found under the paths as one batch.
// Paths may be files or directories, directories are walked recursively.
func (s *Store) LoadFS(ctx context.Context, fs billy.Filesystem, paths ...string) error {
	sources, err := readFS(fs, paths...)
	if err != nil {
		return err
	}
	return s.load(ctx, sources...)
}

// readFS reads the YAML files under the paths, sorted by path
func readFS(fs billy.Filesystem, paths ...string) ([]source, error) {
	var files []string
	for _, path := range paths {
		path = filepath.Clean(path)
		err := util.Walk(fs, path, func(name string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && file.IsYaml(name) {
				files = append(files, name)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read policies from %s", path)
		}
	}
	sort.Strings(files)
	sources := make([]source, 0, len(files))
	for _, name := range files {
		data, err := util.ReadFile(fs, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read file %s", name)
		}
		sources = append(sources, source{name: name, data: data})
	}
	return sources, nil
}

// Clone fetches the branch of a git repository in memory and returns its worktree
func Clone(ctx context.Context, url, branch string) (billy.Filesystem, error) {
	fs := memfs.New()
	if _, err := git.CloneContext(ctx, memory.NewStorage(), fs, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.ReferenceName(fmt.Sprintf("refs/heads/%s", branch)),
		SingleBranch:  true,
		Depth:         1,
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to clone %s", url)
	}
	return fs, nil
}
