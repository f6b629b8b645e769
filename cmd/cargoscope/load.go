// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"log/slog"

	"github.com/cargoscope/cargoscope/internal/cache"
	"github.com/cargoscope/cargoscope/internal/render"
	"github.com/cargoscope/cargoscope/pkg/resolve"
)

// loadView resolves the package of src. Results of archives and git commits
// are served from and written to the cache when it is enabled.
func (a *App) loadView(src *source) (render.View, error) {
	store := a.cacheFor(src)
	if store != nil {
		defer store.Close()
		var v render.View
		err := store.GetJSON(src.key, &v)
		if err == nil {
			slog.Debug("cache hit", "source", src.label)
			return v, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("cache read failed", "error", err)
		}
	}

	res, err := resolve.Load(src.store, resolve.Options{ManifestDir: src.dir, SkipDirs: a.cfg.Workspace.SkipDirs})
	if err != nil {
		return render.View{}, err
	}
	v := render.NewView(res)
	if store != nil {
		if err := store.PutJSON(src.key, v); err != nil {
			slog.Warn("cache write failed", "error", err)
		}
	}
	return v, nil
}

// loadWorkspaceViews resolves every member of the workspace rooted at src.
func (a *App) loadWorkspaceViews(src *source) ([]render.View, error) {
	results, err := resolve.LoadWorkspace(src.store, resolve.Options{ManifestDir: src.dir, SkipDirs: a.cfg.Workspace.SkipDirs})
	if err != nil {
		return nil, err
	}
	views := make([]render.View, 0, len(results))
	for _, res := range results {
		views = append(views, render.NewView(res))
	}
	return views, nil
}

// cacheFor opens the cache for immutable sources, or returns nil.
func (a *App) cacheFor(src *source) *cache.Store {
	if src.key == "" || !a.cfg.Cache.Enabled || a.OpenCache == nil {
		return nil
	}
	store, err := a.OpenCache(a.cfg)
	if err != nil {
		slog.Warn("cache unavailable", "error", err)
		return nil
	}
	return store
}
