package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Setting is one parameter assignment from a preset file.
type Setting struct {
	Target string
	Param  string
	Value  any
}

// ParsePreset decodes a preset document, a mapping of target names to mappings of parameter
// names to values. Settings keep document order so that dependent parameters, such as an SMAA
// preset followed by an explicit edge threshold, apply as written.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - []Setting: the settings in document order
//   - error: error if the document is not a two-level mapping
func ParsePreset(data []byte) ([]Setting, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing preset: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("preset: line %d: expected a mapping of targets", root.Line)
	}

	var out []Setting
	for i := 0; i+1 < len(root.Content); i += 2 {
		target, body := root.Content[i].Value, root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("preset: line %d: target %s expects a mapping of parameters", body.Line, target)
		}
		for j := 0; j+1 < len(body.Content); j += 2 {
			var v any
			if err := body.Content[j+1].Decode(&v); err != nil {
				return nil, fmt.Errorf("preset: line %d: %w", body.Content[j+1].Line, err)
			}
			out = append(out, Setting{Target: target, Param: body.Content[j].Value, Value: v})
		}
	}
	return out, nil
}

// LoadPreset reads and parses a preset file.
func LoadPreset(path string) ([]Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading preset %s: %w", path, err)
	}
	settings, err := ParsePreset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Applier receives preset settings.
type Applier interface {
	Apply(target, param string, v any) error
}

// PresetWatcher applies *.yaml preset files from a directory whenever one is written.
type PresetWatcher struct {
	dir     string
	applier Applier
	logger  zerolog.Logger
}

// NewPresetWatcher creates a watcher over dir.
//
// Parameters:
//   - dir: the preset directory
//   - applier: where settings go, usually the control server
//   - logger: the logger
//
// Returns:
//   - *PresetWatcher: the watcher
func NewPresetWatcher(dir string, applier Applier, logger zerolog.Logger) *PresetWatcher {
	return &PresetWatcher{dir: dir, applier: applier, logger: logger}
}

// ApplyFile applies every setting of one preset file. It stops at the first setting the
// applier refuses.
//
// Parameters:
//   - path: the preset file
//
// Returns:
//   - int: the number of settings queued
//   - error: error if the file cannot be read or parsed, or a setting was refused
func (w *PresetWatcher) ApplyFile(path string) (int, error) {
	settings, err := LoadPreset(path)
	if err != nil {
		return 0, err
	}
	for i, s := range settings {
		if err := w.applier.Apply(s.Target, s.Param, s.Value); err != nil {
			return i, fmt.Errorf("%s: %s.%s: %w", path, s.Target, s.Param, err)
		}
	}
	w.logger.Info().Str("preset", filepath.Base(path)).Int("settings", len(settings)).Msg("preset applied")
	return len(settings), nil
}

// Run watches the directory until ctx is cancelled.
//
// Parameters:
//   - ctx: the context bounding the watcher
//   - ready: closed once the directory is being watched, may be nil
//
// Returns:
//   - error: error if the watcher cannot be created or the directory cannot be watched
func (w *PresetWatcher) Run(ctx context.Context, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating preset watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("error watching %s: %w", w.dir, err)
	}
	w.logger.Info().Str("dir", w.dir).Msg("watching parameter presets")
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isPreset(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := w.ApplyFile(event.Name); err != nil {
				w.logger.Warn().Err(err).Msg("preset not applied")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("preset watcher error")
		}
	}
}

func isPreset(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
