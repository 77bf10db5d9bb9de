package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/validate"
)

// Manifest describes a declarative embed: instead of Go code, a YAML
// file names the vendor script, the payload contract, and the allowed
// frame sources. Seeded embeds validate their payload and inject their
// script with no further code.
type Manifest struct {
	Type       string   `yaml:"type"`
	ScriptURL  string   `yaml:"script_url"`
	Mandatory  []string `yaml:"mandatory_fields"`
	Optional   []string `yaml:"optional_fields"`
	OneOf      []string `yaml:"exactly_one_of"`
	SrcPrefix  []string `yaml:"src_prefix"`
	Sync       bool     `yaml:"sync"`
	HTMLShell  string   `yaml:"html_shell"`
	AllowHosts []string `yaml:"allowed_script_hosts"`
}

// Seeder loads embed manifests from a directory tree and registers
// manifest-driven embeds. The runtime's script URL policy applies to
// every seeded embed; a manifest's allowed_script_hosts narrows the
// host allow-list further.
type Seeder struct {
	registry *Registry
	dir      string
	policy   inject.URLPolicy
}

// NewSeeder creates a seeder rooted at dir.
func NewSeeder(registry *Registry, dir string, policy inject.URLPolicy) *Seeder {
	return &Seeder{registry: registry, dir: dir, policy: policy}
}

// Seed loads every *.embed.yaml under the manifest directory. A bad
// manifest is logged and skipped; seeding continues.
func (s *Seeder) Seed() (int, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.registry.log.Warn("embed manifest directory not found", zap.String("dir", s.dir))
		return 0, nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(s.dir, "**", "*.embed.yaml"))
	if err != nil {
		return 0, fmt.Errorf("failed to glob embed manifests: %w", err)
	}

	var loaded int
	for _, path := range matches {
		if err := s.loadManifest(path); err != nil {
			s.registry.log.Warn("skipping embed manifest",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		loaded++
	}

	s.registry.log.Info("seeded embed manifests",
		zap.String("dir", s.dir),
		zap.Int("loaded", loaded),
		zap.Int("found", len(matches)),
	)
	return loaded, nil
}

// loadManifest parses one manifest file and registers its embed.
func (s *Seeder) loadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid manifest YAML: %w", err)
	}
	if m.Type == "" {
		return fmt.Errorf("manifest has no embed type")
	}
	if m.ScriptURL == "" && m.HTMLShell == "" {
		return fmt.Errorf("manifest %q has neither script_url nor html_shell", m.Type)
	}

	return s.registry.Register(m.Type, m.drawFunc(s.policy))
}

// drawFunc builds the draw function for a manifest-driven embed.
func (m Manifest) drawFunc(base inject.URLPolicy) DrawFunc {
	manifest := m
	return func(ctx *frame.Context, doc *inject.Document) error {
		if err := validate.Data(ctx.Payload(), manifest.Mandatory, manifest.Optional); err != nil {
			return err
		}
		if len(manifest.OneOf) > 0 {
			if err := validate.ExactlyOneOf(ctx.Payload(), manifest.OneOf...); err != nil {
				return err
			}
		}
		if len(manifest.SrcPrefix) > 0 {
			if err := validate.SrcPrefix(ctx, manifest.SrcPrefix...); err != nil {
				return err
			}
		}

		if manifest.HTMLShell != "" {
			doc.WriteHTML(manifest.HTMLShell)
		}

		if manifest.ScriptURL != "" {
			policy := base
			if len(manifest.AllowHosts) > 0 {
				policy.AllowedHosts = manifest.AllowHosts
			}
			if manifest.Sync {
				return inject.WriteScript(doc, manifest.ScriptURL, policy)
			}
			return inject.LoadScript(doc, manifest.ScriptURL, nil, policy)
		}
		return nil
	}
}
