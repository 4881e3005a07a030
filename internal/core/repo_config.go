package core

import (
	"path"
	"strings"
)

// RepoConfigFile is the per-repository review config read at the PR head.
const RepoConfigFile = ".pr-warden.yml"

// RepoConfig represents the structure of the .pr-warden.yml file.
type RepoConfig struct {
	// Custom instructions appended to the analysis prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Files below any directory with one of these names are not analyzed.
	// Example: ["dist", "vendor", "docs"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Files with one of these extensions are not analyzed.
	// The leading dot is optional. Example: [".md", "lock", ".log"]
	ExcludeExts []string `yaml:"exclude_exts"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}

// Excludes reports whether the file at filePath should be left out of analysis.
func (c *RepoConfig) Excludes(filePath string) bool {
	if c == nil {
		return false
	}
	filePath = strings.TrimPrefix(filePath, "./")

	dir := path.Dir(filePath)
	for _, segment := range strings.Split(dir, "/") {
		for _, excluded := range c.ExcludeDirs {
			if segment != "." && strings.EqualFold(segment, strings.Trim(excluded, "/")) {
				return true
			}
		}
	}

	base := strings.ToLower(path.Base(filePath))
	for _, ext := range c.ExcludeExts {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext != "" && strings.HasSuffix(base, "."+ext) {
			return true
		}
	}
	return false
}

// FilterFiles returns the files not excluded by the config.
func (c *RepoConfig) FilterFiles(files []ChangedFile) []ChangedFile {
	kept := make([]ChangedFile, 0, len(files))
	for _, f := range files {
		if !c.Excludes(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}
