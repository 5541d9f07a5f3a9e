package inference

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	apperrors "object-whisper/internal/app/errors"
)

const weightsBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// CatalogEntry describes a known model and its ggml weights file.
type CatalogEntry struct {
	Name     string
	FileName string
	URL      string
	SHA256   string
	Aliases  []string
	// Remote is the identifier hosted APIs use for this model, if any.
	Remote string
}

// ResolvedModel is a catalog entry (or custom weights file) located on disk.
type ResolvedModel struct {
	Name         string
	Path         string
	URL          string
	SHA256       string
	Exists       bool
	IsCustomPath bool
}

var catalog = []CatalogEntry{
	{Name: "tiny", SHA256: "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21"},
	{Name: "tiny.en"},
	{Name: "base", SHA256: "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe"},
	{Name: "base.en"},
	{Name: "small", SHA256: "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b"},
	{Name: "small.en"},
	{Name: "medium", SHA256: "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208"},
	{Name: "medium.en"},
	{Name: "large-v1"},
	{Name: "large-v2"},
	{Name: "large-v3", SHA256: "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2", Aliases: []string{"large"}, Remote: "whisper-1"},
	{Name: "large-v3-turbo", Aliases: []string{"turbo"}},
}

func init() {
	for i := range catalog {
		catalog[i].FileName = "ggml-" + catalog[i].Name + ".bin"
		catalog[i].URL = weightsBaseURL + catalog[i].FileName
	}
}

// Catalog returns the known models sorted by name.
func Catalog() []CatalogEntry {
	entries := append([]CatalogEntry(nil), catalog...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// ModelNames returns every accepted identifier, aliases included.
func ModelNames() []string {
	names := lo.FlatMap(catalog, func(e CatalogEntry, _ int) []string {
		return append([]string{e.Name}, e.Aliases...)
	})
	sort.Strings(names)
	return names
}

// LookupModel finds a catalog entry by name or alias.
func LookupModel(name string) (CatalogEntry, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	return lo.Find(catalog, func(e CatalogEntry) bool {
		return e.Name == name || lo.Contains(e.Aliases, name)
	})
}

// ResolveModel maps a model reference to a weights file in modelDir. A
// reference that is not in the catalog is accepted when it looks like a path
// to a .bin file. Missing weights are reported through Exists, not an error.
func ResolveModel(ref, modelDir string) (ResolvedModel, error) {
	if entry, ok := LookupModel(ref); ok {
		if strings.TrimSpace(modelDir) == "" {
			return ResolvedModel{}, apperrors.InvalidField("model directory", "must not be empty for a named model")
		}
		path := filepath.Join(modelDir, entry.FileName)
		exists, err := fileExists(path)
		if err != nil {
			return ResolvedModel{}, err
		}
		return ResolvedModel{
			Name:   entry.Name,
			Path:   path,
			URL:    entry.URL,
			SHA256: entry.SHA256,
			Exists: exists,
		}, nil
	}

	if !looksLikePath(ref) {
		return ResolvedModel{}, apperrors.Mark(
			fmt.Errorf("%q (known models: %s)", ref, strings.Join(ModelNames(), ", ")),
			apperrors.ErrUnknownModel,
		)
	}

	path := filepath.Clean(ref)
	exists, err := fileExists(path)
	if err != nil {
		return ResolvedModel{}, err
	}
	return ResolvedModel{
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:         path,
		Exists:       exists,
		IsCustomPath: true,
	}, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat model path: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("model path %s is a directory", path)
	}
	return true, nil
}

func looksLikePath(input string) bool {
	return strings.ContainsRune(input, os.PathSeparator) || strings.HasSuffix(strings.ToLower(input), ".bin")
}
