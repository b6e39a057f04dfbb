// Package benchutil generates synthetic manifests for benchmarks and tests.
package benchutil

import (
	"fmt"
	"math/rand"
)

// FakeFile is a synthetic manifest record.
type FakeFile struct {
	Path string
	Size uint64
}

// GeneratorConfig configures synthetic manifest generation.
type GeneratorConfig struct {
	// NumFiles is the total number of file records to generate.
	NumFiles int
	// DirFanout is the average number of children per directory.
	DirFanout int
	// MaxDepth is the maximum directory depth.
	MaxDepth int
	// Seed for reproducible generation. 0 = use default seed.
	Seed int64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig(numFiles int) GeneratorConfig {
	return GeneratorConfig{
		NumFiles:  numFiles,
		DirFanout: 10,
		MaxDepth:  6,
		Seed:      BenchmarkSeed,
	}
}

// Generator generates synthetic manifest records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a new manifest generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a slice of synthetic files.
func (g *Generator) Generate() []FakeFile {
	files := make([]FakeFile, g.cfg.NumFiles)
	for i := range files {
		files[i] = FakeFile{Path: g.generatePath(), Size: g.generateSize()}
	}
	return files
}

func (g *Generator) generatePath() string {
	depth := 1 + g.rng.Intn(g.cfg.MaxDepth)

	path := ""
	for d := 0; d < depth; d++ {
		path += g.generateSegment() + "/"
	}
	return path + g.generateFilename()
}

func (g *Generator) generateSegment() string {
	// Mix of segment styles so the tree shape resembles a real project root
	switch g.rng.Intn(4) {
	case 0: // date-like: 2024, 01, 15
		formats := []string{
			fmt.Sprintf("%d", 2020+g.rng.Intn(5)),
			fmt.Sprintf("%02d", 1+g.rng.Intn(12)),
			fmt.Sprintf("%02d", 1+g.rng.Intn(28)),
		}
		return formats[g.rng.Intn(len(formats))]

	case 1: // id-like: user_12345, project_00042
		prefixes := []string{"user", "run", "sample", "batch", "project"}
		prefix := prefixes[g.rng.Intn(len(prefixes))]
		id := g.rng.Intn(g.cfg.DirFanout * 100)
		return fmt.Sprintf("%s_%05d", prefix, id)

	case 2: // category: logs, data, exports, backups
		categories := []string{"logs", "data", "exports", "backups", "raw", "processed", "archive", "tmp"}
		return categories[g.rng.Intn(len(categories))]

	default: // alphabetic: a, b, ..., z, aa, ab, ...
		return g.generateAlphaSegment()
	}
}

func (g *Generator) generateAlphaSegment() string {
	n := g.rng.Intn(g.cfg.DirFanout)
	if n < 26 {
		return string(rune('a' + n))
	}
	return string(rune('a'+n/26-1)) + string(rune('a'+n%26))
}

func (g *Generator) generateFilename() string {
	extensions := []string{".json", ".csv", ".tif", ".txt", ".gz", ".log", ".dat"}
	ext := extensions[g.rng.Intn(len(extensions))]
	return fmt.Sprintf("file_%08x%s", g.rng.Uint32(), ext)
}

func (g *Generator) generateSize() uint64 {
	// Log-normal-ish distribution: mostly small files, some large
	switch g.rng.Intn(10) {
	case 0: // 10% tiny files (< 1KB)
		return uint64(g.rng.Intn(1024))
	case 1, 2, 3: // 30% small files (1KB - 1MB)
		return uint64(1024 + g.rng.Intn(1024*1024))
	case 4, 5, 6, 7: // 40% medium files (1MB - 100MB)
		return uint64(1024*1024 + g.rng.Intn(100*1024*1024))
	case 8: // 10% large files (100MB - 1GB)
		return uint64(100*1024*1024 + g.rng.Intn(900*1024*1024))
	default: // 10% very large files (1GB - 5GB)
		return uint64(1024*1024*1024 + g.rng.Int63n(4*1024*1024*1024))
	}
}

// GeneratePaths returns just the paths for tree-building benchmarks.
func GeneratePaths(numFiles int, shape string) []string {
	switch shape {
	case "deep_narrow":
		return generateDeepNarrowPaths(numFiles)
	case "wide_shallow":
		return generateWideShallowPaths(numFiles)
	case "balanced":
		return generateBalancedPaths(numFiles)
	case "realistic":
		return generateRealisticPaths(numFiles)
	case "wide_single_level":
		return generateWideSingleLevelPaths(numFiles)
	default:
		return generateRealisticPaths(numFiles)
	}
}

func generateDeepNarrowPaths(size int) []string {
	paths := make([]string, size)
	depth := 20
	numBranches := 26
	filesPerLeaf := size / numBranches
	if filesPerLeaf < 1 {
		filesPerLeaf = 1
	}

	idx := 0
	for branch := 0; idx < size && branch < numBranches; branch++ {
		prefix := ""
		for d := 0; d < depth; d++ {
			prefix += fmt.Sprintf("%c/", 'a'+byte(branch))
		}
		for f := 0; idx < size && f < filesPerLeaf; f++ {
			paths[idx] = fmt.Sprintf("%sfile%d.txt", prefix, f)
			idx++
		}
	}
	return paths[:idx]
}

func generateWideShallowPaths(size int) []string {
	paths := make([]string, size)
	filesPerDir := 5
	numDirs := size / filesPerDir
	if numDirs < 1 {
		numDirs = 1
	}

	idx := 0
	for dir := 0; idx < size && dir < numDirs; dir++ {
		for f := 0; idx < size && f < filesPerDir; f++ {
			paths[idx] = fmt.Sprintf("dir%06d/file%d.txt", dir, f)
			idx++
		}
	}
	return paths[:idx]
}

func generateBalancedPaths(size int) []string {
	paths := make([]string, 0, size)
	branch := 26

	for a := 0; len(paths) < size && a < branch; a++ {
		for b := 0; len(paths) < size && b < branch; b++ {
			for c := 0; len(paths) < size && c < branch; c++ {
				paths = append(paths, fmt.Sprintf("%c/%c/%c/file.txt", 'a'+byte(a), 'a'+byte(b), 'a'+byte(c)))
			}
		}
	}
	return paths
}

func generateRealisticPaths(size int) []string {
	g := NewGenerator(DefaultConfig(size))
	files := g.Generate()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func generateWideSingleLevelPaths(size int) []string {
	paths := make([]string, size)
	for i := range paths {
		paths[i] = fmt.Sprintf("root/child%08d/file.txt", i)
	}
	return paths
}
