// Package conflict decides what to do when a planned target path is already
// occupied: distinguish, deduplicate, or version. It never mutates the
// filesystem; every outcome is a recommendation for the caller to execute.
package conflict

import (
	"hash/fnv"
	"io"
	"os"

	"shelfmark/internal/audioprobe"
)

const signatureHeadBytes = 64 * 1024

// FileSig identifies one audio file by size plus a hash of its head. Two
// files with equal signatures are treated as the same content.
type FileSig struct {
	Size int64
	Head uint64
}

// Signature summarizes a book folder's audio content.
type Signature struct {
	Files      []FileSig
	TotalBytes int64
}

// FolderSignature builds a signature from the audio files under dir.
func FolderSignature(dir string) (Signature, error) {
	files, err := audioprobe.AudioFiles(dir)
	if err != nil {
		return Signature{}, err
	}
	sig := Signature{}
	for _, file := range files {
		fileSig, size, err := fileSignature(file)
		if err != nil {
			return Signature{}, err
		}
		sig.Files = append(sig.Files, fileSig)
		sig.TotalBytes += size
	}
	return sig, nil
}

func fileSignature(path string) (FileSig, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileSig{}, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileSig{}, 0, err
	}

	hasher := fnv.New64a()
	if _, err := io.CopyN(hasher, f, signatureHeadBytes); err != nil && err != io.EOF {
		return FileSig{}, 0, err
	}
	return FileSig{Size: info.Size(), Head: hasher.Sum64()}, info.Size(), nil
}

// Comparison is the result of matching two signatures.
type Comparison struct {
	Matching     int
	SourceFiles  int
	DestFiles    int
	OverlapRatio float64
	SourceSubset bool
	DestSubset   bool
}

// SameBook applies the dedupe rule: >=80% overlap, or one side a strict
// subset of the other.
func (c Comparison) SameBook() bool {
	if c.SourceFiles == 0 || c.DestFiles == 0 {
		return false
	}
	return c.OverlapRatio >= 0.8 || c.SourceSubset || c.DestSubset
}

// Compare matches the two signatures' file multisets.
func Compare(source, dest Signature) Comparison {
	counts := make(map[FileSig]int, len(dest.Files))
	for _, f := range dest.Files {
		counts[f]++
	}
	matching := 0
	for _, f := range source.Files {
		if counts[f] > 0 {
			counts[f]--
			matching++
		}
	}

	cmp := Comparison{
		Matching:    matching,
		SourceFiles: len(source.Files),
		DestFiles:   len(dest.Files),
	}
	larger := cmp.SourceFiles
	if cmp.DestFiles > larger {
		larger = cmp.DestFiles
	}
	if larger > 0 {
		cmp.OverlapRatio = float64(matching) / float64(larger)
	}
	cmp.SourceSubset = matching == cmp.SourceFiles && cmp.SourceFiles < cmp.DestFiles
	cmp.DestSubset = matching == cmp.DestFiles && cmp.DestFiles < cmp.SourceFiles
	return cmp
}
