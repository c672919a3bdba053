package processor

import (
	"path"
	"strings"
)

// Artifact is one generated document.
type Artifact struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// ArtifactGroup is the set of formats generated for one logical document.
type ArtifactGroup struct {
	Title string     `json:"title"`
	Links []Artifact `json:"links"`
}

// Stem strips the final extension from a file name.
func Stem(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// GroupArtifacts groups artifacts by Stem, keeping groups in order of first
// appearance and links in input order.
func GroupArtifacts(artifacts []Artifact) []ArtifactGroup {
	groups := []ArtifactGroup{}
	index := map[string]int{}
	for _, a := range artifacts {
		title := Stem(a.Filename)
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, ArtifactGroup{Title: title})
		}
		groups[i].Links = append(groups[i].Links, a)
	}
	return groups
}
