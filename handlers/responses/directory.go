package responses

import "github.com/juho05/melodeon/catalog"

type Directory struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Parent   *string         `json:"parent,omitempty"`
	Children []*DirectoryRef `json:"children"`
	Songs    []*Song         `json:"songs"`
}

type DirectoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewDirectory converts dir. lookup resolves the ids of child directories.
func NewDirectory(dir *catalog.Directory, lookup func(id string) (*catalog.Directory, error)) *Directory {
	d := &Directory{
		ID:       dir.ID,
		Name:     dir.Name,
		Path:     dir.RelativePath,
		Children: make([]*DirectoryRef, 0, len(dir.ChildIDs)),
		Songs:    NewSongs(dir.Songs),
	}
	if d.Songs == nil {
		d.Songs = make([]*Song, 0)
	}
	if dir.ParentID != "" {
		d.Parent = &dir.ParentID
	}
	for _, id := range dir.ChildIDs {
		child, err := lookup(id)
		if err != nil {
			continue
		}
		d.Children = append(d.Children, &DirectoryRef{
			ID:   child.ID,
			Name: child.Name,
		})
	}
	return d
}
