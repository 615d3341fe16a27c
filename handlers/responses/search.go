package responses

import "github.com/juho05/melodeon/catalog"

type SearchResult struct {
	Artists []*Artist `json:"artists"`
	Albums  []*Album  `json:"albums"`
	Songs   []*Song   `json:"songs"`
}

func NewSearchResult(r catalog.SearchResult) *SearchResult {
	return &SearchResult{
		Artists: NewArtists(r.Artists),
		Albums:  NewAlbums(r.Albums),
		Songs:   NewSongs(r.Songs),
	}
}
