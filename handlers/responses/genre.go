package responses

import "github.com/juho05/melodeon/catalog"

type Genre struct {
	Name       string `json:"name"`
	SongCount  int    `json:"songCount"`
	AlbumCount int    `json:"albumCount"`
}

func NewGenres(genres []catalog.Genre) []*Genre {
	list := make([]*Genre, 0, len(genres))
	for _, g := range genres {
		list = append(list, &Genre{
			Name:       g.Name,
			SongCount:  g.SongCount,
			AlbumCount: g.AlbumCount,
		})
	}
	return list
}
