package content

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/resource"
)

// Ad is a sponsor banner on the homepage.
type Ad struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Sponsor string `json:"sponsor,omitempty"`
	Image   string `json:"image,omitempty"`
	Link    string `json:"link,omitempty"`
}

// Section is one homepage block. Fallback is set when Items is the
// built-in dataset rather than API data.
type Section[T any] struct {
	Items    []T
	Fallback bool
}

// Home is the public homepage.
type Home struct {
	Articles Section[resource.Article]
	Posts    Section[resource.Post]
	Products Section[catalog.Product]
	Ads      Section[Ad]
}

// SearchResults is the public search dropdown.
type SearchResults struct {
	Query    string
	Products []catalog.Product
	Articles []resource.Article
}

// Empty reports whether nothing matched.
func (r SearchResults) Empty() bool { return len(r.Products) == 0 && len(r.Articles) == 0 }

//go:embed fallback.json
var fallbackJSON []byte

type dataset struct {
	Articles []resource.Article `json:"articles"`
	Posts    []resource.Post    `json:"posts"`
	Products []catalog.Product  `json:"products"`
	Ads      []Ad               `json:"ads"`
}

var fallback = mustDataset(fallbackJSON)

func mustDataset(data []byte) dataset {
	var d dataset
	if err := json.Unmarshal(data, &d); err != nil {
		panic(fmt.Sprintf("content: decode fallback dataset: %v", err))
	}
	return d
}
