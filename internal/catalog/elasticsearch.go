// Package catalog reads and writes the program catalog in Elasticsearch.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"program-matching/internal/models"
)

const defaultPageSize = 500

var ErrIndexNotFound = errors.New("catalog index not found")

// ElasticsearchCatalog lists programs stored as documents in one index.
type ElasticsearchCatalog struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

func NewElasticsearchCatalog(client *elasticsearch.Client, index string) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{client: client, index: index, pageSize: defaultPageSize}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Program `json:"_source"`
			Sort   []interface{}  `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// ListPrograms pages through the whole index ordered by program id.
func (c *ElasticsearchCatalog) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs := make([]models.Program, 0)
	var after []interface{}

	for {
		query := map[string]interface{}{
			"size":  c.pageSize,
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
		}
		if after != nil {
			query["search_after"] = after
		}

		page, err := c.search(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, hit := range page.Hits.Hits {
			programs = append(programs, hit.Source)
		}
		if len(page.Hits.Hits) < c.pageSize {
			return programs, nil
		}
		after = page.Hits.Hits[len(page.Hits.Hits)-1].Sort
	}
}

func (c *ElasticsearchCatalog) search(ctx context.Context, query map[string]interface{}) (*searchResponse, error) {
	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(esutil.NewJSONReader(query)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, c.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search %s failed: %s", c.index, res.String())
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}
