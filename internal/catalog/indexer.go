package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"program-matching/internal/models"
)

const programMapping = `{
	"mappings": {
		"properties": {
			"id":              {"type": "keyword"},
			"name":            {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"degreeLevel":     {"type": "keyword"},
			"fieldOfStudy":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"tuitionPerYear":  {"type": "double"},
			"minGpa":          {"type": "double"},
			"gpaScale":        {"type": "keyword"},
			"minEnglishScore": {"type": "double"},
			"englishTestType": {"type": "keyword"},
			"deadline":        {"type": "date"},
			"tags":            {"type": "keyword"},
			"institution": {
				"properties": {
					"id":      {"type": "keyword"},
					"name":    {"type": "text"},
					"country": {"type": "keyword"},
					"city":    {"type": "keyword"}
				}
			}
		}
	}
}`

// Indexer writes catalog programs into an Elasticsearch index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

// EnsureIndex creates the index with the program mapping when it is missing.
func (ix *Indexer) EnsureIndex(ctx context.Context) (created bool, err error) {
	res, err := ix.client.Indices.Exists([]string{ix.index}, ix.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", ix.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return false, nil
	}
	if res.StatusCode != 404 {
		return false, fmt.Errorf("check index %s: %s", ix.index, res.Status())
	}

	res, err = ix.client.Indices.Create(ix.index,
		ix.client.Indices.Create.WithContext(ctx),
		ix.client.Indices.Create.WithBody(strings.NewReader(programMapping)),
	)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", ix.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("create index %s: %s", ix.index, res.String())
	}
	return true, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexPrograms bulk-indexes programs by id and refreshes the index.
func (ix *Indexer) IndexPrograms(ctx context.Context, programs []models.Program) (int, error) {
	if len(programs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range programs {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": p.ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(p); err != nil {
			return 0, fmt.Errorf("encode program %s: %w", p.ID, err)
		}
	}

	res, err := ix.client.Bulk(&buf,
		ix.client.Bulk.WithContext(ctx),
		ix.client.Bulk.WithIndex(ix.index),
		ix.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", res.String())
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed := 0
	var failures []string
	for _, item := range out.Items {
		for _, result := range item {
			if result.Status >= 300 {
				failures = append(failures, fmt.Sprintf("%s: %s", result.ID, result.Error.Reason))
				continue
			}
			indexed++
		}
	}
	if len(failures) > 0 {
		return indexed, fmt.Errorf("bulk index: %d documents failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return indexed, nil
}
