package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"program-matching/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func hit(id string) map[string]interface{} {
	return map[string]interface{}{
		"_id": id,
		"_source": map[string]interface{}{
			"id":             id,
			"name":           "MSc " + id,
			"degreeLevel":    "Masters",
			"fieldOfStudy":   "Computer Science",
			"tuitionPerYear": 30000,
			"minGpa":         3.0,
			"gpaScale":       "4.0",
			"tags":           []string{"STEM"},
			"institution":    map[string]interface{}{"id": "inst-1", "name": "U of T", "country": "Canada", "city": "Toronto"},
		},
		"sort": []interface{}{id},
	}
}

func TestElasticsearchCatalog_ListPrograms_Paginates(t *testing.T) {
	var requests []map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/programs/_search"), r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)

		hits := []interface{}{hit("p-1"), hit("p-2")}
		if body["search_after"] != nil {
			hits = []interface{}{hit("p-3")}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{"hits": hits},
		})
	})

	c := NewElasticsearchCatalog(client, "programs")
	c.pageSize = 2

	programs, err := c.ListPrograms(context.Background())
	require.NoError(t, err)
	require.Len(t, programs, 3)
	assert.Equal(t, "p-1", programs[0].ID)
	assert.Equal(t, "p-3", programs[2].ID)
	assert.Equal(t, "Canada", programs[0].Institution.Country)
	assert.Equal(t, 3.0, *programs[0].MinGPA)
	assert.Nil(t, programs[0].Deadline)

	require.Len(t, requests, 2)
	assert.Nil(t, requests[0]["search_after"])
	assert.Equal(t, []interface{}{"p-2"}, requests[1]["search_after"])
}

func TestElasticsearchCatalog_ListPrograms_Errors(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
		})

		_, err := NewElasticsearchCatalog(client, "programs").ListPrograms(context.Background())
		assert.ErrorIs(t, err, ErrIndexNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception"},"status":400}`))
		})

		_, err := NewElasticsearchCatalog(client, "programs").ListPrograms(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search programs failed")
	})
}

func TestIndexer_EnsureIndex(t *testing.T) {
	tests := []struct {
		name        string
		existsCode  int
		wantCreated bool
		wantCreate  bool
	}{
		{name: "creates missing index", existsCode: http.StatusNotFound, wantCreated: true, wantCreate: true},
		{name: "keeps existing index", existsCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var createBody map[string]interface{}
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(tt.existsCode)
				case http.MethodPut:
					require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
					_, _ = w.Write([]byte(`{"acknowledged":true,"index":"programs"}`))
				default:
					t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
				}
			})

			created, err := NewIndexer(client, "programs").EnsureIndex(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, tt.wantCreate, createBody != nil)
			if tt.wantCreate {
				assert.Contains(t, createBody, "mappings")
			}
		})
	}
}

func TestIndexer_IndexPrograms(t *testing.T) {
	var lines []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/programs/_bulk"), r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("refresh"))

		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		_, _ = fmt.Fprint(w, `{"errors":true,"items":[
			{"index":{"_id":"p-1","status":201}},
			{"index":{"_id":"p-2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad deadline"}}}
		]}`)
	})

	programs := []models.Program{
		{ID: "p-1", Name: "MSc CS", DegreeLevel: "Masters"},
		{ID: "p-2", Name: "MSc DS", DegreeLevel: "Masters"},
	}

	indexed, err := NewIndexer(client, "programs").IndexPrograms(context.Background(), programs)
	require.Error(t, err)
	assert.Equal(t, 1, indexed)
	assert.Contains(t, err.Error(), "p-2: bad deadline")

	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_id":"p-1"}}`, lines[0])
	assert.Contains(t, lines[1], `"degreeLevel":"Masters"`)
}

func TestIndexer_IndexPrograms_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	indexed, err := NewIndexer(client, "programs").IndexPrograms(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, indexed)
}
