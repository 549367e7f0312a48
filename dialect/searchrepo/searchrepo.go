// Package searchrepo implements the dialect repository contract on an
// OpenSearch (or Elasticsearch compatible) index.
package searchrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	es "github.com/opensearch-project/opensearch-go/v2"
	esapi "github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/syssam/crudgen/dialect"
)

// MaxResults bounds the number of documents returned by FindAll. It matches
// the default index.max_result_window.
const MaxResults = 10000

// Repository is the search-index repository contract.
type Repository[T any, ID comparable] interface {
	dialect.CrudRepository[T, ID]
	// Index returns the index name.
	Index() string
}

// Repo is an OpenSearch-backed Repository.
type Repo[T any, ID comparable] struct {
	client *es.Client
	index  string
}

var _ Repository[struct{}, string] = (*Repo[struct{}, string])(nil)

// New returns a repository of T stored in the index named by T's IndexName
// method, or its lower-cased type name.
func New[T any, ID comparable](client *es.Client) *Repo[T, ID] {
	return &Repo[T, ID]{client: client, index: dialect.IndexOf[T]()}
}

// Connect returns a client for the given node addresses.
func Connect(addresses ...string) (*es.Client, error) {
	client, err := es.NewClient(es.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("searchrepo: connect: %w", err)
	}
	return client, nil
}

// Index implements Repository.
func (r *Repo[T, ID]) Index() string { return r.index }

type getResponse[T any] struct {
	Found  bool   `json:"found"`
	ID     string `json:"_id"`
	Source T      `json:"_source"`
}

type indexResponse struct {
	ID string `json:"_id"`
}

type searchResponse[T any] struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source T      `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	req := esapi.GetRequest{Index: r.index, DocumentID: fmt.Sprint(id)}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("searchrepo: get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, dialect.ErrNotFound
	}
	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("searchrepo: get: %w", err)
	}
	var out getResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("searchrepo: decoding get response: %w", err)
	}
	if !out.Found {
		return nil, dialect.ErrNotFound
	}
	setDocumentID[T, ID](&out.Source, out.ID)
	return &out.Source, nil
}

// FindAll implements dialect.CrudRepository. A missing index yields an empty
// result.
func (r *Repo[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("searchrepo: failed to serialize query: %w", err)
	}
	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("searchrepo: search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return []T{}, nil
	}
	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("searchrepo: search: %w", err)
	}
	var out searchResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("searchrepo: decoding search response: %w", err)
	}
	docs := make([]T, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		setDocumentID[T, ID](&h.Source, h.ID)
		docs = append(docs, h.Source)
	}
	return docs, nil
}

// Save implements dialect.CrudRepository. Entities with an identifier are
// indexed under it. Others get a document id generated by the cluster, which
// is written back through dialect.IDSetter.
func (r *Repo[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("searchrepo: encode: %w", err)
	}
	req := esapi.IndexRequest{
		Index:   r.index,
		Body:    bytes.NewReader(b),
		Refresh: "true",
	}
	if id, ok := dialect.HasID[T, ID](entity); ok {
		req.DocumentID = fmt.Sprint(id)
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("searchrepo: failed to send indexing request: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("searchrepo: index: %w", err)
	}
	var out indexResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("searchrepo: decoding index response: %w", err)
	}
	if req.DocumentID == "" {
		setDocumentID[T, ID](entity, out.ID)
	}
	return entity, nil
}

// DeleteByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	req := esapi.DeleteRequest{
		Index:      r.index,
		DocumentID: fmt.Sprint(id),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("searchrepo: delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if err := checkResponse(res); err != nil {
		return fmt.Errorf("searchrepo: delete: %w", err)
	}
	return nil
}

// setDocumentID copies the document id of a hit into entity when the
// identifier type is string.
func setDocumentID[T any, ID comparable](entity *T, docID string) {
	if id, ok := any(docID).(ID); ok && docID != "" {
		dialect.AssignID(entity, id)
	}
}

func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("code=%d: %s", res.StatusCode, bytes.TrimSpace(body))
}
