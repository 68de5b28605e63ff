package stub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := NewRouter(ServerConfig{}, NewStore(0))

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestRouter_CreateThenGet(t *testing.T) {
	store := NewStore(0)
	h := NewRouter(ServerConfig{}, store)

	rec := do(t, h, http.MethodPost, "/products", `{"name":"Widget","description":"d","price":9.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, "/products/"+created.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, 1, store.Len())

	rec = do(t, h, http.MethodGet, "/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestRouter_CreateValidates(t *testing.T) {
	h := NewRouter(ServerConfig{}, NewStore(0))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/products", `{"price":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/products", `{"name":"x","price":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/products", `not json`).Code)
}

func TestRouter_ListPagesNewestFirst(t *testing.T) {
	store := NewStore(45)
	newest := store.Create(ProductInput{Name: "Newest", Price: 1})
	h := NewRouter(ServerConfig{}, store)

	rec := do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 46, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 20)
	assert.Equal(t, newest.ID, page.Items[0].ID)

	rec = do(t, h, http.MethodGet, "/products?page=3&pageSize=20", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Items, 6)

	rec = do(t, h, http.MethodGet, "/products?pageSize=500", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 20, page.PageSize)
}

func TestRouter_Bulk(t *testing.T) {
	h := NewRouter(ServerConfig{}, NewStore(30))

	var items []Product
	rec := do(t, h, http.MethodGet, "/products/bulk?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 30)

	rec = do(t, h, http.MethodGet, "/products/bulk?limit=5", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 5)
}

func TestRouter_UpdateAndDeleteKnownProduct(t *testing.T) {
	store := NewStore(0)
	p := store.Create(ProductInput{Name: "Old", Price: 1})
	h := NewRouter(ServerConfig{}, store)

	rec := do(t, h, http.MethodPut, "/products/"+p.ID.String(), `{"name":"New","price":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := store.Get(p.ID)
	assert.Equal(t, "New", got.Name)

	rec = do(t, h, http.MethodDelete, "/products/"+p.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.Len())

	rec = do(t, h, http.MethodGet, "/products/"+p.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UnknownIDs(t *testing.T) {
	id := uuid.NewString()
	body := `{"name":"Updated Product","description":"Updated description","price":149.99}`

	strict := NewRouter(ServerConfig{}, NewStore(10))
	assert.Equal(t, http.StatusNotFound, do(t, strict, http.MethodPut, "/products/"+id, body).Code)
	assert.Equal(t, http.StatusNotFound, do(t, strict, http.MethodDelete, "/products/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, strict, http.MethodDelete, "/products/not-a-uuid", "").Code)

	lenient := NewRouter(ServerConfig{MissingOK: true}, NewStore(10))
	assert.Equal(t, http.StatusOK, do(t, lenient, http.MethodPut, "/products/"+id, body).Code)
	assert.Equal(t, http.StatusNoContent, do(t, lenient, http.MethodDelete, "/products/"+id, "").Code)
}

func TestRouter_InjectedFailures(t *testing.T) {
	h := NewRouter(ServerConfig{ErrorRate: 1}, NewStore(1))

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/products", "").Code)
	// health is never failed
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestStore_DeleteKeepsOrder(t *testing.T) {
	s := NewStore(0)
	a := s.Create(ProductInput{Name: "a"})
	b := s.Create(ProductInput{Name: "b"})
	c := s.Create(ProductInput{Name: "c"})

	assert.True(t, s.Delete(b.ID))
	assert.False(t, s.Delete(b.ID))

	items := s.Bulk(10)
	require.Len(t, items, 2)
	assert.Equal(t, c.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestRouter_PageBeyondEnd(t *testing.T) {
	h := NewRouter(ServerConfig{}, NewStore(5))

	for _, q := range []string{"page=2", "page=922337203685477581&pageSize=20", "page=9223372036854775807&pageSize=100"} {
		rec := do(t, h, http.MethodGet, "/products?"+q, "")
		require.Equal(t, http.StatusOK, rec.Code, q)

		var page Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Empty(t, page.Items, q)
		assert.Equal(t, 5, page.TotalCount)
	}
}

func TestStore_PageAndBulkBounds(t *testing.T) {
	s := NewStore(3)

	assert.Len(t, s.Page(1, 20).Items, 3)
	assert.Empty(t, s.Page(2, 20).Items)
	assert.Len(t, s.Bulk(10000), 3)
	assert.Empty(t, NewStore(0).Page(1, 20).Items)
}
