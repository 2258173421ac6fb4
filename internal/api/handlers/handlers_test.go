package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hydrogen-admin/internal/api/handlers"
	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/services/shopify"
	"hydrogen-admin/internal/stash"
	"hydrogen-admin/internal/stream"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeShopify struct {
	pubs      []shopify.Publication
	createFn  func(input shopify.CollectionInput) shopify.Result[shopify.Collection]
	publishFn func(id, publicationID string) shopify.Result[struct{}]
}

func (f *fakeShopify) GetPublications(ctx context.Context) shopify.Result[[]shopify.Publication] {
	raw, _ := json.Marshal(map[string]interface{}{"data": map[string]interface{}{"publications": map[string]interface{}{"edges": []interface{}{}}}})
	return shopify.Result[[]shopify.Publication]{Kind: shopify.ResultOK, Data: f.pubs, Raw: raw}
}

func (f *fakeShopify) CreateCollection(ctx context.Context, input shopify.CollectionInput) shopify.Result[shopify.Collection] {
	if f.createFn != nil {
		return f.createFn(input)
	}
	return shopify.Result[shopify.Collection]{Kind: shopify.ResultOK, Data: shopify.Collection{ID: "gid://shopify/Collection/" + input.Handle, Handle: input.Handle}}
}

func (f *fakeShopify) PublishPublishable(ctx context.Context, id, publicationID string) shopify.Result[struct{}] {
	if f.publishFn != nil {
		return f.publishFn(id, publicationID)
	}
	return shopify.Result[struct{}]{Kind: shopify.ResultOK}
}

func (f *fakeShopify) FirstLocationID(ctx context.Context) shopify.Result[string] {
	return shopify.Result[string]{Kind: shopify.ResultOK, Data: "gid://shopify/Location/1"}
}

func (f *fakeShopify) ProductSet(ctx context.Context, input shopify.ProductSetInput) shopify.Result[shopify.Product] {
	return shopify.Result[shopify.Product]{Kind: shopify.ResultOK, Data: shopify.Product{ID: "gid://shopify/Product/" + input.Handle, Title: input.Title}}
}

func (f *fakeShopify) TrackInventoryItem(ctx context.Context, inventoryItemID string) shopify.Result[struct{}] {
	return shopify.Result[struct{}]{Kind: shopify.ResultOK}
}

type fakeSink struct {
	mu   sync.Mutex
	sent []events.Event
}

func (f *fakeSink) Send(ctx context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeSink) last() events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New("sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{ShopifyAdminURL: "https://shop.example.com", ShopifyAdminToken: "token"}
}

func clientFor(fake *fakeShopify, seen *string) handlers.ShopifyClientFunc {
	return func(shopURL, token string) handlers.ShopifyAPI {
		if seen != nil {
			*seen = shopURL
		}
		return fake
	}
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func proxyRouter(cfg *config.Config, client handlers.ShopifyClientFunc, recorder *history.Recorder) *gin.Engine {
	h := handlers.NewShopifyHandler(cfg, logger.Nop(), client, recorder)
	router := gin.New()
	router.POST("/api/create-collection", h.CreateCollection)
	router.POST("/api/publish-collection", h.PublishCollection)
	router.GET("/api/get-publications", h.GetPublications)
	router.POST("/api/upload-products", h.UploadProducts)
	return router
}

func TestCreateCollectionRequiresTitle(t *testing.T) {
	fake := &fakeShopify{}
	router := proxyRouter(testConfig(), clientFor(fake, nil), nil)

	w := doJSON(router, http.MethodPost, "/api/create-collection", map[string]interface{}{"collectionInput": map[string]string{"handle": "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required field: title", decode(t, w)["error"])
}

func TestCreateCollectionVendorErrorOffersProcessedInput(t *testing.T) {
	fake := &fakeShopify{createFn: func(input shopify.CollectionInput) shopify.Result[shopify.Collection] {
		fixed := input
		fixed.Handle = "sale-now"
		return shopify.Result[shopify.Collection]{
			Kind:           shopify.ResultVendorError,
			UserErrors:     []shopify.UserError{{Field: []string{"handle"}, Message: "Handle is invalid"}},
			ProcessedInput: &fixed,
		}
	}}
	router := proxyRouter(testConfig(), clientFor(fake, nil), nil)

	w := doJSON(router, http.MethodPost, "/api/create-collection", map[string]interface{}{
		"collectionInput": map[string]string{"title": "Sale", "handle": "Sale Now"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Shopify API Error", body["error"])
	assert.NotNil(t, body["details"])
	assert.Equal(t, "sale-now", body["processedInput"].(map[string]interface{})["handle"])
}

func TestCreateCollectionTransportErrorIs500(t *testing.T) {
	fake := &fakeShopify{createFn: func(input shopify.CollectionInput) shopify.Result[shopify.Collection] {
		return shopify.Result[shopify.Collection]{Kind: shopify.ResultTransportError, Status: 502, Message: "Bad Gateway"}
	}}
	router := proxyRouter(testConfig(), clientFor(fake, nil), nil)

	w := doJSON(router, http.MethodPost, "/api/create-collection", map[string]interface{}{"collectionInput": map[string]string{"title": "Sale"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPublishCollectionRequiresBothIDs(t *testing.T) {
	router := proxyRouter(testConfig(), clientFor(&fakeShopify{}, nil), nil)

	w := doJSON(router, http.MethodPost, "/api/publish-collection", map[string]string{"collectionId": "gid://shopify/Collection/1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required parameters: collectionId and publicationId", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/publish-collection", map[string]string{"collectionId": "c1", "publicationId": "p1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPublicationsPrefersQueryCredentials(t *testing.T) {
	var seen string
	router := proxyRouter(&config.Config{}, clientFor(&fakeShopify{}, &seen), nil)

	w := doJSON(router, http.MethodGet, "/api/get-publications", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/get-publications?shopifyUrl=https://other.example.com&shopifyAdminToken=t", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://other.example.com", seen)
	assert.JSONEq(t, `{"data":{"publications":{"edges":[]}}}`, w.Body.String())
}

func TestUploadProducts(t *testing.T) {
	db := newDB(t)
	runs := repository.NewRunRepository(db.DB)
	router := proxyRouter(testConfig(), clientFor(&fakeShopify{}, nil), history.NewRecorder(runs, logger.Nop()))

	w := doJSON(router, http.MethodPost, "/api/upload-products", map[string]interface{}{
		"parsedCsvData": []map[string]interface{}{{"Handle": "mug", "Title": "Mug"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = doJSON(router, http.MethodPost, "/api/upload-products", map[string]interface{}{
		"parsedCsvData": []map[string]interface{}{
			{"Handle": "mug", "Title": "Mug", "Image Src": "https://cdn.example.com/a.jpg"},
			{"Handle": "mug", "Image Src": "https://cdn.example.com/b.jpg"},
		},
		"publications": []map[string]string{{"id": "p1", "name": "Online Store"}},
		"storeId":      "s1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Products uploaded successfully", body["message"])
	assert.Nil(t, body["failedRecords"])

	run, err := runs.Get(context.Background(), body["runId"].(string))
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters.Successful)
}

func TestUploadProductsAcceptsUploaderPublicationFields(t *testing.T) {
	var mu sync.Mutex
	var published []string
	fake := &fakeShopify{publishFn: func(id, publicationID string) shopify.Result[struct{}] {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, publicationID)
		return shopify.Result[struct{}]{Kind: shopify.ResultOK}
	}}
	db := newDB(t)
	router := proxyRouter(testConfig(), clientFor(fake, nil), history.NewRecorder(repository.NewRunRepository(db.DB), logger.Nop()))

	rows := []map[string]interface{}{{"Handle": "mug", "Title": "Mug"}}
	w := doJSON(router, http.MethodPost, "/api/upload-products", map[string]interface{}{
		"parsedCsvData": rows,
		"publications":  []map[string]string{{"publicationId": "gid://shopify/Publication/1", "publicationName": "Online Store"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, []string{"gid://shopify/Publication/1"}, published)

	w = doJSON(router, http.MethodPost, "/api/upload-products", map[string]interface{}{
		"parsedCsvData": rows,
		"publications":  []map[string]string{{"publicationName": "Online Store"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], events.ErrPublicationID.Error())
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCollectionImportAndFailedExport(t *testing.T) {
	db := newDB(t)
	runs := repository.NewRunRepository(db.DB)
	recorder := history.NewRecorder(runs, logger.Nop())

	var published []string
	fake := &fakeShopify{
		pubs: []shopify.Publication{{ID: "p1", Name: "Online Store"}, {ID: "p2", Name: "Shop"}},
		createFn: func(input shopify.CollectionInput) shopify.Result[shopify.Collection] {
			if input.Handle == "taken" {
				return shopify.Result[shopify.Collection]{Kind: shopify.ResultVendorError, UserErrors: []shopify.UserError{{Message: "Handle has already been taken"}}}
			}
			return shopify.Result[shopify.Collection]{Kind: shopify.ResultOK, Data: shopify.Collection{ID: "c-" + input.Handle}}
		},
		publishFn: func(id, publicationID string) shopify.Result[struct{}] {
			published = append(published, publicationID)
			return shopify.Result[struct{}]{Kind: shopify.ResultOK}
		},
	}

	collectionHandler := handlers.NewCollectionHandler(testConfig(), logger.Nop(), clientFor(fake, nil), recorder)
	runHandler := handlers.NewRunHandler(runs, logger.Nop())
	router := gin.New()
	router.POST("/api/v1/collections/import", collectionHandler.Import)
	router.GET("/api/v1/runs/:id", runHandler.Get)
	router.GET("/api/v1/runs/:id/failed", runHandler.Failed)

	// missing file
	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/collections/import", map[string]string{"storeId": "s1"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload a CSV file", decode(t, w)["error"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/v1/collections/import",
		map[string]string{"storeId": "s1", "storeName": "Pets", "publicationIds": "p2"},
		"collections.csv", "title,handle\nHats,hats\nTaken,taken\n"))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	status := body["data"].(map[string]interface{})["processingStatus"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"total": 2.0, "processed": 2.0, "successful": 1.0, "failed": 1.0}, status)
	assert.Equal(t, []string{"p2"}, published)

	runID := body["runId"].(string)
	w = doJSON(router, http.MethodGet, "/api/v1/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].(map[string]interface{})["records"], 2)

	w = doJSON(router, http.MethodGet, "/api/v1/runs/"+runID+"/failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "handle,title,error\n\"taken\",\"Taken\",\"Handle has already been taken\"", w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/runs/missing/failed", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplates(t *testing.T) {
	router := gin.New()
	router.GET("/api/v1/templates/:kind", handlers.Template)

	w := doJSON(router, http.MethodGet, "/api/v1/templates/collections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title,description,handle,match_any,type,operator,value,image_src\n")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "collections-template.csv")

	w = doJSON(router, http.MethodGet, "/api/v1/templates/products?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products-template.xlsx")

	w = doJSON(router, http.MethodGet, "/api/v1/templates/orders", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftLifecycle(t *testing.T) {
	db := newDB(t)
	h := handlers.NewDraftHandler(repository.NewDraftRepository(db.DB), logger.Nop())
	router := gin.New()
	router.GET("/api/v1/drafts/:key", h.Load)
	router.PUT("/api/v1/drafts/:key", h.Save)
	router.DELETE("/api/v1/drafts/:key", h.Clear)

	w := doJSON(router, http.MethodGet, "/api/v1/drafts/form-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/drafts/form-1", map[string]interface{}{"step": 2, "payload": []int{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/drafts/form-1", map[string]interface{}{
		"step": 2, "payload": map[string]string{"storeName": "Pets", "themeCategory": "pets"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/drafts/form-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["step"])
	assert.Equal(t, "Pets", data["payload"].(map[string]interface{})["storeName"])

	w = doJSON(router, http.MethodDelete, "/api/v1/drafts/form-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(router, http.MethodGet, "/api/v1/drafts/form-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type sessionFixture struct {
	router *gin.Engine
	hub    *stream.Hub
	sink   *fakeSink
	drafts *repository.DraftRepository
}

func newSessionFixture(t *testing.T, withStash bool) *sessionFixture {
	t.Helper()
	db := newDB(t)
	sink := &fakeSink{}
	hub := stream.NewHub(sink, logger.Nop(), stream.Options{})
	drafts := repository.NewDraftRepository(db.DB)

	var payloads handlers.PayloadStash
	if withStash {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		payloads = stash.New(client, time.Minute)
	}

	sessions := handlers.NewSessionHandler(hub, payloads, logger.Nop())
	stores := handlers.NewStoreHandler(repository.NewStoreRepository(db.DB), drafts, nil, hub, logger.Nop())

	router := gin.New()
	router.POST("/api/v1/stores/create", stores.Create)
	router.PUT("/api/v1/stores/:id/config", stores.UpdateConfig)
	publish := router.Group("/api/v1/publish")
	publish.POST("/payloads", sessions.StashPayload)
	publish.POST("/sessions", sessions.Open)
	publish.GET("/sessions/:id", sessions.Get)
	publish.GET("/sessions/:id/events", sessions.Events)
	publish.GET("/sessions/:id/failed", sessions.Failed)
	publish.DELETE("/sessions/:id", sessions.Close)

	return &sessionFixture{router: router, hub: hub, sink: sink, drafts: drafts}
}

func sessionID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, w)["data"].(map[string]interface{})["sessionId"].(string)
}

func TestOpenChainedSession(t *testing.T) {
	f := newSessionFixture(t, false)

	w := doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]string{"mode": "store", "storeName": "Pets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]string{"mode": "chained", "storeName": "Pets", "storeId": "s1"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := sessionID(t, w)

	cmd := f.sink.last()
	assert.Equal(t, events.PublishCollections, cmd.Name)
	assert.Equal(t, id, cmd.Session)

	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]interface{})["connected"])

	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id+"/failed?scope=collections", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(f.router, http.MethodDelete, "/api/v1/publish/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductsSessionTakesStashedPayload(t *testing.T) {
	f := newSessionFixture(t, true)

	w := doJSON(f.router, http.MethodPost, "/api/v1/publish/payloads", map[string]interface{}{"storeName": "Pets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, events.MsgNoPublications, decode(t, w)["error"])

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/payloads", map[string]interface{}{
		"storeName": "Pets", "storeId": "s1", "publications": []map[string]string{{"id": "p1", "name": "Online Store"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	key := decode(t, w)["key"].(string)

	open := map[string]string{"mode": "products", "storeName": "Pets", "storeId": "s1", "payloadKey": key}
	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", open)
	require.Equal(t, http.StatusCreated, w.Code)

	cmd := f.sink.last()
	assert.Equal(t, events.PublishProducts, cmd.Name)
	var start events.StartPayload
	require.NoError(t, cmd.Bind(&start))
	assert.Equal(t, []events.PublicationRef{{ID: "p1", Name: "Online Store"}}, start.Publications)

	// the stash hands a payload out once
	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", open)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStashedPayloadAcceptsUploaderPublicationFields(t *testing.T) {
	f := newSessionFixture(t, true)

	w := doJSON(f.router, http.MethodPost, "/api/v1/publish/payloads", map[string]interface{}{
		"storeName": "Pets", "storeId": "s1",
		"publications": []map[string]string{{"publicationId": "gid://shopify/Publication/1", "publicationName": "Online Store"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	key := decode(t, w)["key"].(string)

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]string{
		"mode": "products", "storeName": "Pets", "storeId": "s1", "payloadKey": key,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var start events.StartPayload
	require.NoError(t, f.sink.last().Bind(&start))
	assert.Equal(t, []events.PublicationRef{{ID: "gid://shopify/Publication/1", Name: "Online Store"}}, start.Publications)

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/payloads", map[string]interface{}{
		"storeName": "Pets", "publications": []map[string]string{{"publicationName": "Online Store"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]interface{}{
		"mode": "products", "storeName": "Pets", "publications": []map[string]string{{"id": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductsSessionWithoutPublicationsReportsIt(t *testing.T) {
	f := newSessionFixture(t, false)

	w := doJSON(f.router, http.MethodPost, "/api/v1/publish/payloads", map[string]interface{}{"storeName": "Pets"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]string{"mode": "products", "storeName": "Pets"})
	require.Equal(t, http.StatusCreated, w.Code)
	state := decode(t, w)["data"].(map[string]interface{})["state"].(map[string]interface{})
	products := state["products"].(map[string]interface{})
	assert.Equal(t, events.MsgNoPublications, products["error"])
	assert.Equal(t, true, products["terminated"])
}

func TestSessionFailedExportAndEvents(t *testing.T) {
	f := newSessionFixture(t, false)

	w := doJSON(f.router, http.MethodPost, "/api/v1/publish/sessions", map[string]interface{}{
		"mode": "products", "storeName": "Pets", "storeId": "s1",
		"publications": []map[string]string{{"id": "p1", "name": "Online Store"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := sessionID(t, w)

	failed, err := json.Marshal([]map[string]string{{"Handle": "mug", "Title": "Mug", "error": "Failed to publish to any publication"}})
	require.NoError(t, err)
	ctx := context.Background()
	f.hub.Dispatch(ctx, events.Event{Name: events.ProductsFailedRecords, Session: id, Seq: 1, Payload: failed})

	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id+"/failed?scope=products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Failed to publish to any publication"`)

	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id+"/failed?scope=orders", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.hub.Dispatch(ctx, events.Event{Name: events.PublishSuccess, Session: id, Seq: 2, Payload: json.RawMessage(`{"title":"Cup","handle":"cup"}`)})
	session, err := f.hub.Get(id)
	require.NoError(t, err)
	require.False(t, session.Snapshot().Done())

	done, err := json.Marshal(events.CompletedPayload{Scope: events.ScopeProducts, SuccessCount: 1})
	require.NoError(t, err)
	f.hub.Dispatch(ctx, events.Event{Name: events.PublishCompleted, Session: id, Seq: 3, Payload: done})
	require.True(t, session.Snapshot().Done())
	assert.Len(t, session.Snapshot().Products.Successful, 1)

	// a finished session replays its state and closes the stream
	w = doJSON(f.router, http.MethodGet, "/api/v1/publish/sessions/"+id+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "event:state")
}

func TestStoreCreateSendsCommandAndClearsDraft(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()
	_, err := f.drafts.Save(ctx, "store-form", 3, `{"storeName":"Pets"}`)
	require.NoError(t, err)

	w := doJSON(f.router, http.MethodPost, "/api/v1/stores/create", map[string]string{"storeName": "Pets"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cfg := map[string]string{"storeName": "Pets", "themeCategory": "pets", "affiliateId": "aff-1", "language": "fr"}
	w = doJSON(f.router, http.MethodPost, "/api/v1/stores/create?draftKey=store-form", cfg)
	require.Equal(t, http.StatusAccepted, w.Code)

	cmd := f.sink.last()
	assert.Equal(t, events.ShopifyCreate, cmd.Name)
	assert.Contains(t, string(cmd.Payload), `"affiliateId":"aff-1"`)

	_, err = f.drafts.Load(ctx, "store-form")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	w = doJSON(f.router, http.MethodPut, "/api/v1/stores/unknown/config", cfg)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
