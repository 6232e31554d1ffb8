package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	cartapp "github.com/printshop/personalizer/internal/application/cart"
	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	personalizationapp "github.com/printshop/personalizer/internal/application/personalization"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/infrastructure/cache"
	imgproc "github.com/printshop/personalizer/internal/infrastructure/imaging"
	"github.com/printshop/personalizer/internal/infrastructure/persistence"
	"github.com/printshop/personalizer/internal/infrastructure/persistence/models"
	"github.com/printshop/personalizer/internal/infrastructure/storage"
	"github.com/printshop/personalizer/internal/interfaces/http/dto"
	"github.com/printshop/personalizer/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testSessionHeader = "X-Test-Session"
	defaultSession    = "shopper-1"

	// onePixelPNG is a valid 1x1 PNG
	onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
)

// testEnv wires the real services over an in-memory SQLite database
type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	storage  *storage.MemoryObjectStorage
	locker   *cache.InMemoryLineLocker
	product  *catalog.ProductTemplate
	variant  *catalog.ProductVariant
	front    *catalog.DesignArea
	back     *catalog.DesignArea
	products *persistence.GormProductRepository
	areas    *persistence.GormDesignAreaRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	env := &testEnv{
		t:        t,
		db:       db,
		storage:  storage.NewMemoryObjectStorage("https://cdn.test"),
		locker:   cache.NewInMemoryLineLocker(time.Minute),
		products: persistence.NewGormProductRepository(db),
		areas:    persistence.NewGormDesignAreaRepository(db),
	}
	carts := persistence.NewGormCartRepository(db)
	records := persistence.NewGormPersonalizationRepository(db)
	processor := imgproc.NewProcessor()

	registry := catalogapp.NewDesignAreaRegistry(env.products, env.areas, env.storage)
	productService := catalogapp.NewProductService(env.products, registry, env.storage, processor)
	areaService := catalogapp.NewDesignAreaService(env.products, env.areas, registry, env.storage, processor)

	personalizationService := personalizationapp.NewService(env.products, registry, records, carts,
		personalizationapp.NewCartLineBridge(carts, env.products))
	personalizationService.SetDraftStore(cache.NewInMemoryDraftStore(time.Hour))
	personalizationService.SetLineLocker(env.locker)
	personalizationService.SetThumbnailer(processor)
	cartService := cartapp.NewService(carts, records, personalizationService.ImageURL)

	ph := NewPersonalizationHandler(personalizationService)
	ch := NewCartHandler(cartService)
	ah := NewCatalogHandler(productService, areaService)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.POST("/custom/cart_update", withTestSession(), ph.LegacyCartUpdate)
	api := router.Group("/api/v1", withTestSession())
	api.POST("/personalizer/metadata", ph.FetchMetadata)
	api.POST("/personalizer/drafts", ph.SaveDraft)
	api.POST("/cart/personalized-lines", ph.AddToCart)
	api.POST("/cart/lines/preview", ph.PreviewLine)
	api.POST("/cart/lines/load", ph.LoadLine)
	api.POST("/cart/lines/update", ph.UpdateLine)
	api.GET("/personalizations/:id/image", ph.ServeImage)
	api.GET("/cart", ch.GetCart)
	api.DELETE("/cart/lines/:id", ch.RemoveLine)

	admin := router.Group("/api/v1/admin")
	admin.POST("/products", ah.CreateProduct)
	admin.GET("/products/:id", ah.GetProduct)
	admin.POST("/variants/:id/image", ah.UploadVariantImage)
	admin.GET("/variants/:id/design-areas", ah.ListDesignAreas)
	admin.POST("/variants/:id/design-areas", ah.CreateDesignArea)
	admin.PUT("/design-areas/:id", ah.UpdateDesignArea)
	admin.DELETE("/design-areas/:id", ah.DeleteDesignArea)
	admin.POST("/design-areas/:id/image", ah.UploadDesignAreaImage)
	admin.GET("/cart-lines/:id/personalizations", ph.ListLineRecords)
	env.router = router

	env.seed()
	return env
}

// seed stores a T-shirt with one variant, a "front" area with a background
// image and a "back" area without one
func (e *testEnv) seed() {
	ctx := context.Background()
	product, err := catalog.NewProductTemplate("T-Shirt", "Cotton tee")
	require.NoError(e.t, err)
	_, err = product.AddVariant([]string{"White", "M"}, decimal.NewFromInt(20))
	require.NoError(e.t, err)
	require.NoError(e.t, e.products.Save(ctx, product))

	variant := &product.Variants[0]
	front, err := catalog.NewDesignArea(variant.ID, catalog.DesignAreaInput{Key: "front", Label: "Front"})
	require.NoError(e.t, err)
	front.SetImage(catalog.ImageStorageKey(front.ID), "front.png")
	require.NoError(e.t, e.storage.Upload(ctx, front.ImageKey, testPNG(e.t, 8, 8), "image/png"))
	require.NoError(e.t, e.areas.Save(ctx, front))

	back, err := catalog.NewDesignArea(variant.ID, catalog.DesignAreaInput{Key: "back", Label: "Back", SortOrder: 1})
	require.NoError(e.t, err)
	require.NoError(e.t, e.areas.Save(ctx, back))

	e.product, e.variant, e.front, e.back = product, variant, front, back
}

// withTestSession stands in for the session cookie middleware
func withTestSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(testSessionHeader)
		if sid == "" {
			sid = defaultSession
		}
		c.Set(middleware.SessionIDKey, sid)
		c.Next()
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

// envelope decodes a response, re-decoding Data into out when given
func envelope(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	resp := decodeResponse(t, w)
	if out != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return resp
}

// addLine adds the seeded variant with a front design and returns the response
func (e *testEnv) addLine(qty int) personalizationapp.AddToCartResponse {
	e.t.Helper()
	w := e.postJSON("/api/v1/cart/personalized-lines", map[string]any{
		"variant_id": e.variant.ID.String(),
		"designs": map[string]any{
			"front": map[string]any{
				"json":    map[string]any{"version": "5.3.0", "objects": []any{map[string]any{"type": "text", "text": "Hi"}}},
				"preview": "data:image/png;base64," + onePixelPNG,
			},
		},
		"add_qty": qty,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var resp personalizationapp.AddToCartResponse
	envelope(e.t, w, &resp)
	return resp
}

// testPNG encodes a solid image of the given size
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// multipartUpload builds a request carrying data in the "file" field
func multipartUpload(t *testing.T, path, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
