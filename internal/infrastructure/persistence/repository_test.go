package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens an in-memory database with the full schema.
// A single connection keeps every query on the same in-memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newMockDB wraps sqlmock in the postgres dialector
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func seedProduct(t *testing.T, db *gorm.DB, variants int) *catalog.ProductTemplate {
	t.Helper()
	p, err := catalog.NewProductTemplate("Classic Tee", "100% cotton")
	require.NoError(t, err)
	for i := 0; i < variants; i++ {
		_, err := p.AddVariant([]string{"Size " + string(rune('S'+i))}, decimal.NewFromInt(20))
		require.NoError(t, err)
	}
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormProductRepository(db)
	p := seedProduct(t, db, 2)

	t.Run("find by id loads variants in order", func(t *testing.T) {
		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Classic Tee", got.Name)
		require.Len(t, got.Variants, 2)
		assert.Equal(t, p.Variants[0].ID, got.Variants[0].ID)
		assert.Equal(t, []string{"Size S"}, got.Variants[0].AttributeValues)
		assert.True(t, decimal.NewFromInt(20).Equal(got.Variants[0].Price))
	})

	t.Run("save variant image", func(t *testing.T) {
		v, err := repo.FindVariant(ctx, p.Variants[1].ID)
		require.NoError(t, err)
		v.SetImage(catalog.VariantImageStorageKey(v.ID))
		require.NoError(t, repo.SaveVariant(ctx, v))

		again, err := repo.FindVariant(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, "variants/"+v.ID.String()+".png", again.ImageKey)
	})

	t.Run("missing product", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		_, err = repo.FindVariant(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormDesignAreaRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormDesignAreaRepository(db)
	variantID := uuid.New()

	back, err := catalog.NewDesignArea(variantID, catalog.DesignAreaInput{Key: "back", SortOrder: 2})
	require.NoError(t, err)
	front, err := catalog.NewDesignArea(variantID, catalog.DesignAreaInput{
		Key:        "front",
		Restricted: true,
		Bounds:     &catalog.Rect{X: 5, Y: 6, Width: 100, Height: 120},
		SortOrder:  1,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, back))
	require.NoError(t, repo.Save(ctx, front))

	areas, err := repo.FindByVariant(ctx, variantID)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "front", areas[0].Key)
	require.NotNil(t, areas[0].Bounds)
	assert.Equal(t, catalog.Rect{X: 5, Y: 6, Width: 100, Height: 120}, *areas[0].Bounds)
	assert.Nil(t, areas[1].Bounds)

	none, err := repo.FindByVariant(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Delete(ctx, back.ID))
	_, err = repo.FindByID(ctx, back.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, back.ID), shared.ErrNotFound))
}

func TestGormDesignAreaRepository_FindByID_SQL(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormDesignAreaRepository(gormDB)

	areaID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "design_areas" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(areaID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	area, err := repo.FindByID(context.Background(), areaID)
	assert.Nil(t, area)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormCartRepository(db)
	personalizations := NewGormPersonalizationRepository(db)

	c, err := cart.New("session-a")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	line, err := c.AddLine(uuid.New(), uuid.New(), "Classic Tee", 2, decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, repo.CreateLine(ctx, line))

	t.Run("find by session with lines", func(t *testing.T) {
		got, err := repo.FindBySession(ctx, "session-a")
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, 2, got.TotalQuantity())

		_, err = repo.FindBySession(ctx, "other")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("create stores the cart with its lines or nothing", func(t *testing.T) {
		fresh, err := cart.New("session-b")
		require.NoError(t, err)
		_, err = fresh.AddLine(uuid.New(), uuid.New(), "Mug", 1, decimal.NewFromInt(9))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, fresh))

		got, err := repo.FindBySession(ctx, "session-b")
		require.NoError(t, err)
		assert.Len(t, got.Lines, 1)

		broken, err := cart.New("session-c")
		require.NoError(t, err)
		clash, err := broken.AddLine(uuid.New(), uuid.New(), "Mug", 1, decimal.NewFromInt(9))
		require.NoError(t, err)
		clash.ID = line.ID
		assert.Error(t, repo.Create(ctx, broken))

		_, err = repo.FindBySession(ctx, "session-c")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("update line quantity", func(t *testing.T) {
		require.NoError(t, line.SetQuantity(4))
		require.NoError(t, repo.UpdateLine(ctx, line))

		got, err := repo.FindLine(ctx, line.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Quantity)

		missing := &cart.Line{BaseEntity: shared.NewBaseEntity(), Quantity: 1}
		assert.True(t, errors.Is(repo.UpdateLine(ctx, missing), shared.ErrNotFound))
	})

	t.Run("delete line cascades personalizations", func(t *testing.T) {
		rec := personalization.New(line.ID, c.ID, catalog.DesignArea{Key: "front"}, personalization.Resolve(nil, nil))
		require.NoError(t, personalizations.Create(ctx, rec))

		require.NoError(t, repo.DeleteLine(ctx, line.ID))

		_, err := repo.FindLine(ctx, line.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		left, err := personalizations.FindByLine(ctx, line.ID)
		require.NoError(t, err)
		assert.Empty(t, left)

		assert.True(t, errors.Is(repo.DeleteLine(ctx, line.ID), shared.ErrNotFound))
	})
}

func TestGormPersonalizationRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormPersonalizationRepository(db)
	lineID, orderID := uuid.New(), uuid.New()
	front := catalog.DesignArea{BaseEntity: shared.NewBaseEntity(), Key: "front"}
	back := catalog.DesignArea{BaseEntity: shared.NewBaseEntity(), Key: "back"}

	first := personalization.New(lineID, orderID, front, personalization.Resolve(nil, []byte{0x89, 'P', 'N', 'G'}))
	require.NoError(t, repo.Create(ctx, first))

	t.Run("find by id round trips bytes and scene", func(t *testing.T) {
		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Preview)
		assert.Equal(t, "front", got.AreaKey)
		assert.JSONEq(t, personalization.EmptyScene().String(), got.Scene)
		require.NotNil(t, got.DesignAreaID)
		assert.Equal(t, front.ID, *got.DesignAreaID)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("replace discards previous records", func(t *testing.T) {
		build := func() []*personalization.Personalization {
			return []*personalization.Personalization{
				personalization.New(lineID, orderID, front, personalization.Resolve(nil, nil)),
				personalization.New(lineID, orderID, back, personalization.Resolve(nil, nil)),
			}
		}

		ids, err := repo.ReplaceForLine(ctx, lineID, build(), nil)
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		ids, err = repo.ReplaceForLine(ctx, lineID, build(), nil)
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		records, err := repo.FindByLine(ctx, lineID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		_, err = repo.FindByID(ctx, first.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("failing record is skipped and reported", func(t *testing.T) {
		ok := personalization.New(lineID, orderID, front, personalization.Resolve(nil, nil))
		dup := personalization.New(lineID, orderID, back, personalization.Resolve(nil, nil))
		dup.ID = ok.ID // primary key collision

		var failed []*personalization.Personalization
		ids, err := repo.ReplaceForLine(ctx, lineID, []*personalization.Personalization{ok, dup},
			func(rec *personalization.Personalization, err error) {
				failed = append(failed, rec)
			})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ok.ID}, ids)
		require.Len(t, failed, 1)
		assert.Equal(t, "back", failed[0].AreaKey)

		records, err := repo.FindByLine(ctx, lineID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("second record with the same area key is rejected", func(t *testing.T) {
		first := personalization.New(lineID, orderID, front, personalization.Resolve(nil, nil))
		again := personalization.New(lineID, orderID, front, personalization.Resolve(nil, nil))

		var failed int
		ids, err := repo.ReplaceForLine(ctx, lineID, []*personalization.Personalization{first, again},
			func(*personalization.Personalization, error) { failed++ })
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.ID}, ids)
		assert.Equal(t, 1, failed)

		assert.Error(t, repo.Create(ctx, personalization.New(lineID, orderID, front, personalization.Resolve(nil, nil))))

		records, err := repo.FindByLine(ctx, lineID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("delete by line", func(t *testing.T) {
		require.NoError(t, repo.DeleteByLine(ctx, lineID))
		records, err := repo.FindByLine(ctx, lineID)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestGormPersonalizationRepository_ReplaceRollsBackOnDeleteFailure(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormPersonalizationRepository(gormDB)

	lineID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "personalizations" WHERE line_id = \$1`).
		WithArgs(lineID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	ids, err := repo.ReplaceForLine(context.Background(), lineID, nil, nil)
	assert.Error(t, err)
	assert.Nil(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
