package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ProdProductRepoMock struct{ mock.Mock }

func (m *ProdProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProdProductRepoMock) ListWithEmbedding(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProdProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProdProductRepoMock) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	panic("not used in ProductUsecase tests")
}

func (m *ProdProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProdProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProdProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ProdInventoryRepoMock struct{ mock.Mock }

func (m *ProdInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *ProdInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	panic("not used in ProductUsecase tests")
}

func (m *ProdInventoryRepoMock) DecreaseStock(ctx context.Context, productID int64, qty int64) error {
	panic("not used in ProductUsecase tests")
}

func (m *ProdInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	panic("not used in ProductUsecase tests")
}

type ProdCategoryRepoMock struct{ mock.Mock }

func (m *ProdCategoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Category)
	return items, args.Error(1)
}

func (m *ProdCategoryRepoMock) FindByID(ctx context.Context, id int64) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *ProdCategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	created, _ := args.Get(0).(model.Category)
	return created, args.Error(1)
}

func (m *ProdCategoryRepoMock) Update(ctx context.Context, c model.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ProdCategoryRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newProductUC() (*usecase.ProductUsecase, *ProdProductRepoMock, *ProdInventoryRepoMock, *ProdCategoryRepoMock) {
	products := new(ProdProductRepoMock)
	inventory := new(ProdInventoryRepoMock)
	categories := new(ProdCategoryRepoMock)
	return usecase.NewProductUsecase(products, inventory, categories), products, inventory, categories
}

// =====================
// Public: List / Detail
// =====================

func TestProductUsecase_ListPublicProducts_InvalidPage(t *testing.T) {
	uc, _, _, _ := newProductUC()

	_, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid page")
}

func TestProductUsecase_ListPublicProducts_InvalidPriceRange(t *testing.T) {
	uc, _, _, _ := newProductUC()

	min := decimal.NewFromInt(50)
	max := decimal.NewFromInt(10)
	_, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20, MinPrice: &min, MaxPrice: &max,
	})
	assertHTTPError(t, err, http.StatusBadRequest, "min_price must be <= max_price")
}

func TestProductUsecase_ListPublicProducts_TrimsQuery(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	products.On("ListPublic", ctx, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Q == "camiseta"
	})).Return([]model.Product{}, int64(0), nil)

	out, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 20, Q: "  camiseta  "})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
	products.AssertExpectations(t)
}

func TestProductUsecase_GetProductDetail_InactiveIsNotFound(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	products.On("FindByID", ctx, int64(1)).Return(model.Product{ID: 1, IsActive: false}, nil)

	_, err := uc.GetProductDetail(ctx, 1)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestProductUsecase_GetProductDetail_Unknown(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	products.On("FindByID", ctx, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.GetProductDetail(ctx, 99)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

// =====================
// Recommend
// =====================

func TestProductUsecase_Recommend_RanksByCosineSimilarity(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	anchor := model.Product{ID: 1, IsActive: true, Embedding: []float64{1, 0}}
	products.On("FindByID", ctx, int64(1)).Return(anchor, nil)
	products.On("ListWithEmbedding", ctx).Return([]model.Product{
		anchor,
		{ID: 2, Embedding: []float64{0, 1}},
		{ID: 3, Embedding: []float64{1, 0.1}},
	}, nil)

	out, err := uc.Recommend(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// anchor自身は除外、類似度の高い順
	assert.Equal(t, int64(3), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
}

func TestProductUsecase_Recommend_NoEmbeddingReturnsEmpty(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	products.On("FindByID", ctx, int64(1)).Return(model.Product{ID: 1, IsActive: true}, nil)

	out, err := uc.Recommend(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, out)

	products.AssertNotCalled(t, "ListWithEmbedding", mock.Anything)
}

// =====================
// Admin
// =====================

func TestProductUsecase_AdminCreateProduct_UnknownCategory(t *testing.T) {
	uc, _, _, categories := newProductUC()
	ctx := context.Background()

	categories.On("FindByID", ctx, int64(5)).Return(model.Category{}, repo.ErrNotFound)

	_, err := uc.AdminCreateProduct(ctx, 1, usecase.AdminCreateProductInput{
		Name:       "Camiseta",
		Price:      decimal.NewFromInt(10),
		Stock:      5,
		CategoryID: 5,
	})
	assertHTTPError(t, err, http.StatusBadRequest, "unknown category")
}

func TestProductUsecase_AdminCreateProduct_NegativePrice(t *testing.T) {
	uc, _, _, _ := newProductUC()

	_, err := uc.AdminCreateProduct(context.Background(), 1, usecase.AdminCreateProductInput{
		Name:       "Camiseta",
		Price:      decimal.NewFromInt(-1),
		CategoryID: 5,
	})
	assertHTTPError(t, err, http.StatusBadRequest, "price must be >= 0")
}

func TestProductUsecase_AdminSetStock_Negative(t *testing.T) {
	uc, _, _, _ := newProductUC()

	err := uc.AdminSetStock(context.Background(), 1, 2, -1)
	assertHTTPError(t, err, http.StatusBadRequest, "stock must be >= 0")
}

func TestProductUsecase_AdminSetStock_OK(t *testing.T) {
	uc, _, inventory, _ := newProductUC()
	ctx := context.Background()

	inventory.On("SetStock", ctx, int64(2), int64(30)).Return(nil)

	require.NoError(t, uc.AdminSetStock(ctx, 1, 2, 30))
	inventory.AssertExpectations(t)
}

func TestProductUsecase_AdminDeleteProduct_SoftDeletes(t *testing.T) {
	uc, products, _, _ := newProductUC()
	ctx := context.Background()

	products.On("SoftDelete", ctx, int64(2)).Return(nil)

	require.NoError(t, uc.AdminDeleteProduct(ctx, 1, 2))
	products.AssertExpectations(t)
}
