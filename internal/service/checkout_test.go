package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"flick_shop/internal/model"
	"flick_shop/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderTotalsInvariant(t *testing.T) {
	db := newTestDB(t)
	p1 := seedProduct(t, db, 10, 250)
	p2 := seedProduct(t, db, 10, 90)
	checkout := NewCheckout(db, testLogger())

	order, err := checkout.Create(context.Background(), CreateOrderInput{
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: 2, SelectedSize: "L"},
			{ProductID: p2.ID, Quantity: 3, SelectedColor: "blue"},
		},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	// subtotal = Σ 行小计，total = subtotal + 运费 + 税
	assert.EqualValues(t, 2*250+3*90, order.Subtotal)
	assert.EqualValues(t, ShippingCostFlat, order.ShippingCost)
	assert.EqualValues(t, TaxFlat, order.Tax)
	assert.Equal(t, order.Subtotal+order.ShippingCost+order.Tax, order.TotalAmount)

	require.Len(t, order.Items, 2)
	var sum int64
	for _, it := range order.Items {
		assert.Equal(t, it.Price*it.Quantity, it.Subtotal)
		sum += it.Subtotal
	}
	assert.Equal(t, order.Subtotal, sum)

	assert.Equal(t, model.StatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))

	assert.EqualValues(t, 8, productStock(t, db, p1.ID))
	assert.EqualValues(t, 7, productStock(t, db, p2.ID))
}

func TestCreateOrderSnapshotsProductFields(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 5, 300)
	checkout := NewCheckout(db, testLogger())

	order, err := checkout.Create(context.Background(), CreateOrderInput{
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	// 商品改名不影响已落库的快照
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"name": "Renamed", "price": 999}).Error)

	got := orderByID(t, db, order.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Denim Jacket", got.Items[0].ProductName)
	assert.EqualValues(t, 300, got.Items[0].Price)
}

func TestCreateOrderAtomicRollback(t *testing.T) {
	db := newTestDB(t)
	p1 := seedProduct(t, db, 10, 100)
	p2 := seedProduct(t, db, 1, 100) // 第二行库存不足
	p3 := seedProduct(t, db, 10, 100)
	checkout := NewCheckout(db, testLogger())

	_, err := checkout.Create(context.Background(), CreateOrderInput{
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 5},
			{ProductID: p3.ID, Quantity: 1},
		},
		Shipping: validShipping(),
	})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	// 整单回滚：没有订单、没有订单行、库存分毫未动
	var orders, items int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.EqualValues(t, 10, productStock(t, db, p1.ID))
	assert.EqualValues(t, 1, productStock(t, db, p2.ID))
	assert.EqualValues(t, 10, productStock(t, db, p3.ID))
}

func TestCreateOrderMissingAndInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	checkout := NewCheckout(db, testLogger())

	_, err := checkout.Create(context.Background(), CreateOrderInput{
		Lines:    []LineInput{{ProductID: 999, Quantity: 1}},
		Shipping: validShipping(),
	})
	assert.ErrorIs(t, err, store.ErrProductNotFound)

	p := seedProduct(t, db, 5, 100)
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).
		Update("is_active", false).Error)

	_, err = checkout.Create(context.Background(), CreateOrderInput{
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	})
	assert.ErrorIs(t, err, store.ErrProductInactive)
	assert.EqualValues(t, 5, productStock(t, db, p.ID))
}

func TestCreateOrderShippingValidation(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 5, 100)
	checkout := NewCheckout(db, testLogger())

	mutations := []struct {
		field  string
		mutate func(*ShippingInput)
	}{
		{"name", func(s *ShippingInput) { s.Name = "" }},
		{"phone", func(s *ShippingInput) { s.Phone = "  " }},
		{"address", func(s *ShippingInput) { s.Address = "" }},
		{"city", func(s *ShippingInput) { s.City = "" }},
		{"state", func(s *ShippingInput) { s.State = "" }},
	}
	for _, m := range mutations {
		sh := validShipping()
		m.mutate(&sh)
		_, err := checkout.Create(context.Background(), CreateOrderInput{
			Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
			Shipping: sh,
		})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, m.field)
		assert.Contains(t, ve.Message, m.field)
	}

	// 校验失败不允许有任何写入
	assert.EqualValues(t, 5, productStock(t, db, p.ID))
}

func TestCreateOrderLineValidation(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 5, 100)
	checkout := NewCheckout(db, testLogger())
	ctx := context.Background()

	var ve *ValidationError

	_, err := checkout.Create(ctx, CreateOrderInput{Shipping: validShipping()})
	require.ErrorAs(t, err, &ve)

	_, err = checkout.Create(ctx, CreateOrderInput{
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 0}},
		Shipping: validShipping(),
	})
	require.ErrorAs(t, err, &ve)

	_, err = checkout.Create(ctx, CreateOrderInput{
		Lines:    []LineInput{{ProductID: 0, Quantity: 1}},
		Shipping: validShipping(),
	})
	require.ErrorAs(t, err, &ve)
}

func TestCreateOrderDefaults(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 5, 100)
	checkout := NewCheckout(db, testLogger())

	order, err := checkout.Create(context.Background(), CreateOrderInput{
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, "N/A", order.ShippingZip)
	assert.Equal(t, "Bangladesh", order.ShippingCountry)
	assert.Equal(t, "COD", order.PaymentMethod)
}

func TestGuestAccountExclusivity(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 10, 100)
	checkout := NewCheckout(db, testLogger())
	ctx := context.Background()

	guest, err := checkout.Create(ctx, CreateOrderInput{
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	assert.Nil(t, guest.UserID)
	assert.Equal(t, "Rahim Uddin", guest.GuestName)
	assert.Equal(t, "01712345678", guest.GuestPhone)

	userID := uint(42)
	owned, err := checkout.Create(ctx, CreateOrderInput{
		UserID:   &userID,
		Lines:    []LineInput{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	require.NotNil(t, owned.UserID)
	assert.EqualValues(t, 42, *owned.UserID)
	assert.Empty(t, owned.GuestName)
	assert.Empty(t, owned.GuestPhone)
}

func TestCartClearedWithOrder(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 10, 100)
	checkout := NewCheckout(db, testLogger())
	userID := uint(7)

	require.NoError(t, db.Create(&model.CartItem{UserID: userID, ProductID: p.ID, Quantity: 2}).Error)
	require.NoError(t, db.Create(&model.CartItem{UserID: 8, ProductID: p.ID, Quantity: 1}).Error)

	_, err := checkout.Create(context.Background(), CreateOrderInput{
		UserID:    &userID,
		Lines:     []LineInput{{ProductID: p.ID, Quantity: 2}},
		Shipping:  validShipping(),
		ClearCart: true,
	})
	require.NoError(t, err)

	var mine, others int64
	require.NoError(t, db.Model(&model.CartItem{}).Where("user_id = ?", userID).Count(&mine).Error)
	require.NoError(t, db.Model(&model.CartItem{}).Where("user_id = ?", 8).Count(&others).Error)
	assert.Zero(t, mine)
	assert.EqualValues(t, 1, others)
}

func TestCartRetainedWhenOrderFails(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 1, 100)
	checkout := NewCheckout(db, testLogger())
	userID := uint(7)

	require.NoError(t, db.Create(&model.CartItem{UserID: userID, ProductID: p.ID, Quantity: 5}).Error)

	_, err := checkout.Create(context.Background(), CreateOrderInput{
		UserID:    &userID,
		Lines:     []LineInput{{ProductID: p.ID, Quantity: 5}},
		Shipping:  validShipping(),
		ClearCart: true,
	})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	var n int64
	require.NoError(t, db.Model(&model.CartItem{}).Where("user_id = ?", userID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestConcurrentOrdersNoOversell(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 1, 100)
	checkout := NewCheckout(db, testLogger())

	// 两个请求同时抢最后一件：恰好一个成功，一个库存不足
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = checkout.CreateDirect(context.Background(), nil,
				LineInput{ProductID: p.ID, Quantity: 1}, validShipping(), "", "")
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, store.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.EqualValues(t, 0, productStock(t, db, p.ID))
}
