package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
	"github.com/imroytran/telegram-webapp/internal/services"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Exchange   string
	RoutingKey string
	Body       []byte
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Exchange: exchange, RoutingKey: routingKey, Body: body})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.RoutingKey
	}
	return keys
}

type orderFixture struct {
	svc      *services.OrderService
	orders   *repositories.MockOrderRepository
	carts    *repositories.MockCartRepository
	products *repositories.MockProductRepository
	events   *recordingPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	products := newCatalogFixture(t)
	carts := repositories.NewMockCartRepository()
	orders := repositories.NewMockOrderRepository(carts)
	events := &recordingPublisher{}
	return &orderFixture{
		svc:      services.NewOrderService(orders, carts, products, events),
		orders:   orders,
		carts:    carts,
		products: products,
		events:   events,
	}
}

func (f *orderFixture) seedCart(t *testing.T) {
	t.Helper()
	assert.NoError(t, f.carts.Create(&models.Cart{
		CustomerID: "cust-1",
		Username:   "anna",
		Items: []models.CartItem{
			{ProductID: "prod-dress", Quantity: 2, Price: 1000, Size: "M", Color: "black"},
		},
		Total: 2000,
	}))
}

func checkoutInfo() services.CheckoutInfo {
	return services.CheckoutInfo{
		Address: "Moscow, Tverskaya 1",
		Phone:   "+79001234567",
	}
}

func TestCreateFromCart(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)

	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.InDelta(t, 2000, order.Total, 0.001)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentAwaiting, order.PaymentStatus)
	assert.Len(t, order.StatusHistory, 1)

	// catalog titles are snapshotted onto order lines
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Summer Dress", order.Items[0].Title)
	assert.Equal(t, 2, order.Items[0].Quantity)

	// unset checkout options fall back to the defaults
	assert.Equal(t, "courier", order.DeliveryMethod)
	assert.Equal(t, "online", order.PaymentMethod)

	// the cart is drained as part of checkout
	cart, err := f.carts.GetByCustomer("cust-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)

	assert.Equal(t, []string{services.EventOrderCreated}, f.events.keys())
}

func TestCreateFromCartRequiresDeliveryInfo(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)

	_, err := f.svc.CreateFromCart("cust-1", services.CheckoutInfo{Phone: "+79001234567"})
	assert.ErrorIs(t, err, models.ErrMissingDeliveryInfo)

	_, err = f.svc.CreateFromCart("cust-1", services.CheckoutInfo{Address: "Moscow"})
	assert.ErrorIs(t, err, models.ErrMissingDeliveryInfo)

	// the cart is untouched after the rejections
	cart, err := f.carts.GetByCustomer("cust-1")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCreateFromCartRejectsEmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	// no cart at all
	_, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	// an existing but empty cart
	assert.NoError(t, f.carts.Create(&models.Cart{CustomerID: "cust-2", Username: "maria"}))
	_, err = f.svc.CreateFromCart("cust-2", checkoutInfo())
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	assert.Empty(t, f.events.keys())
}

func TestCreateFromCartLeavesCartOnUnresolvableProduct(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	assert.NoError(t, f.products.Delete("prod-dress"))

	_, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	cart, err := f.carts.GetByCustomer("cust-1")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1, "failed checkout must not drain the cart")

	orders, err := f.orders.GetAll(repositories.OrderFilter{})
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateFromCartRejectsUnavailableProduct(t *testing.T) {
	f := newOrderFixture(t)
	assert.NoError(t, f.carts.Create(&models.Cart{
		CustomerID: "cust-1",
		Username:   "anna",
		Items: []models.CartItem{
			{ProductID: "prod-gone", Quantity: 1, Price: 5000, Size: "M", Color: "beige"},
		},
		Total: 5000,
	}))

	_, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.ErrorIs(t, err, models.ErrProductUnavailable)
}

func TestOrderSnapshotsPromo(t *testing.T) {
	f := newOrderFixture(t)
	expires := time.Now().Add(24 * time.Hour)
	assert.NoError(t, f.carts.Create(&models.Cart{
		CustomerID: "cust-1",
		Username:   "anna",
		Items: []models.CartItem{
			{ProductID: "prod-dress", Quantity: 2, Price: 1000, Size: "M", Color: "black"},
		},
		Total: 1800,
		Promo: &models.AppliedPromo{Code: "SPRING10", Discount: 10, ExpiresAt: expires},
	}))

	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)
	assert.NotNil(t, order.Promo)
	assert.Equal(t, "SPRING10", order.Promo.Code)
	assert.InDelta(t, 1800, order.Total, 0.001)
}

func TestUpdateStatusWalksTheFlow(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	order, err = f.svc.UpdateStatus(order.ID, models.StatusProcessing, "packing", "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, order.Status)

	order, err = f.svc.UpdateStatus(order.ID, models.StatusShipped, "", "admin-1")
	assert.NoError(t, err)
	order, err = f.svc.UpdateStatus(order.ID, models.StatusCompleted, "", "admin-1")
	assert.NoError(t, err)
	assert.Len(t, order.StatusHistory, 4)

	_, err = f.svc.UpdateStatus(order.ID, models.StatusCancelled, "", "admin-1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	assert.Equal(t, []string{
		services.EventOrderCreated,
		services.EventStatusChanged,
		services.EventStatusChanged,
		services.EventStatusChanged,
	}, f.events.keys())
}

func TestCancelFromShipped(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	_, err = f.svc.UpdateStatus(order.ID, models.StatusProcessing, "", "admin-1")
	assert.NoError(t, err)
	_, err = f.svc.UpdateStatus(order.ID, models.StatusShipped, "", "admin-1")
	assert.NoError(t, err)

	order, err = f.svc.Cancel(order.ID, "customer refused the parcel", "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, order.Status)
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, "customer refused the parcel", last.Comment)

	// cancelled is terminal
	_, err = f.svc.Cancel(order.ID, "again", "admin-1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdatePaymentStatusPublishesBothEvents(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	order, err = f.svc.UpdatePaymentStatus(order.ID, models.PaymentPaid, "op-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.StatusProcessing, order.Status, "payment on a pending order advances it")

	// payment change plus the auto-advance status change
	assert.Equal(t, []string{
		services.EventOrderCreated,
		services.EventPaymentChanged,
		services.EventStatusChanged,
	}, f.events.keys())
}

func TestUpdatePaymentStatusDuplicateIsSilent(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	first, err := f.svc.UpdatePaymentStatus(order.ID, models.PaymentPaid, "op-1")
	assert.NoError(t, err)
	eventCount := len(f.events.keys())

	second, err := f.svc.UpdatePaymentStatus(order.ID, models.PaymentPaid, "op-1")
	assert.NoError(t, err)
	assert.Equal(t, first.Version, second.Version, "a no-op must not bump the version")
	assert.Len(t, second.StatusHistory, len(first.StatusHistory))
	assert.Len(t, f.events.keys(), eventCount, "a no-op must not publish events")
}

func TestAddTrackingNumber(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	_, err = f.svc.AddTrackingNumber(order.ID, "", nil, "admin-1")
	assert.ErrorIs(t, err, models.ErrMissingTrackingNumber)

	_, err = f.svc.UpdateStatus(order.ID, models.StatusProcessing, "", "admin-1")
	assert.NoError(t, err)

	eta := time.Now().Add(72 * time.Hour)
	order, err = f.svc.AddTrackingNumber(order.ID, "RU123456789", &eta, "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, "RU123456789", order.TrackingNumber)
	assert.NotNil(t, order.EstimatedDelivery)
	assert.Equal(t, models.StatusShipped, order.Status, "attaching tracking ships a processing order")
}

func TestAddTrackingNumberKeepsNonProcessingStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.seedCart(t)
	order, err := f.svc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)

	order, err = f.svc.AddTrackingNumber(order.ID, "RU123456789", nil, "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "RU123456789", order.TrackingNumber)
}

func TestGetStatistics(t *testing.T) {
	f := newOrderFixture(t)
	now := time.Now()

	seed := []models.Order{
		{
			ID: "o1", CustomerID: "c1", Status: models.StatusProcessing,
			PaymentStatus: models.PaymentPaid, Total: 2000, CreatedAt: now,
			Items: []models.OrderItem{{ProductID: "prod-dress", Title: "Summer Dress", Quantity: 2, Price: 1000}},
		},
		{
			ID: "o2", CustomerID: "c2", Status: models.StatusPending,
			PaymentStatus: models.PaymentAwaiting, Total: 600, CreatedAt: now,
			Items: []models.OrderItem{{ProductID: "prod-skirt", Title: "Pleated Skirt", Quantity: 1, Price: 600}},
		},
		{
			ID: "o3", CustomerID: "c3", Status: models.StatusCompleted,
			PaymentStatus: models.PaymentPaid, Total: 5000, CreatedAt: now.AddDate(0, 0, -40),
			Items: []models.OrderItem{{ProductID: "prod-gone", Title: "Sold Out Coat", Quantity: 5, Price: 1000}},
		},
	}
	for i := range seed {
		assert.NoError(t, f.orders.Create(&seed[i]))
	}

	stats, err := f.svc.GetStatistics("day")
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders, "the 40-day-old order is outside the window")
	assert.Equal(t, 1, stats.ByStatus[models.StatusProcessing])
	assert.Equal(t, 1, stats.ByStatus[models.StatusPending])
	assert.InDelta(t, 2000, stats.Revenue, 0.001, "only paid orders count as revenue")

	assert.Len(t, stats.TopProducts, 2)
	assert.Equal(t, "prod-dress", stats.TopProducts[0].ProductID, "ranked by quantity sold")
	assert.Equal(t, 2, stats.TopProducts[0].Quantity)

	all, err := f.svc.GetStatistics("all")
	assert.NoError(t, err)
	assert.Equal(t, 3, all.TotalOrders)
	assert.InDelta(t, 7000, all.Revenue, 0.001)
}

func TestOrderItemsAndTotalFrozenAfterCreation(t *testing.T) {
	products := newCatalogFixture(t)
	promos := repositories.NewMockPromoRepository()
	carts := repositories.NewMockCartRepository()
	orders := repositories.NewMockOrderRepository(carts)
	cartSvc := services.NewCartService(carts, products, promos)
	orderSvc := services.NewOrderService(orders, carts, products, nil)

	assert.NoError(t, promos.Create(&models.PromoCode{
		Code: "SPRING10", Discount: 10, Active: true, ExpiresAt: time.Now().Add(time.Hour),
	}))
	_, err := cartSvc.AddItem("cust-1", "anna", "prod-dress", 2, "M", "black")
	assert.NoError(t, err)
	_, err = cartSvc.ApplyPromoCode("cust-1", "anna", "SPRING10")
	assert.NoError(t, err)

	order, err := orderSvc.CreateFromCart("cust-1", checkoutInfo())
	assert.NoError(t, err)
	wantItems := append([]models.OrderItem(nil), order.Items...)
	wantTotal := order.Total
	assert.InDelta(t, 1800, wantTotal, 0.001)

	// the catalog and the promo move on after checkout
	dress, err := products.GetByID("prod-dress")
	assert.NoError(t, err)
	dress.Price = 9999
	assert.NoError(t, products.Update(dress))

	promo, err := promos.GetByCode("SPRING10")
	assert.NoError(t, err)
	promo.Active = false
	promo.ExpiresAt = time.Now().Add(-time.Hour)
	assert.NoError(t, promos.Update(promo))

	frozen := func(o *models.Order) {
		assert.Equal(t, wantItems, o.Items)
		assert.InDelta(t, wantTotal, o.Total, 0.001)
		assert.NotNil(t, o.Promo)
		assert.Equal(t, "SPRING10", o.Promo.Code)
		assert.InDelta(t, 10, o.Promo.Discount, 0.001)
	}

	order, err = orderSvc.UpdatePaymentStatus(order.ID, models.PaymentPaid, "op-1")
	assert.NoError(t, err)
	frozen(order)

	order, err = orderSvc.AddTrackingNumber(order.ID, "RU123456789", nil, "admin-1")
	assert.NoError(t, err)
	frozen(order)

	order, err = orderSvc.UpdateStatus(order.ID, models.StatusCompleted, "", "admin-1")
	assert.NoError(t, err)
	frozen(order)

	// even a product deletion leaves the snapshot intact
	assert.NoError(t, products.Delete("prod-dress"))
	stored, err := orderSvc.GetByID(order.ID)
	assert.NoError(t, err)
	frozen(stored)
}

func TestListByCustomerFiltersOwnership(t *testing.T) {
	f := newOrderFixture(t)
	assert.NoError(t, f.orders.Create(&models.Order{ID: "o1", CustomerID: "c1", Status: models.StatusPending}))
	assert.NoError(t, f.orders.Create(&models.Order{ID: "o2", CustomerID: "c2", Status: models.StatusPending}))

	orders, err := f.svc.ListByCustomer("c1")
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}
