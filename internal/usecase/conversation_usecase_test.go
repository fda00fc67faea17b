package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

// fakeTx — заглушка pgx.Tx для прогона runInTx без живой базы.
type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(ctx context.Context) error          { return nil }
func (fakeTx) Rollback(ctx context.Context) error        { return nil }
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeDB struct{}

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.UserProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.UserProfile)}
}

func (f *fakeUserRepo) Get(_ context.Context, userID int64) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeUserRepo) Upsert(_ context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *profile
	if prev, ok := f.users[profile.UserID]; ok {
		stored.RegisteredAt = prev.RegisteredAt
	} else {
		stored.RegisteredAt = time.Now()
	}
	f.users[profile.UserID] = stored
	return &stored, nil
}

type fakeCartRepo struct {
	mu        sync.Mutex
	items     map[int64][]domain.CartItem
	failClear bool
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{items: make(map[int64][]domain.CartItem)}
}

func (f *fakeCartRepo) AddItem(_ context.Context, item *domain.CartItem) error {
	if item.Quantity < 1 {
		return e.ErrInvalidQuantity
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.items[item.UserID] {
		if existing.ProductID == item.ProductID {
			f.items[item.UserID][i].Quantity += item.Quantity
			return nil
		}
	}
	stored := *item
	stored.AddedAt = time.Now()
	f.items[item.UserID] = append(f.items[item.UserID], stored)
	return nil
}

func (f *fakeCartRepo) ListItems(_ context.Context, userID int64) ([]domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CartItem(nil), f.items[userID]...), nil
}

func (f *fakeCartRepo) Clear(_ context.Context, userID int64) error {
	if f.failClear {
		return errors.New("storage unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, userID)
	return nil
}

type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     []*domain.OrderRecord
	failAppend bool
}

func (f *fakeOrderRepo) Append(_ context.Context, order *domain.OrderRecord) (*domain.OrderRecord, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if f.failAppend {
		return nil, errors.New("storage unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *order
	stored.ID = int64(len(f.orders) + 1)
	stored.CreatedAt = time.Now()
	f.orders = append(f.orders, &stored)
	return &stored, nil
}

func (f *fakeOrderRepo) FindByCustomer(_ context.Context, fullName string) ([]*domain.OrderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*domain.OrderRecord
	for _, order := range f.orders {
		if order.CustomerFullName == fullName {
			result = append(result, order)
		}
	}
	return result, nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error { return nil }

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]SessionState
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]SessionState)}
}

func (f *fakeSessionRepo) Get(_ context.Context, userID int64) (*SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (f *fakeSessionRepo) Put(_ context.Context, session *SessionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.UserID] = *session
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	return nil
}

type fakeCatalog struct {
	products []domain.Product
}

func (f *fakeCatalog) ListAll() []domain.Product {
	return append([]domain.Product(nil), f.products...)
}

func (f *fakeCatalog) GetByID(id int64) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, e.ErrProductNotFound
}

type engineFixture struct {
	uc       *ConversationUseCase
	users    *fakeUserRepo
	cart     *fakeCartRepo
	orders   *fakeOrderRepo
	outbox   *fakeOutboxRepo
	sessions *fakeSessionRepo
	catalog  *fakeCatalog
}

func newEngineFixture(t *testing.T, products ...domain.Product) *engineFixture {
	t.Helper()

	if len(products) == 0 {
		products = []domain.Product{
			{ID: 1, Name: "Пластик PLA", Price: 15000, Description: "Качественный PLA пластик"},
			{ID: 2, Name: "Подставка для телефона", Price: 30000, Description: "Стильная подставка"},
		}
	}

	f := &engineFixture{
		users:    newFakeUserRepo(),
		cart:     newFakeCartRepo(),
		orders:   &fakeOrderRepo{},
		outbox:   &fakeOutboxRepo{},
		sessions: newFakeSessionRepo(),
		catalog:  &fakeCatalog{products: products},
	}
	f.uc = NewConversationUC(
		f.users, f.cart, f.orders, f.outbox, f.sessions, f.catalog,
		fakeDB{}, logger.NewSlogLogger(), 3,
	)

	return f
}

// register проводит пользователя через онбординг до главного меню.
func (f *engineFixture) register(t *testing.T, userID int64, fullName string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, userID, StartEvent{})
	require.NoError(t, err)
	view, err := f.uc.Handle(ctx, userID, TextEvent{Content: fullName})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Регистрация завершена")
}

func actionTokens(view *View) []string {
	tokens := make([]string, 0, len(view.Actions))
	for _, action := range view.Actions {
		tokens = append(tokens, action.Token)
	}
	return tokens
}

func TestOnboarding(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	view, err := f.uc.Handle(ctx, 7, StartEvent{})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Введи своё Имя и Фамилию")

	// Одно слово не принимается, попытки не ограничены
	view, err = f.uc.Handle(ctx, 7, TextEvent{Content: "Иван"})
	require.NoError(t, err)
	require.Contains(t, view.Text, "через пробел")

	view, err = f.uc.Handle(ctx, 7, TextEvent{Content: "  Ann   Lee  "})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Ann")

	user, err := f.users.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Ann Lee", user.FullName())

	// Повторный /start ведёт сразу в главное меню
	view, err = f.uc.Handle(ctx, 7, StartEvent{})
	require.NoError(t, err)
	require.Contains(t, view.Text, "добро пожаловать")
	require.Contains(t, actionTokens(view), TokenCatalog)
}

func TestSelectRequiresRegistration(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.uc.Handle(context.Background(), 7, SelectEvent{Selection: SelCatalog{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "пользователь не найден")
}

func TestCatalogAndProductSelection(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCatalog{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Пластик PLA")
	require.Contains(t, view.Text, "150.00 ₽")
	require.Contains(t, actionTokens(view), "product_1")

	view, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Выберите количество")
	require.Contains(t, actionTokens(view), "qty_5")

	session, err := f.sessions.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), session.SelectedProductID)
}

func TestAddToCartAccumulatesQuantity(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "x2 добавлен")

	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 3}})
	require.NoError(t, err)

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int32(5), items[0].Quantity)
}

func TestQuantityWithoutSelectedProduct(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "товар не выбран")

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestNonPositiveQuantityDoesNotMutateCart(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 0}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Выберите количество")

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCartView(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCart{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "корзина пуста")

	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)

	view, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCart{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Пластик PLA x2 = 300.00 ₽")
	require.Contains(t, view.Text, "Итого: 300.00 ₽")
	require.Contains(t, actionTokens(view), TokenCheckout)
}

func TestCheckoutSuccess(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCheckout{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Заказ оформлен")

	require.Len(t, f.orders.orders, 1)
	order := f.orders.orders[0]
	require.Equal(t, "Ann Lee", order.CustomerFullName)
	require.Equal(t, []domain.OrderLine{{ProductName: "Пластик PLA", Quantity: 2}}, order.Lines)

	require.Len(t, f.outbox.events, 1)
	require.Equal(t, OrderCreated, f.outbox.events[0].EventType)
	require.Equal(t, int64(7), f.outbox.events[0].UserID)
	require.Contains(t, string(f.outbox.events[0].Payload), `"total_price":30000`)

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")

	view, err := f.uc.Handle(context.Background(), 7, SelectEvent{Selection: SelCheckout{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Корзина пуста")
	require.Empty(t, f.orders.orders)
}

func TestCheckoutFailurePreservesCart(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)

	f.orders.failAppend = true

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCheckout{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Ошибка при оформлении")

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int32(2), items[0].Quantity)
}

func TestCheckoutCapacityExceeded(t *testing.T) {
	products := make([]domain.Product, 0, 5)
	for i := int64(1); i <= 5; i++ {
		products = append(products, domain.Product{
			ID:    i,
			Name:  fmt.Sprintf("Товар %d", i),
			Price: 10000,
		})
	}

	f := newEngineFixture(t, products...)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: i}})
		require.NoError(t, err)
		_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 1}})
		require.NoError(t, err)
	}

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCheckout{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "не более 4")

	// Заказ отклонён целиком: журнал пуст, корзина не тронута
	require.Empty(t, f.orders.orders)
	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 5)
}

func TestClearCart(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelClearCart{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Корзина очищена")

	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestOrdersPagination(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.orders.Append(ctx, domain.NewOrderRecord("Ann Lee", []domain.OrderLine{
			{ProductName: "Пластик PLA", Quantity: 1},
		}))
		require.NoError(t, err)
	}

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelOrders{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Всего заказов: 7")
	require.Contains(t, view.Text, "Заказ #1")
	require.Contains(t, view.Text, "Заказ #3")
	require.NotContains(t, view.Text, "Заказ #4")

	// Номер страницы за пределами диапазона сводится к последней странице
	view, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelOrdersPage{Page: 99}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Заказ #7")

	session, err := f.sessions.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, session.OrdersPage)

	// Переоценка по живому каталогу
	require.Contains(t, view.Text, "Пластик PLA x1 = 150.00 ₽")
}

func TestOrdersEmptyHistory(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")

	view, err := f.uc.Handle(context.Background(), 7, SelectEvent{Selection: SelOrders{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "нет завершенных заказов")
}

func TestUnknownSelectionIgnored(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")

	view, err := f.uc.Handle(context.Background(), 7, SelectEvent{Selection: SelUnknown{Token: "current_page"}})
	require.NoError(t, err)
	require.Nil(t, view)
}

func TestCancelResetsOnlySession(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	_, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelProduct{ProductID: 1}})
	require.NoError(t, err)
	_, err = f.uc.Handle(ctx, 7, SelectEvent{Selection: SelQuantity{Quantity: 2}})
	require.NoError(t, err)

	view, err := f.uc.Handle(ctx, 7, CancelEvent{})
	require.NoError(t, err)
	require.NotNil(t, view)

	session, err := f.sessions.Get(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, session)

	// Профиль и корзина переживают завершение диалога
	_, err = f.users.Get(ctx, 7)
	require.NoError(t, err)
	items, err := f.cart.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestStaleCartRowDropped(t *testing.T) {
	f := newEngineFixture(t)
	f.register(t, 7, "Ann Lee")
	ctx := context.Background()

	require.NoError(t, f.cart.AddItem(ctx, domain.NewCartItem(7, 99, 1)))
	require.NoError(t, f.cart.AddItem(ctx, domain.NewCartItem(7, 1, 2)))

	view, err := f.uc.Handle(ctx, 7, SelectEvent{Selection: SelCart{}})
	require.NoError(t, err)
	require.Contains(t, view.Text, "Пластик PLA")
	require.NotContains(t, view.Text, "99")
}

func TestConcurrentUsersAreIsolated(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	const users = 8
	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.uc.Handle(ctx, userID, StartEvent{})
			require.NoError(t, err)
			_, err = f.uc.Handle(ctx, userID, TextEvent{Content: fmt.Sprintf("User %d", userID)})
			require.NoError(t, err)
			_, err = f.uc.Handle(ctx, userID, SelectEvent{Selection: SelProduct{ProductID: 1}})
			require.NoError(t, err)
			_, err = f.uc.Handle(ctx, userID, SelectEvent{Selection: SelQuantity{Quantity: 2}})
			require.NoError(t, err)
		}(u)
	}
	wg.Wait()

	for u := int64(1); u <= users; u++ {
		items, err := f.cart.ListItems(ctx, u)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, int32(2), items[0].Quantity)
	}
}
