package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
)

// ConversationUseCase реализует конечный автомат диалога магазина:
// онбординг, каталог, корзину, оформление заказа и историю заказов.
// Долговечное состояние живёт в хранилищах, здесь — только сессионный
// черновик и правила переходов.
type ConversationUseCase struct {
	userRepo       UserRepository
	cartRepo       CartRepository
	orderRepo      OrderRepository
	outboxRepo     OutboxRepository
	sessionRepo    SessionRepository
	catalog        ProductCatalog
	dbPool         transaction.Transactional
	logger         logger.Logger
	ordersPageSize int

	// Последовательная обработка событий одного пользователя:
	// замок на userID, разные пользователи друг друга не ждут.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewConversationUC(
	userRepo UserRepository,
	cartRepo CartRepository,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	sessionRepo SessionRepository,
	catalog ProductCatalog,
	dbPool transaction.Transactional,
	logger logger.Logger,
	ordersPageSize int,
) *ConversationUseCase {
	return &ConversationUseCase{
		userRepo:       userRepo,
		cartRepo:       cartRepo,
		orderRepo:      orderRepo,
		outboxRepo:     outboxRepo,
		sessionRepo:    sessionRepo,
		catalog:        catalog,
		dbPool:         dbPool,
		logger:         logger,
		ordersPageSize: ordersPageSize,
		locks:          make(map[int64]*sync.Mutex),
	}
}

// Handle обрабатывает одно входящее событие пользователя и возвращает
// представление для показа. Нераспознанный пункт меню — единственный случай,
// когда представление отсутствует (nil, nil).
func (c *ConversationUseCase) Handle(ctx context.Context, userID int64, event Event) (*View, error) {
	const op = "ConversationUseCase.Handle"

	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	switch ev := event.(type) {
	case StartEvent:
		return c.handleStart(ctx, userID)
	case TextEvent:
		return c.handleText(ctx, userID, ev.Content)
	case SelectEvent:
		return c.handleSelect(ctx, userID, ev.Selection)
	case CancelEvent:
		return c.handleCancel(ctx, userID)
	default:
		return nil, e.Wrap(op, e.ErrUnknownEventType)
	}
}

// handleStart направляет зарегистрированного пользователя в главное меню,
// нового — на ввод имени.
func (c *ConversationUseCase) handleStart(ctx context.Context, userID int64) (*View, error) {
	const op = "ConversationUseCase.handleStart"

	user, err := c.userRepo.Get(ctx, userID)
	if errors.Is(err, e.ErrUserNotFound) {
		if err := c.sessionRepo.Put(ctx, NewSessionState(userID, StateAwaitingName)); err != nil {
			return nil, e.Wrap(op, err)
		}
		return viewNamePrompt(), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Повторный /start сбрасывает сессионный черновик
	if err := c.sessionRepo.Put(ctx, NewSessionState(userID, StateMainMenu)); err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewMainMenu(user.FirstName), nil
}

func (c *ConversationUseCase) handleText(ctx context.Context, userID int64, content string) (*View, error) {
	const op = "ConversationUseCase.handleText"

	session, err := c.loadSession(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if session.State == StateAwaitingName {
		return c.registerUser(ctx, session, content)
	}

	user, err := c.userRepo.Get(ctx, userID)
	if errors.Is(err, e.ErrUserNotFound) {
		session.State = StateAwaitingName
		if err := c.sessionRepo.Put(ctx, session); err != nil {
			return nil, e.Wrap(op, err)
		}
		return viewNamePrompt(), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Свободный текст в главном меню просто перерисовывает меню
	return viewMainMenu(user.FirstName), nil
}

// registerUser валидирует введённое имя и создаёт (или перезаписывает) профиль.
// Требуются минимум два слова: первое — имя, остальные — фамилия.
func (c *ConversationUseCase) registerUser(ctx context.Context, session *SessionState, content string) (*View, error) {
	const op = "ConversationUseCase.registerUser"

	parts := strings.Fields(content)
	if len(parts) < 2 {
		// Повторный запрос без ограничения числа попыток
		return viewInvalidName(), nil
	}

	firstName := parts[0]
	lastName := strings.Join(parts[1:], " ")

	var profile *domain.UserProfile
	err := c.runInTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = c.userRepo.Upsert(ctx, domain.NewUserProfile(session.UserID, firstName, lastName))
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.logger.Infof("user %d registered as %q", session.UserID, profile.FullName())

	session.State = StateMainMenu
	if err := c.sessionRepo.Put(ctx, session); err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewWelcome(profile.FirstName), nil
}

func (c *ConversationUseCase) handleSelect(ctx context.Context, userID int64, selection Selection) (*View, error) {
	const op = "ConversationUseCase.handleSelect"

	user, err := c.userRepo.Get(ctx, userID)
	if errors.Is(err, e.ErrUserNotFound) {
		return viewUserNotFound(), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	session, err := c.loadSession(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	switch sel := selection.(type) {
	case SelCatalog:
		return c.showCatalog(), nil
	case SelProduct:
		return c.selectProduct(ctx, session, sel.ProductID)
	case SelQuantity:
		return c.addToCart(ctx, user, session, sel.Quantity)
	case SelCart:
		return c.showCart(ctx, userID)
	case SelCheckout:
		return c.checkout(ctx, user)
	case SelClearCart:
		return c.clearCart(ctx, userID)
	case SelOrders:
		return c.showOrders(ctx, user, session, session.OrdersPage)
	case SelOrdersPage:
		return c.showOrders(ctx, user, session, sel.Page)
	case SelBackToMenu:
		return viewMainMenu(user.FirstName), nil
	case SelUnknown:
		c.logger.Debugf("ignoring unknown selection token %q from user %d", sel.Token, userID)
		return nil, nil
	default:
		return nil, e.Wrap(op, e.ErrUnknownEventType)
	}
}

// handleCancel завершает диалог: стирает сессионный черновик,
// сохранённые профиль, корзина и журнал заказов не затрагиваются.
func (c *ConversationUseCase) handleCancel(ctx context.Context, userID int64) (*View, error) {
	const op = "ConversationUseCase.handleCancel"

	if err := c.sessionRepo.Delete(ctx, userID); err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewCancelled(), nil
}

func (c *ConversationUseCase) showCatalog() *View {
	products := c.catalog.ListAll()
	if len(products) == 0 {
		return viewCatalogEmpty()
	}

	return viewCatalog(products)
}

func (c *ConversationUseCase) selectProduct(ctx context.Context, session *SessionState, productID int64) (*View, error) {
	const op = "ConversationUseCase.selectProduct"

	product, err := c.catalog.GetByID(productID)
	if errors.Is(err, e.ErrProductNotFound) {
		return viewProductNotFound(), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	session.SelectedProductID = product.ID
	if err := c.sessionRepo.Put(ctx, session); err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewProductDetail(product), nil
}

// addToCart добавляет выбранный товар в корзину. Количество без выбранного
// товара — устаревший или подделанный колбэк: состояние не меняется.
func (c *ConversationUseCase) addToCart(ctx context.Context, user *domain.UserProfile, session *SessionState, qty int32) (*View, error) {
	const op = "ConversationUseCase.addToCart"

	if session.SelectedProductID == 0 {
		return viewNoSelectedProduct(), nil
	}

	product, err := c.catalog.GetByID(session.SelectedProductID)
	if errors.Is(err, e.ErrProductNotFound) {
		return viewProductNotFound(), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if qty < 1 {
		// Неположительное количество — повторный выбор без мутации
		return viewProductDetail(product), nil
	}

	err = c.runInTx(ctx, func(ctx context.Context) error {
		return c.cartRepo.AddItem(ctx, domain.NewCartItem(user.UserID, product.ID, qty))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewAddedToCart(product, qty), nil
}

func (c *ConversationUseCase) showCart(ctx context.Context, userID int64) (*View, error) {
	const op = "ConversationUseCase.showCart"

	positions, err := c.listCart(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(positions) == 0 {
		return viewCartEmpty(), nil
	}

	return viewCart(positions), nil
}

// checkout оформляет заказ: снимок корзины превращается в запись журнала,
// событие order.created кладётся в outbox и корзина очищается — всё в одной
// транзакции. При любой ошибке записи корзина остаётся нетронутой.
func (c *ConversationUseCase) checkout(ctx context.Context, user *domain.UserProfile) (*View, error) {
	const op = "ConversationUseCase.checkout"

	positions, err := c.listCart(ctx, user.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(positions) == 0 {
		return viewCheckoutEmptyCart(), nil
	}

	lines := make([]domain.OrderLine, 0, len(positions))
	for _, pos := range positions {
		lines = append(lines, domain.OrderLine{
			ProductName: pos.Product.Name,
			Quantity:    pos.Quantity,
		})
	}

	order := domain.NewOrderRecord(user.FullName(), lines)
	if err := order.Validate(); err != nil {
		if errors.Is(err, e.ErrOrderCapacityExceeded) {
			return viewOrderTooLarge(), nil
		}
		return nil, e.Wrap(op, err)
	}

	event, err := newOrderCreatedEvent(user.UserID, order, positions)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = c.runInTx(ctx, func(ctx context.Context) error {
		if _, err := c.orderRepo.Append(ctx, order); err != nil {
			return err
		}
		if _, err := c.outboxRepo.Create(ctx, event); err != nil {
			return err
		}
		return c.cartRepo.Clear(ctx, user.UserID)
	})
	if err != nil {
		c.logger.Warnf("checkout failed for user %d: %v", user.UserID, e.Wrap(op, err))
		return viewCheckoutFailed(), nil
	}

	return viewOrderConfirmed(positions), nil
}

func (c *ConversationUseCase) clearCart(ctx context.Context, userID int64) (*View, error) {
	const op = "ConversationUseCase.clearCart"

	err := c.runInTx(ctx, func(ctx context.Context) error {
		return c.cartRepo.Clear(ctx, userID)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return viewCartCleared(), nil
}

// showOrders отдаёт страницу истории заказов. Порядок журнала сохраняется
// (старые заказы первыми), номер страницы ограничивается диапазоном
// [0, totalPages-1] и запоминается в сессии.
func (c *ConversationUseCase) showOrders(ctx context.Context, user *domain.UserProfile, session *SessionState, page int) (*View, error) {
	const op = "ConversationUseCase.showOrders"

	orders, err := c.orderRepo.FindByCustomer(ctx, user.FullName())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(orders) == 0 {
		return viewOrdersEmpty(), nil
	}

	totalPages := (len(orders) + c.ordersPageSize - 1) / c.ordersPageSize
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	if page != session.OrdersPage {
		session.OrdersPage = page
		if err := c.sessionRepo.Put(ctx, session); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	byName := make(map[string]domain.Product)
	for _, product := range c.catalog.ListAll() {
		byName[product.Name] = product
	}

	return viewOrders(orders, page, totalPages, c.ordersPageSize, byName), nil
}

// listCart сводит строки корзины с живым каталогом. Строка, чей товар
// больше не находится в каталоге, молча выпадает из выдачи.
func (c *ConversationUseCase) listCart(ctx context.Context, userID int64) ([]domain.CartPosition, error) {
	items, err := c.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.CartPosition, 0, len(items))
	for _, item := range items {
		product, err := c.catalog.GetByID(item.ProductID)
		if err != nil {
			continue
		}
		positions = append(positions, domain.CartPosition{
			Product:  *product,
			Quantity: item.Quantity,
		})
	}

	return positions, nil
}

// loadSession возвращает черновик сессии; отсутствующий черновик
// равнозначен свежей сессии главного меню.
func (c *ConversationUseCase) loadSession(ctx context.Context, userID int64) (*SessionState, error) {
	session, err := c.sessionRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = NewSessionState(userID, StateMainMenu)
	}

	return session, nil
}

// runInTx выполняет fn в транзакции, кладя pgx.Tx в контекст для репозиториев.
func (c *ConversationUseCase) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = fn(ctx); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

func (c *ConversationUseCase) userLock(userID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[userID] = lock
	}

	return lock
}

// newOrderCreatedEvent собирает outbox-событие о созданном заказе
// с JSON-телом, пригодным для внешних потребителей.
func newOrderCreatedEvent(userID int64, order *domain.OrderRecord, positions []domain.CartPosition) (*OutboxEvent, error) {
	eventID := uuid.NewString()

	lines := make([]OrderLinePayload, 0, len(positions))
	var total int64
	for _, pos := range positions {
		total += pos.Total()
		lines = append(lines, OrderLinePayload{
			ProductName: pos.Product.Name,
			Quantity:    pos.Quantity,
			UnitPrice:   pos.Product.Price,
		})
	}

	payload, err := json.Marshal(OrderCreatedPayload{
		EventID:          eventID,
		CreatedAt:        time.Now().UnixNano(),
		CustomerFullName: order.CustomerFullName,
		Lines:            lines,
		TotalPrice:       total,
	})
	if err != nil {
		return nil, err
	}

	return NewOutboxEvent(eventID, OrderCreated, userID, payload), nil
}
