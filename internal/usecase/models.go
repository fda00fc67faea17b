package usecase

import "time"

// CONVERSATION

// ConversationState — состояние конечного автомата диалога.
type ConversationState string

const (
	StateAwaitingName ConversationState = "awaiting_name"
	StateMainMenu     ConversationState = "main_menu"
)

// SessionState — сессионный черновик одного пользователя: состояние автомата
// и переменные навигации. Живёт только пока идёт диалог, никогда не
// разделяется между пользователями.
type SessionState struct {
	UserID            int64             `json:"user_id"`
	State             ConversationState `json:"state"`
	SelectedProductID int64             `json:"selected_product_id,omitempty"`
	OrdersPage        int               `json:"orders_page,omitempty"`
}

// Action — кнопка представления: подпись и токен, который транспорт
// вернёт обратно событием select.
type Action struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// View — платформо-независимое описание ответа пользователю.
// Движок никогда не формирует разметку конкретного мессенджера.
type View struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const OrderCreated OutboxEventType = "order.created"

// OutboxEvent — строка таблицы outbox: событие, ожидающее отправки в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	UserID      int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// OrderCreatedPayload — JSON-тело события order.created.
type OrderCreatedPayload struct {
	EventID          string             `json:"event_id"`
	CreatedAt        int64              `json:"created_at"` // unix nano
	CustomerFullName string             `json:"customer_full_name"`
	Lines            []OrderLinePayload `json:"lines"`
	TotalPrice       int64              `json:"total_price"` // копейки
}

type OrderLinePayload struct {
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"` // копейки
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	UserID  int64
	Payload []byte
}

// MAPPERS

func NewSessionState(userID int64, state ConversationState) *SessionState {
	return &SessionState{
		UserID: userID,
		State:  state,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, userID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

func NewWriteRawMessageReq(userID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		UserID:  userID,
		Payload: payload,
	}
}

func NewView(text string, actions ...Action) *View {
	return &View{
		Text:    text,
		Actions: actions,
	}
}

func NewAction(label, token string) Action {
	return Action{
		Label: label,
		Token: token,
	}
}
