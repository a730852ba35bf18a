package ordermanager

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/nathanyu/lob-exchange/internal/domain"
	"github.com/nathanyu/lob-exchange/internal/middleware"
)

// Wallet tracks a user's cash balance and stock holdings.
type Wallet struct {
	CashBalance domain.Cents
	Holdings    map[string]domain.Cents // symbol -> quantity
	// Withheld amounts for pending buy orders
	WithheldCash map[string]domain.Cents // orderID -> withheld cents
	// Withheld shares for pending sell orders
	WithheldShares map[string]withheldShare // orderID -> withheld share info
}

type withheldShare struct {
	Symbol   string
	Quantity domain.Cents
}

// Manager handles order validation, risk checks, and wallet management.
// It receives orders from the API, validates them, and forwards them to the sequencer.
// It also receives execution events to update wallet balances and order states.
type Manager struct {
	mu sync.RWMutex

	wallets map[string]*Wallet       // userID -> wallet
	orders  map[string]*domain.Order // orderID -> order

	// Risk check: per-user per-symbol daily volume limit
	dailyVolume    map[string]domain.Cents // "userID:symbol" -> volume today
	maxDailyVolume domain.Cents

	// Channel to send validated orders to the sequencer
	OrderOut chan *domain.OrderEvent

	// Channel to receive execution events from the sequencer
	ExecutionIn chan *domain.ExecutionEvent

	done chan struct{}
}

// NewManager creates a new order manager.
func NewManager(maxDailyVolume domain.Cents, bufferSize int) *Manager {
	return &Manager{
		wallets:        make(map[string]*Wallet),
		orders:         make(map[string]*domain.Order),
		dailyVolume:    make(map[string]domain.Cents),
		maxDailyVolume: maxDailyVolume,
		OrderOut:       make(chan *domain.OrderEvent, bufferSize),
		ExecutionIn:    make(chan *domain.ExecutionEvent, bufferSize),
		done:           make(chan struct{}),
	}
}

// Start begins the execution listener goroutine.
func (m *Manager) Start() {
	go m.listenExecutions()
}

// Stop shuts down the manager.
func (m *Manager) Stop() {
	close(m.done)
}

// InitWallet initializes a user's wallet with starting balances.
func (m *Manager) InitWallet(userID string, cashBalance domain.Cents, holdings map[string]domain.Cents) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := make(map[string]domain.Cents)
	for k, v := range holdings {
		h[k] = v
	}

	m.wallets[userID] = &Wallet{
		CashBalance:    cashBalance,
		Holdings:       h,
		WithheldCash:   make(map[string]domain.Cents),
		WithheldShares: make(map[string]withheldShare),
	}
}

// GetWallet returns a copy of a user's wallet.
func (m *Manager) GetWallet(userID string) *Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, exists := m.wallets[userID]
	if !exists {
		return nil
	}

	holdings := make(map[string]domain.Cents)
	for k, v := range w.Holdings {
		holdings[k] = v
	}
	return &Wallet{
		CashBalance: w.CashBalance,
		Holdings:    holdings,
	}
}

// GetAllWallets returns a copy of all wallets.
func (m *Manager) GetAllWallets() map[string]*Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*Wallet)
	for userID, w := range m.wallets {
		holdings := make(map[string]domain.Cents)
		for k, v := range w.Holdings {
			holdings[k] = v
		}
		result[userID] = &Wallet{
			CashBalance: w.CashBalance,
			Holdings:    holdings,
		}
	}
	return result
}

// PlaceOrder validates and submits a new order.
func (m *Manager) PlaceOrder(userID, symbol string, side domain.Side, price, quantity domain.Cents) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wallet, exists := m.wallets[userID]
	if !exists {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	volKey := userID + ":" + symbol
	if m.dailyVolume[volKey]+quantity > m.maxDailyVolume {
		return nil, fmt.Errorf("daily volume limit exceeded for %s on %s", userID, symbol)
	}

	if side == domain.SideBuy {
		cost := price * quantity
		available := wallet.CashBalance - m.totalWithheldCash(wallet)
		if available < cost {
			return nil, fmt.Errorf("insufficient funds: need %d, available %d", cost, available)
		}
	} else {
		available := wallet.Holdings[symbol] - m.totalWithheldShares(wallet, symbol)
		if available < quantity {
			return nil, fmt.Errorf("insufficient shares: need %d %s, available %d", quantity, symbol, available)
		}
	}

	order := domain.NewOrder(uuid.New().String(), symbol, side, price, quantity, userID)

	if side == domain.SideBuy {
		wallet.WithheldCash[order.OrderID] = price * quantity
	} else {
		wallet.WithheldShares[order.OrderID] = withheldShare{
			Symbol:   symbol,
			Quantity: quantity,
		}
	}

	m.dailyVolume[volKey] += quantity
	m.orders[order.OrderID] = order
	middleware.OrdersTotal.WithLabelValues("new", symbol).Inc()

	select {
	case m.OrderOut <- &domain.OrderEvent{Action: domain.OrderActionNew, Order: order}:
	default:
		log.Println("[ordermanager] WARN: order output channel full")
	}

	return order, nil
}

// CancelOrder submits a cancel request.
func (m *Manager) CancelOrder(orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("order %s not found", orderID)
	}

	if order.Status == domain.OrderStatusFilled || order.Status == domain.OrderStatusCanceled {
		return nil, fmt.Errorf("order %s is already %s", orderID, order.Status)
	}

	middleware.OrdersTotal.WithLabelValues("cancel", order.Symbol).Inc()

	select {
	case m.OrderOut <- &domain.OrderEvent{Action: domain.OrderActionCancel, Symbol: order.Symbol, CancelID: order.OrderID}:
	default:
		log.Println("[ordermanager] WARN: order output channel full")
	}

	return order, nil
}

// GetOrder returns an order by ID.
func (m *Manager) GetOrder(orderID string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[orderID]
}

// listenExecutions processes execution events from the matching engine.
func (m *Manager) listenExecutions() {
	log.Println("[ordermanager] execution listener started")
	for {
		select {
		case event := <-m.ExecutionIn:
			m.processExecutionEvent(event)
		case <-m.done:
			log.Println("[ordermanager] execution listener stopped")
			return
		}
	}
}

// processExecutionEvent updates order states and wallet balances based on executions.
func (m *Manager) processExecutionEvent(event *domain.ExecutionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.TakerOrder != nil {
		if stored, exists := m.orders[event.TakerOrder.OrderID]; exists {
			stored.Status = event.TakerOrder.Status
			stored.FilledQty = event.TakerOrder.FilledQty
			stored.RemainingQty = event.TakerOrder.RemainingQty
			stored.SequenceID = event.TakerOrder.SequenceID
		}

		if event.TakerOrder.Status == domain.OrderStatusCanceled {
			m.releaseWithheld(event.TakerOrder)
		}
	}

	for _, exec := range event.Executions {
		m.settleExecution(exec)
	}
}

// settleExecution adjusts wallet balances for a trade.
func (m *Manager) settleExecution(exec *domain.Execution) {
	takerOrder := m.orders[exec.TakerOrderID]
	makerOrder := m.orders[exec.MakerOrderID]
	if takerOrder == nil || makerOrder == nil {
		return
	}

	var buyer, seller *domain.Order
	if takerOrder.Side == domain.SideBuy {
		buyer = takerOrder
		seller = makerOrder
	} else {
		buyer = makerOrder
		seller = takerOrder
	}

	buyerWallet := m.wallets[buyer.UserID]
	sellerWallet := m.wallets[seller.UserID]
	if buyerWallet == nil || sellerWallet == nil {
		return
	}

	cost := exec.Price * exec.Quantity

	buyerWallet.CashBalance -= cost
	buyerWallet.Holdings[exec.Symbol] += exec.Quantity
	if withheld, ok := buyerWallet.WithheldCash[buyer.OrderID]; ok {
		buyerWallet.WithheldCash[buyer.OrderID] = withheld - cost
		if buyerWallet.WithheldCash[buyer.OrderID] <= 0 {
			delete(buyerWallet.WithheldCash, buyer.OrderID)
		}
	}

	sellerWallet.CashBalance += cost
	sellerWallet.Holdings[exec.Symbol] -= exec.Quantity
	if ws, ok := sellerWallet.WithheldShares[seller.OrderID]; ok {
		ws.Quantity -= exec.Quantity
		if ws.Quantity <= 0 {
			delete(sellerWallet.WithheldShares, seller.OrderID)
		} else {
			sellerWallet.WithheldShares[seller.OrderID] = ws
		}
	}

	if stored, exists := m.orders[makerOrder.OrderID]; exists {
		stored.Status = makerOrder.Status
		stored.FilledQty = makerOrder.FilledQty
		stored.RemainingQty = makerOrder.RemainingQty
	}
}

// releaseWithheld releases withheld funds/shares when an order is canceled.
func (m *Manager) releaseWithheld(order *domain.Order) {
	wallet := m.wallets[order.UserID]
	if wallet == nil {
		return
	}

	delete(wallet.WithheldCash, order.OrderID)
	delete(wallet.WithheldShares, order.OrderID)
}

func (m *Manager) totalWithheldCash(w *Wallet) domain.Cents {
	var total domain.Cents
	for _, v := range w.WithheldCash {
		total += v
	}
	return total
}

func (m *Manager) totalWithheldShares(w *Wallet, symbol string) domain.Cents {
	var total domain.Cents
	for _, ws := range w.WithheldShares {
		if ws.Symbol == symbol {
			total += ws.Quantity
		}
	}
	return total
}
