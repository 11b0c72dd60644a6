package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/gateways"
	"pos-backend/internal/models"
	"pos-backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePaymentStore mirrors the database store's settlement gate: completion
// paths re-check the cart's covered amount and flip the cart when the
// cumulative completed payments reach the total.
type fakePaymentStore struct {
	mu       sync.Mutex
	seq      int
	payments map[int]*models.Payment
	carts    *fakeCartStore
}

func newFakePaymentStore(carts *fakeCartStore) *fakePaymentStore {
	return &fakePaymentStore{payments: map[int]*models.Payment{}, carts: carts}
}

func (f *fakePaymentStore) settle(cartID int) bool {
	cart := f.carts.carts[cartID]
	var paid float64
	for _, p := range f.payments {
		if p.CartID == cartID && p.Status == models.PaymentCompleted && !p.IsVoid {
			paid += p.Amount - p.ChangeAmount
		}
	}
	if paid+0.01 < cart.Total {
		return false
	}
	cart.Status = models.CartCompleted
	return true
}

func (f *fakePaymentStore) insert(p *models.Payment, status models.PaymentStatus) *models.Payment {
	f.seq++
	stored := *p
	stored.ID = f.seq
	stored.Status = status
	stored.CreatedAt = time.Now()
	if stored.Details == nil {
		stored.Details = models.PaymentDetails{}
	}
	f.payments[stored.ID] = &stored
	out := stored
	return &out
}

func (f *fakePaymentStore) CreatePending(_ context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(p, models.PaymentPending), nil
}

func (f *fakePaymentStore) CreateCompleted(_ context.Context, p *models.Payment) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts.carts[p.CartID]
	if !ok {
		return nil, false, apperrors.NotFound("cart not found")
	}
	if cart.Status != models.CartActive {
		return nil, false, apperrors.Conflict("cart is %s", cart.Status)
	}
	if p.PaymentMethod == models.PaymentMethodSuregifts {
		var paid float64
		for _, existing := range f.payments {
			if existing.CartID == p.CartID && existing.Status == models.PaymentCompleted && !existing.IsVoid {
				paid += existing.Amount - existing.ChangeAmount
			}
		}
		if p.Amount > cart.Total-paid+0.01 {
			return nil, false, apperrors.Conflict("amount %.2f exceeds remaining balance %.2f", p.Amount, cart.Total-paid)
		}
	}
	created := f.insert(p, models.PaymentCompleted)
	return created, f.settle(p.CartID), nil
}

func (f *fakePaymentStore) MarkCompleted(_ context.Context, paymentID int, reference, receiptNumber string, extra models.PaymentDetails) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, false, apperrors.NotFound("payment not found")
	}
	if p.Status != models.PaymentPending {
		return nil, false, apperrors.Conflict("payment is %s", p.Status)
	}
	cart := f.carts.carts[p.CartID]
	if cart.Status != models.CartActive {
		return nil, false, apperrors.Conflict("cart is %s", cart.Status)
	}
	p.Status = models.PaymentCompleted
	if reference != "" {
		p.Reference = reference
	}
	p.ReceiptNumber = receiptNumber
	for k, v := range extra {
		p.Details[k] = v
	}
	out := *p
	return &out, f.settle(p.CartID), nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, paymentID int, reason string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, apperrors.NotFound("payment not found")
	}
	if p.Status != models.PaymentPending {
		return nil, apperrors.Conflict("payment is %s", p.Status)
	}
	p.Status = models.PaymentFailed
	p.Details["failure_reason"] = reason
	out := *p
	return &out, nil
}

func (f *fakePaymentStore) Get(_ context.Context, id int) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment not found")
	}
	out := *p
	return &out, nil
}

func (f *fakePaymentStore) List(_ context.Context, filter *models.PaymentFilter) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePaymentStore) ListByCart(_ context.Context, cartID int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.CartID == cartID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) FindPendingMatch(_ context.Context, method models.PaymentMethod, terminalID string, amount float64, before time.Time) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Payment
	for _, p := range f.payments {
		if p.Status != models.PaymentPending || p.PaymentMethod != method || p.TerminalID != terminalID {
			continue
		}
		diff := p.Amount - amount
		if diff < -0.01 || diff > 0.01 || p.CreatedAt.After(before) {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, apperrors.NotFound("no pending payment matches")
	}
	out := *best
	return &out, nil
}

func (f *fakePaymentStore) Void(_ context.Context, paymentID, userID int, reason string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, apperrors.NotFound("payment not found")
	}
	if p.Status != models.PaymentCompleted || p.IsVoid {
		return nil, apperrors.Conflict("payment cannot be voided")
	}
	p.IsVoid = true
	p.VoidedBy = &userID
	p.Details["void_reason"] = reason
	if cart, ok := f.carts.carts[p.CartID]; ok && cart.Status != models.CartVoided {
		cart.Status = models.CartVoided
	}
	out := *p
	return &out, nil
}

func (f *fakePaymentStore) CompletedAmount(_ context.Context, cartID int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paid float64
	for _, p := range f.payments {
		if p.CartID == cartID && p.Status == models.PaymentCompleted && !p.IsVoid {
			paid += p.Amount - p.ChangeAmount
		}
	}
	return paid, nil
}

type fakeTerminal struct {
	chargeResult *gateways.ChargeResult
	chargeErr    error
	verifyResult *gateways.VerifyResult
	verifyErr    error
	refundErr    error
	refunded     []string
	transfers    []models.TransferEvent
}

func (f *fakeTerminal) Charge(_ context.Context, terminalID string, amount float64, transactionCode string) (*gateways.ChargeResult, error) {
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.chargeResult, nil
}

func (f *fakeTerminal) Verify(_ context.Context, transactionCode string) (*gateways.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakeTerminal) Refund(_ context.Context, reference string, amount float64) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, reference)
	return nil
}

func (f *fakeTerminal) ListTransfers(_ context.Context, terminalID string, start, end time.Time) ([]models.TransferEvent, error) {
	return f.transfers, nil
}

type fakeGiftcard struct {
	redemption *gateways.GiftCardRedemption
	redeemErr  error
	redeems    int
	onRedeem   func()
	balance    float64
	voidErr    error
	voided     []string
}

func (f *fakeGiftcard) Redeem(_ context.Context, code string, amount float64) (*gateways.GiftCardRedemption, error) {
	f.redeems++
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	if f.onRedeem != nil {
		f.onRedeem()
	}
	return f.redemption, nil
}

func (f *fakeGiftcard) Balance(_ context.Context, code string) (float64, error) {
	return f.balance, nil
}

func (f *fakeGiftcard) VoidRedemption(_ context.Context, reference string) error {
	if f.voidErr != nil {
		return f.voidErr
	}
	f.voided = append(f.voided, reference)
	return nil
}

type paymentFixture struct {
	svc      *PaymentService
	payments *fakePaymentStore
	carts    *fakeCartStore
	terminal *fakeTerminal
	giftcard *fakeGiftcard
}

func newPaymentFixture() *paymentFixture {
	carts := newFakeCartStore()
	payments := newFakePaymentStore(carts)
	terminal := &fakeTerminal{}
	giftcard := &fakeGiftcard{}
	loyalty := NewLoyaltyService(newFakeLoyaltyStore())
	svc := NewPaymentService(payments, carts, terminal, giftcard, loyalty, nil, nil, notify.NewHub(), nil)
	return &paymentFixture{svc: svc, payments: payments, carts: carts, terminal: terminal, giftcard: giftcard}
}

// seedCart opens an active cart holding a single line worth total
func (fx *paymentFixture) seedCart(t *testing.T, total float64) *models.Cart {
	t.Helper()
	cart, err := fx.carts.Create(context.Background(), &models.CreateCartRequest{BranchID: 1}, 42, GenerateCode("TRX"))
	require.NoError(t, err)
	cart, err = fx.carts.AddItem(context.Background(), cart.ID, 1, 1, total, "")
	require.NoError(t, err)
	require.Equal(t, total, cart.Total)
	return cart
}

func (fx *paymentFixture) cartStatus(cartID int) models.CartStatus {
	return fx.carts.carts[cartID].Status
}

func TestPayCash(t *testing.T) {
	ctx := context.Background()

	t.Run("tender below total rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)

		_, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 499})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		assert.Empty(t, fx.payments.payments, "no payment row on rejected tender")
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})

	t.Run("overpayment returns change and completes the cart", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)

		result, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 600})
		require.NoError(t, err)
		assert.Equal(t, 100.0, result.Change)
		assert.True(t, result.CartCompleted)
		assert.True(t, strings.HasPrefix(result.ReceiptNumber, "RCP-"))
		assert.Equal(t, models.PaymentCompleted, result.Payment.Status)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("empty cart rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart, err := fx.carts.Create(ctx, &models.CreateCartRequest{BranchID: 1}, 42, GenerateCode("TRX"))
		require.NoError(t, err)

		_, err = fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 100})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("completed cart rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		_, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 500})
		require.NoError(t, err)

		_, err = fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 500})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestPayMoniepoint(t *testing.T) {
	ctx := context.Background()

	t.Run("successful charge completes", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1500)
		fx.terminal.chargeResult = &gateways.ChargeResult{Success: true, Reference: "MP-001"}

		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.NoError(t, err)
		assert.True(t, result.CartCompleted)
		assert.Equal(t, "MP-001", result.Payment.Reference)
		assert.Equal(t, models.PaymentCompleted, result.Payment.Status)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("declined charge marks the payment failed", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1500)
		fx.terminal.chargeResult = &gateways.ChargeResult{Success: false, Message: "insufficient funds"}

		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
		assert.Equal(t, models.PaymentFailed, result.Payment.Status)
		assert.Equal(t, "insufficient funds", result.Payment.Details["failure_reason"])
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})

	t.Run("transport failure leaves the payment pending", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1500)
		fx.terminal.chargeErr = apperrors.External(errors.New("connection reset"), "moniepoint unreachable")

		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindExternal))

		// The outcome is unknown, so the row stays pending for reconciliation
		stored, getErr := fx.payments.Get(ctx, result.Payment.ID)
		require.NoError(t, getErr)
		assert.Equal(t, models.PaymentPending, stored.Status)
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})
}

func TestPaySuregifts(t *testing.T) {
	ctx := context.Background()

	t.Run("partial cover leaves the cart active", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1000)
		fx.giftcard.redemption = &gateways.GiftCardRedemption{Reference: "SG-001", AmountUsed: 400, RemainingBalance: 100}

		result, err := fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC123", AmountToUse: 400})
		require.NoError(t, err)
		assert.False(t, result.CartCompleted)
		assert.Equal(t, 600.0, result.RemainingBalance)
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))

		// Cash for the rest settles the cart
		cashResult, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 600})
		require.NoError(t, err)
		assert.True(t, cashResult.CartCompleted)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("amount beyond remaining balance rejected before redeeming", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1000)
		fx.giftcard.redemption = &gateways.GiftCardRedemption{Reference: "SG-002", AmountUsed: 700}

		_, err := fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC123", AmountToUse: 700})
		require.NoError(t, err)

		_, err = fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC123", AmountToUse: 700})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		assert.Equal(t, 1, fx.giftcard.redeems, "gateway must not be hit for an over-draw")
	})

	t.Run("gateway decline surfaces without a payment row", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 1000)
		fx.giftcard.redeemErr = apperrors.Conflict("card exhausted")

		_, err := fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC123", AmountToUse: 100})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
		assert.Empty(t, fx.payments.payments)
	})
}

func TestPayBankTransfer(t *testing.T) {
	ctx := context.Background()
	req := func(confirm bool) *models.BankTransferPaymentRequest {
		return &models.BankTransferPaymentRequest{
			BankName: "GTB", AccountNumber: "0123456789", AccountName: "Shop Ltd",
			Reference: "BT-778", Amount: 2000, Confirm: confirm,
		}
	}

	t.Run("unconfirmed stays pending", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 2000)

		result, err := fx.svc.PayBankTransfer(ctx, cart.ID, 42, req(false))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, result.Payment.Status)
		assert.False(t, result.CartCompleted)
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})

	t.Run("pre-confirmed completes immediately", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 2000)

		result, err := fx.svc.PayBankTransfer(ctx, cart.ID, 42, req(true))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, result.Payment.Status)
		assert.True(t, result.CartCompleted)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	fx := newPaymentFixture()
	cart := fx.seedCart(t, 2000)

	result, err := fx.svc.PayMoniepointTransfer(ctx, cart.ID, 42, &models.MoniepointTransferRequest{TerminalID: "T1", Amount: 2000})
	require.NoError(t, err)
	paymentID := result.Payment.ID

	t.Run("amount mismatch rejected", func(t *testing.T) {
		_, err := fx.svc.Confirm(ctx, paymentID, &models.ConfirmPaymentRequest{Reference: "MT-1", Amount: 1999.5})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("matching amount settles", func(t *testing.T) {
		confirmed, err := fx.svc.Confirm(ctx, paymentID, &models.ConfirmPaymentRequest{Reference: "MT-1", Amount: 2000})
		require.NoError(t, err)
		assert.True(t, confirmed.CartCompleted)
		assert.Equal(t, "MT-1", confirmed.Payment.Reference)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("double confirm rejected", func(t *testing.T) {
		_, err := fx.svc.Confirm(ctx, paymentID, &models.ConfirmPaymentRequest{Reference: "MT-1", Amount: 2000})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestReconcileTransfers(t *testing.T) {
	ctx := context.Background()
	fx := newPaymentFixture()
	cart := fx.seedCart(t, 750)

	result, err := fx.svc.PayMoniepointTransfer(ctx, cart.ID, 42, &models.MoniepointTransferRequest{TerminalID: "T1", Amount: 750})
	require.NoError(t, err)
	pendingID := result.Payment.ID

	seen := time.Now().Add(time.Minute)
	fx.terminal.transfers = []models.TransferEvent{
		{Amount: 750, Reference: "EVT-750", Date: seen},
		{Amount: 33, Reference: "EVT-033", Date: seen},
	}

	recon, err := fx.svc.ReconcileTransfers(ctx, &models.ReconcileTransfersRequest{TerminalID: "T1"})
	require.NoError(t, err)

	require.Len(t, recon.Matched, 1)
	assert.Equal(t, pendingID, recon.Matched[0].ID)
	assert.Equal(t, "EVT-750", recon.Matched[0].Reference)
	assert.Equal(t, models.PaymentCompleted, recon.Matched[0].Status)
	assert.NotEmpty(t, recon.Matched[0].Details["reconciled_at"])

	require.Len(t, recon.Unmatched, 1)
	assert.Equal(t, "EVT-033", recon.Unmatched[0].Reference)

	assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
}

func TestVoidPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("cash void flips cart to voided", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		result, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 500})
		require.NoError(t, err)

		voided, err := fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "wrong items rung up"})
		require.NoError(t, err)
		assert.True(t, voided.IsVoid)
		assert.Equal(t, models.CartVoided, fx.cartStatus(cart.ID))
	})

	t.Run("terminal refund runs before the void", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		fx.terminal.chargeResult = &gateways.ChargeResult{Success: true, Reference: "MP-77"}
		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.NoError(t, err)

		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "duplicate charge"})
		require.NoError(t, err)
		assert.Equal(t, []string{"MP-77"}, fx.terminal.refunded)
	})

	t.Run("failed refund aborts the void", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		fx.terminal.chargeResult = &gateways.ChargeResult{Success: true, Reference: "MP-78"}
		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.NoError(t, err)

		fx.terminal.refundErr = apperrors.External(errors.New("timeout"), "refund failed")
		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "duplicate charge"})
		require.Error(t, err)

		stored, getErr := fx.payments.Get(ctx, result.Payment.ID)
		require.NoError(t, getErr)
		assert.False(t, stored.IsVoid)
		assert.Equal(t, models.PaymentCompleted, stored.Status)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("gift card void releases the redemption", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		fx.giftcard.redemption = &gateways.GiftCardRedemption{Reference: "SG-9", AmountUsed: 500}
		result, err := fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC1", AmountToUse: 500})
		require.NoError(t, err)

		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "customer dispute"})
		require.NoError(t, err)
		assert.Equal(t, []string{"SG-9"}, fx.giftcard.voided)
	})

	t.Run("pending payment cannot be voided", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		result, err := fx.svc.PayMoniepointTransfer(ctx, cart.ID, 42, &models.MoniepointTransferRequest{TerminalID: "T1", Amount: 500})
		require.NoError(t, err)

		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "never arrived"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})

	t.Run("double void rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		result, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 500})
		require.NoError(t, err)

		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "first"})
		require.NoError(t, err)
		_, err = fx.svc.Void(ctx, result.Payment.ID, 7, &models.VoidPaymentRequest{Reason: "second"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestCartReceipt(t *testing.T) {
	ctx := context.Background()

	newReceiptFixture := func(t *testing.T) (*PaymentService, *fakeCartStore) {
		t.Helper()
		carts := newFakeCartStore()
		payments := newFakePaymentStore(carts)
		products := &fakeProductStore{products: map[int]*models.Product{
			1: {ID: 1, Name: "Bottled Water", SellingPrice: 150, IsActive: true},
		}}
		branches := &fakeBranchStore{branches: map[int]*models.Branch{
			1: {ID: 1, Name: "Main Street Store", Address: "12 Main Street"},
		}}
		svc := NewPaymentService(payments, carts, &fakeTerminal{}, &fakeGiftcard{},
			NewLoyaltyService(newFakeLoyaltyStore()), NewReceiptService(products, branches),
			nil, notify.NewHub(), nil)
		return svc, carts
	}

	t.Run("completed cart renders its receipt", func(t *testing.T) {
		svc, carts := newReceiptFixture(t)
		cart, err := carts.Create(ctx, &models.CreateCartRequest{BranchID: 1}, 42, GenerateCode("TRX"))
		require.NoError(t, err)
		_, err = carts.AddItem(ctx, cart.ID, 1, 2, 150, "")
		require.NoError(t, err)

		result, err := svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 300})
		require.NoError(t, err)

		pdf, receiptNumber, err := svc.Receipt(ctx, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, result.ReceiptNumber, receiptNumber)
		require.NotEmpty(t, pdf)
		assert.Equal(t, "%PDF", string(pdf[:4]))
	})

	t.Run("active cart has no receipt", func(t *testing.T) {
		svc, carts := newReceiptFixture(t)
		cart, err := carts.Create(ctx, &models.CreateCartRequest{BranchID: 1}, 42, GenerateCode("TRX"))
		require.NoError(t, err)
		_, err = carts.AddItem(ctx, cart.ID, 1, 1, 150, "")
		require.NoError(t, err)

		_, _, err = svc.Receipt(ctx, cart.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	pendingCharge := func(t *testing.T, fx *paymentFixture) (*models.Cart, *models.Payment) {
		t.Helper()
		cart := fx.seedCart(t, 2000)
		fx.terminal.chargeErr = apperrors.External(nil, "terminal timed out")
		result, err := fx.svc.PayMoniepoint(ctx, cart.ID, 42, &models.MoniepointPaymentRequest{TerminalID: "T1"})
		require.Error(t, err)
		require.Equal(t, models.PaymentPending, fx.payments.payments[result.Payment.ID].Status)
		return cart, result.Payment
	}

	t.Run("gateway success settles the pending charge", func(t *testing.T) {
		fx := newPaymentFixture()
		cart, payment := pendingCharge(t, fx)
		fx.terminal.verifyResult = &gateways.VerifyResult{Status: gateways.VerifySuccess, Reference: "MP-900"}

		result, err := fx.svc.Verify(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, result.Payment.Status)
		assert.Equal(t, "MP-900", result.Payment.Reference)
		assert.True(t, result.CartCompleted)
		assert.Equal(t, models.CartCompleted, fx.cartStatus(cart.ID))
	})

	t.Run("gateway failure marks the charge failed", func(t *testing.T) {
		fx := newPaymentFixture()
		cart, payment := pendingCharge(t, fx)
		fx.terminal.verifyResult = &gateways.VerifyResult{Status: gateways.VerifyFailed, Message: "card declined"}

		result, err := fx.svc.Verify(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, result.Payment.Status)
		assert.Equal(t, "card declined", result.Payment.Details["failure_reason"])
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})

	t.Run("gateway still pending leaves the payment untouched", func(t *testing.T) {
		fx := newPaymentFixture()
		cart, payment := pendingCharge(t, fx)
		fx.terminal.verifyResult = &gateways.VerifyResult{Status: gateways.VerifyPending}

		result, err := fx.svc.Verify(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, result.Payment.Status)
		assert.False(t, result.CartCompleted)
		assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
	})

	t.Run("completed payment rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		result, err := fx.svc.PayCash(ctx, cart.ID, 42, &models.CashPaymentRequest{AmountReceived: 500})
		require.NoError(t, err)

		_, err = fx.svc.Verify(ctx, result.Payment.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})

	t.Run("non-terminal method rejected", func(t *testing.T) {
		fx := newPaymentFixture()
		cart := fx.seedCart(t, 500)
		result, err := fx.svc.PayBankTransfer(ctx, cart.ID, 42, &models.BankTransferPaymentRequest{Amount: 500})
		require.NoError(t, err)

		_, err = fx.svc.Verify(ctx, result.Payment.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestGiftCardBalance(t *testing.T) {
	ctx := context.Background()
	fx := newPaymentFixture()
	fx.giftcard.balance = 2500

	balance, err := fx.svc.GiftCardBalance(ctx, "GC1")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, balance)

	_, err = fx.svc.GiftCardBalance(ctx, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestPaySuregiftsOverdrawRace(t *testing.T) {
	ctx := context.Background()
	fx := newPaymentFixture()
	cart := fx.seedCart(t, 1000)

	// A competing settlement lands between the remaining-due read and the
	// settling transaction. The re-check inside CreateCompleted must reject
	// the draw and the redemption must be released at the gateway.
	fx.giftcard.redemption = &gateways.GiftCardRedemption{Reference: "SG-42", AmountUsed: 600}
	fx.giftcard.onRedeem = func() {
		_, _, err := fx.payments.CreateCompleted(ctx, &models.Payment{
			CartID: cart.ID, UserID: 7, Amount: 600, PaymentMethod: models.PaymentMethodCash,
		})
		require.NoError(t, err)
	}

	_, err := fx.svc.PaySuregifts(ctx, cart.ID, 42, &models.SuregiftsPaymentRequest{GiftCardCode: "GC1", AmountToUse: 600})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, []string{"SG-42"}, fx.giftcard.voided, "redemption released after rejection")

	for _, p := range fx.payments.payments {
		assert.NotEqual(t, models.PaymentMethodSuregifts, p.PaymentMethod, "no gift card row persisted")
	}
	assert.Equal(t, models.CartActive, fx.cartStatus(cart.ID))
}
