package services

import (
	"context"
	"log"
	"math"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/archive"
	"pos-backend/internal/gateways"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/notify"
)

// PaymentStore persists payments. Completion paths run the cart settlement
// gate inside the same transaction as the payment write.
type PaymentStore interface {
	CreatePending(ctx context.Context, p *models.Payment) (*models.Payment, error)
	CreateCompleted(ctx context.Context, p *models.Payment) (*models.Payment, bool, error)
	MarkCompleted(ctx context.Context, paymentID int, reference, receiptNumber string, extra models.PaymentDetails) (*models.Payment, bool, error)
	MarkFailed(ctx context.Context, paymentID int, reason string) (*models.Payment, error)
	Get(ctx context.Context, id int) (*models.Payment, error)
	List(ctx context.Context, filter *models.PaymentFilter) ([]models.Payment, error)
	ListByCart(ctx context.Context, cartID int) ([]models.Payment, error)
	FindPendingMatch(ctx context.Context, method models.PaymentMethod, terminalID string, amount float64, before time.Time) (*models.Payment, error)
	Void(ctx context.Context, paymentID, userID int, reason string) (*models.Payment, error)
	CompletedAmount(ctx context.Context, cartID int) (float64, error)
}

type PaymentService struct {
	payments PaymentStore
	carts    CartStore
	terminal gateways.TerminalGateway
	giftcard gateways.GiftCardGateway
	loyalty  *LoyaltyService
	receipts *ReceiptService
	archiver *archive.Archiver
	hub      *notify.Hub
	webhook  *notify.Webhook
}

func NewPaymentService(
	payments PaymentStore,
	carts CartStore,
	terminal gateways.TerminalGateway,
	giftcard gateways.GiftCardGateway,
	loyalty *LoyaltyService,
	receipts *ReceiptService,
	archiver *archive.Archiver,
	hub *notify.Hub,
	webhook *notify.Webhook,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		carts:    carts,
		terminal: terminal,
		giftcard: giftcard,
		loyalty:  loyalty,
		receipts: receipts,
		archiver: archiver,
		hub:      hub,
		webhook:  webhook,
	}
}

// PayCash settles a cart in cash. The tendered amount must cover the cart
// total; the difference is returned as change.
func (s *PaymentService) PayCash(ctx context.Context, cartID, userID int, req *models.CashPaymentRequest) (*models.PaymentResult, error) {
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if req.AmountReceived < cart.Total {
		return nil, apperrors.Validation("amount received %.2f is less than total %.2f",
			req.AmountReceived, cart.Total)
	}

	change := req.AmountReceived - cart.Total
	receiptNumber := GenerateCode("RCP")

	payment, completed, err := s.payments.CreateCompleted(ctx, &models.Payment{
		CartID:          cartID,
		UserID:          userID,
		Amount:          req.AmountReceived,
		ChangeAmount:    change,
		PaymentMethod:   models.PaymentMethodCash,
		ReceiptNumber:   receiptNumber,
		TransactionCode: cart.TransactionCode,
		Details:         models.PaymentDetails{"notes": req.Notes},
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.onSaleCompleted(ctx, cartID, payment)
	}

	return &models.PaymentResult{
		Payment:       payment,
		Change:        change,
		CartCompleted: completed,
		ReceiptNumber: receiptNumber,
	}, nil
}

// PayMoniepoint charges the cart total on a card terminal. The payment is
// recorded pending before the charge; a transport failure leaves it pending
// for later confirmation or reconciliation, a decline marks it failed.
func (s *PaymentService) PayMoniepoint(ctx context.Context, cartID, userID int, req *models.MoniepointPaymentRequest) (*models.PaymentResult, error) {
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.CreatePending(ctx, &models.Payment{
		CartID:          cartID,
		UserID:          userID,
		Amount:          cart.Total,
		PaymentMethod:   models.PaymentMethodMoniepoint,
		TerminalID:      req.TerminalID,
		TransactionCode: cart.TransactionCode,
		Details:         models.PaymentDetails{"notes": req.Notes},
	})
	if err != nil {
		return nil, err
	}

	result, err := s.terminal.Charge(ctx, req.TerminalID, cart.Total, cart.TransactionCode)
	if err != nil {
		// Transport failure: the charge outcome is unknown, keep pending
		log.Printf("[Payment] Moniepoint charge errored for cart %d, payment %d left pending: %v",
			cartID, payment.ID, err)
		return &models.PaymentResult{Payment: payment}, err
	}

	if !result.Success {
		payment, err = s.payments.MarkFailed(ctx, payment.ID, result.Message)
		if err != nil {
			return nil, err
		}
		metrics.PaymentsFailed.WithLabelValues(string(models.PaymentMethodMoniepoint)).Inc()
		s.hub.Broadcast(notify.EventPaymentFailed, payment)
		return &models.PaymentResult{Payment: payment}, apperrors.Conflict("charge declined: %s", result.Message)
	}

	receiptNumber := GenerateCode("RCP")
	payment, completed, err := s.payments.MarkCompleted(ctx, payment.ID, result.Reference, receiptNumber, nil)
	if err != nil {
		return nil, err
	}

	if completed {
		s.onSaleCompleted(ctx, cartID, payment)
	}

	return &models.PaymentResult{
		Payment:       payment,
		CartCompleted: completed,
		ReceiptNumber: receiptNumber,
	}, nil
}

// PaySuregifts draws down a gift card against the cart. Partial cover is
// allowed: the cart stays active and the remaining balance is returned.
func (s *PaymentService) PaySuregifts(ctx context.Context, cartID, userID int, req *models.SuregiftsPaymentRequest) (*models.PaymentResult, error) {
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	paid, err := s.payments.CompletedAmount(ctx, cartID)
	if err != nil {
		return nil, err
	}
	remaining := cart.Total - paid
	if req.AmountToUse > remaining+0.01 {
		return nil, apperrors.Validation("amount %.2f exceeds remaining balance %.2f",
			req.AmountToUse, remaining)
	}

	redemption, err := s.giftcard.Redeem(ctx, req.GiftCardCode, req.AmountToUse)
	if err != nil {
		return nil, err
	}

	receiptNumber := GenerateCode("RCP")
	payment, completed, err := s.payments.CreateCompleted(ctx, &models.Payment{
		CartID:          cartID,
		UserID:          userID,
		Amount:          redemption.AmountUsed,
		PaymentMethod:   models.PaymentMethodSuregifts,
		Reference:       redemption.Reference,
		ReceiptNumber:   receiptNumber,
		TransactionCode: cart.TransactionCode,
		Details: models.PaymentDetails{
			"gift_card_code":    req.GiftCardCode,
			"card_balance_left": redemption.RemainingBalance,
			"notes":             req.Notes,
		},
	})
	if err != nil {
		// The local row was not written, so the card draw must be released.
		// Covers the settling transaction re-checking remaining due and
		// rejecting a concurrent over-draw the earlier read did not see.
		if vErr := s.giftcard.VoidRedemption(ctx, redemption.Reference); vErr != nil {
			log.Printf("[Payment] Could not release gift card redemption %s for cart %d: %v",
				redemption.Reference, cartID, vErr)
		}
		return nil, err
	}

	if completed {
		s.onSaleCompleted(ctx, cartID, payment)
	}

	return &models.PaymentResult{
		Payment:          payment,
		RemainingBalance: remaining - redemption.AmountUsed,
		CartCompleted:    completed,
		ReceiptNumber:    receiptNumber,
	}, nil
}

// PayBankTransfer records a bank transfer. Unconfirmed transfers sit pending
// until confirmed by a supervisor or matched by reconciliation.
func (s *PaymentService) PayBankTransfer(ctx context.Context, cartID, userID int, req *models.BankTransferPaymentRequest) (*models.PaymentResult, error) {
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		CartID:          cartID,
		UserID:          userID,
		Amount:          req.Amount,
		PaymentMethod:   models.PaymentMethodBankTransfer,
		Reference:       req.Reference,
		TransactionCode: cart.TransactionCode,
		Details: models.PaymentDetails{
			"bank_name":      req.BankName,
			"account_number": req.AccountNumber,
			"account_name":   req.AccountName,
			"notes":          req.Notes,
		},
	}

	return s.recordTransfer(ctx, cartID, payment, req.Confirm)
}

// PayMoniepointTransfer records a transfer seen at a terminal, optionally
// pre-confirmed by the cashier who watched it land.
func (s *PaymentService) PayMoniepointTransfer(ctx context.Context, cartID, userID int, req *models.MoniepointTransferRequest) (*models.PaymentResult, error) {
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		CartID:          cartID,
		UserID:          userID,
		Amount:          req.Amount,
		PaymentMethod:   models.PaymentMethodMoniepointTransfer,
		TerminalID:      req.TerminalID,
		TransactionCode: cart.TransactionCode,
		Details:         models.PaymentDetails{"notes": req.Notes},
	}

	return s.recordTransfer(ctx, cartID, payment, req.Confirm)
}

func (s *PaymentService) recordTransfer(ctx context.Context, cartID int, payment *models.Payment, confirm bool) (*models.PaymentResult, error) {
	if !confirm {
		pending, err := s.payments.CreatePending(ctx, payment)
		if err != nil {
			return nil, err
		}
		return &models.PaymentResult{Payment: pending}, nil
	}

	receiptNumber := GenerateCode("RCP")
	payment.ReceiptNumber = receiptNumber

	created, completed, err := s.payments.CreateCompleted(ctx, payment)
	if err != nil {
		return nil, err
	}

	if completed {
		s.onSaleCompleted(ctx, cartID, created)
	}

	return &models.PaymentResult{
		Payment:       created,
		CartCompleted: completed,
		ReceiptNumber: receiptNumber,
	}, nil
}

// Confirm settles a pending transfer once the funds are sighted. The reported
// amount must match the recorded one exactly.
func (s *PaymentService) Confirm(ctx context.Context, paymentID int, req *models.ConfirmPaymentRequest) (*models.PaymentResult, error) {
	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, apperrors.Conflict("payment is %s", payment.Status)
	}
	if math.Abs(req.Amount-payment.Amount) > 0.01 {
		return nil, apperrors.Validation("amount %.2f does not match recorded %.2f",
			req.Amount, payment.Amount)
	}

	receiptNumber := GenerateCode("RCP")
	payment, completed, err := s.payments.MarkCompleted(ctx, paymentID, req.Reference, receiptNumber, nil)
	if err != nil {
		return nil, err
	}

	if completed {
		s.onSaleCompleted(ctx, payment.CartID, payment)
	}

	return &models.PaymentResult{
		Payment:       payment,
		CartCompleted: completed,
		ReceiptNumber: receiptNumber,
	}, nil
}

// Verify re-queries the gateway for a moniepoint charge left pending by a
// transport failure and settles the payment with the real outcome. A charge
// the gateway still reports pending is left untouched.
func (s *PaymentService) Verify(ctx context.Context, paymentID int) (*models.PaymentResult, error) {
	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, apperrors.Conflict("payment is %s", payment.Status)
	}
	if payment.PaymentMethod != models.PaymentMethodMoniepoint {
		return nil, apperrors.Conflict("%s payments are not gateway-verifiable", payment.PaymentMethod)
	}

	result, err := s.terminal.Verify(ctx, payment.TransactionCode)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case gateways.VerifySuccess:
		receiptNumber := GenerateCode("RCP")
		payment, completed, err := s.payments.MarkCompleted(ctx, paymentID, result.Reference, receiptNumber, nil)
		if err != nil {
			return nil, err
		}
		if completed {
			s.onSaleCompleted(ctx, payment.CartID, payment)
		}
		return &models.PaymentResult{
			Payment:       payment,
			CartCompleted: completed,
			ReceiptNumber: receiptNumber,
		}, nil

	case gateways.VerifyFailed:
		payment, err = s.payments.MarkFailed(ctx, paymentID, result.Message)
		if err != nil {
			return nil, err
		}
		metrics.PaymentsFailed.WithLabelValues(string(models.PaymentMethodMoniepoint)).Inc()
		s.hub.Broadcast(notify.EventPaymentFailed, payment)
		return &models.PaymentResult{Payment: payment}, nil

	default:
		log.Printf("[Payment] Gateway still reports payment %d pending", paymentID)
		return &models.PaymentResult{Payment: payment}, nil
	}
}

// ReconcileTransfers pulls transfer events seen at a terminal and matches
// them against pending transfer payments by amount and timing. Unmatched
// events are reported back, never persisted.
func (s *PaymentService) ReconcileTransfers(ctx context.Context, req *models.ReconcileTransfersRequest) (*models.ReconciliationResult, error) {
	end := time.Now()
	if req.EndDate != nil {
		end = *req.EndDate
	}
	start := end.Add(-24 * time.Hour)
	if req.StartDate != nil {
		start = *req.StartDate
	}

	events, err := s.terminal.ListTransfers(ctx, req.TerminalID, start, end)
	if err != nil {
		return nil, err
	}

	result := &models.ReconciliationResult{
		Matched:   []*models.Payment{},
		Unmatched: []models.TransferEvent{},
	}

	for _, event := range events {
		match, err := s.payments.FindPendingMatch(ctx,
			models.PaymentMethodMoniepointTransfer, req.TerminalID, event.Amount, event.Date)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				result.Unmatched = append(result.Unmatched, event)
				continue
			}
			return nil, err
		}

		payment, completed, err := s.payments.MarkCompleted(ctx, match.ID, event.Reference,
			GenerateCode("RCP"), models.PaymentDetails{"reconciled_at": time.Now().Format(time.RFC3339)})
		if err != nil {
			// Another settle beat us to it; treat the event as unmatched
			log.Printf("[Payment] Reconcile skipped payment %d: %v", match.ID, err)
			result.Unmatched = append(result.Unmatched, event)
			continue
		}

		if completed {
			s.onSaleCompleted(ctx, payment.CartID, payment)
		}
		result.Matched = append(result.Matched, payment)
	}

	log.Printf("[Payment] Reconciled terminal %s: %d matched, %d unmatched",
		req.TerminalID, len(result.Matched), len(result.Unmatched))
	return result, nil
}

// Void reverses a completed payment and voids its cart. External settlements
// are refunded at the gateway first; a failed refund aborts the void.
func (s *PaymentService) Void(ctx context.Context, paymentID, userID int, req *models.VoidPaymentRequest) (*models.Payment, error) {
	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsVoid {
		return nil, apperrors.Conflict("payment is already void")
	}
	if payment.Status != models.PaymentCompleted {
		return nil, apperrors.Conflict("only completed payments can be voided")
	}

	switch payment.PaymentMethod {
	case models.PaymentMethodMoniepoint:
		if err := s.terminal.Refund(ctx, payment.Reference, payment.Amount); err != nil {
			return nil, err
		}
	case models.PaymentMethodSuregifts:
		if err := s.giftcard.VoidRedemption(ctx, payment.Reference); err != nil {
			return nil, err
		}
	}

	voided, err := s.payments.Void(ctx, paymentID, userID, req.Reason)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(notify.EventPaymentVoided, voided)
	s.webhook.Send(notify.EventPaymentVoided, voided)
	log.Printf("[Payment] Voided payment %d (cart %d): %s", paymentID, voided.CartID, req.Reason)

	return voided, nil
}

// Get returns a payment by id
func (s *PaymentService) Get(ctx context.Context, id int) (*models.Payment, error) {
	return s.payments.Get(ctx, id)
}

// Receipt re-renders the receipt PDF for a completed cart. The receipt number
// comes from the payment that settled the sale.
func (s *PaymentService) Receipt(ctx context.Context, cartID int) ([]byte, string, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, "", err
	}
	if cart.Status != models.CartCompleted {
		return nil, "", apperrors.Conflict("cart is %s, receipt requires a completed sale", cart.Status)
	}

	payments, err := s.payments.ListByCart(ctx, cartID)
	if err != nil {
		return nil, "", err
	}

	receiptNumber := ""
	for _, p := range payments {
		if p.Status == models.PaymentCompleted && !p.IsVoid && p.ReceiptNumber != "" {
			receiptNumber = p.ReceiptNumber
		}
	}
	if receiptNumber == "" {
		return nil, "", apperrors.NotFound("no receipt recorded for cart %d", cartID)
	}

	pdf, err := s.receipts.Render(ctx, cart, payments, receiptNumber)
	if err != nil {
		return nil, "", err
	}
	return pdf, receiptNumber, nil
}

// GiftCardBalance looks up the remaining balance on a gift card
func (s *PaymentService) GiftCardBalance(ctx context.Context, code string) (float64, error) {
	if code == "" {
		return 0, apperrors.Validation("gift card code is required")
	}
	return s.giftcard.Balance(ctx, code)
}

// ListPending returns the pending-payment worklist
func (s *PaymentService) ListPending(ctx context.Context, filter *models.PaymentFilter) ([]models.Payment, error) {
	filter.Status = string(models.PaymentPending)
	return s.payments.List(ctx, filter)
}

func (s *PaymentService) activeCart(ctx context.Context, cartID int) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartActive {
		return nil, apperrors.Conflict("cart is %s", cart.Status)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}
	return cart, nil
}

// onSaleCompleted runs post-completion side effects: metrics, notifications,
// loyalty accrual and receipt archival. None of them can fail the sale.
func (s *PaymentService) onSaleCompleted(ctx context.Context, cartID int, payment *models.Payment) {
	metrics.PaymentsCompleted.WithLabelValues(string(payment.PaymentMethod)).Inc()

	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		log.Printf("[Payment] Could not load completed cart %d: %v", cartID, err)
		return
	}

	s.hub.Broadcast(notify.EventSaleCompleted, cart)
	s.webhook.Send(notify.EventSaleCompleted, cart)

	if cart.CustomerID != nil && s.loyalty != nil {
		s.loyalty.AccrueForSale(ctx, *cart.CustomerID, cart.Total, cart.TransactionCode)
	}

	if s.receipts != nil && s.archiver != nil && payment.ReceiptNumber != "" {
		payments, err := s.payments.ListByCart(ctx, cartID)
		if err != nil {
			payments = []models.Payment{*payment}
		}

		pdf, err := s.receipts.Render(ctx, cart, payments, payment.ReceiptNumber)
		if err != nil {
			log.Printf("[Payment] Receipt render failed for cart %d: %v", cartID, err)
			return
		}
		if err := s.archiver.StoreReceipt(ctx, payment.ReceiptNumber, pdf); err != nil {
			log.Printf("[Payment] %v", err)
		}
	}
}
