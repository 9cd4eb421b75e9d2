package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"movieflix/models"
	"movieflix/repository"
)

// OrderResult is what a client needs to open the gateway checkout.
type OrderResult struct {
	OrderID  string
	Amount   int64 // minor units, as reported by the gateway
	Currency string
	KeyID    string
}

type VerifyPaymentRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	PlanType  string
}

// BillingService runs the order → verify → activate flow.
type BillingService struct {
	store    repository.Manager
	gateway  PaymentGateway
	notifier ActivationNotifier
	currency string
	log      *zap.Logger
	now      func() time.Time
}

func NewBillingService(store repository.Manager, gateway PaymentGateway, notifier ActivationNotifier, currency string, log *zap.Logger) *BillingService {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == "" {
		currency = "INR"
	}
	return &BillingService{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

func (s *BillingService) ListPlans() []models.Plan {
	return Plans()
}

// CurrentSubscription returns nil without error when the user has no live
// subscription.
func (s *BillingService) CurrentSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions().Current(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, Internal("Failed to get subscription", err)
	}
	return sub, nil
}

func (s *BillingService) CreateOrder(ctx context.Context, userID int64, planType string) (*OrderResult, error) {
	planType = strings.ToLower(strings.TrimSpace(planType))
	if !IsValidPlan(planType) {
		return nil, BadRequest("Invalid plan type")
	}
	amount := PlanAmount(planType)

	order, err := s.gateway.CreateOrder(ctx, amount*100, s.currency, "receipt_"+uuid.NewString())
	if err != nil {
		return nil, Upstream("Failed to create payment order", err)
	}

	payment := &models.Payment{
		UserID:         userID,
		GatewayOrderID: order.ID,
		Amount:         amount,
		Currency:       order.Currency,
		Status:         models.PaymentPending,
		PlanType:       planType,
	}
	if err := s.store.Payments().Create(ctx, payment); err != nil {
		return nil, Internal("Failed to create payment order", err)
	}

	s.log.Info("payment order created",
		zap.Int64("user_id", userID),
		zap.String("order_id", order.ID),
		zap.String("plan", planType),
	)
	return &OrderResult{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature and, in one transaction,
// completes the payment and replaces the user's active subscription.
func (s *BillingService) VerifyPayment(ctx context.Context, userID int64, req VerifyPaymentRequest) (*models.Subscription, error) {
	orderID := strings.TrimSpace(req.OrderID)
	paymentID := strings.TrimSpace(req.PaymentID)
	signature := strings.TrimSpace(req.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, BadRequest("Missing payment details")
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return nil, Mismatch("Invalid payment signature")
	}

	var sub *models.Subscription
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		payment, err := repos.Payments().Complete(ctx, userID, orderID, paymentID)
		if err != nil {
			return err
		}
		if _, err := repos.Subscriptions().CancelActive(ctx, userID); err != nil {
			return err
		}

		planType := strings.ToLower(strings.TrimSpace(req.PlanType))
		if !IsValidPlan(planType) {
			planType = payment.PlanType
		}
		start := s.now().UTC()
		sub = &models.Subscription{
			UserID:    userID,
			PlanType:  planType,
			Status:    models.SubscriptionActive,
			StartDate: start,
			EndDate:   PlanEndDate(planType, start),
			PaymentID: paymentID,
			Amount:    payment.Amount,
		}
		return repos.Subscriptions().Create(ctx, sub)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Payment not found")
		case errors.Is(err, repository.ErrPaymentCompleted):
			return nil, Conflict("Payment already verified")
		case errors.Is(err, repository.ErrActiveSubscriptionExists):
			return nil, Conflict("Subscription is being activated concurrently")
		}
		return nil, Internal("Failed to verify payment", err)
	}

	s.log.Info("subscription activated",
		zap.Int64("user_id", userID),
		zap.String("order_id", orderID),
		zap.String("plan", sub.PlanType),
		zap.Time("end_date", sub.EndDate),
	)
	if s.notifier != nil {
		s.notifier.SubscriptionActivated(*sub)
	}
	return sub, nil
}

func (s *BillingService) History(ctx context.Context, userID int64) ([]models.Payment, error) {
	payments, err := s.store.Payments().ListByUser(ctx, userID)
	if err != nil {
		return nil, Internal("Failed to get payment history", err)
	}
	return payments, nil
}
