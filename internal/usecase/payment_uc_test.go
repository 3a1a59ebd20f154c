//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	"dating-swipe-subscription/internal/usecase"
)

type paymentFixture struct {
	records  *MockRecordRepo
	plans    *MockPlanRepo
	txs      *MockTransactionRepo
	provider *MockProvider
	uc       *usecase.PaymentUseCase
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	records := NewMockRecordRepo()
	plans := NewMockPlanRepo()
	txs := NewMockTransactionRepo()
	provider := NewMockProvider("noop")

	monthly, err := model.NewPlan("monthly", "monthly", "Premium Monthly", 49_900, "INR", 30, 200, nil)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}
	_ = plans.Save(context.Background(), nil, monthly)

	uc := usecase.NewPaymentUseCase(records, plans, txs, newSettingsUC(10, true),
		map[string]adapter.PaymentProvider{"noop": provider}, NewMockTxManager(), newTestLogger())
	return &paymentFixture{records: records, plans: plans, txs: txs, provider: provider, uc: uc}
}

func TestPaymentUseCase_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a pending transaction with the provider order id", func(t *testing.T) {
		f := newPaymentFixture(t)

		tr, sess, err := f.uc.Initiate(ctx, "user-1", "monthly")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sess.OrderID == "" || sess.RedirectURL == "" {
			t.Error("expected a checkout session with order id and redirect")
		}
		if tr.Status != model.TransactionStatusPending {
			t.Errorf("expected pending status, got %s", tr.Status)
		}
		if tr.ProviderOrderID != sess.OrderID {
			t.Error("expected the transaction to carry the provider order id")
		}
		stored, err := f.txs.FindByProviderOrder(ctx, nil, "noop", sess.OrderID)
		if err != nil {
			t.Fatalf("expected the pending row to be persisted: %v", err)
		}
		if stored.AmountMinorUnits != 49_900 || stored.Currency != "INR" {
			t.Errorf("expected plan price on the row, got %d %s", stored.AmountMinorUnits, stored.Currency)
		}
	})

	t.Run("should reject an unknown plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, _, err := f.uc.Initiate(ctx, "user-1", "no-such"); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Fatalf("expected ErrPlanNotFound, got %v", err)
		}
	})

	t.Run("should reject a deactivated plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		_ = f.plans.Deactivate(ctx, nil, "monthly")
		if _, _, err := f.uc.Initiate(ctx, "user-1", "monthly"); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Fatalf("expected ErrPlanNotFound, got %v", err)
		}
	})
}

func TestPaymentUseCase_Apply(t *testing.T) {
	ctx := context.Background()
	evt := func(txID string) adapter.ConfirmationEvent {
		return adapter.ConfirmationEvent{UserID: "user-1", PlanID: "monthly", TransactionID: txID, Provider: "noop"}
	}

	t.Run("should upgrade the record and complete the pending row", func(t *testing.T) {
		f := newPaymentFixture(t)
		tr, sess, err := f.uc.Initiate(ctx, "user-1", "monthly")
		if err != nil {
			t.Fatalf("initiate: %v", err)
		}

		outcome, rec, err := f.uc.Apply(ctx, evt(sess.OrderID))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != usecase.ApplyOutcomeApplied {
			t.Fatalf("expected applied, got %s", outcome)
		}
		if !rec.IsPremium || !rec.IsActive || rec.CurrentPlanID != "monthly" {
			t.Errorf("expected an active premium record, got %+v", rec)
		}
		if rec.SwipesLimit != 200 || rec.SwipesUsedToday != 0 {
			t.Errorf("expected fresh snapshot 200/0, got %d/%d", rec.SwipesLimit, rec.SwipesUsedToday)
		}
		if rec.PeriodEnd == nil || time.Until(*rec.PeriodEnd) < 29*24*time.Hour {
			t.Error("expected the period to run about 30 days")
		}
		row, err := f.txs.FindByID(ctx, nil, tr.ID)
		if err != nil {
			t.Fatalf("transaction row: %v", err)
		}
		if row.Status != model.TransactionStatusCompleted || row.CompletedAt == nil {
			t.Errorf("expected the row completed, got %s", row.Status)
		}
	})

	t.Run("should treat a replayed confirmation as a no-op", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, sess, _ := f.uc.Initiate(ctx, "user-1", "monthly")

		_, first, err := f.uc.Apply(ctx, evt(sess.OrderID))
		if err != nil {
			t.Fatalf("first apply: %v", err)
		}
		firstEnd := *first.PeriodEnd

		outcome, rec, err := f.uc.Apply(ctx, evt(sess.OrderID))
		if err != nil {
			t.Fatalf("second apply: %v", err)
		}
		if outcome != usecase.ApplyOutcomeAlreadyApplied {
			t.Fatalf("expected already_applied, got %s", outcome)
		}
		if !rec.PeriodEnd.Equal(firstEnd) {
			t.Error("replay must not move the period end")
		}
		if len(rec.AppliedTransactionIDs) != 1 {
			t.Errorf("expected one recorded transaction id, got %d", len(rec.AppliedTransactionIDs))
		}
	})

	t.Run("should overwrite the period on a mid-cycle repurchase", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, _, err := f.uc.Apply(ctx, evt("order-a")); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		before := f.records.Get("user-1")
		firstEnd := *before.PeriodEnd

		time.Sleep(5 * time.Millisecond)
		_, rec, err := f.uc.Apply(ctx, evt("order-b"))
		if err != nil {
			t.Fatalf("second apply: %v", err)
		}
		if !rec.PeriodEnd.After(firstEnd) {
			t.Error("expected the new period end to replace the old one")
		}
		// Durations never stack: the new end is ~30 days out, not ~60.
		if time.Until(*rec.PeriodEnd) > 31*24*time.Hour {
			t.Error("expected the repurchase to restart, not extend, the period")
		}
	})

	t.Run("should record a completed row for an out-of-band confirmation", func(t *testing.T) {
		f := newPaymentFixture(t)

		outcome, _, err := f.uc.Apply(ctx, adapter.ConfirmationEvent{
			UserID: "user-1", PlanID: "monthly", TransactionID: "play-token-1", Provider: "googleplay",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != usecase.ApplyOutcomeApplied {
			t.Fatalf("expected applied, got %s", outcome)
		}
		row, err := f.txs.FindByProviderOrder(ctx, nil, "googleplay", "play-token-1")
		if err != nil {
			t.Fatalf("expected a completed row to be written: %v", err)
		}
		if row.Status != model.TransactionStatusCompleted {
			t.Errorf("expected completed, got %s", row.Status)
		}
	})

	t.Run("should upgrade a lapsed record cleanly", func(t *testing.T) {
		f := newPaymentFixture(t)
		now := time.Now()
		weekly, _ := model.NewPlan("weekly", "weekly", "Premium Weekly", 19_900, "INR", 7, 100, nil)
		f.records.Put(premiumRecord(t, "user-1", weekly, "old-tx", now.Add(-20*24*time.Hour)))

		_, rec, err := f.uc.Apply(ctx, evt("order-new"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.CurrentPlanID != "monthly" || !rec.IsPremium {
			t.Errorf("expected upgrade to monthly, got %s", rec.CurrentPlanID)
		}
		if rec.SwipesLimit != 200 {
			t.Errorf("expected the new snapshot limit, got %d", rec.SwipesLimit)
		}
	})

	t.Run("should reject an incomplete event", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, _, err := f.uc.Apply(ctx, adapter.ConfirmationEvent{UserID: "user-1", Provider: "noop"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPaymentUseCase_Fail(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	tr, _, err := f.uc.Initiate(ctx, "user-1", "monthly")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if err := f.uc.Fail(ctx, tr.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	row, _ := f.txs.FindByID(ctx, nil, tr.ID)
	if row.Status != model.TransactionStatusFailed {
		t.Errorf("expected failed, got %s", row.Status)
	}
}
