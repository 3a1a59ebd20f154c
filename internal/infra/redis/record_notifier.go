package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain/model"
)

// RecordNotifier publishes committed subscription record changes on a Redis
// pub/sub topic keyed by userId, so other sessions and devices of the same
// user can refresh without polling.
type RecordNotifier struct {
	cli Client
	log *zerolog.Logger
}

func NewRecordNotifier(cli Client, logger *zerolog.Logger) *RecordNotifier {
	l := logger.With().Str("component", "RecordNotifier").Logger()
	return &RecordNotifier{cli: cli, log: &l}
}

func recordChannel(userID string) string {
	return fmt.Sprintf("subscription:changed:%s", userID)
}

// Notify implements the facade's RecordObserver shape.
func (n *RecordNotifier) Notify(rec model.SubscriptionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := n.cli.Publish(ctx, recordChannel(rec.UserID), payload); err != nil {
		// Best-effort: a missed push only delays the client until its
		// next refresh.
		n.log.Warn().Err(err).Str("user_id", rec.UserID).Msg("record change publish failed")
	}
}

// Watch subscribes to one user's record changes until ctx is cancelled.
func (n *RecordNotifier) Watch(ctx context.Context, userID string) <-chan model.SubscriptionRecord {
	raw := n.cli.Subscribe(ctx, recordChannel(userID))
	out := make(chan model.SubscriptionRecord, 4)
	go func() {
		defer close(out)
		for payload := range raw {
			var rec model.SubscriptionRecord
			if err := json.Unmarshal([]byte(payload), &rec); err != nil {
				continue
			}
			out <- rec
		}
	}()
	return out
}
