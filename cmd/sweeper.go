package cmd

import (
	"context"
	"time"

	"fitness-booking/internal/usecase"

	"go.uber.org/zap"
)

// RunSweeper expires unpaid bookings and fires missed payment reminders on
// every tick until ctx is cancelled.
func RunSweeper(ctx context.Context, service *usecase.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	log := logger.With(zap.String("component", "sweeper"))

	sweep := func(now time.Time) {
		if n, err := service.Booking.ExpireOverdue(ctx, now); err != nil {
			log.Warn("Expire overdue bookings failed", zap.Error(err), zap.Int("expired", n))
		}
		if _, err := service.Notification.SweepReminders(ctx, now); err != nil {
			log.Warn("Reminder sweep failed", zap.Error(err))
		}
	}

	// catch up on anything that came due while the process was down
	sweep(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweep(now)
		}
	}
}
