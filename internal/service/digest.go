package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finpulse/finpulse/internal/mail"
)

// DigestJob sends each enrolled user a weekly summary of their current risk
// findings. Scheduled by the server via cron.
type DigestJob struct {
	svc    *FinanceService
	sender mail.Sender
	logger *logrus.Logger
}

func NewDigestJob(svc *FinanceService, sender mail.Sender, logger *logrus.Logger) *DigestJob {
	return &DigestJob{svc: svc, sender: sender, logger: logger}
}

// Run computes risks for every digest user and mails the findings. Per-user
// failures are logged and skipped so one bad address cannot stall the batch.
func (j *DigestJob) Run(ctx context.Context) {
	users, err := j.svc.store.ListDigestUsers(ctx)
	if err != nil {
		j.logger.WithError(err).Error("digest: failed to list users")
		return
	}

	sent := 0
	for _, user := range users {
		income, expense, _, err := j.svc.userSeries(ctx, user.ID, time.Now())
		if err != nil {
			j.logger.WithError(err).WithField("user_id", user.ID).Warn("digest: failed to load series")
			continue
		}
		risks := j.svc.analyzer.DetectRisks(income, expense, 0)
		if len(risks) == 0 {
			continue
		}
		if err := j.sender.SendRiskDigest(user.Email, user.Name, risks); err != nil {
			j.logger.WithError(err).WithField("user_id", user.ID).Warn("digest: send failed")
			continue
		}
		sent++
	}
	j.logger.WithField("sent", sent).Info("digest run complete")
}
