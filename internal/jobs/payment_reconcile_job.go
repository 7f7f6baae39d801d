package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PaymentReconciler settles stale pending payments. Implemented by usecase.PaymentUsecase.
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context) (int, error)
}

// PaymentReconcileJob periodically asks the provider about pending payments whose
// client never called confirm. Overlapping runs are skipped.
type PaymentReconcileJob struct {
	cron       *cron.Cron
	log        *logrus.Logger
	reconciler PaymentReconciler
	schedule   string
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPaymentReconcileJob(log *logrus.Logger, reconciler PaymentReconciler, schedule string, timeout time.Duration) *PaymentReconcileJob {
	ctx, cancel := context.WithCancel(context.Background())
	return &PaymentReconcileJob{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log)), cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		log:        log,
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    timeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the job on its schedule and starts the scheduler in the background.
func (j *PaymentReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Infof("Payment reconciliation scheduled: %s", j.schedule)
	return nil
}

// Run performs a single reconciliation pass.
func (j *PaymentReconcileJob) Run() {
	ctx := j.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	settled, err := j.reconciler.ReconcilePending(ctx)
	if err != nil {
		j.log.Errorf("Payment reconciliation failed after %d settled: %+v", settled, err)
		return
	}
	j.log.Debugf("Payment reconciliation finished: settled=%d, took=%s", settled, time.Since(start))
}

// Stop cancels an in-flight pass and waits for it to return.
func (j *PaymentReconcileJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.log.Info("Payment reconciliation stopped")
}
