// Package dispatcher drains due reminders on a fixed tick and fans each one
// out as an SMS. A reminder is marked sent as soon as its send task is
// spawned, biasing toward at-most-once delivery: a crash between marking and
// the SMS leaving the wire drops the notification rather than re-spamming.
package dispatcher

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pathakanu/remindbot/internal/model"
	"github.com/pathakanu/remindbot/internal/stopflag"
	"github.com/pathakanu/remindbot/internal/store"
)

// DefaultInterval is the production tick period.
const DefaultInterval = 500 * time.Millisecond

// every fires at a constant delay after the previous activation. The @every
// syntax rounds intervals down to whole seconds, so the schedule is
// registered directly.
type every struct {
	interval time.Duration
}

func (e every) Next(t time.Time) time.Time {
	return t.Add(e.interval)
}

// cronLog routes the scheduler's chatter (skipped ticks, job panics) into the
// dispatcher's logger.
type cronLog struct {
	logger zerolog.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// ReminderStore is the slice of the reminder store the dispatcher drives.
type ReminderStore interface {
	DueBefore(now time.Time) ([]model.Reminder, error)
	MarkSent(id string) error
}

// AddressBook resolves a reminder destination to an MSISDN.
type AddressBook interface {
	Lookup(userID string) (string, error)
}

// SMSSender delivers the out-of-band notification.
type SMSSender interface {
	SendSMS(to, body string) error
}

// Dispatcher owns the periodic drain loop.
type Dispatcher struct {
	reminders   ReminderStore
	addressBook AddressBook
	sms         SMSSender
	interval    time.Duration
	logger      zerolog.Logger
}

// New creates a dispatcher ticking at DefaultInterval.
func New(reminders ReminderStore, addressBook AddressBook, sms SMSSender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		reminders:   reminders,
		addressBook: addressBook,
		sms:         sms,
		interval:    DefaultInterval,
		logger:      logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run ticks until the flag is set. Ticks are guarded by SkipIfStillRunning,
// so a scan that outlasts the interval drops the missed ticks instead of
// piling up. Stop waits for an in-flight scan to finish; spawned send tasks
// are not awaited on shutdown.
func (d *Dispatcher) Run(flag *stopflag.Flag) {
	c := cron.New(cron.WithLogger(cronLog{d.logger}))
	c.Schedule(every{d.interval},
		cron.NewChain(cron.SkipIfStillRunning(cronLog{d.logger})).Then(cron.FuncJob(func() {
			d.tick(time.Now().UTC())
		})))
	c.Start()

	<-flag.Done()
	d.logger.Info().Msg("stopping dispatcher")
	<-c.Stop().Done()
}

// tick drains everything due at now. Each reminder is marked sent right after
// its send task is spawned; a failed mark is retried by a later tick, which
// may re-send.
func (d *Dispatcher) tick(now time.Time) {
	due, err := d.reminders.DueBefore(now)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to get due reminders")
		return
	}

	for _, reminder := range due {
		logger := d.logger.With().Str("reminder_id", reminder.ID).Logger()

		go d.send(logger, reminder)

		if err := d.reminders.MarkSent(reminder.ID); err != nil {
			logger.Error().Err(err).Msg("failed to mark reminder sent")
		}
	}
}

func (d *Dispatcher) send(logger zerolog.Logger, reminder model.Reminder) {
	logger.Info().Msg("sending message")

	msisdn, err := d.addressBook.Lookup(reminder.Destination)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn().Str("destination", reminder.Destination).Msg("no msisdn for user")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("destination", reminder.Destination).Msg("failed to get msisdn")
		return
	}

	if err := d.sms.SendSMS(msisdn, reminder.Text); err != nil {
		logger.Error().Err(err).Msg("failed to send sms")
		return
	}
	logger.Info().Msg("message sent")
}
