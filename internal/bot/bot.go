// Package bot interprets room messages addressed to the bot and turns valid
// reminder commands into persisted reminders, replying to the room with the
// outcome.
package bot

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/remindbot/internal/humandate"
	"github.com/pathakanu/remindbot/internal/matrix"
	"github.com/pathakanu/remindbot/internal/model"
)

const (
	messageEventType = "m.room.message"
	reminderIDLength = 20
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReminderStore persists accepted reminders.
type ReminderStore interface {
	Add(r *model.Reminder) error
}

// MessageSender posts replies back to the originating room.
type MessageSender interface {
	SendText(ctx context.Context, roomID, text string) error
}

// Handler filters room events and executes the "remind me" command.
type Handler struct {
	prefix    string
	commandRe *regexp.Regexp
	reminders ReminderStore
	sender    MessageSender
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a handler answering to the given addressing prefix
// (e.g. "testbot" for messages starting with "testbot:").
func New(prefix string, reminders ReminderStore, sender MessageSender, logger zerolog.Logger) *Handler {
	return &Handler{
		prefix: prefix,
		commandRe: regexp.MustCompile(
			`^` + regexp.QuoteMeta(prefix) + `:\s+remind\s*me\s+(.*)\s+to\s+(.*)$`),
		reminders: reminders,
		sender:    sender,
		logger:    logger.With().Str("component", "bot").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent processes one event from a live sync snapshot. It never returns
// an error: every failure either ends the interaction silently (events not
// addressed to the bot) or is reported back to the room.
func (h *Handler) HandleEvent(ctx context.Context, roomID string, event matrix.Event) {
	id := newReminderID()
	logger := h.logger.With().Str("reminder_id", id).Logger()

	logger.Info().
		Str("room", roomID).
		Str("sender", event.Sender).
		Msg("got event")

	if event.Type != messageEventType {
		return
	}
	body, ok := event.Body()
	if !ok {
		return
	}
	if !strings.HasPrefix(body, h.prefix+":") {
		return
	}

	m := h.commandRe.FindStringSubmatch(body)
	if m == nil {
		logger.Info().Str("body", body).Msg("unrecognized command")
		h.reply(ctx, logger, roomID, "unrecognized command")
		return
	}
	when, what := m[1], m[2]

	now := h.now()
	due, err := humandate.Parse(when, now)
	if err != nil {
		logger.Info().Str("when", when).Msg("failed to parse date")
		h.reply(ctx, logger, roomID, fmt.Sprintf("sorry, I couldn't understand %q", when))
		return
	}

	if !due.After(now) {
		logger.Info().Time("due", due).Msg("due date in past")
		h.reply(ctx, logger, roomID, "due date in past")
		return
	}

	reminder := &model.Reminder{
		ID:          id,
		Destination: event.Sender,
		Text:        what,
	}
	reminder.SetDue(due)

	if err := h.reminders.Add(reminder); err != nil {
		logger.Error().Err(err).Msg("failed to queue reminder")
		h.reply(ctx, logger, roomID, "failed to save reminder, please try again")
		return
	}

	logger.Info().Time("due", due).Msg("queued reminder")
	h.reply(ctx, logger, roomID, "queued for "+due.Format(time.RFC1123Z))
}

// Consume handles events from ch one at a time until ch is closed. Running
// a single consumer keeps a room's commands processed in the order they
// arrived.
func (h *Handler) Consume(ctx context.Context, ch <-chan matrix.RoomEvent) {
	for re := range ch {
		h.HandleEvent(ctx, re.RoomID, re.Event)
	}
}

func (h *Handler) reply(ctx context.Context, logger zerolog.Logger, roomID, text string) {
	if err := h.sender.SendText(ctx, roomID, text); err != nil {
		logger.Error().Err(err).Str("room", roomID).Msg("failed to send reply")
	}
}

// newReminderID returns a fresh 20-character alphanumeric id. Collisions are
// astronomically unlikely and deliberately unhandled beyond the store's
// duplicate-key error.
func newReminderID() string {
	var b strings.Builder
	b.Grow(reminderIDLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < reminderIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		b.WriteByte(idAlphabet[n.Int64()])
	}
	return b.String()
}
