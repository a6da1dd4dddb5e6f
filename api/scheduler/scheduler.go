// Package scheduler runs the periodic lifecycle jobs: sweeping waitlists
// into freed capacity, closing registration for events that have started,
// and sending reminder emails the day before an event. Jobs coordinate
// across instances with a mongo-backed distributed lock so each run
// happens exactly once per deployment.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
	templates "github.com/eventlabs/event-reg-api/templates/html"
)

// Scheduler handles periodic background jobs for the registration lifecycle
type Scheduler struct {
	cron       *cron.Cron
	EDB        databases.EventDatabase
	RDB        databases.RegistrationDatabase
	LockDB     databases.SchedulerLockDatabase
	Engine     *engine.Engine
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	eDB databases.EventDatabase,
	rDB databases.RegistrationDatabase,
	lockDB databases.SchedulerLockDatabase,
	eng *engine.Engine,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		EDB:        eDB,
		RDB:        rDB,
		LockDB:     lockDB,
		Engine:     eng,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep waitlists hourly in case a promotion was missed, e.g. the
	// instance died between freeing a slot and promoting
	_, err := s.cron.AddFunc("0 * * * *", s.sweepWaitlists)
	if err != nil {
		zap.S().Errorw("failed to register waitlist sweep job", "error", err)
	}

	// Close registration for events that have started, every 10 minutes
	_, err = s.cron.AddFunc("*/10 * * * *", s.closeStartedEvents)
	if err != nil {
		zap.S().Errorw("failed to register auto-close job", "error", err)
	}

	// Send day-before reminder emails daily at 8 AM UTC
	_, err = s.cron.AddFunc("0 8 * * *", s.sendEventReminders)
	if err != nil {
		zap.S().Errorw("failed to register reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Registration lifecycle scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Registration lifecycle scheduler stopped")
}

// sweepWaitlists promotes waitlisted registrations into any capacity that
// has opened up since the last slot-freeing action
func (s *Scheduler) sweepWaitlists() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "waitlist_sweep_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for waitlist sweep job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Waitlist sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "waitlist_sweep_job", s.instanceID)

	zap.S().Infow("Running waitlist sweep job", "instance", s.instanceID)

	waitlisted, err := s.RDB.Find(ctx, bson.M{"status": models.StatusWaitlisted})
	if err != nil {
		zap.S().Errorw("failed to find waitlisted registrations", "error", err)
		return
	}

	eventIDs := map[string]bool{}
	for _, reg := range waitlisted {
		eventIDs[reg.EventID] = true
	}

	promotedTotal := 0
	for eventID := range eventIDs {
		promoted, err := s.Engine.PromoteWaitlist(ctx, eventID)
		if err != nil {
			zap.S().Errorw("waitlist sweep failed for event", "eventId", eventID, "error", err)
			continue
		}
		promotedTotal += len(promoted)
	}

	zap.S().Infow("Waitlist sweep complete",
		"eventsChecked", len(eventIDs),
		"promoted", promotedTotal,
	)
}

// closeStartedEvents flips isRegistrationOpen off for events whose start
// time has passed
func (s *Scheduler) closeStartedEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "auto_close_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for auto-close job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Auto-close job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "auto_close_job", s.instanceID)

	now := time.Now().UTC()
	started, err := s.EDB.Find(ctx, bson.M{
		"isRegistrationOpen": true,
		"startsAt":           bson.M{"$lte": now},
	})
	if err != nil {
		zap.S().Errorw("failed to find started events", "error", err)
		return
	}

	closed := 0
	for _, ev := range started {
		err := s.EDB.UpdateOne(ctx, bson.M{"_id": ev.ID}, bson.M{"$set": bson.M{"isRegistrationOpen": false}})
		if err != nil {
			zap.S().Errorw("failed to close registration", "eventId", ev.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		zap.S().Infow("Closed registration for started events", "count", closed)
	}
}

// sendEventReminders emails approved registrants of events starting in
// the next 24 hours
func (s *Scheduler) sendEventReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "event_reminder_job", s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reminder job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Reminder job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "event_reminder_job", s.instanceID)

	now := time.Now().UTC()
	upcoming, err := s.EDB.Find(ctx, bson.M{
		"startsAt":       bson.M{"$gt": now, "$lt": now.Add(24 * time.Hour)},
		"reminderSentAt": nil,
	})
	if err != nil {
		zap.S().Errorw("failed to find upcoming events", "error", err)
		return
	}

	for _, ev := range upcoming {
		s.remindEventRegistrants(ctx, ev)
	}

	zap.S().Infow("Reminder job complete", "eventsProcessed", len(upcoming))
}

func (s *Scheduler) remindEventRegistrants(ctx context.Context, ev models.Event) {
	approved, err := s.RDB.Find(ctx, bson.M{
		"eventId": ev.ID,
		"status":  models.StatusApproved,
	})
	if err != nil {
		zap.S().Errorw("failed to find approved registrations", "eventId", ev.ID, "error", err)
		return
	}

	sent := 0
	for _, reg := range approved {
		if reg.ParticipantEmail == "" {
			continue
		}
		subject := fmt.Sprintf("Reminder: %s starts tomorrow", ev.Name)
		htmlContent := templates.RenderEventReminderEmail(reg.ParticipantName, ev.Name, ev.StartsAt)
		plainText := fmt.Sprintf("%s starts at %s. See you there!", ev.Name, ev.StartsAt.Format(time.RFC1123))
		if err := s.sendEmail(reg.ParticipantEmail, reg.ParticipantName, subject, htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send reminder email",
				"registrationId", reg.ID, "error", err)
			continue
		}
		sent++
	}

	// Mark as reminded so the next run skips this event
	err = s.EDB.UpdateOne(ctx, bson.M{"_id": ev.ID}, bson.M{
		"$set": bson.M{"reminderSentAt": time.Now().UTC()},
	})
	if err != nil {
		zap.S().Errorw("failed to mark event as reminded", "eventId", ev.ID, "error", err)
	}

	zap.S().Infow("Sent event reminders", "eventId", ev.ID, "sent", sent)
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("EventLabs", "no-reply@eventlabs.io")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
