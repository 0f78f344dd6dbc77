package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/config"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeMorningReminders = "reminder:morning"
	TypeEveningPix       = "reminder:evening_pix"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	reminderService services.IReminderService
}

func NewTaskProcessor(cfg *config.Config, reminderService services.IReminderService) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		reminderService: reminderService,
	}
}

// SetupServer configures and returns an Asynq server instance with the
// reminder handlers registered.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			// Reminder sweeps are sequential by design; one worker is enough
			// and keeps outbound message ordering predictable.
			Concurrency: 1,
			Queues: map[string]int{
				"reminders": 5,
				"default":   1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Error: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMorningReminders, processor.HandleMorningRemindersTask)
	mux.HandleFunc(TypeEveningPix, processor.HandleEveningPixTask)

	return srv, mux
}

// SetupScheduler configures the periodic scheduler that fires the two daily
// sweeps. Cron specs are evaluated in the configured business timezone.
func SetupScheduler(rdb *redis.Client, cfg *config.Config) (*asynq.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(redisOpt(rdb), &asynq.SchedulerOpts{
		Location: loc,
	})

	if _, err := scheduler.Register(
		cfg.MorningReminderSpec,
		asynq.NewTask(TypeMorningReminders, nil),
		asynq.Queue("reminders"),
	); err != nil {
		return nil, fmt.Errorf("failed to register morning reminder schedule %q: %w", cfg.MorningReminderSpec, err)
	}

	if _, err := scheduler.Register(
		cfg.EveningReminderSpec,
		asynq.NewTask(TypeEveningPix, nil),
		asynq.Queue("reminders"),
	); err != nil {
		return nil, fmt.Errorf("failed to register evening PIX schedule %q: %w", cfg.EveningReminderSpec, err)
	}

	log.Printf("Reminder schedules registered: morning=%q evening=%q tz=%s", cfg.MorningReminderSpec, cfg.EveningReminderSpec, loc)
	return scheduler, nil
}

// --- Task Handlers ---

// HandleMorningRemindersTask runs the daily payment reminder sweep over all
// active contracts.
func (p *TaskProcessor) HandleMorningRemindersTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting morning payment reminder sweep...")
	stats, err := p.reminderService.SendPaymentReminders(ctx)
	if err != nil {
		return fmt.Errorf("morning reminder sweep failed: %w", err)
	}
	log.Printf("Morning reminder sweep finished: sent=%d failed=%d", stats.Sent, stats.Failed)
	return nil
}

// HandleEveningPixTask re-sends PIX codes created today that are still
// pending at night.
func (p *TaskProcessor) HandleEveningPixTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting evening PIX reminder sweep...")
	stats, err := p.reminderService.SendEveningPixReminders(ctx)
	if err != nil {
		return fmt.Errorf("evening PIX sweep failed: %w", err)
	}
	log.Printf("Evening PIX sweep finished: sent=%d failed=%d", stats.Sent, stats.Failed)
	return nil
}
