package queue

import (
	"fmt"
	"time"

	"agroalert/internal/domain/alert"

	"github.com/hibiken/asynq"
)

// queueName is the dedicated asynq queue for alert work.
const queueName = "alerts"

// RedisOpt builds the asynq Redis connection options.
func RedisOpt(redisAddr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	}
}

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(RedisOpt(redisAddr, password, db))
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		RedisOpt(redisAddr, password, db),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queueName: 10, // priority weight
				"default": 1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 30s, 60s, 120s, 240s, 480s
				return time.Duration(30*(1<<uint(n-1))) * time.Second
			},
		},
	)
}

// NewScheduler creates an asynq scheduler that enqueues the periodic alert
// runs on the given cron specs, so the dispatch jobs fire even without an
// external cron caller.
func NewScheduler(redisAddr, password string, db int, weatherCron, priceCron string) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(redisAddr, password, db), &asynq.SchedulerOpts{})

	if weatherCron != "" {
		task := asynq.NewTask(alert.TaskTypeWeatherRun, nil)
		if _, err := scheduler.Register(weatherCron, task, asynq.Queue(queueName), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("registering weather schedule: %w", err)
		}
	}

	if priceCron != "" {
		task := asynq.NewTask(alert.TaskTypePriceRun, nil)
		if _, err := scheduler.Register(priceCron, task, asynq.Queue(queueName), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("registering price schedule: %w", err)
		}
	}

	return scheduler, nil
}

// EnqueueSendWelcome enqueues a welcome email task.
func EnqueueSendWelcome(client *asynq.Client, deliveryID string, maxRetry int) error {
	task, err := alert.NewSendWelcomeTask(deliveryID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = client.Enqueue(task,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(queueName),
	)
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}
