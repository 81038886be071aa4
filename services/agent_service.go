// services/agent_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pbdna/pbdna_backend/config"
	"github.com/pbdna/pbdna_backend/metrics"
	"github.com/pbdna/pbdna_backend/models"
	"github.com/pbdna/pbdna_backend/reporting"
	"github.com/pbdna/pbdna_backend/websocket"
)

// AgentService runs the content-generation workers: it consumes jobs from
// the broker, runs them through the model, caches results in Redis and
// publishes completion events.
type AgentService struct {
	broker *Broker
	redis  *redis.Client
	ai     *openai.Client
	hub    *websocket.Hub
	cfg    *config.Config
	logger *log.Logger
}

// NewAgentService creates the agent worker service.
func NewAgentService(broker *Broker, rdb *redis.Client, hub *websocket.Hub, cfg *config.Config) *AgentService {
	return &AgentService{
		broker: broker,
		redis:  rdb,
		ai:     openai.NewClient(cfg.OpenAIAPIKey),
		hub:    hub,
		cfg:    cfg,
		logger: log.New(os.Stdout, "[AGENTS] ", log.LstdFlags),
	}
}

// Enqueue validates and publishes a new job, marking it queued in the cache.
func (s *AgentService) Enqueue(ctx context.Context, job *models.ContentJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now()

	if err := s.cacheResult(ctx, &models.ContentJobResult{
		JobID:  job.ID,
		Status: models.JobStatusQueued,
	}, job.Kind); err != nil {
		return err
	}

	return s.broker.Publish(ctx, QueueContentJobs, job)
}

// JobResult returns the cached status/result for a job, if any.
func (s *AgentService) JobResult(ctx context.Context, jobID uuid.UUID) (*models.ContentJobResult, error) {
	raw, err := s.redis.Get(ctx, jobResultKey(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheHits.WithLabelValues("miss").Inc()
			return nil, nil
		}
		return nil, err
	}

	metrics.CacheHits.WithLabelValues("hit").Inc()
	var result models.ContentJobResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Start launches n workers consuming from the job queue. Blocks until the
// context is cancelled.
func (s *AgentService) Start(ctx context.Context, workers int) error {
	deliveries, err := s.broker.Consume(QueueContentJobs)
	if err != nil {
		return err
	}

	s.logger.Printf("Starting %d agent workers", workers)
	for i := 0; i < workers; i++ {
		go s.worker(ctx, deliveries)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *AgentService) worker(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}

			var job models.ContentJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				s.logger.Printf("Discarding malformed job: %v", err)
				_ = delivery.Nack(false, false)
				continue
			}

			s.process(ctx, &job)
			_ = delivery.Ack(false)
		}
	}
}

func (s *AgentService) process(ctx context.Context, job *models.ContentJob) {
	start := time.Now()
	s.logger.Printf("Processing job %s (%s) for user %s", job.ID, job.Kind, job.UserID)

	_ = s.cacheResult(ctx, &models.ContentJobResult{
		JobID:  job.ID,
		Status: models.JobStatusProcessing,
	}, job.Kind)

	content, err := s.run(ctx, job)

	result := &models.ContentJobResult{
		JobID:       job.ID,
		CompletedAt: time.Now(),
	}
	if err != nil {
		s.logger.Printf("Job %s failed: %v", job.ID, err)
		reporting.CaptureError(fmt.Errorf("job %s (%s) failed: %w", job.ID, job.Kind, err))
		result.Status = models.JobStatusFailed
		result.Error = err.Error()
	} else {
		result.Status = models.JobStatusCompleted
		result.Content = content
	}

	if err := s.cacheResult(ctx, result, job.Kind); err != nil {
		s.logger.Printf("Failed to cache result for job %s: %v", job.ID, err)
	}
	if err := s.broker.Publish(ctx, QueueJobResults, result); err != nil {
		s.logger.Printf("Failed to publish result for job %s: %v", job.ID, err)
	}
	s.hub.NotifyJobStatus(job.UserID, result)

	metrics.JobsProcessed.WithLabelValues(job.Kind, result.Status).Inc()
	metrics.JobDuration.WithLabelValues(job.Kind).Observe(time.Since(start).Seconds())
}

func (s *AgentService) run(ctx context.Context, job *models.ContentJob) (string, error) {
	var prompt string
	switch job.Kind {
	case models.JobKindVoiceAnalysis:
		transcript := job.Source
		if transcript == "" && job.AudioURL != "" {
			text, err := s.transcribe(ctx, job.AudioURL)
			if err != nil {
				return "", err
			}
			transcript = text
		}
		if transcript == "" {
			return "", fmt.Errorf("voice analysis requires a transcript or audio reference")
		}
		// Keep the raw transcript around so a re-run does not need a
		// fresh upload or transcription pass
		_ = s.redis.Set(ctx, transcriptKey(job.ID), transcript, s.cfg.CacheTTLTranscriptions).Err()
		prompt = BuildAnalysisPrompt(transcript)
	case models.JobKindContentGeneration:
		tmpl := FindTemplate(job.Template)
		prompt = BuildGenerationPrompt(job.Topic, job.Platform, tmpl, job.Source)
	default:
		return "", fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := s.ai.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: openai.GPT4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// transcribe fetches a recording and runs it through the transcription model.
func (s *AgentService) transcribe(ctx context.Context, audioURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid audio URL: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}

	tr, err := s.ai.CreateTranscription(fetchCtx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   resp.Body,
		FilePath: path.Base(req.URL.Path),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return tr.Text, nil
}

func (s *AgentService) cacheResult(ctx context.Context, result *models.ContentJobResult, kind string) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Voice profiles are the long-lived artifact; generated content churns
	ttl := s.cfg.CacheTTLContent
	if kind == models.JobKindVoiceAnalysis {
		ttl = s.cfg.CacheTTLVoiceProfiles
	}
	return s.redis.Set(ctx, jobResultKey(result.JobID), raw, ttl).Err()
}

func jobResultKey(jobID uuid.UUID) string {
	return "job_result:" + jobID.String()
}

func transcriptKey(jobID uuid.UUID) string {
	return "transcript:" + jobID.String()
}
