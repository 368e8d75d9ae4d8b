// Package notification connects pattern analysis to Google Pub/Sub: activity
// events from the app trigger analysis, and finished analyses are announced.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/usecase"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"cloud.google.com/go/pubsub"
	cache "github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
)

// ActivityEvent is published by the app whenever a user's tasks or reminders change
type ActivityEvent struct {
	UserID string `json:"userId"`
	Event  string `json:"event"`
}

// Analyzer is the part of the pattern usecase triggered by activity
type Analyzer interface {
	AnalyzeUserPatterns(ctx context.Context, userID string) (*usecase.AnalysisResult, error)
}

type Service struct {
	pubsubClient  *pubsub.Client
	patternsTopic *pubsub.Topic
	analyzer      Analyzer
	activityTopic string
	subName       string
	// Users analyzed recently; further activity inside the window is ignored.
	debounce *cache.Cache
	log      *logger.Logger
}

func NewService(projectID, activityTopic, patternsTopic, credentialsFile string, debounce time.Duration, log *logger.Logger) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Service{
		pubsubClient:  client,
		patternsTopic: client.Topic(patternsTopic),
		activityTopic: activityTopic,
		subName:       activityTopic + "-sub", // Convention: topic-sub
		debounce:      newDebounce(debounce),
		log:           log.With("component", "PubSub"),
	}, nil
}

func newDebounce(window time.Duration) *cache.Cache {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return cache.New(window, 2*window)
}

// SetAnalyzer sets the analysis triggered by activity events
func (s *Service) SetAnalyzer(analyzer Analyzer) {
	s.analyzer = analyzer
}

// Start listens for activity events until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	s.log.Info("Starting activity listener", "topic", s.activityTopic, "subscription", s.subName)

	// Ensure subscription exists
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		s.log.Error("Error checking subscription existence", "error", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.activityTopic)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			s.log.Error("Error checking topic existence", "error", err)
			return
		}
		if !topicExists {
			s.log.Warn("Activity topic does not exist, cannot create subscription", "topic", s.activityTopic)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 60 * time.Second,
		})
		if err != nil {
			s.log.Error("Failed to create subscription", "error", err)
			return
		}
		s.log.Info("Created subscription", "subscription", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.handleActivity(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil {
		s.log.Error("Error receiving messages", "error", err)
	}
}

// handleActivity reports whether the message is done with (ack) or should be redelivered.
func (s *Service) handleActivity(ctx context.Context, data []byte) bool {
	var event ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.log.Warn("Dropping malformed activity event", "error", err)
		return true
	}
	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		s.log.Warn("Dropping activity event without user", "event", event.Event)
		return true
	}
	if s.analyzer == nil {
		s.log.Warn("No analyzer configured, ignoring activity", "user_id", userID)
		return true
	}

	// Add fails when the user is already inside the debounce window
	if err := s.debounce.Add(userID, time.Now(), cache.DefaultExpiration); err != nil {
		s.log.Debug("Debounced activity event", "user_id", userID, "event", event.Event)
		return true
	}

	result, err := s.analyzer.AnalyzeUserPatterns(ctx, userID)
	switch {
	case err == nil:
		s.log.Info("Analyzed patterns after activity", "user_id", userID, "event", event.Event, "patterns", len(result.PatternsLearned))
		return true
	case errors.Is(err, domain.ErrAnalysisInProgress):
		return true
	default:
		s.debounce.Delete(userID)
		s.log.Error("Activity-triggered analysis failed", "user_id", userID, "error", err)
		return false
	}
}

// PublishPatternsUpdated announces a finished analysis on the patterns topic
func (s *Service) PublishPatternsUpdated(ctx context.Context, event usecase.PatternsUpdatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode patterns event: %w", err)
	}

	result := s.patternsTopic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"type": event.Type, "userId": event.UserID},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish patterns event: %w", err)
	}
	return nil
}

// Close flushes pending publishes and closes the client
func (s *Service) Close() error {
	s.patternsTopic.Stop()
	return s.pubsubClient.Close()
}
