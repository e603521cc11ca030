// Command eventgen publishes synthetic forum events, for exercising the
// pipeline locally and for load testing the consumers.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"forumflow/internal/broker"
	"forumflow/internal/config"
	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/internal/publisher"
	"forumflow/pkg/circuitbreaker"
	"forumflow/pkg/logging"
	"forumflow/pkg/metrics"
)

var (
	configFile string
	eventCount int
	eventRate  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "eventgen",
		Short: "Synthetic forum event generator",
		RunE:  runGenerator,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to config file (required)")
	rootCmd.Flags().IntVar(&eventCount, "count", 1000, "Number of events to publish (0 = unbounded)")
	rootCmd.Flags().Float64Var(&eventRate, "rate", 100, "Events per second")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerator(cmd *cobra.Command, args []string) error {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return fmt.Errorf("config file is required")
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.RegisterPublisherMetrics()

	factory, err := broker.NewFactory(cfg.Broker, log)
	if err != nil {
		return fmt.Errorf("failed to create broker factory: %w", err)
	}
	defer factory.Close()

	opts := []publisher.Option{publisher.WithTimeout(cfg.Publisher.Timeout)}
	if cfg.CircuitBreaker.Enabled {
		cbConfig := circuitbreaker.DefaultConfig("event-publisher")
		if cfg.CircuitBreaker.MaxRequests > 0 {
			cbConfig.MaxRequests = cfg.CircuitBreaker.MaxRequests
		}
		if cfg.CircuitBreaker.Timeout > 0 {
			cbConfig.Timeout = cfg.CircuitBreaker.Timeout
		}
		if cfg.CircuitBreaker.Interval > 0 {
			cbConfig.Interval = cfg.CircuitBreaker.Interval
		}
		if cfg.CircuitBreaker.FailureRatio > 0 {
			cbConfig.FailureRatio = cfg.CircuitBreaker.FailureRatio
		}
		if cfg.CircuitBreaker.MinRequests > 0 {
			cbConfig.MinRequests = cfg.CircuitBreaker.MinRequests
		}
		opts = append(opts, publisher.WithBreaker(circuitbreaker.NewWrapper(cbConfig)))
	}

	pub := publisher.New(factory.Producer(), constants.TopicForumEvents, log, opts...)
	defer pub.Close()

	limiter := rate.NewLimiter(rate.Limit(eventRate), 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.InfowCtx(ctx, "Generating events",
		"count", eventCount,
		"rate", eventRate,
		"topic", constants.TopicForumEvents,
	)

	published := 0
	for eventCount <= 0 || published < eventCount {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		pub.Publish(ctx, randomEvent(rng, published))
		published++
	}

	log.InfowCtx(ctx, "Generation finished", "published", published)
	return nil
}

// randomEvent skews towards content and view events, roughly matching
// real forum traffic.
func randomEvent(rng *rand.Rand, seq int) events.Event {
	forumID := fmt.Sprintf("forum-%d", rng.Intn(10))
	topicID := fmt.Sprintf("topic-%d", rng.Intn(200))
	userID := fmt.Sprintf("user-%d", rng.Intn(500))

	switch rng.Intn(10) {
	case 0:
		return events.UserRegistered{UserPayload: events.UserPayload{
			UserID:   userID,
			Username: fmt.Sprintf("user%d", seq),
		}}
	case 1:
		return events.UserLogin{UserPayload: events.UserPayload{
			UserID: userID,
		}}
	case 2:
		return events.TopicCreated{TopicPayload: events.TopicPayload{
			TopicID:  topicID,
			ForumID:  forumID,
			AuthorID: userID,
			Title:    fmt.Sprintf("Discussion %d", seq),
		}}
	case 3, 4:
		title := fmt.Sprintf("Discussion %d", seq)
		body := fmt.Sprintf("Generated body text for message %d about forums and events", seq)
		return events.ContentCreated{ContentPayload: events.ContentPayload{
			ContentType: constants.ContentTypePost,
			ContentID:   fmt.Sprintf("post-%d", seq),
			ForumID:     forumID,
			AuthorID:    userID,
			Title:       &title,
			Body:        &body,
			Tags:        []string{"generated", forumID},
		}}
	case 5:
		return events.PostCreated{PostPayload: events.PostPayload{
			PostID:   fmt.Sprintf("post-%d", seq),
			TopicID:  topicID,
			ForumID:  forumID,
			AuthorID: userID,
		}}
	case 6:
		return events.SearchPerformed{SearchPayload: events.SearchPayload{
			Query:        fmt.Sprintf("query %d", rng.Intn(50)),
			ResultsCount: rng.Intn(30),
			SearchType:   "fulltext",
			UserID:       userID,
		}}
	default:
		return events.TopicViewed{TopicViewPayload: events.TopicViewPayload{
			TopicID:   topicID,
			ViewerID:  userID,
			SessionID: fmt.Sprintf("session-%d", rng.Intn(1000)),
		}}
	}
}
