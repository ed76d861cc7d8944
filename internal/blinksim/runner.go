package blinksim

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ocumetry/eyelid/pkg/logger"
)

const (
	phaseClosed = "closed"
	phaseOpen   = "open"
	phaseBlink  = "blink"

	variantCombined = "combined"

	trainWaitTimeout = 30 * time.Second
	trainPollDelay   = 100 * time.Millisecond
)

// Run drives one guided calibration session against a running service and
// verifies the calibrated mapping afterwards.
func Run(ctx context.Context, config *Config) error {
	log := logger.Get().Named("blinksim")
	session := uuid.New().String()

	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(config.Timeout)
	source := newSignalSource(config.Seed, config.Noise)

	log.Info(ctx, "starting calibration session",
		logger.String("session", session),
		logger.String("url", config.BaseURL),
		logger.Int("samplesPerPhase", config.SamplesPerPhase),
		logger.Int("blinkCycles", config.BlinkCycles))

	// Staring phases train the binary classifier.
	if err := runPhase(ctx, client, config, stats, source, phaseClosed,
		source.staringLevels(closedLevel, config.SamplesPerPhase)); err != nil {
		return err
	}
	if err := runPhase(ctx, client, config, stats, source, phaseOpen,
		source.staringLevels(openLevel, config.SamplesPerPhase)); err != nil {
		return err
	}
	if err := waitForSource(ctx, client, config, "binary"); err != nil {
		return err
	}
	log.Info(ctx, "binary model trained", logger.String("session", session))

	// The blink phase trains the smooth regressor.
	if err := runPhase(ctx, client, config, stats, source, phaseBlink,
		source.blinkLevels(config.BlinkCycles, config.SamplesPerHalf)); err != nil {
		return err
	}
	if err := waitForSource(ctx, client, config, "smooth"); err != nil {
		return err
	}
	log.Info(ctx, "smooth model trained", logger.String("session", session))

	if err := verify(ctx, client, config, stats, source); err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "calibration session complete",
		logger.String("session", session),
		logger.Int("submitted", stats.EventsSubmitted),
		logger.Int("failed", stats.EventsFailed),
		logger.Float64("closedOpenness", stats.ClosedOpenness),
		logger.Float64("openOpenness", stats.OpenOpenness),
		logger.String("source", stats.Source),
		logger.String("duration", stats.Duration.String()))
	return nil
}

func postEvent(client *httpClient, config *Config, stats *Stats, e event) error {
	status, err := client.post(config.BaseURL+"/events", e)
	stats.EventsSubmitted++
	if err != nil {
		stats.EventsFailed++
		return err
	}
	if status >= 300 {
		stats.EventsFailed++
		return fmt.Errorf("event rejected with status %d", status)
	}
	return nil
}

// runPhase activates a phase, streams samples around the given levels,
// and deactivates it again.
func runPhase(ctx context.Context, client *httpClient, config *Config, stats *Stats, source *signalSource, phase string, levels []float64) error {
	active, inactive := true, false

	if err := postEvent(client, config, stats, event{Type: "phase", Phase: phase, Active: &active}); err != nil {
		return fmt.Errorf("activate %s: %w", phase, err)
	}

	for _, level := range levels {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sample, ts := source.next(level)
		e := event{Type: "sample", Variant: variantCombined, Sample: &sample, Timestamp: ts}
		if err := postEvent(client, config, stats, e); err != nil {
			return fmt.Errorf("stream %s: %w", phase, err)
		}

		if config.Interval > 0 {
			time.Sleep(config.Interval)
		}
	}

	if err := postEvent(client, config, stats, event{Type: "phase", Phase: phase, Active: &inactive}); err != nil {
		return fmt.Errorf("deactivate %s: %w", phase, err)
	}
	return nil
}

func queryOpenness(client *httpClient, config *Config, sample [3]float64) (opennessResponse, error) {
	var resp opennessResponse
	q := url.Values{}
	q.Set("variant", variantCombined)
	q.Set("x", fmt.Sprintf("%g", sample[0]))
	q.Set("y", fmt.Sprintf("%g", sample[1]))
	q.Set("z", fmt.Sprintf("%g", sample[2]))
	err := client.getJSON(config.BaseURL+"/openness?"+q.Encode(), &resp)
	return resp, err
}

// waitForSource polls the openness endpoint until the wanted model source
// starts answering.
func waitForSource(ctx context.Context, client *httpClient, config *Config, want string) error {
	deadline := time.Now().Add(trainWaitTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := queryOpenness(client, config, [3]float64{0.5, 0.4, 0.3})
		if err == nil && resp.Source == want {
			return nil
		}
		time.Sleep(trainPollDelay)
	}
	return fmt.Errorf("timed out waiting for %s model", want)
}

// verify checks that the calibrated mapping orders closed below open.
func verify(ctx context.Context, client *httpClient, config *Config, stats *Stats, source *signalSource) error {
	closedSample, _ := source.next(closedLevel)
	openSample, _ := source.next(openLevel)

	closedResp, err := queryOpenness(client, config, closedSample)
	if err != nil {
		return fmt.Errorf("query closed openness: %w", err)
	}
	openResp, err := queryOpenness(client, config, openSample)
	if err != nil {
		return fmt.Errorf("query open openness: %w", err)
	}

	stats.ClosedOpenness = closedResp.Openness
	stats.OpenOpenness = openResp.Openness
	stats.Source = openResp.Source

	if closedResp.Openness >= openResp.Openness {
		return fmt.Errorf("calibration inverted: closed %.3f >= open %.3f",
			closedResp.Openness, openResp.Openness)
	}
	return nil
}
