package exercise

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

const seedActor = "system"

// SampleExercises returns the built-in sample exercises. They carry no IDs.
func SampleExercises() ([]Exercise, error) {
	return parseSeed(seedYAML)
}

func parseSeed(data []byte) ([]Exercise, error) {
	var exercises []Exercise
	if err := yaml.Unmarshal(data, &exercises); err != nil {
		return nil, fmt.Errorf("parse seed exercises: %w", err)
	}
	return exercises, nil
}

// Seed stores the sample exercises when the store holds none. It returns
// the number of exercises written.
func (s *Service) Seed(ctx context.Context) (int, error) {
	counts, err := s.store.CountExercises(ctx)
	if err != nil {
		return 0, fmt.Errorf("count exercises: %w", err)
	}
	for _, n := range counts {
		if n > 0 {
			return 0, nil
		}
	}
	samples, err := SampleExercises()
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	for i, sample := range samples {
		if err := normalizeExercise(&sample, s.newID); err != nil {
			return i, fmt.Errorf("seed exercise %q: %w", sample.Title, err)
		}
		if sample.ID, err = s.newID(); err != nil {
			return i, fmt.Errorf("generate exercise id: %w", err)
		}
		sample.CreatedBy, sample.UpdatedBy = seedActor, seedActor
		// Stagger timestamps so list order follows the seed file.
		sample.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		sample.UpdatedAt = sample.CreatedAt
		if err := s.save(ctx, sample); err != nil {
			return i, err
		}
	}
	s.logger.InfoContext(ctx, "sample exercises seeded", "count", len(samples))
	return len(samples), nil
}
