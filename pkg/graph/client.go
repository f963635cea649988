package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

var (
	// ErrEmptyReport is returned when there is no report text to extract from.
	ErrEmptyReport = errors.New("report is empty")
	// ErrNothingParsed is returned when extraction yields no parsable line.
	ErrNothingParsed = errors.New("extraction produced no parsable lines")

	errBlankExtraction = errors.New("extraction returned blank text")
)

// Extractor turns a competitor report into line-oriented extraction text.
type Extractor interface {
	ExtractEntities(ctx context.Context, company, competitor, report string) (string, error)
}

// Applier writes a mutation list atomically.
type Applier interface {
	Apply(ctx context.Context, mutations []common.Mutation) (store.ApplyResult, error)
}

// GraphClient merges competitor reports into a session graph.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	maxRetries int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// MaxRetries bounds how often a failed or blank extraction is retried.
type NewGraphClientParams struct {
	MaxRetries int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &GraphClient{maxRetries: maxRetries}
}

// EnrichResult describes one enrichment run.
type EnrichResult struct {
	Extraction string            `json:"-"`
	Parse      ParseResult       `json:"parse"`
	Apply      store.ApplyResult `json:"apply"`
	Duration   time.Duration     `json:"duration"`
}

// Enrich extracts entities from a competitor report, parses them and applies
// the resulting mutations. The returned result is non-nil whenever extraction
// ran, including when nothing could be parsed.
func (g *GraphClient) Enrich(
	ctx context.Context,
	extractor Extractor,
	applier Applier,
	company string,
	competitor string,
	report string,
) (*EnrichResult, error) {
	start := time.Now()
	if strings.TrimSpace(report) == "" {
		return nil, fmt.Errorf("%s: %w", competitor, ErrEmptyReport)
	}

	text, err := util.RetryWithContext(ctx, g.maxRetries, func(ctx context.Context) (string, error) {
		out, err := extractor.ExtractEntities(ctx, company, competitor, report)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(out) == "" {
			return "", errBlankExtraction
		}
		return out, nil
	})
	if err != nil && !errors.Is(err, errBlankExtraction) {
		return nil, fmt.Errorf("failed to extract entities for %s: %w", competitor, err)
	}

	result := &EnrichResult{
		Extraction: text,
		Parse:      Parse(text, ParseOptions{DefaultOwner: competitor}),
	}
	for _, s := range result.Parse.Skips {
		logger.Debug("[Graph] Skipped extraction line", "competitor", competitor, "line", s.Line, "reason", s.Reason)
	}
	logger.Info("[Graph] Parsed extraction",
		"competitor", competitor,
		"parsed", result.Parse.Parsed,
		"skipped", result.Parse.Skipped,
		"mutations", len(result.Parse.Mutations),
	)

	if result.Parse.Parsed == 0 {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("%s: %w", competitor, ErrNothingParsed)
	}

	applied, err := applier.Apply(ctx, result.Parse.Mutations)
	if err != nil {
		return result, fmt.Errorf("failed to apply mutations for %s: %w", competitor, err)
	}
	result.Apply = applied
	result.Duration = time.Since(start)

	logger.Info("[Graph] Enrichment completed",
		"competitor", competitor,
		"nodes_created", applied.NodesCreated,
		"edges_created", applied.EdgesCreated,
		"rejected", applied.Rejected,
		"duration", result.Duration,
	)
	return result, nil
}
