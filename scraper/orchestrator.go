package scraper

import (
	"context"
	"log"
	"time"

	"wishgrab/config"
	"wishgrab/models"
)

// minVisionConfidence is the floor below which a vision answer is ignored
const minVisionConfidence = 0.4

// deterministicValidator backs the pipeline exits that must stay offline
var deterministicValidator = NewValidator(nil)

// MetadataCache stores finished extractions keyed by normalized URL.
// Implemented by the Postgres repository; a nil cache disables caching.
type MetadataCache interface {
	Get(ctx context.Context, normalizedURL string) (models.ProductMetadata, bool)
	Put(ctx context.Context, normalizedURL string, meta models.ProductMetadata) error
}

// Orchestrator runs the extraction pipeline. Each phase gets its own
// deadline; a phase that runs out of time contributes nothing and the
// pipeline moves on. The caller always gets a metadata object, possibly
// with every field empty.
type Orchestrator struct {
	timeouts   config.TimeoutsConfig
	normalizer *Normalizer
	sites      *SiteRegistry
	generic    *GenericExtractor
	headless   *HeadlessExtractor
	vision     *VisionClient
	validator  *Validator
	cache      MetadataCache
}

// NewOrchestrator wires the pipeline together. headless, vision and cache
// may be nil; the corresponding phases are skipped.
func NewOrchestrator(
	timeouts config.TimeoutsConfig,
	fetcher *Fetcher,
	headless *HeadlessExtractor,
	vision *VisionClient,
	cache MetadataCache,
) *Orchestrator {
	var judge TitleJudge
	if vision != nil {
		judge = vision
	}
	return &Orchestrator{
		timeouts:   timeouts,
		normalizer: NewNormalizer(fetcher),
		sites:      NewSiteRegistry(fetcher),
		generic:    NewGenericExtractor(fetcher),
		headless:   headless,
		vision:     vision,
		validator:  NewValidator(judge),
		cache:      cache,
	}
}

// Extract runs the full pipeline for one URL
func (o *Orchestrator) Extract(ctx context.Context, rawURL string) models.ProductMetadata {
	start := time.Now()

	classifyCtx, cancel := context.WithTimeout(ctx, o.timeouts.SitePhase)
	classification := o.normalizer.Classify(classifyCtx, rawURL)
	cancel()

	if classification.Failed {
		log.Printf("🔍 %v: %q", models.ErrClassificationFailure, rawURL)
		meta := models.ProductMetadata{}
		deterministicValidator.Validate(ctx, &meta)
		return meta
	}

	// Curated products resolve entirely from the static table, no network.
	// That includes validation: the deterministic rules only, never the
	// model opinion.
	if classification.ProductID != "" {
		if known, ok := LookupKnownProduct(classification.ProductID); ok {
			log.Printf("✅ known product %s resolved from static table", classification.ProductID)
			meta := models.ProductMetadata{
				Title:    known.Title,
				ImageURL: known.ImageURL,
			}
			deterministicValidator.Validate(ctx, &meta)
			return meta
		}
	}

	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, classification.NormalizedURL); ok {
			log.Printf("✅ cache hit for %s", classification.NormalizedURL)
			return cached
		}
	}

	result := o.runPhases(ctx, classification)

	// A slug-derived title is better than none at all
	if result.Title == "" {
		result.Title = slugTitle(classification.NormalizedURL)
	}

	meta := models.ProductMetadata{
		Title:       result.Title,
		Description: result.Description,
		ImageURL:    result.ImageURL,
		Price:       result.Price,
	}
	validateCtx, cancel := context.WithTimeout(ctx, o.timeouts.VisionPhase)
	o.validator.Validate(validateCtx, &meta)
	cancel()

	if o.cache != nil && !result.IsEmpty() {
		if err := o.cache.Put(ctx, classification.NormalizedURL, meta); err != nil {
			log.Printf("cache write failed for %s: %v", classification.NormalizedURL, err)
		}
	}

	log.Printf("extraction finished for %s in %v (source %s, title valid %v)",
		classification.NormalizedURL, time.Since(start).Round(time.Millisecond), result.Source, meta.IsTitleValid)
	return meta
}

func (o *Orchestrator) runPhases(ctx context.Context, c models.Classification) models.ExtractorResult {
	var result models.ExtractorResult

	// Phase 1: site-specific extractor
	if !c.IsGeneric() {
		if extractor, ok := o.sites.Lookup(c.DomainTag); ok {
			phaseCtx, cancel := context.WithTimeout(ctx, o.timeouts.SitePhase)
			result = extractor.Extract(phaseCtx, c.NormalizedURL, c.ProductID)
			cancel()
			if result.IsComplete() {
				return result
			}
		}
	}

	// Phase 2: generic lightweight extractor
	if ctx.Err() == nil && !result.IsComplete() {
		phaseCtx, cancel := context.WithTimeout(ctx, o.timeouts.GenericPhase)
		generic := o.generic.Extract(phaseCtx, c.NormalizedURL)
		cancel()
		result = result.Merge(generic)
		if result.IsComplete() {
			return result
		}
	}

	// Phase 3: headless browser on the rendered DOM
	var screenshot []byte
	if o.headless != nil && ctx.Err() == nil {
		phaseCtx, cancel := context.WithTimeout(ctx, o.timeouts.HeadlessPhase)
		var rendered models.ExtractorResult
		rendered, screenshot = o.headless.Extract(phaseCtx, c.NormalizedURL)
		cancel()
		// Lightweight fields win; the rendered DOM only fills gaps
		result = result.Merge(rendered)
		if result.IsComplete() {
			return result
		}
	}

	// Phase 4: vision model over the screenshot, title and price only
	if o.vision != nil && len(screenshot) > 0 && ctx.Err() == nil &&
		(result.Title == "" || result.Price == "") {
		phaseCtx, cancel := context.WithTimeout(ctx, o.timeouts.VisionPhase)
		answer := o.vision.ReadScreenshot(phaseCtx, screenshot)
		cancel()
		fillFromVision(&result, answer, slugTitle(c.NormalizedURL))
	}

	return result
}

// fillFromVision applies a vision answer to the result. A title derived
// from the URL slug is deterministic and wins over whatever the model
// read off the screenshot; the model only names the product when the URL
// offers no slug. The price has no deterministic fallback at this point,
// so the model's price always fills a gap.
func fillFromVision(result *models.ExtractorResult, answer models.VisionResult, slug string) {
	if answer.Confidence < minVisionConfidence {
		return
	}
	if result.Title == "" {
		if slug != "" {
			result.Title = slug
		} else {
			result.Title = answer.Title
		}
	}
	if result.Price == "" {
		result.Price = answer.Price
	}
	if result.Source == "" {
		result.Source = "vision"
	}
}
