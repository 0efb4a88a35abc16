// Package pipeline runs batch resume screening: extract, analyze and optionally store each file.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/ingestion"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/types"
)

// DefaultConcurrency is the number of files screened at once when none is configured.
const DefaultConcurrency = 4

// Progress steps
const (
	StepExtract = "extract"
	StepAnalyze = "analyze"
	StepStore   = "store"
	StepDone    = "done"
)

// ProgressEvent represents a progress update during screening
type ProgressEvent struct {
	File    string `json:"file"`
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when screening progress occurs. It may be called concurrently.
type ProgressCallback func(event ProgressEvent)

// Analyzer analyzes one resume.
type Analyzer interface {
	Analyze(ctx context.Context, req *types.AnalyzeRequest) (*analysis.Result, error)
}

// CandidateStore persists analyzed candidates.
type CandidateStore interface {
	CreateCandidate(ctx context.Context, c *types.CandidateProfile) error
}

// ScreenOptions holds configuration for a batch run
type ScreenOptions struct {
	Files                  []string
	Role                   string
	RequiredSkills         []string
	ExperienceLevel        string
	AdditionalRequirements string
	Concurrency            int
	Store                  CandidateStore
	Logger                 *zap.Logger
	OnProgress             ProgressCallback
}

// FileResult is the outcome for one file. Err is set when any step failed.
type FileResult struct {
	File        string              `json:"file"`
	Metadata    *ingestion.Metadata `json:"metadata,omitempty"`
	Result      *analysis.Result    `json:"result,omitempty"`
	CandidateID uuid.UUID           `json:"candidate_id,omitempty"`
	Err         error               `json:"-"`
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *ScreenOptions, file, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			File:    file,
			Step:    step,
			Message: message,
			Content: content,
		})
	}
}

// ScreenFiles screens every file with bounded concurrency. Results keep the order of opts.Files.
// A failing file does not stop the others; the returned error is only set when ctx ends the run.
func ScreenFiles(ctx context.Context, analyzer Analyzer, opts ScreenOptions) ([]FileResult, error) {
	log := logger.Service(opts.Logger, "pipeline")
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]FileResult, len(opts.Files))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range opts.Files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := screenFile(gCtx, analyzer, &opts, file)
			if res.Err != nil {
				log.Warn("screening failed", zap.String("file", file), zap.Error(res.Err))
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func screenFile(ctx context.Context, analyzer Analyzer, opts *ScreenOptions, file string) FileResult {
	res := FileResult{File: file}
	name := filepath.Base(file)

	emitProgress(opts, file, StepExtract, fmt.Sprintf("Extracting text from %s", name), nil)
	text, meta, err := ingestion.IngestFromFile(file)
	if err != nil {
		res.Err = fmt.Errorf("extraction failed: %w", err)
		return res
	}
	res.Metadata = meta

	emitProgress(opts, file, StepAnalyze, fmt.Sprintf("Analyzing %s (%d characters)", name, meta.Characters), nil)
	out, err := analyzer.Analyze(ctx, &types.AnalyzeRequest{
		Text:                   text,
		Role:                   opts.Role,
		RequiredSkills:         opts.RequiredSkills,
		ExperienceLevel:        opts.ExperienceLevel,
		AdditionalRequirements: opts.AdditionalRequirements,
	})
	if err != nil {
		res.Err = fmt.Errorf("analysis failed: %w", err)
		return res
	}
	res.Result = out

	if opts.Store != nil {
		profile := &types.CandidateProfile{
			Role:       out.Role,
			ResumeText: out.Text,
			Analysis:   out.Analysis,
		}
		if out.Candidate != nil {
			profile.Name = out.Candidate.Name
			profile.Phone = out.Candidate.Phone
		}
		if err := opts.Store.CreateCandidate(ctx, profile); err != nil {
			res.Err = fmt.Errorf("storing candidate failed: %w", err)
			return res
		}
		res.CandidateID = profile.ID
		emitProgress(opts, file, StepStore, fmt.Sprintf("Stored candidate %s", profile.ID), nil)
	}

	emitProgress(opts, file, StepDone, fmt.Sprintf("Screened %s", name), out.Candidate)
	return res
}
