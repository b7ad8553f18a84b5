package worker

import (
	"context"
	"sort"

	"github.com/ppiankov/newstag/internal/classify"
	"github.com/ppiankov/newstag/internal/model"
)

// ClassifyJob classifies one article
type ClassifyJob struct {
	Article    model.Article
	Classifier classify.Classifier
}

// Execute runs the classifier on the job's article
func (j *ClassifyJob) Execute(ctx context.Context) Result {
	results, err := j.Classifier.Classify(ctx, j.Article)
	return &ClassifyResult{
		Article: j.Article,
		Results: results,
		Error:   err,
	}
}

// ClassifyResult is the outcome of one ClassifyJob
type ClassifyResult struct {
	Article model.Article
	Results []model.MatchResult
	Error   error

	index int
}

// GetError returns the classification error, if any
func (r *ClassifyResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies many articles concurrently
type BatchProcessor struct {
	classifier  classify.Classifier
	concurrency int
	onResult    func(*ClassifyResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(classifier classify.Classifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// OnResult registers a callback invoked as each article finishes. The
// callback may run on any worker goroutine.
func (b *BatchProcessor) OnResult(fn func(*ClassifyResult)) {
	b.onResult = fn
}

// ProcessArticles classifies every article and returns results ordered by
// article ID. Articles that could not be submitted because ctx was
// cancelled carry ctx's error.
func (b *BatchProcessor) ProcessArticles(ctx context.Context, list []model.Article) []*ClassifyResult {
	if len(list) == 0 {
		return []*ClassifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, article := range list {
		job := &notifyJob{
			ClassifyJob: ClassifyJob{Article: article, Classifier: b.classifier},
			index:       i,
			notify:      b.onResult,
		}
		if !pool.Submit(job) {
			break
		}
	}

	done := make([]bool, len(list))
	out := make([]*ClassifyResult, 0, len(list))
	for _, result := range pool.Wait() {
		r := result.(*ClassifyResult)
		done[r.index] = true
		out = append(out, r)
	}

	// Jobs dropped by cancellation still get a row.
	for i, article := range list {
		if !done[i] {
			out = append(out, &ClassifyResult{Article: article, Error: context.Cause(ctx), index: i})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Article.ID != out[j].Article.ID {
			return out[i].Article.ID < out[j].Article.ID
		}
		return out[i].index < out[j].index
	})

	return out
}

type notifyJob struct {
	ClassifyJob
	index  int
	notify func(*ClassifyResult)
}

func (j *notifyJob) Execute(ctx context.Context) Result {
	result := j.ClassifyJob.Execute(ctx).(*ClassifyResult)
	result.index = j.index
	if j.notify != nil {
		j.notify(result)
	}
	return result
}
