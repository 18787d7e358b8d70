package report

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
)

type Option func(*Builder)

func WithLogger(l zerolog.Logger) Option    { return func(b *Builder) { b.log = l } }
func WithWorkers(n int) Option              { return func(b *Builder) { b.workers = n } } // n < 1 keeps the default
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// Builder walks students × outcomes × associations over one snapshot.
type Builder struct {
	log     zerolog.Logger
	workers int
	now     func() time.Time
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		log:     zerolog.Nop(),
		workers: runtime.NumCPU(),
		now:     time.Now,
	}
	def := b.workers
	for _, o := range opts {
		o(b)
	}
	if b.workers < 1 {
		b.workers = def
	}
	return b
}

// Build scores every outcome for the given students, or for every enrolled
// student when students is empty. Outcomes are normalized first. If any
// association does not resolve, nothing is scored and a
// *MissingAssociationsError is returned.
func (b *Builder) Build(ctx context.Context, c *course.Course, outs []outcome.Outcome, students []string) (*Report, error) {
	start := b.now()
	outs = outcome.NormalizeOutcomes(outs)
	if len(students) == 0 {
		students = c.StudentIDs()
	}
	agg := outcome.NewAggregator(c)

	if missing := Check(agg, outs); len(missing) > 0 {
		b.log.Warn().
			Str("course_id", c.ID).
			Int("missing", len(missing)).
			Msg("report blocked by missing associations")
		return nil, &MissingAssociationsError{Missing: missing}
	}

	rep := &Report{
		RunID:       uuid.NewString(),
		CourseID:    c.ID,
		CourseName:  c.Name,
		GeneratedAt: start.UTC(),
		Students:    students,
		Outcomes:    make([]OutcomeReport, len(outs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, o := range outs {
		g.Go(func() error {
			or, err := scoreOutcome(gctx, agg, o, students)
			if err != nil {
				return err
			}
			rep.Outcomes[i] = or
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.log.Info().
		Str("run_id", rep.RunID).
		Str("course_id", c.ID).
		Int("students", len(students)).
		Int("outcomes", len(outs)).
		Dur("took", b.now().Sub(start)).
		Msg("report built")
	return rep, nil
}

func scoreOutcome(ctx context.Context, agg *outcome.Aggregator, o outcome.Outcome, students []string) (OutcomeReport, error) {
	or := OutcomeReport{Title: o.Title, Description: o.Description}
	for _, a := range o.Associations {
		m, err := agg.AssociationMaximum(a)
		if err != nil {
			return OutcomeReport{}, err
		}
		or.Associations = append(or.Associations, Column{Label: a.Label(), Maximum: m, Thresholds: a.Thresholds()})
	}
	maxPts, err := agg.MaxPoints(o)
	if err != nil {
		return OutcomeReport{}, err
	}
	or.MaxPoints = maxPts
	or.Students = make([]outcome.StudentOutcome, 0, len(students))
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return OutcomeReport{}, err
		}
		row, err := agg.Evaluate(o, s)
		if err != nil {
			return OutcomeReport{}, err
		}
		or.Students = append(or.Students, row)
	}
	or.Summary = outcome.Summarize(o, or.Students)
	return or, nil
}
