// This file is part of gbsdiff.
//
// gbsdiff is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gbsdiff is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gbsdiff.  If not, see <https://www.gnu.org/licenses/>.

package comparison

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gbsdiff/comparator"
	"gbsdiff/decoder"
	"gbsdiff/digest"
	"gbsdiff/logger"
	"gbsdiff/quirks"
	"gbsdiff/trace"
	"gbsdiff/tracesource"

	"golang.org/x/sync/errgroup"
)

// Pipeline specifies one side of a comparison.
type Pipeline struct {
	Source  tracesource.Source
	Handle  tracesource.Handle
	Decoder decoder.Options
	Quirks  quirks.Config
}

// Options for Run().
type Options struct {
	Comparator comparator.Options

	// the comparison is abandoned if it takes longer than this. zero means no
	// timeout
	Timeout time.Duration

	// number of events that can be waiting for the comparator on each side
	Buffer int
}

// DefaultBuffer is the number of events in each channel if Options.Buffer is
// zero.
const DefaultBuffer = 256

// Summary describes one side of a comparison after Run() has returned.
type Summary struct {
	// number of events read from the pipeline
	Events int

	// number of quirk regions found
	Regions int

	// digest of the events read. if Complete is false the digest is of the
	// events read before the comparison stopped
	Digest   string
	Complete bool
}

// Result of Run().
type Result struct {
	// nil if Run() returned an error. the traces were not compared to the end
	// and there is no verdict
	Verdict *comparator.Verdict

	Left  Summary
	Right Summary
}

// producer is one of the two running pipelines.
type producer struct {
	pipeline Pipeline
	out      chan trace.Annotated
	filter   *quirks.Filter
	digest   *digest.Trace
	complete bool
}

func (p *producer) summary() Summary {
	s := Summary{
		Complete: p.complete,
		Events:   p.digest.Events(),
		Digest:   p.digest.Hash(),
	}
	if p.filter != nil {
		s.Regions = p.filter.Regions()
	}
	return s
}

// run the pipeline until the end of the stream. the output channel is closed
// only if the end of the stream was reached without error.
func (p *producer) run(ctx context.Context) error {
	r, err := p.pipeline.Source.Open(ctx, p.pipeline.Handle)
	if err != nil {
		return err
	}
	defer r.Close()

	p.filter = quirks.New(decoder.New(r, p.pipeline.Decoder), p.pipeline.Quirks)

	for {
		a, err := p.filter.Next()
		if err == io.EOF {
			p.complete = true
			close(p.out)
			return nil
		}
		if err != nil {
			return err
		}

		p.digest.Add(a.RegisterEvent)

		select {
		case p.out <- a:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// channelStream is the comparator's end of a producer's channel. it
// implements the trace.AnnotatedStream interface.
type channelStream struct {
	ctx context.Context
	in  <-chan trace.Annotated
}

func (s channelStream) Next() (trace.Annotated, error) {
	select {
	case a, ok := <-s.in:
		if !ok {
			return trace.Annotated{}, io.EOF
		}
		return a, nil
	case <-s.ctx.Done():
		return trace.Annotated{}, s.ctx.Err()
	}
}

// Run compares the traces produced by the left and right pipelines. An error
// is returned if either pipeline fails, in which case there is no verdict.
func Run(ctx context.Context, left, right Pipeline, opts Options) (Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	lp := &producer{pipeline: left, out: make(chan trace.Annotated, buffer), digest: digest.NewTrace()}
	rp := &producer{pipeline: right, out: make(chan trace.Annotated, buffer), digest: digest.NewTrace()}

	g, gctx := errgroup.WithContext(ctx)

	// the producers are stopped separately from the group when the
	// comparator has reached a verdict
	pctx, stop := context.WithCancel(gctx)
	defer stop()

	for _, p := range []*producer{lp, rp} {
		p := p
		g.Go(func() error {
			err := p.run(pctx)
			if err != nil && pctx.Err() != nil && gctx.Err() == nil {
				return nil
			}
			return err
		})
	}

	var res Result

	g.Go(func() error {
		v, err := comparator.Compare(channelStream{ctx: gctx, in: lp.out}, channelStream{ctx: gctx, in: rp.out}, opts.Comparator)
		if err != nil {
			return err
		}
		res.Verdict = &v
		stop()
		return nil
	})

	err := g.Wait()

	res.Left = lp.summary()
	res.Right = rp.summary()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, tracesource.ErrTimeout) {
			err = fmt.Errorf("comparison: %w: %w: %w", tracesource.ErrPlayerCrashed, tracesource.ErrTimeout, err)
		}
		logger.Logf(logger.Allow, "comparison", "%s: %v", left.Handle, err)
		return Result{Left: res.Left, Right: res.Right}, err
	}

	logger.Logf(logger.Allow, "comparison", "%s: %s", left.Handle, res.Verdict)

	return res, nil
}
