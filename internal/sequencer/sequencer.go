// Package sequencer renders queued phrases to timed note commands on a single
// output device.
//
// A Worker is the only goroutine that touches its device. Producers hand it
// phrases through a queue.Queue and never wait for playback; the worker pops
// them in order and plays each one to completion before taking the next.
package sequencer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/internal/queue"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// State is the lifecycle position of a Worker.
type State int32

const (
	Idle State = iota
	Rendering
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Job is one queued phrase.
type Job struct {
	ID       string
	Phrase   contracts.Phrase
	Enqueued time.Time
}

// Config tunes how a Worker renders phrases.
type Config struct {
	Channel     uint8
	Velocity    uint8
	ScorePolicy contracts.ScorePolicy
	Sleeper     contracts.Sleeper
	Logger      contracts.Logger
}

// Worker drains a phrase queue and plays it on one device.
type Worker struct {
	device contracts.OutputDevice
	jobs   *queue.Queue[Job]
	cfg    Config
	log    contracts.Logger

	state atomic.Int32

	phrases      atomic.Uint64
	notes        atomic.Uint64
	sent         atomic.Uint64
	sendFailures atomic.Uint64
	skipped      atomic.Uint64
}

// New binds a worker to device and jobs. The worker owns device from here on;
// callers must not use it until Run has returned.
func New(device contracts.OutputDevice, jobs *queue.Queue[Job], cfg Config) *Worker {
	if cfg.Sleeper == nil {
		cfg.Sleeper = Sleep
	}
	if cfg.Velocity == 0 {
		cfg.Velocity = contracts.DefaultVelocity
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}
	cfg.Channel &= 0x0F
	return &Worker{
		device: device,
		jobs:   jobs,
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

// Run plays queued phrases until the queue is closed or ctx is cancelled.
// Cancelling ctx interrupts the current hold; the sounding note still gets
// its note-off before Run returns.
func (w *Worker) Run(ctx context.Context) {
	defer w.state.Store(int32(Stopped))

	for ctx.Err() == nil {
		job, err := w.jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				w.log.Debug("sequencer stopping", w.log.Field().Error("reason", err))
				return
			}
			w.skipped.Add(1)
			w.log.Warn("skipping unreadable queue entry", w.log.Field().Error("error", err))
			continue
		}

		w.state.Store(int32(Rendering))
		err = w.Render(ctx, job)
		w.state.Store(int32(Idle))

		switch {
		case err == nil:
		case ctx.Err() != nil:
			w.log.Info("phrase interrupted by shutdown", w.log.Field().String("phrase", job.ID))
			return
		default:
			w.skipped.Add(1)
			w.log.Warn("skipping unplayable phrase",
				w.log.Field().String("phrase", job.ID),
				w.log.Field().Error("error", err))
		}
	}
}

// Render plays one phrase synchronously. Device errors are logged and counted
// but do not stop rendering; only an invalid phrase or a cancelled ctx does.
func (w *Worker) Render(ctx context.Context, job Job) error {
	if err := job.Phrase.Validate(); err != nil {
		return err
	}

	start := time.Now()
	w.log.Debug("rendering phrase",
		w.log.Field().String("phrase", job.ID),
		w.log.Field().Duration("queued", start.Sub(job.Enqueued)))

	for _, score := range job.Phrase.Select(w.cfg.ScorePolicy) {
		for _, note := range score.Notes {
			hold, err := score.Hold(note)
			if err != nil {
				return err
			}
			if err := w.play(ctx, note, hold); err != nil {
				return err
			}
		}
	}

	w.phrases.Add(1)
	w.log.Debug("phrase rendered",
		w.log.Field().String("phrase", job.ID),
		w.log.Field().Duration("elapsed", time.Since(start)))
	return nil
}

func (w *Worker) play(ctx context.Context, note contracts.Note, hold time.Duration) error {
	defer w.notes.Add(1)

	if note.IsSilence() {
		return w.cfg.Sleeper(ctx, hold)
	}

	w.send(gomidi.NoteOn(w.cfg.Channel, note.Pitch, w.cfg.Velocity), note)
	err := w.cfg.Sleeper(ctx, hold)
	w.send(gomidi.NoteOffVelocity(w.cfg.Channel, note.Pitch, w.cfg.Velocity), note)
	return err
}

func (w *Worker) send(msg gomidi.Message, note contracts.Note) {
	if err := w.device.Send(msg); err != nil {
		w.sendFailures.Add(1)
		w.log.Warn("note command failed",
			w.log.Field().String("message", msg.String()),
			w.log.Field().Uint8("pitch", note.Pitch),
			w.log.Field().Error("error", err))
		return
	}
	w.sent.Add(1)
	w.log.Debug("note command sent", w.log.Field().String("message", msg.String()))
}

// State reports what the worker is doing.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Stats returns a snapshot of the rendering counters.
func (w *Worker) Stats() contracts.Stats {
	return contracts.Stats{
		Phrases:      w.phrases.Load(),
		Notes:        w.notes.Load(),
		Sent:         w.sent.Load(),
		SendFailures: w.sendFailures.Load(),
		Skipped:      w.skipped.Load(),
	}
}

// Sleep is the default hold: it waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
