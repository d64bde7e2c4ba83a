// Package relay copies an agent stream to the client byte for byte while
// deriving file operations from it. The relay never alters or delays the
// bytes the client sees; everything else it does is a side effect of
// watching them go past.
package relay

import (
	"context"
	"errors"
	"io"

	"atelier/internal/build"
	"atelier/internal/event"
	"atelier/internal/session"
	"atelier/internal/store"
	"atelier/internal/toolcall"

	"go.uber.org/zap"
)

// flusher is satisfied by http.Flusher. The relay flushes after every line
// so fragments reach the client as they arrive.
type flusher interface {
	Flush()
}

type Relay struct {
	files    *store.Files
	builder  build.Builder
	registry toolcall.Registry
	logger   *zap.Logger
}

func New(files *store.Files, builder build.Builder, logger *zap.Logger) *Relay {
	return &Relay{
		files:    files,
		builder:  builder,
		registry: toolcall.NewRegistry(),
		logger:   logger,
	}
}

// Run drives one streamed turn: every upstream line is written to sink and
// flushed regardless of how parsing goes, completed tool calls mutate the
// session and are written through to the store, and the finish event
// triggers a synchronous build when the turn touched any files. Run only
// returns an error for transport failures; parse, store and build failures
// are logged and absorbed.
func (r *Relay) Run(ctx context.Context, sess *session.Session, upstream io.Reader, sink io.Writer) error {
	framer := event.NewFramer(upstream)
	recon := toolcall.NewReconstructor(r.registry, r.logger)
	fl, _ := sink.(flusher)

	sess.Start()
	built := false

	for {
		frame, readErr := framer.Next()

		if len(frame.Raw) > 0 {
			if _, err := sink.Write(frame.Raw); err != nil {
				r.logger.Error("client write failed", zap.Error(err))
				sess.Abort()
				return err
			}
			if fl != nil {
				fl.Flush()
			}
		}

		if frame.Event != nil {
			if op := recon.Observe(frame.Event); op != nil {
				content, applied := sess.Apply(op)
				if applied {
					r.persist(ctx, sess.Project(), op, content)
				}
			}

			// Build before the loop returns: the client's turn is only
			// done once compiled output is ready.
			if frame.Event.Kind == event.KindFinished && !built {
				built = true
				r.complete(ctx, sess)
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				r.logger.Error("agent stream read failed", zap.Error(readErr))
				sess.Abort()
				return readErr
			}
			break
		}
	}

	if pending := recon.Pending(); pending > 0 {
		r.logger.Warn("stream ended with incomplete tool calls", zap.Int("pending", pending))
	}
	if !built {
		// Stream ended without a finish event. Nothing to build; close
		// out the session.
		sess.Finish()
	}
	return nil
}

// persist writes one applied operation through to the project store.
// Failures are logged and swallowed: the in-memory state stays
// authoritative and the stream must not be disturbed.
func (r *Relay) persist(ctx context.Context, project string, op toolcall.Op, content string) {
	// Writes run to completion even if the client goes away mid-turn.
	pctx := context.WithoutCancel(ctx)

	switch op := op.(type) {
	case toolcall.Create:
		if err := r.files.StoreSource(pctx, project, op.Path, content); err != nil {
			r.logger.Error("storing file failed",
				zap.String("project", project),
				zap.String("path", op.Path),
				zap.Error(err),
			)
		}
	case toolcall.Edit:
		if err := r.files.StoreSource(pctx, project, op.Path, content); err != nil {
			r.logger.Error("storing file failed",
				zap.String("project", project),
				zap.String("path", op.Path),
				zap.Error(err),
			)
		}
	case toolcall.Delete:
		if err := r.files.DeleteSource(pctx, project, op.Path); err != nil {
			r.logger.Error("deleting file failed",
				zap.String("project", project),
				zap.String("path", op.Path),
				zap.Error(err),
			)
		}
	}
}

// complete handles the finish event: build the snapshot if any operation
// was observed, store the output, and close out the session. Build failure
// leaves the previously compiled output in place.
func (r *Relay) complete(ctx context.Context, sess *session.Session) {
	if sess.Ops() == 0 {
		sess.Finish()
		return
	}

	sess.BeginBuild()
	bctx := context.WithoutCancel(ctx)

	compiled, err := r.builder.Build(bctx, sess.Snapshot())
	if err != nil {
		r.logger.Error("build failed",
			zap.String("project", sess.Project()),
			zap.Error(err),
		)
		sess.Finish()
		return
	}

	if err := r.files.ReplaceCompiled(bctx, sess.Project(), compiled); err != nil {
		r.logger.Error("storing compiled output failed",
			zap.String("project", sess.Project()),
			zap.Error(err),
		)
		sess.Finish()
		return
	}

	r.logger.Info("compiled and stored",
		zap.String("project", sess.Project()),
		zap.Int("files", len(compiled)),
	)
	sess.Finish()
}
