package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pkt.systems/montage/internal/frames"
	"pkt.systems/montage/internal/logx"
	"pkt.systems/montage/internal/persist"
	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

// session implements the core session behavior. All mutations funnel
// through Dispatch under one mutex: the model is owned exclusively by the
// command being processed, and completion logic always reads the post-commit
// model before snapshotting history.
type session struct {
	id     schema.SessionID
	cfg    schema.SessionConfig
	media  MediaResolver
	rec    Recorder
	sink   EventSink
	store  *persist.Store
	logger pslog.Logger
	clock  *clock
	unsub  func()

	mu        sync.Mutex
	model     *timeline
	history   *historyLog
	recording bool
	recMode   schema.RecordingMode
	closed    bool
}

// NewSession constructs the core session implementation. When the config
// names a state dir and the store holds a snapshot for the project, the
// timeline is restored from it.
func NewSession(cfg schema.SessionConfig, deps SessionDeps) (Session, error) {
	normalized, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	var store *persist.Store
	if cfg.StateDir != "" {
		store, err = persist.NewStoreWithLogger(cfg.StateDir, logger)
		if err != nil {
			return nil, err
		}
	}
	s := &session{
		id:    schema.SessionID(newID()),
		cfg:   cfg,
		media: deps.Media,
		rec:   deps.Recorder,
		sink:  deps.Sink,
		store: store,
	}
	s.logger = logx.WithProject(logger, cfg.ProjectID).With("session", s.id)
	s.model = s.loadModel()
	s.history = newHistoryLog(cfg.HistoryMax, deps.Now)
	s.history.Initialize(s.model.Snapshot())
	s.clock = newClock(cfg.FrameRate, cfg.SeekDebounce, cfg.SeekSettle, deps.Now)
	s.clock.SetTotal(s.model.TotalFrames())
	s.unsub = s.clock.Subscribe(func(ev schema.TransportEvent) {
		ev.SessionID = s.id
		s.emitTransport(ev)
	})
	s.logger.Debug("session created", "rate", cfg.FrameRate, "project", cfg.ProjectID)
	return s, nil
}

func (s *session) loadModel() *timeline {
	if s.store == nil {
		return newTimeline()
	}
	snapshot, ok, err := s.store.Load(s.cfg.ProjectID)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("session project load failed", "err", err)
		} else {
			s.logger.Debug("session project missing")
		}
		return newTimeline()
	}
	s.logger.Debug("session project loaded", "clips", len(snapshot.Clips), "tracks", len(snapshot.Tracks))
	return newTimelineFromSnapshot(schema.TimelineSnapshot{
		Tracks:      snapshot.Tracks,
		Clips:       snapshot.Clips,
		TotalFrames: snapshot.TotalFrames,
	})
}

func (s *session) ID() schema.SessionID { return s.id }

func (s *session) Dispatch(ctx context.Context, cmd schema.Command) (schema.DispatchResult, error) {
	if ctx == nil {
		return schema.DispatchResult{}, errors.New("missing context")
	}
	log := logx.WithSession(ctx, s.id).With("command", cmd.Type)
	switch cmd.Type {
	case schema.CommandPlay, schema.CommandPause, schema.CommandSeek:
		return s.dispatchTransport(log, cmd)
	case schema.CommandUndo, schema.CommandRedo:
		return s.dispatchHistory(log, cmd)
	case schema.CommandSelectClip:
		return s.dispatchSelect(log, cmd)
	case schema.CommandRecordStart, schema.CommandRecordStop:
		return s.dispatchRecording(ctx, log, cmd)
	default:
		return s.dispatchEdit(ctx, log, cmd)
	}
}

func (s *session) dispatchTransport(log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.DispatchResult{}, schema.ErrSessionClosed
	}
	// The clock call stays under s.mu so a concurrent recording start cannot
	// slip in between the recording check and the transport change.
	switch cmd.Type {
	case schema.CommandPlay:
		if s.recording {
			s.mu.Unlock()
			log.Warn("session command rejected", "err", schema.ErrRecordingActive)
			return schema.DispatchResult{}, schema.ErrRecordingActive
		}
		if len(s.model.clips) == 0 {
			snap := s.model.Snapshot()
			s.mu.Unlock()
			log.Debug("session play ignored", "reason", "no clips")
			return schema.DispatchResult{Snapshot: snap}, nil
		}
		s.clock.Play()
	case schema.CommandPause:
		s.clock.Pause()
	case schema.CommandSeek:
		if s.recording {
			s.mu.Unlock()
			log.Warn("session command rejected", "err", schema.ErrRecordingActive)
			return schema.DispatchResult{}, schema.ErrRecordingActive
		}
		s.clock.Seek(cmd.Frame, cmd.Debounce)
	}
	snap := s.model.Snapshot()
	s.mu.Unlock()
	log.Debug("session transport applied", "frame", s.clock.Position(), "state", s.clock.State())
	return schema.DispatchResult{Snapshot: snap}, nil
}

func (s *session) dispatchHistory(log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.DispatchResult{}, schema.ErrSessionClosed
	}
	if s.recording {
		s.mu.Unlock()
		log.Warn("session command rejected", "err", schema.ErrRecordingActive)
		return schema.DispatchResult{}, schema.ErrRecordingActive
	}
	var entry schema.HistoryEntry
	var ok bool
	if cmd.Type == schema.CommandUndo {
		entry, ok = s.history.Undo()
	} else {
		entry, ok = s.history.Redo()
	}
	if !ok {
		snap := s.model.Snapshot()
		s.mu.Unlock()
		log.Debug("session history noop")
		return schema.DispatchResult{Snapshot: snap}, nil
	}
	// Selection is transient UI state: carry the live selection across the
	// restore instead of replaying the one recorded at save time. A selection
	// pointing at a clip absent from the restored state is dropped.
	restored := entry.Snapshot
	restored.Selected = s.model.selected
	s.model = newTimelineFromSnapshot(restored)
	snap := s.model.Snapshot()
	s.clock.SetTotal(snap.TotalFrames)
	timelineEv := schema.TimelineEvent{SessionID: s.id, Reason: cmd.Type, Snapshot: snap}
	historyEv := s.historyEventLocked(entry.Label)
	s.mu.Unlock()

	s.emitTimeline(timelineEv)
	s.emitHistory(historyEv)
	s.persistProject(log)
	log.Info("session history applied", "label", entry.Label)
	return schema.DispatchResult{Snapshot: snap}, nil
}

func (s *session) dispatchSelect(log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.DispatchResult{}, schema.ErrSessionClosed
	}
	if err := s.model.SelectClip(cmd.Clip); err != nil {
		s.mu.Unlock()
		log.Warn("session command rejected", "err", err)
		return schema.DispatchResult{}, err
	}
	snap := s.model.Snapshot()
	s.mu.Unlock()

	s.emitSelection(schema.SelectionEvent{SessionID: s.id, Clip: cmd.Clip})
	log.Debug("session selection changed", "clip", cmd.Clip)
	return schema.DispatchResult{Snapshot: snap}, nil
}

func (s *session) dispatchEdit(ctx context.Context, log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	// Resolve media bounds before taking the model lock; probing may be slow.
	var limit schema.Frame
	switch cmd.Type {
	case schema.CommandAddClip:
		info, err := s.resolveMedia(ctx, cmd.Media)
		if err != nil {
			log.Warn("session command rejected", "err", err)
			return schema.DispatchResult{}, err
		}
		limit = info.DurationFrames
		if cmd.Source == (schema.SourceRange{}) && limit > 0 {
			cmd.Source = schema.SourceRange{In: 0, Out: limit}
		}
	case schema.CommandTrimEnd:
		s.mu.Lock()
		clip, ok := s.model.Clip(cmd.Clip)
		s.mu.Unlock()
		if !ok {
			log.Warn("session command rejected", "err", schema.ErrClipNotFound)
			return schema.DispatchResult{}, schema.ErrClipNotFound
		}
		if s.media != nil {
			info, err := s.resolveMedia(ctx, clip.Media)
			if err != nil {
				log.Warn("session command rejected", "err", err)
				return schema.DispatchResult{}, err
			}
			limit = info.DurationFrames
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.DispatchResult{}, schema.ErrSessionClosed
	}
	if s.recording {
		s.mu.Unlock()
		log.Warn("session command rejected", "err", schema.ErrRecordingActive)
		return schema.DispatchResult{}, schema.ErrRecordingActive
	}
	affected, label, err := s.applyEditLocked(cmd, limit)
	if err != nil {
		s.mu.Unlock()
		log.Warn("session command rejected", "err", err)
		return schema.DispatchResult{}, err
	}
	if cmd.Label != "" {
		label = cmd.Label
	}
	// Post-commit authoritative state: snapshot once, save history once.
	snap := s.model.Snapshot()
	s.clock.SetTotal(snap.TotalFrames)
	s.history.SaveState(snap, label)
	timelineEv := schema.TimelineEvent{SessionID: s.id, Reason: cmd.Type, Snapshot: snap}
	historyEv := s.historyEventLocked(label)
	s.mu.Unlock()

	s.emitTimeline(timelineEv)
	s.emitHistory(historyEv)
	s.persistProject(log)
	log.Info("session command applied", "label", label, "clips", len(affected))
	return schema.DispatchResult{Snapshot: snap, Clips: affected}, nil
}

func (s *session) applyEditLocked(cmd schema.Command, limit schema.Frame) ([]schema.Clip, string, error) {
	switch cmd.Type {
	case schema.CommandAddClip:
		track := cmd.Track
		appended := false
		if track == len(s.model.tracks) {
			s.model.AddTrack(cmd.Kind)
			appended = true
		}
		clip, err := s.model.AddClip(schema.ClipID(newID()), cmd.Media, track, cmd.Frame, cmd.Source, limit)
		if err != nil {
			if appended {
				s.model.removeLastTrack()
			}
			return nil, "", err
		}
		return []schema.Clip{clip}, "Add clip", nil
	case schema.CommandMoveClip:
		target := s.snapLocked(cmd, cmd.Clip, cmd.Frame)
		clip, err := s.model.MoveClip(cmd.Clip, cmd.Track, target)
		if err != nil {
			return nil, "", err
		}
		return []schema.Clip{clip}, "Move clip", nil
	case schema.CommandTrimStart:
		target := s.snapLocked(cmd, cmd.Clip, cmd.Frame)
		clip, err := s.model.TrimStart(cmd.Clip, target)
		if err != nil {
			return nil, "", err
		}
		return []schema.Clip{clip}, "Trim clip start", nil
	case schema.CommandTrimEnd:
		target := s.snapLocked(cmd, cmd.Clip, cmd.Frame)
		clip, err := s.model.TrimEnd(cmd.Clip, target, limit)
		if err != nil {
			return nil, "", err
		}
		return []schema.Clip{clip}, "Trim clip end", nil
	case schema.CommandSplitClip:
		at := s.snapLocked(cmd, cmd.Clip, cmd.Frame)
		left, right, err := s.model.SplitClip(cmd.Clip, at)
		if err != nil {
			return nil, "", err
		}
		return []schema.Clip{left, right}, "Split clip", nil
	case schema.CommandRemoveClip:
		if err := s.model.RemoveClip(cmd.Clip); err != nil {
			return nil, "", err
		}
		return nil, "Remove clip", nil
	case schema.CommandAddTrack:
		s.model.AddTrack(cmd.Kind)
		return nil, "Add track", nil
	case schema.CommandMuteTrack:
		if err := s.model.SetTrackMuted(cmd.Track, cmd.Muted); err != nil {
			return nil, "", err
		}
		if cmd.Muted {
			return nil, "Mute track", nil
		}
		return nil, "Unmute track", nil
	default:
		return nil, "", fmt.Errorf("%w: %s", schema.ErrInvalidCommand, cmd.Type)
	}
}

func (s *session) dispatchRecording(ctx context.Context, log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	if s.rec == nil {
		return schema.DispatchResult{}, schema.ErrRecorderUnavailable
	}
	switch cmd.Type {
	case schema.CommandRecordStart:
		return s.startRecording(ctx, log, cmd)
	default:
		return s.stopRecording(ctx, log)
	}
}

func (s *session) startRecording(ctx context.Context, log pslog.Logger, cmd schema.Command) (schema.DispatchResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.DispatchResult{}, schema.ErrSessionClosed
	}
	if s.recording {
		s.mu.Unlock()
		log.Warn("session record start rejected", "err", schema.ErrRecordingActive)
		return schema.DispatchResult{}, schema.ErrRecordingActive
	}
	if s.clock.State() == schema.TransportPlaying {
		s.mu.Unlock()
		log.Warn("session record start rejected", "err", schema.ErrInvalidCommand)
		return schema.DispatchResult{}, fmt.Errorf("%w: cannot start recording during playback", schema.ErrInvalidCommand)
	}
	s.recording = true
	s.recMode = cmd.Mode
	s.mu.Unlock()

	if err := s.rec.Start(ctx, RecordRequest{Mode: cmd.Mode}); err != nil {
		s.mu.Lock()
		s.recording = false
		s.mu.Unlock()
		log.Warn("session record start failed", "err", err)
		return schema.DispatchResult{}, err
	}
	s.emitRecording(schema.RecordingEvent{SessionID: s.id, State: schema.RecordingActive, Mode: cmd.Mode})
	log.Info("session recording started", "mode", cmd.Mode)
	return schema.DispatchResult{Snapshot: s.Snapshot()}, nil
}

func (s *session) stopRecording(ctx context.Context, log pslog.Logger) (schema.DispatchResult, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		log.Warn("session record stop rejected", "err", schema.ErrInvalidCommand)
		return schema.DispatchResult{}, fmt.Errorf("%w: no recording in flight", schema.ErrInvalidCommand)
	}
	mode := s.recMode
	s.mu.Unlock()

	result, err := s.rec.Stop(ctx)

	s.mu.Lock()
	s.recording = false
	if err != nil {
		s.mu.Unlock()
		s.emitRecording(schema.RecordingEvent{SessionID: s.id, State: schema.RecordingIdle, Mode: mode})
		log.Warn("session record stop failed", "err", err)
		return schema.DispatchResult{}, err
	}
	if result.DurationFrames <= 0 {
		s.mu.Unlock()
		s.emitRecording(schema.RecordingEvent{SessionID: s.id, State: schema.RecordingIdle, Mode: mode})
		log.Warn("session record stop rejected", "err", schema.ErrInvalidMedia)
		return schema.DispatchResult{}, fmt.Errorf("%w: recording produced no frames", schema.ErrInvalidMedia)
	}
	start := s.clock.Position()
	track := s.freeTrackLocked(start, start+result.DurationFrames)
	appended := false
	if track == len(s.model.tracks) {
		s.model.AddTrack(schema.TrackVideo)
		appended = true
	}
	clip, err := s.model.AddClip(schema.ClipID(newID()), result.Media, track, start, schema.SourceRange{In: 0, Out: result.DurationFrames}, result.DurationFrames)
	if err != nil {
		if appended {
			s.model.removeLastTrack()
		}
		s.mu.Unlock()
		s.emitRecording(schema.RecordingEvent{SessionID: s.id, State: schema.RecordingIdle, Mode: mode})
		log.Warn("session record placement failed", "err", err)
		return schema.DispatchResult{}, err
	}
	snap := s.model.Snapshot()
	s.clock.SetTotal(snap.TotalFrames)
	s.history.SaveState(snap, "Record clip")
	timelineEv := schema.TimelineEvent{SessionID: s.id, Reason: schema.CommandRecordStop, Snapshot: snap}
	historyEv := s.historyEventLocked("Record clip")
	s.mu.Unlock()

	s.emitRecording(schema.RecordingEvent{SessionID: s.id, State: schema.RecordingIdle, Mode: mode, Clip: &clip})
	s.emitTimeline(timelineEv)
	s.emitHistory(historyEv)
	s.persistProject(log)
	logx.WithClip(log, clip.ID).Info("session recording placed", "start", clip.Start, "frames", clip.Duration())
	return schema.DispatchResult{Snapshot: snap, Clips: []schema.Clip{clip}}, nil
}

// freeTrackLocked returns the first track where [start, end) is free, or
// len(tracks) when a new track is needed.
func (s *session) freeTrackLocked(start, end schema.Frame) int {
	for i := range s.model.tracks {
		if !s.model.collides(i, start, end, "") {
			return i
		}
	}
	return len(s.model.tracks)
}

func (s *session) snapLocked(cmd schema.Command, ignore schema.ClipID, candidate schema.Frame) schema.Frame {
	if cmd.Snap == nil {
		return candidate
	}
	tolPx := cmd.Snap.TolerancePx
	if tolPx <= 0 {
		tolPx = s.cfg.SnapTolerancePx
	}
	tol := frames.ToleranceFrames(tolPx, s.cfg.FrameRate, cmd.Snap.Zoom)
	snapped, _ := resolveSnap(s.model, candidate, s.clock.Position(), s.cfg.FrameRate, tol, ignore)
	return snapped
}

func (s *session) resolveMedia(ctx context.Context, id schema.MediaID) (schema.MediaInfo, error) {
	if s.media == nil {
		return schema.MediaInfo{ID: id}, nil
	}
	info, err := s.media.Resolve(ctx, id)
	if err != nil {
		return schema.MediaInfo{}, fmt.Errorf("resolve media %q: %w", id, err)
	}
	return info, nil
}

func (s *session) Snapshot() schema.TimelineSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot()
}

func (s *session) Transport() schema.TransportEvent {
	ev := s.clock.TransportSnapshot()
	ev.SessionID = s.id
	return ev
}

func (s *session) HistoryState() schema.HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := ""
	if entry, ok := s.history.Current(); ok {
		label = entry.Label
	}
	return s.historyEventLocked(label)
}

func (s *session) historyEventLocked(label string) schema.HistoryEvent {
	return schema.HistoryEvent{
		SessionID: s.id,
		Label:     label,
		Depth:     s.history.Depth(),
		CanUndo:   s.history.CanUndo(),
		CanRedo:   s.history.CanRedo(),
	}
}

// SaveProject persists the current state regardless of the autosave flag.
func (s *session) SaveProject(ctx context.Context) error {
	if s.store == nil {
		return errors.New("no state directory configured")
	}
	log := logx.WithSession(ctx, s.id)
	s.mu.Lock()
	snap := s.model.Snapshot()
	s.mu.Unlock()
	if err := s.store.Save(s.cfg.ProjectID, projectSnapshot(s.cfg, snap)); err != nil {
		log.Warn("session project save failed", "err", err)
		return err
	}
	log.Debug("session project saved", "clips", len(snap.Clips))
	return nil
}

func (s *session) persistProject(log pslog.Logger) {
	if s.store == nil || !s.cfg.Autosave {
		return
	}
	s.mu.Lock()
	snap := s.model.Snapshot()
	s.mu.Unlock()
	if err := s.store.Save(s.cfg.ProjectID, projectSnapshot(s.cfg, snap)); err != nil {
		if log != nil {
			log.Warn("session autosave failed", "err", err)
		}
		return
	}
	if log != nil {
		log.Trace("session autosaved", "clips", len(snap.Clips))
	}
}

func projectSnapshot(cfg schema.SessionConfig, snap schema.TimelineSnapshot) persist.ProjectSnapshot {
	return persist.ProjectSnapshot{
		FrameRate:   cfg.FrameRate,
		Tracks:      snap.Tracks,
		Clips:       snap.Clips,
		TotalFrames: snap.TotalFrames,
	}
}

func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	if s.unsub != nil {
		s.unsub()
	}
	s.clock.Close()
	s.logger.Debug("session closed")
	return nil
}

func (s *session) emitTimeline(event schema.TimelineEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnTimeline(event)
}

func (s *session) emitTransport(event schema.TransportEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnTransport(event)
}

func (s *session) emitHistory(event schema.HistoryEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnHistory(event)
}

func (s *session) emitSelection(event schema.SelectionEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnSelection(event)
}

func (s *session) emitRecording(event schema.RecordingEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnRecording(event)
}
