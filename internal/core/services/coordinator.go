package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"
	apperrors "interviewsignal/pkg/errors"
	"interviewsignal/pkg/tracing"
	"interviewsignal/pkg/validation"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

const defaultMirrorTimeout = 2 * time.Second

type CoordinatorConfig struct {
	// ICEServers are handed to every admitted joiner.
	ICEServers []webrtc.ICEServer
	// DisconnectSuperseded closes the older connection when the same user
	// connects again.
	DisconnectSuperseded bool
	// MirrorTimeout bounds best-effort presence store and publish calls.
	MirrorTimeout time.Duration
}

type CoordinatorDeps struct {
	Verifier  ports.IdentityVerifier
	Access    ports.AccessService
	Chat      ports.ChatStore
	Transport ports.Transport

	// Optional.
	Store     ports.PresenceStore
	Publisher ports.PresencePublisher
	Metrics   ports.Metrics
}

// Coordinator owns the presence registry and room tracker and runs every
// room operation against them.
type Coordinator struct {
	verifier  ports.IdentityVerifier
	access    ports.AccessService
	chat      ports.ChatStore
	transport ports.Transport
	store     ports.PresenceStore
	publisher ports.PresencePublisher
	metrics   ports.Metrics
	logger    *zap.SugaredLogger
	cfg       CoordinatorConfig

	presence *PresenceRegistry
	tracker  *RoomTracker
	locks    *roomLocks
	now      func() time.Time
}

func NewCoordinator(deps CoordinatorDeps, cfg CoordinatorConfig, logger *zap.SugaredLogger) *Coordinator {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = defaultMirrorTimeout
	}
	return &Coordinator{
		verifier:  deps.Verifier,
		access:    deps.Access,
		chat:      deps.Chat,
		transport: deps.Transport,
		store:     deps.Store,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger,
		cfg:       cfg,
		presence:  NewPresenceRegistry(),
		tracker:   NewRoomTracker(),
		locks:     newRoomLocks(),
		now:       time.Now,
	}
}

// Authenticate resolves a bearer token. Every failure rejects the connection.
func (c *Coordinator) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	identity, err := c.verifier.ResolveIdentity(ctx, token)
	if err == nil {
		return identity, nil
	}

	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, ErrMissingToken):
		appErr = apperrors.NewAdmissionError(domain.ReasonMissingToken, "missing bearer token", err)
	case errors.Is(err, ErrExpiredToken):
		appErr = apperrors.NewAdmissionError(domain.ReasonTokenExpired, "token expired", err)
	case errors.Is(err, ErrInvalidToken):
		appErr = apperrors.NewAdmissionError(domain.ReasonInvalidToken, "invalid token", err)
	case errors.Is(err, domain.ErrAccountNotFound):
		appErr = apperrors.NewAdmissionError(domain.ReasonUnknownAccount, "unknown account", err)
	case errors.Is(err, domain.ErrAccountInactive):
		appErr = apperrors.NewAdmissionError(domain.ReasonInactiveAccount, "account is not active", err)
	default:
		appErr = apperrors.NewDependencyError(err)
	}

	c.metrics.ConnectionRejected(appErr.Reason)
	c.logger.Infow("connection rejected", "reason", appErr.Reason, "error", err)
	return domain.Identity{}, appErr
}

// Connect registers an admitted connection in the presence registry. If the
// user already had a different live connection, that one is told it was
// replaced and closed.
func (c *Coordinator) Connect(ctx context.Context, conn *domain.Connection) {
	entry := domain.PresenceEntry{
		UserID:       conn.UserID(),
		ConnectionID: conn.ID,
		User:         conn.Identity,
		ConnectedAt:  conn.ConnectedAt,
	}
	prev := c.presence.Register(entry)

	c.metrics.ConnectionOpened()
	c.metrics.SetOnlineUsers(c.presence.Count())
	c.logger.Infow("user connected",
		"user_id", conn.UserID(),
		"connection_id", conn.ID,
	)

	c.mirror(func(ctx context.Context) error { return c.store.Store(ctx, entry) }, c.store != nil)
	c.announce(domain.PresenceUpdate{UserID: conn.UserID(), IsOnline: true})

	if prev == nil || !c.cfg.DisconnectSuperseded {
		return
	}

	c.metrics.SessionReplaced()
	c.logger.Infow("closing superseded connection",
		"user_id", conn.UserID(),
		"old_connection_id", prev.ConnectionID,
		"new_connection_id", conn.ID,
	)
	_ = c.transport.SendToConnection(prev.ConnectionID, domain.EventSessionReplace, map[string]interface{}{
		"userId":       conn.UserID(),
		"connectionId": conn.ID,
		"timestamp":    c.now(),
	})
	c.transport.Disconnect(prev.ConnectionID, "superseded by a newer connection")
}

// KeepAlive refreshes the mirrored presence entry while the connection is
// still the user's current one.
func (c *Coordinator) KeepAlive(ctx context.Context, conn *domain.Connection) {
	if c.store == nil {
		return
	}
	entry, ok := c.presence.Lookup(conn.UserID())
	if !ok || entry.ConnectionID != conn.ID {
		return
	}
	c.mirror(func(ctx context.Context) error {
		return c.store.Refresh(ctx, conn.UserID(), conn.ID)
	}, true)
}

// Disconnect unwinds a closed connection. The transport must already have
// dropped it so room membership no longer includes it.
func (c *Coordinator) Disconnect(ctx context.Context, conn *domain.Connection) {
	conn.MarkClosed()
	c.metrics.ConnectionClosed()

	userID := conn.UserID()
	if c.presence.Unregister(userID, conn.ID) {
		c.metrics.SetOnlineUsers(c.presence.Count())
		c.mirror(func(ctx context.Context) error {
			_, err := c.store.Remove(ctx, userID, conn.ID)
			return err
		}, c.store != nil)

		lastSeen := c.now()
		c.announce(domain.PresenceUpdate{UserID: userID, IsOnline: false, LastSeen: &lastSeen})
	}

	if roomID, role := conn.Binding(); roomID != "" {
		c.leaveRoom(conn, roomID, role, domain.LeaveReasonDisconnect)
	}

	c.logger.Infow("user disconnected",
		"user_id", userID,
		"connection_id", conn.ID,
	)
}

// Join authorizes conn for the interview, repairs the room view and admits
// it. The access call runs outside the room lock; everything after it runs
// under the lock.
func (c *Coordinator) Join(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) (*domain.JoinAck, error) {
	start := c.now()
	ctx, span := tracing.TraceRoomOperation(ctx, "join", req.RoomID.String(), req.InterviewID.String())
	defer span.End()

	if err := validateRoomRequest(req); err != nil {
		c.metrics.JoinCompleted("invalid", c.now().Sub(start))
		return nil, err
	}

	userID := conn.UserID()
	result, err := c.access.JoinInterview(ctx, req.InterviewID, userID)
	if err != nil {
		tracing.RecordError(ctx, err)
		c.metrics.JoinCompleted("error", c.now().Sub(start))
		c.logger.Warnw("access service join failed",
			"interview_id", req.InterviewID,
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.NewDependencyError(err)
	}
	if !result.CanJoin {
		c.metrics.JoinCompleted("rejected", c.now().Sub(start))
		return nil, apperrors.NewAuthorizationError(domain.ReasonCannotJoin, "cannot join this interview at this time")
	}
	role := result.UserRole
	if !role.Valid() {
		c.metrics.JoinCompleted("error", c.now().Sub(start))
		return nil, apperrors.NewDependencyError(fmt.Errorf("access service returned role %q", role))
	}

	if conn.Closed() {
		c.metrics.JoinCompleted("abandoned", c.now().Sub(start))
		return nil, domain.ErrConnectionClosed
	}

	// Checked before leaving the previous room so a rejected join keeps it.
	if c.belongsToOtherInterview(req.RoomID, req.InterviewID) {
		c.metrics.JoinCompleted("rejected", c.now().Sub(start))
		return nil, errRoomOfOtherInterview()
	}

	if prevRoom, prevRole := conn.Binding(); prevRoom != "" && prevRoom != req.RoomID {
		c.leaveRoom(conn, prevRoom, prevRole, domain.LeaveReasonLeft)
	}

	unlock := c.locks.Lock(req.RoomID)
	defer unlock()

	// The connection may have closed while the access call was in flight.
	if conn.Closed() {
		c.metrics.JoinCompleted("abandoned", c.now().Sub(start))
		return nil, domain.ErrConnectionClosed
	}

	members := c.transport.RoomMembers(req.RoomID)
	c.reconcile(req.RoomID, members)
	if bound, ok := c.tracker.Interview(req.RoomID); ok && bound != req.InterviewID {
		c.metrics.JoinCompleted("rejected", c.now().Sub(start))
		return nil, errRoomOfOtherInterview()
	}
	existing := c.existingMembers(req.RoomID, members, userID)

	conn.Bind(req.RoomID, req.InterviewID, role)
	if err := c.transport.JoinRoom(conn.ID, req.RoomID); err != nil {
		conn.Unbind(req.RoomID)
		c.metrics.JoinCompleted("abandoned", c.now().Sub(start))
		return nil, domain.ErrConnectionClosed
	}
	c.tracker.Add(req.RoomID, req.InterviewID, userID)
	c.metrics.SetActiveRooms(c.tracker.RoomCount())

	shouldInitiate := false
	if role == domain.RoleCandidate {
		for _, m := range existing {
			if m.Role == domain.RoleRecruiter {
				shouldInitiate = true
				break
			}
		}
	}

	// The candidate always initiates. If the candidate was here first it
	// learns that from the recruiter's user-joined event instead of its ack.
	joinedAt := c.now()
	for _, m := range members {
		if m.ConnectionID == conn.ID {
			continue
		}
		_ = c.transport.SendToConnection(m.ConnectionID, domain.EventUserJoined, domain.RoomEvent{
			UserID:              userID,
			Role:                role,
			Name:                conn.Identity.Name,
			ConnectionID:        conn.ID,
			InterviewID:         req.InterviewID,
			Timestamp:           joinedAt,
			ShouldInitiateOffer: role == domain.RoleRecruiter && m.Role == domain.RoleCandidate,
		})
	}

	c.metrics.JoinCompleted("admitted", c.now().Sub(start))
	c.logger.Infow("user joined interview room",
		"room_id", req.RoomID,
		"interview_id", req.InterviewID,
		"user_id", userID,
		"role", role,
		"existing", len(existing),
		"should_initiate_offer", shouldInitiate,
	)

	return &domain.JoinAck{
		Success:             true,
		RoomID:              req.RoomID,
		UserRole:            role,
		ExistingUsers:       existing,
		ShouldInitiateOffer: shouldInitiate,
		Interview:           result.Interview,
		ICEServers:          c.cfg.ICEServers,
	}, nil
}

// Leave removes conn from the room. Leaving a room it is not bound to is a
// no-op.
func (c *Coordinator) Leave(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) error {
	if req.RoomID == "" {
		return apperrors.NewValidationError(domain.ReasonMissingParameters, "roomId is required")
	}
	roomID, role := conn.Binding()
	if roomID != req.RoomID {
		return nil
	}
	c.leaveRoom(conn, roomID, role, domain.LeaveReasonLeft)
	return nil
}

// Relay forwards a signaling envelope. A targeted envelope goes only to the
// target's current connection and only if that connection is in the same
// room; an offline target is a miss, not an error.
func (c *Coordinator) Relay(ctx context.Context, conn *domain.Connection, env domain.SignalEnvelope) (*domain.RelayResult, error) {
	if err := validateRoomRequest(domain.RoomRequest{RoomID: env.RoomID, InterviewID: env.InterviewID}); err != nil {
		return nil, err
	}
	if !conn.BoundTo(env.RoomID, env.InterviewID) {
		return nil, errNotInRoom()
	}

	env.From = conn.UserID()
	env.Timestamp = c.now()
	event := env.Type.Event()

	if env.To != "" {
		delivered := c.deliverTo(env.To, env.RoomID, event, env)
		c.metrics.SignalRelayed(string(env.Type), delivered)
		if !delivered {
			c.logger.Debugw("signal target unavailable",
				"room_id", env.RoomID,
				"from", env.From,
				"to", env.To,
				"type", env.Type,
			)
			return &domain.RelayResult{Success: true}, nil
		}
		return &domain.RelayResult{Success: true, Delivered: true, Recipients: 1}, nil
	}

	n := c.transport.EmitToRoom(env.RoomID, event, env, conn.ID)
	c.metrics.SignalRelayed(string(env.Type), n > 0)
	return &domain.RelayResult{Success: true, Delivered: n > 0, Recipients: n}, nil
}

func (c *Coordinator) deliverTo(target domain.UserID, roomID domain.RoomID, event string, env domain.SignalEnvelope) bool {
	entry, ok := c.presence.Lookup(target)
	if !ok {
		return false
	}
	targetConn, ok := c.transport.Connection(entry.ConnectionID)
	if !ok || !targetConn.InRoom(roomID) {
		return false
	}
	return c.transport.SendToConnection(entry.ConnectionID, event, env) == nil
}

// SetRecording starts or stops recording. Only the interview's recruiter may
// do this; the access service is asked on every call.
func (c *Coordinator) SetRecording(ctx context.Context, conn *domain.Connection, req domain.RoomRequest, recording bool) error {
	event := domain.EventRecordingStop
	if recording {
		event = domain.EventRecordingStart
	}

	if err := validateRoomRequest(req); err != nil {
		return err
	}
	if !conn.BoundTo(req.RoomID, req.InterviewID) {
		c.metrics.ControlEvent(event, "denied")
		return errNotInRoom()
	}
	access, err := c.checkAccess(ctx, req.InterviewID, conn.UserID())
	if err != nil {
		c.metrics.ControlEvent(event, "error")
		return err
	}
	if !access.HasAccess || !access.IsRecruiter {
		c.metrics.ControlEvent(event, "denied")
		return apperrors.NewAuthorizationError(domain.ReasonNotRecruiter, "only the recruiter can control recording")
	}

	c.transport.EmitToRoom(req.RoomID, event, domain.RoomEvent{
		UserID:      conn.UserID(),
		InterviewID: req.InterviewID,
		Timestamp:   c.now(),
	}, "")
	c.metrics.ControlEvent(event, "ok")
	c.logger.Infow("recording state changed",
		"room_id", req.RoomID,
		"interview_id", req.InterviewID,
		"user_id", conn.UserID(),
		"recording", recording,
	)
	return nil
}

// EndInterview broadcasts the end of the interview and then removes every
// connection from the room.
func (c *Coordinator) EndInterview(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) error {
	ctx, span := tracing.TraceRoomOperation(ctx, "end", req.RoomID.String(), req.InterviewID.String())
	defer span.End()

	if err := validateRoomRequest(req); err != nil {
		return err
	}
	if !conn.BoundTo(req.RoomID, req.InterviewID) {
		c.metrics.ControlEvent(domain.EventEnded, "denied")
		return errNotInRoom()
	}
	access, err := c.checkAccess(ctx, req.InterviewID, conn.UserID())
	if err != nil {
		c.metrics.ControlEvent(domain.EventEnded, "error")
		return err
	}
	if !access.HasAccess {
		c.metrics.ControlEvent(domain.EventEnded, "denied")
		return apperrors.NewAuthorizationError(domain.ReasonNoAccess, "no access to this interview")
	}

	unlock := c.locks.Lock(req.RoomID)
	defer unlock()

	// The caller may have left or been ended out while access was checked.
	if !conn.BoundTo(req.RoomID, req.InterviewID) {
		c.metrics.ControlEvent(domain.EventEnded, "denied")
		return errNotInRoom()
	}

	c.transport.EmitToRoom(req.RoomID, domain.EventEnded, domain.RoomEvent{
		UserID:      conn.UserID(),
		InterviewID: req.InterviewID,
		Reason:      domain.LeaveReasonEnded,
		Timestamp:   c.now(),
	}, "")

	members := c.transport.RoomMembers(req.RoomID)
	for _, m := range members {
		c.transport.LeaveRoom(m.ConnectionID, req.RoomID)
		if member, ok := c.transport.Connection(m.ConnectionID); ok {
			member.Unbind(req.RoomID)
		}
	}
	c.tracker.Delete(req.RoomID)
	c.metrics.SetActiveRooms(c.tracker.RoomCount())
	c.metrics.ControlEvent(domain.EventEnded, "ok")

	c.logger.Infow("interview ended",
		"room_id", req.RoomID,
		"interview_id", req.InterviewID,
		"user_id", conn.UserID(),
		"members", len(members),
	)
	return nil
}

// SendChat persists a chat message and, only once stored, relays it to the
// rest of the room.
func (c *Coordinator) SendChat(ctx context.Context, conn *domain.Connection, req domain.ChatRequest) (*domain.ChatMessage, error) {
	if err := validateRoomRequest(domain.RoomRequest{RoomID: req.RoomID, InterviewID: req.InterviewID}); err != nil {
		return nil, err
	}
	if req.Message == "" {
		return nil, apperrors.NewValidationError(domain.ReasonMissingParameters, "message is required")
	}
	if err := validation.ValidateChatMessage(req.Message); err != nil {
		return nil, apperrors.NewValidationError(domain.ReasonInvalidMessage, err.Error())
	}
	if !conn.BoundTo(req.RoomID, req.InterviewID) {
		c.metrics.ControlEvent(domain.EventChatMessage, "denied")
		return nil, errNotInRoom()
	}

	access, err := c.checkAccess(ctx, req.InterviewID, conn.UserID())
	if err != nil {
		c.metrics.ControlEvent(domain.EventChatMessage, "error")
		return nil, err
	}
	if !access.HasAccess {
		c.metrics.ControlEvent(domain.EventChatMessage, "denied")
		return nil, apperrors.NewAuthorizationError(domain.ReasonNoAccess, "no access to this interview")
	}

	msg, err := c.chat.PersistChatMessage(ctx, req.InterviewID, conn.UserID(), req.Message)
	if err != nil {
		c.metrics.ControlEvent(domain.EventChatMessage, "error")
		c.logger.Warnw("chat message not persisted",
			"interview_id", req.InterviewID,
			"user_id", conn.UserID(),
			"error", err,
		)
		return nil, apperrors.NewDependencyError(err)
	}

	c.transport.EmitToRoom(req.RoomID, domain.EventChatMessage, msg, conn.ID)
	c.metrics.ControlEvent(domain.EventChatMessage, "ok")
	return msg, nil
}

// NotifyUser sends an event to the user's current connection, wherever it is.
func (c *Coordinator) NotifyUser(userID domain.UserID, event string, payload interface{}) bool {
	entry, ok := c.presence.Lookup(userID)
	if !ok {
		return false
	}
	return c.transport.SendToConnection(entry.ConnectionID, event, payload) == nil
}

// PresenceSnapshot lists online users across instances when a shared store
// is configured. If the store cannot be read the local view is returned.
func (c *Coordinator) PresenceSnapshot(ctx context.Context) []domain.PresenceEntry {
	local := c.presence.Snapshot()
	if c.store == nil {
		return local
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.MirrorTimeout)
	defer cancel()
	shared, err := c.store.List(ctx)
	if err != nil {
		c.logger.Warnw("shared presence unavailable, serving local view", "error", err)
		return local
	}
	return mergePresence(local, shared)
}

func (c *Coordinator) IsOnline(ctx context.Context, userID domain.UserID) bool {
	if c.presence.IsOnline(userID) {
		return true
	}
	if c.store == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.MirrorTimeout)
	defer cancel()
	entry, err := c.store.Lookup(ctx, userID)
	if err != nil {
		c.logger.Warnw("shared presence lookup failed", "user_id", userID, "error", err)
		return false
	}
	return entry != nil
}

// mergePresence keeps one entry per user, the most recent connection winning.
func mergePresence(local, shared []domain.PresenceEntry) []domain.PresenceEntry {
	byUser := make(map[domain.UserID]domain.PresenceEntry, len(local)+len(shared))
	for _, entry := range local {
		byUser[entry.UserID] = entry
	}
	for _, entry := range shared {
		if cur, ok := byUser[entry.UserID]; ok && !entry.ConnectedAt.After(cur.ConnectedAt) {
			continue
		}
		byUser[entry.UserID] = entry
	}

	out := make([]domain.PresenceEntry, 0, len(byUser))
	for _, entry := range byUser {
		out = append(out, entry)
	}
	sortByConnectedAt(out)
	return out
}

// RoomMembers returns live transport membership.
func (c *Coordinator) RoomMembers(roomID domain.RoomID) []domain.Member {
	return c.transport.RoomMembers(roomID)
}

// leaveRoom unbinds conn from roomID and tells the rest of the room.
// user-left is only sent when no other connection of the same user remains;
// peer-disconnected is sent for every lost connection.
func (c *Coordinator) leaveRoom(conn *domain.Connection, roomID domain.RoomID, role domain.Role, reason string) {
	unlock := c.locks.Lock(roomID)
	defer unlock()

	if !conn.Unbind(roomID) {
		return
	}
	c.transport.LeaveRoom(conn.ID, roomID)

	userID := conn.UserID()
	members := c.transport.RoomMembers(roomID)

	stillPresent := false
	for _, m := range members {
		if m.UserID == userID {
			stillPresent = true
			break
		}
	}
	if !stillPresent {
		c.tracker.Remove(roomID, userID)
	}
	c.reconcile(roomID, members)

	now := c.now()
	if !stillPresent {
		c.transport.EmitToRoom(roomID, domain.EventUserLeft, domain.RoomEvent{
			UserID:    userID,
			Role:      role,
			Name:      conn.Identity.Name,
			Reason:    reason,
			Timestamp: now,
		}, conn.ID)
	}
	if reason == domain.LeaveReasonDisconnect {
		c.transport.EmitToRoom(roomID, domain.EventPeerDisconnect, domain.RoomEvent{
			UserID:       userID,
			ConnectionID: conn.ID,
			Timestamp:    now,
		}, conn.ID)
	}
	c.metrics.SetActiveRooms(c.tracker.RoomCount())

	c.logger.Infow("user left interview room",
		"room_id", roomID,
		"user_id", userID,
		"connection_id", conn.ID,
		"reason", reason,
	)
}

// reconcile must be called with the room lock held.
func (c *Coordinator) reconcile(roomID domain.RoomID, members []domain.Member) {
	live := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		live = append(live, m.UserID)
	}
	ghosts := c.tracker.Reconcile(roomID, live)
	if len(ghosts) == 0 {
		return
	}
	c.metrics.GhostsRemoved(len(ghosts))
	c.logger.Infow("removed ghost room members",
		"room_id", roomID,
		"ghosts", ghosts,
	)
}

// existingMembers is the reconciled tracker view joined with live membership
// for role and name, minus the requesting user.
func (c *Coordinator) existingMembers(roomID domain.RoomID, members []domain.Member, requester domain.UserID) []domain.Member {
	existing := make([]domain.Member, 0, len(members))
	seen := make(map[domain.UserID]struct{}, len(members))
	for _, m := range members {
		if m.UserID == requester {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		if !c.tracker.Contains(roomID, m.UserID) {
			continue
		}
		seen[m.UserID] = struct{}{}
		existing = append(existing, m)
	}
	return existing
}

func (c *Coordinator) checkAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error) {
	access, err := c.access.CheckInterviewAccess(ctx, interviewID, userID)
	if err != nil {
		c.logger.Warnw("access check failed",
			"interview_id", interviewID,
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.NewDependencyError(err)
	}
	return access, nil
}

// announce broadcasts a presence change locally and to other instances.
// Delivery is best effort.
func (c *Coordinator) announce(update domain.PresenceUpdate) {
	c.transport.Broadcast(domain.EventPresence, update)
	c.mirror(func(ctx context.Context) error {
		return c.publisher.PublishPresence(ctx, update)
	}, c.publisher != nil)
}

func (c *Coordinator) mirror(fn func(ctx context.Context) error, enabled bool) {
	if !enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.MirrorTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		c.logger.Warnw("presence mirror update failed", "error", err)
	}
}

// belongsToOtherInterview reports whether the room's live members joined it
// for a different interview.
func (c *Coordinator) belongsToOtherInterview(roomID domain.RoomID, interviewID domain.InterviewID) bool {
	unlock := c.locks.Lock(roomID)
	defer unlock()

	c.reconcile(roomID, c.transport.RoomMembers(roomID))
	bound, ok := c.tracker.Interview(roomID)
	return ok && bound != interviewID
}

func errRoomOfOtherInterview() error {
	return apperrors.NewAuthorizationError(domain.ReasonCannotJoin, "room belongs to another interview")
}

func errNotInRoom() error {
	return apperrors.NewAuthorizationError(domain.ReasonNotInRoom, "join the interview room first")
}

func validateRoomRequest(req domain.RoomRequest) error {
	if req.RoomID == "" || req.InterviewID == "" {
		return apperrors.NewValidationError(domain.ReasonMissingParameters, "roomId and interviewId are required")
	}
	if err := validation.ValidateRoomID(req.RoomID.String()); err != nil {
		return apperrors.NewValidationError(domain.ReasonInvalidParameters, err.Error())
	}
	if err := validation.ValidateInterviewID(req.InterviewID.String()); err != nil {
		return apperrors.NewValidationError(domain.ReasonInvalidParameters, err.Error())
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()                                      {}
func (nopMetrics) ConnectionClosed()                                      {}
func (nopMetrics) ConnectionRejected(string)                              {}
func (nopMetrics) SessionReplaced()                                       {}
func (nopMetrics) SetOnlineUsers(int)                                     {}
func (nopMetrics) SetActiveRooms(int)                                     {}
func (nopMetrics) JoinCompleted(string, time.Duration)                    {}
func (nopMetrics) GhostsRemoved(int)                                      {}
func (nopMetrics) SignalRelayed(string, bool)                             {}
func (nopMetrics) ControlEvent(string, string)                            {}
func (nopMetrics) CollaboratorCall(string, string, string, time.Duration) {}
