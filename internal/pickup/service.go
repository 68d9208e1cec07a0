package pickup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"waste-collection-api-server/internal/contamination"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/events"
	"waste-collection-api-server/internal/models"
)

// Config wires a Service. Store and Scorer are required.
type Config struct {
	Store     Store
	Scorer    Scorer
	Publisher events.Publisher
	// Facilities is optional; when nil facility ids are not verified.
	Facilities FacilityChecker
	Alerts     contamination.AlertPolicy
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service runs the pickup lifecycle.
type Service struct {
	store      Store
	scorer     Scorer
	publisher  events.Publisher
	facilities FacilityChecker
	alerts     contamination.AlertPolicy
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("pickup: store is required")
	}
	if cfg.Scorer == nil {
		return nil, errors.New("pickup: scorer is required")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Discard
	}
	if cfg.Alerts.Threshold == 0 {
		cfg.Alerts = contamination.NewAlertPolicy(contamination.DefaultAlertThreshold)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:      cfg.Store,
		scorer:     cfg.Scorer,
		publisher:  cfg.Publisher,
		facilities: cfg.Facilities,
		alerts:     cfg.Alerts,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// Create scores the image and stores a new pending pickup. Nothing is
// persisted when scoring fails.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateRequest) (*models.Pickup, error) {
	if !actor.Role.IsRequester() {
		return nil, forbidden(actor, "request a pickup")
	}
	if !req.WasteType.Valid() {
		return nil, invalid("wasteType", fmt.Sprintf("unknown waste type %q", req.WasteType))
	}
	if err := checkWeight("estimatedWeightKg", req.EstimatedWeightKg); err != nil {
		return nil, err
	}
	geom, err := point(req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}
	if req.Image.SecureURL == "" && len(req.ImageData) == 0 {
		return nil, invalid("image", "an uploaded image is required")
	}

	p := &models.Pickup{
		RequestedBy:       actor.ID,
		WasteType:         req.WasteType,
		Description:       strings.TrimSpace(req.Description),
		Address:           strings.TrimSpace(req.Address),
		Geom:              geom,
		Image:             req.Image,
		EstimatedWeightKg: req.EstimatedWeightKg,
		Status:            models.StatusPending,
	}

	eval, err := s.scorer.Evaluate(ctx,
		contamination.Source{URL: req.Image.SecureURL, Data: req.ImageData, MIMEType: req.ImageMIMEType},
		contamination.Context{WasteType: p.WasteType, Location: p.Location()},
	)
	if err != nil {
		return nil, fmt.Errorf("score pickup image: %w", err)
	}

	now := s.now()
	p.ContaminationRawScore = eval.Score
	p.ContaminationScore = contamination.Canonical(eval.Score)
	p.ContaminationLabel = string(eval.Label)
	p.ContaminationRationale = eval.Rationale
	p.EvaluatedAt = now
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("store pickup: %w", err)
	}
	s.logger.Info("pickup created",
		"pickupId", p.ID.Hex(),
		"requestedBy", p.RequestedBy,
		"wasteType", p.WasteType,
		"score", eval.Score,
		"label", eval.Label,
		"scoringMode", eval.Mode,
	)

	if s.alerts.ShouldAlert(eval.Score) {
		s.emit(ctx, s.alerts.AlertEvent(contamination.AlertInput{
			PickupID:    p.ID.Hex(),
			RequesterID: p.RequestedBy,
			WasteType:   p.WasteType,
			Location:    p.Location(),
			ImageURL:    p.Image.SecureURL,
			Result:      eval.Result,
			DetectedAt:  now,
		}))
	}

	evt := s.event(events.KindCreated, p, actor)
	evt.WeightKg = floatPtr(p.EstimatedWeightKg)
	evt.Score = eval.Score
	evt.Label = p.ContaminationLabel
	evt.Location = p.Location()
	evt.ImageURL = p.Image.SecureURL
	s.emit(ctx, evt)
	return p, nil
}

// Claim assigns a pending, unassigned pickup to the calling driver in a
// single conditional write. Losing a race yields ErrNotFound.
func (s *Service) Claim(ctx context.Context, actor Actor, id string) (*models.Pickup, error) {
	if actor.Role != models.RoleDriver {
		return nil, forbidden(actor, "claim a pickup")
	}
	now := s.now()
	updated, err := s.swap(ctx, id,
		database.Precondition{Statuses: []models.PickupStatus{models.StatusPending}, Unassigned: true},
		database.PickupUpdate{
			Status:     statusPtr(models.StatusAssigned),
			AssignedTo: strPtr(actor.ID),
			AssignedAt: &now,
			UpdatedAt:  now,
		},
	)
	if err != nil {
		return nil, err
	}

	evt := s.event(events.KindAssigned, updated, actor)
	s.emit(ctx, evt)
	return updated, nil
}

// Assign sets the driver of a pending pickup, or reassigns an assigned one.
func (s *Service) Assign(ctx context.Context, actor Actor, id string, req AssignRequest) (*models.Pickup, error) {
	if !actor.Role.IsSupervisor() {
		return nil, forbidden(actor, "assign a driver")
	}
	driverID := strings.TrimSpace(req.DriverID)
	if driverID == "" {
		return nil, invalid("driverId", "is required")
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:     statusPtr(models.StatusAssigned),
		AssignedTo: strPtr(driverID),
		AssignedAt: &now,
		UpdatedAt:  now,
	}
	// Supervisors override any concurrent claim. Earlier attempts are pinned
	// to the observed assignee so the event names the driver being replaced;
	// the last attempt is guarded by status alone.
	var updated *models.Pickup
	for attempt := 1; ; attempt++ {
		if err := checkAssign(p, driverID); err != nil {
			return nil, err
		}
		cond := observed(p)
		last := attempt == assignAttempts
		if last {
			cond = database.Precondition{Statuses: assignable}
		}
		updated, err = s.swap(ctx, id, cond, upd)
		if err == nil {
			break
		}
		if last || !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if p, err = s.load(ctx, id); err != nil {
			return nil, err
		}
	}

	evt := s.event(events.KindAssigned, updated, actor)
	evt.PreviousDriverID = p.AssignedTo
	s.emit(ctx, evt)
	return updated, nil
}

// checkAssign rejects statuses a driver cannot be set in, and reassignment
// to the current driver, which would change nothing.
func checkAssign(p *models.Pickup, driverID string) error {
	switch {
	case p.Status == models.StatusPending:
		return nil
	case p.Status == models.StatusAssigned && p.AssignedTo != driverID:
		return nil
	}
	return &TransitionError{From: p.Status, To: models.StatusAssigned}
}

// MarkPickedUp records collection by the assigned driver.
func (s *Service) MarkPickedUp(ctx context.Context, actor Actor, id string, req PickedUpRequest) (*models.Pickup, error) {
	p, err := s.loadForDriver(ctx, actor, id, "mark a pickup collected")
	if err != nil {
		return nil, err
	}
	if err := checkTransition(p.Status, models.StatusPickedUp); err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:     statusPtr(models.StatusPickedUp),
		PickedUpAt: &now,
		UpdatedAt:  now,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		upd.DriverNotes = &notes
	}
	updated, err := s.swap(ctx, id, observed(p), upd)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, s.event(events.KindPickedUp, updated, actor))
	return updated, nil
}

// MarkCompleted records delivery; the measured weight is required.
func (s *Service) MarkCompleted(ctx context.Context, actor Actor, id string, req CompleteRequest) (*models.Pickup, error) {
	if req.ActualWeightKg == nil {
		return nil, invalid("actualWeightKg", "is required")
	}
	if err := checkWeight("actualWeightKg", *req.ActualWeightKg); err != nil {
		return nil, err
	}
	delivered, err := point(req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}
	p, err := s.loadForDriver(ctx, actor, id, "complete a pickup")
	if err != nil {
		return nil, err
	}
	if err := checkTransition(p.Status, models.StatusCompleted); err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:         statusPtr(models.StatusCompleted),
		CompletedAt:    &now,
		ActualWeightKg: floatPtr(*req.ActualWeightKg),
		DeliveredGeom:  delivered,
		UpdatedAt:      now,
	}
	if photo := strings.TrimSpace(req.PhotoURL); photo != "" {
		upd.CompletionPhoto = &photo
	}
	if addr := strings.TrimSpace(req.DeliveredAddress); addr != "" {
		upd.DeliveredAddress = &addr
	}
	updated, err := s.swap(ctx, id, observed(p), upd)
	if err != nil {
		return nil, err
	}

	evt := s.event(events.KindCompleted, updated, actor)
	evt.WeightKg = floatPtr(*req.ActualWeightKg)
	s.emit(ctx, evt)
	return updated, nil
}

// AssignFacility sets the destination facility without touching the status.
func (s *Service) AssignFacility(ctx context.Context, actor Actor, id string, req FacilityRequest) (*models.Pickup, error) {
	facilityID := strings.TrimSpace(req.FacilityID)
	if facilityID == "" {
		return nil, invalid("facilityId", "is required")
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role.IsSupervisor():
	case actor.Role == models.RoleDriver && p.AssignedTo == actor.ID:
	default:
		return nil, forbidden(actor, "route this pickup to a facility")
	}
	if !statusIn(p.Status, facilityAssignable) {
		return nil, &TransitionError{From: p.Status, To: p.Status, Op: "assign a facility"}
	}
	if s.facilities != nil {
		ok, err := s.facilities.Exists(ctx, facilityID)
		if err != nil {
			return nil, fmt.Errorf("check facility: %w", err)
		}
		if !ok {
			return nil, invalid("facilityId", fmt.Sprintf("unknown facility %q", facilityID))
		}
	}

	now := s.now()
	updated, err := s.swap(ctx, id, observed(p), database.PickupUpdate{
		FacilityID: &facilityID,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, s.event(events.KindFacilityAssigned, updated, actor))
	return updated, nil
}

// RecyclerReceive accepts delivered material at the facility.
func (s *Service) RecyclerReceive(ctx context.Context, actor Actor, id string, req ReceiveRequest) (*models.Pickup, error) {
	if req.ReceivedWeightKg == nil {
		return nil, invalid("receivedWeightKg", "is required")
	}
	if err := checkWeight("receivedWeightKg", *req.ReceivedWeightKg); err != nil {
		return nil, err
	}
	p, err := s.loadForRecycler(ctx, actor, id, "receive material")
	if err != nil {
		return nil, err
	}
	if err := checkTransition(p.Status, models.StatusProcessed); err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:           statusPtr(models.StatusProcessed),
		ReceivedAt:       &now,
		ReceivedWeightKg: floatPtr(*req.ReceivedWeightKg),
		UpdatedAt:        now,
	}
	if proof := strings.TrimSpace(req.ProofURL); proof != "" {
		upd.RecyclerProof = &proof
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		upd.RecyclerNotes = &notes
	}
	if p.FacilityID == "" && actor.FacilityID != "" {
		upd.FacilityID = strPtr(actor.FacilityID)
	}
	updated, err := s.swap(ctx, id, observed(p), upd)
	if err != nil {
		return nil, err
	}

	evt := s.event(events.KindProcessed, updated, actor)
	evt.WeightKg = floatPtr(*req.ReceivedWeightKg)
	s.emit(ctx, evt)
	return updated, nil
}

// RecyclerReject turns delivered material away; a reason is required.
func (s *Service) RecyclerReject(ctx context.Context, actor Actor, id string, req RejectRequest) (*models.Pickup, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}
	p, err := s.loadForRecycler(ctx, actor, id, "reject material")
	if err != nil {
		return nil, err
	}
	if err := checkTransition(p.Status, models.StatusRejected); err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:          statusPtr(models.StatusRejected),
		RejectedAt:      &now,
		RejectionReason: &reason,
		UpdatedAt:       now,
	}
	if p.FacilityID == "" && actor.FacilityID != "" {
		upd.FacilityID = strPtr(actor.FacilityID)
	}
	updated, err := s.swap(ctx, id, observed(p), upd)
	if err != nil {
		return nil, err
	}

	evt := s.event(events.KindRejected, updated, actor)
	evt.Reason = reason
	s.emit(ctx, evt)
	return updated, nil
}

// Cancel withdraws a pickup before it is delivered. The requester may
// cancel their own pickups; councils and admins may cancel any.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string, req CancelRequest) (*models.Pickup, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role.IsSupervisor():
	case actor.Role.IsRequester() && p.RequestedBy == actor.ID:
	case actor.Role.IsRequester():
		return nil, ErrNotFound
	default:
		return nil, forbidden(actor, "cancel a pickup")
	}
	if err := checkTransition(p.Status, models.StatusCancelled); err != nil {
		return nil, err
	}

	now := s.now()
	upd := database.PickupUpdate{
		Status:      statusPtr(models.StatusCancelled),
		CancelledAt: &now,
		CancelledBy: strPtr(actor.ID),
		UpdatedAt:   now,
	}
	reason := strings.TrimSpace(req.Reason)
	if reason != "" {
		upd.CancelReason = &reason
	}
	updated, err := s.swap(ctx, id, observed(p), upd)
	if err != nil {
		return nil, err
	}

	evt := s.event(events.KindCancelled, updated, actor)
	evt.Reason = reason
	s.emit(ctx, evt)
	return updated, nil
}

// Get returns one pickup. Requesters only see their own.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*models.Pickup, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsRequester() && p.RequestedBy != actor.ID {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns pickups visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) ([]models.Pickup, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	q := database.PickupFilter{Status: f.Status, FacilityID: f.FacilityID, Limit: f.Limit, Skip: f.Skip}
	switch {
	case actor.Role.IsRequester():
		q.RequestedBy = actor.ID
	case actor.Role == models.RoleDriver:
		if f.Scope == ScopeOpen {
			q.Status = models.StatusPending
			q.Unassigned = true
		} else {
			q.AssignedTo = actor.ID
		}
	case actor.Role == models.RoleRecycler:
		if actor.FacilityID != "" {
			q.FacilityID = actor.FacilityID
		}
	case actor.Role.IsSupervisor():
	default:
		return nil, forbidden(actor, "list pickups")
	}

	pickups, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}

// --- helpers ---

func (s *Service) load(ctx context.Context, id string) (*models.Pickup, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load pickup: %w", err)
	}
	return p, nil
}

// loadForDriver allows the assigned driver and admins.
func (s *Service) loadForDriver(ctx context.Context, actor Actor, id, op string) (*models.Pickup, error) {
	if actor.Role != models.RoleDriver && actor.Role != models.RoleAdmin {
		return nil, forbidden(actor, op)
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDriver && p.AssignedTo != actor.ID {
		return nil, fmt.Errorf("%w: pickup is not assigned to %s", ErrForbidden, actor.ID)
	}
	return p, nil
}

// loadForRecycler allows recyclers of the routed facility and admins.
func (s *Service) loadForRecycler(ctx context.Context, actor Actor, id, op string) (*models.Pickup, error) {
	if actor.Role != models.RoleRecycler && actor.Role != models.RoleAdmin {
		return nil, forbidden(actor, op)
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleRecycler && p.FacilityID != "" && actor.FacilityID != p.FacilityID {
		return nil, fmt.Errorf("%w: pickup is routed to facility %s", ErrForbidden, p.FacilityID)
	}
	return p, nil
}

func (s *Service) swap(ctx context.Context, id string, cond database.Precondition, upd database.PickupUpdate) (*models.Pickup, error) {
	p, err := s.store.UpdateIf(ctx, id, cond, upd)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update pickup: %w", err)
	}
	return p, nil
}

// observed pins the write to the status and assignee read earlier.
func observed(p *models.Pickup) database.Precondition {
	cond := database.Precondition{Statuses: []models.PickupStatus{p.Status}}
	if p.AssignedTo == "" {
		cond.Unassigned = true
	} else {
		cond.AssignedTo = p.AssignedTo
	}
	return cond
}

func (s *Service) event(kind events.Kind, p *models.Pickup, actor Actor) events.Event {
	return events.Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		PickupID:    p.ID.Hex(),
		RequesterID: p.RequestedBy,
		DriverID:    p.AssignedTo,
		ActorID:     actor.ID,
		FacilityID:  p.FacilityID,
		WasteType:   p.WasteType,
		OccurredAt:  s.now(),
	}
}

// emit publishes evt. The transition has already committed, so failures
// are logged and dropped.
func (s *Service) emit(ctx context.Context, evt events.Event) {
	if err := s.publisher.Emit(ctx, evt); err != nil {
		s.logger.Error("event emission failed",
			"kind", evt.Kind,
			"pickupId", evt.PickupID,
			"err", err,
		)
	}
}

func checkWeight(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid(field, "must be a non-negative number")
	}
	return nil
}

// point builds an optional location; latitude and longitude come together.
func point(lat, lng *float64) (*models.GeoPoint, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, invalid("coordinates", "latitude and longitude must be given together")
	}
	g, err := models.NewGeoPoint(*lat, *lng)
	if err != nil {
		return nil, invalid("coordinates", err.Error())
	}
	return g, nil
}

func statusPtr(s models.PickupStatus) *models.PickupStatus { return &s }

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
