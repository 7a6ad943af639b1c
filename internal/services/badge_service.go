// file: internal/services/badge_service.go
package services

import (
	"context"
	"database/sql"
	"errors"

	"badgehub/internal/cache"
	"badgehub/internal/engine"
	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"
	"badgehub/internal/validation"

	"go.uber.org/zap"
)

// User-facing messages. The evaluation surface speaks French.
const (
	msgGhostNotAnswerable = "Ce badge se débloque automatiquement"
	msgAlreadyUnlocked    = "Ce badge est déjà débloqué"
	msgNoImprovement      = "Pas d'amélioration, niveau conservé"
	msgLevelKept          = "Même niveau, réponse mise à jour"
)

// badgeService implements BadgeService
type badgeService struct {
	repos    *repositories.Collection
	cache    cache.Cache
	eventBus events.EventBus
	logger   *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(
	repos *repositories.Collection,
	c cache.Cache,
	eventBus events.EventBus,
	logger *zap.Logger,
) BadgeService {
	return &badgeService{
		repos:    repos,
		cache:    c,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ===============================
// CATALOG
// ===============================

func (s *badgeService) ListBadges(ctx context.Context, userID *int64, theme string, params models.PaginationParams) (*models.PaginatedResponse[*BadgeView], error) {
	page, err := s.repos.Badge.List(ctx, theme, params)
	if err != nil {
		return nil, NewInternalError("failed to list badges")
	}

	var records map[int64]*models.UserBadgeRecord
	if userID != nil {
		records, err = s.repos.UserBadge.GetAllForUser(ctx, *userID)
		if err != nil {
			return nil, NewInternalError("failed to load badge records")
		}
	}

	views := make([]*BadgeView, 0, len(page.Data))
	for _, badge := range page.Data {
		var record *models.UserBadgeRecord
		if records != nil {
			record = records[badge.ID]
		}
		views = append(views, buildBadgeView(badge, engine.Parse(badge.RawAnswer), record))
	}

	return &models.PaginatedResponse[*BadgeView]{
		Data:       views,
		Pagination: page.Pagination,
	}, nil
}

func (s *badgeService) GetBadge(ctx context.Context, badgeID int64, userID *int64) (*BadgeView, error) {
	badge, err := s.repos.Badge.GetByID(ctx, badgeID)
	if err != nil {
		return nil, NewInternalError("failed to load badge")
	}
	if badge == nil {
		return nil, EntityNotFoundError("badge", badgeID)
	}

	var record *models.UserBadgeRecord
	if userID != nil {
		record, err = s.repos.UserBadge.Get(ctx, *userID, badgeID)
		if err != nil {
			return nil, NewInternalError("failed to load badge record")
		}
	}

	return buildBadgeView(badge, engine.Parse(badge.RawAnswer), record), nil
}

func (s *badgeService) ListThemes(ctx context.Context) ([]string, error) {
	themes, err := s.repos.Badge.ListThemes(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list themes")
	}
	return themes, nil
}

func (s *badgeService) CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*models.Badge, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid badge", err)
	}
	if err := validateRawAnswer(req.RawAnswer); err != nil {
		return nil, err
	}

	badge := &models.Badge{
		Name:      req.Name,
		Emoji:     req.Emoji,
		Theme:     req.Theme,
		Question:  req.Question,
		RawAnswer: req.RawAnswer,
		LowSkill:  req.LowSkill,
	}
	if err := s.repos.Badge.Create(ctx, badge); err != nil {
		return nil, NewInternalError("failed to create badge")
	}

	s.logger.Info("Badge created",
		zap.Int64("badge_id", badge.ID),
		zap.String("name", badge.Name),
	)
	return badge, nil
}

func (s *badgeService) UpdateBadge(ctx context.Context, req *UpdateBadgeRequest) (*models.Badge, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid badge", err)
	}

	badge, err := s.repos.Badge.GetByID(ctx, req.BadgeID)
	if err != nil {
		return nil, NewInternalError("failed to load badge")
	}
	if badge == nil {
		return nil, EntityNotFoundError("badge", req.BadgeID)
	}

	if req.Name != nil {
		badge.Name = *req.Name
	}
	if req.Emoji != nil {
		badge.Emoji = *req.Emoji
	}
	if req.Theme != nil {
		badge.Theme = *req.Theme
	}
	if req.Question != nil {
		badge.Question = *req.Question
	}
	if req.RawAnswer != nil {
		if err := validateRawAnswer(*req.RawAnswer); err != nil {
			return nil, err
		}
		badge.RawAnswer = *req.RawAnswer
	}
	if req.LowSkill != nil {
		badge.LowSkill = *req.LowSkill
	}

	if err := s.repos.Badge.Update(ctx, badge); err != nil {
		return nil, NewInternalError("failed to update badge")
	}
	return badge, nil
}

func (s *badgeService) DeleteBadge(ctx context.Context, badgeID int64) error {
	if err := s.repos.Badge.Delete(ctx, badgeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EntityNotFoundError("badge", badgeID)
		}
		return NewInternalError("failed to delete badge")
	}
	return nil
}

// validateRawAnswer rejects answer fields that look like configuration
// JSON but do not decode to a known type. A plain string is always fine.
func validateRawAnswer(raw string) error {
	trimmed := raw
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t' || trimmed[0] == '\n') {
		trimmed = trimmed[1:]
	}
	if len(trimmed) > 0 && trimmed[0] == '{' && engine.Parse(raw) == nil {
		return InvalidInputError("answer", "malformed answer configuration")
	}
	return nil
}

// ===============================
// EVALUATION
// ===============================

func (s *badgeService) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid answer", err)
	}

	badge, err := s.repos.Badge.GetByID(ctx, req.BadgeID)
	if err != nil {
		return nil, NewInternalError("failed to load badge")
	}
	if badge == nil {
		return nil, EntityNotFoundError("badge", req.BadgeID)
	}

	cfg := engine.Parse(badge.RawAnswer)
	if cfg != nil && cfg.IsGhost {
		return nil, NewBusinessError(msgGhostNotAnswerable, "GHOST_NOT_ANSWERABLE")
	}

	existing, err := s.repos.UserBadge.Get(ctx, req.UserID, req.BadgeID)
	if err != nil {
		return nil, NewInternalError("failed to load badge record")
	}

	// Re-answering an unlocked badge requires a pending improvement right
	// bound to this badge.
	improving := existing != nil && existing.Success
	if improving {
		profile, perr := s.repos.Profile.GetByUserID(ctx, req.UserID)
		if perr != nil {
			return nil, NewInternalError("failed to load profile")
		}
		if profile == nil || profile.ImproveBadgeID == nil || *profile.ImproveBadgeID != req.BadgeID {
			return nil, NewBusinessError(msgAlreadyUnlocked, "ALREADY_UNLOCKED")
		}
	}

	result := engine.Evaluate(badge, cfg, req.Answer, req.Selected)

	// Unusable input: nothing recorded, the improvement right survives.
	if !result.Attempted {
		return &SubmitAnswerResponse{
			Success:   false,
			Message:   result.Message,
			Attempted: false,
		}, nil
	}

	answer := req.Answer
	message := result.Message
	success := result.OK
	level := result.Level

	if improving {
		decision := engine.CompareImprovement(existing.Level, result)
		switch decision {
		case engine.ImproveAccept:
			// keep evaluator outcome as-is
		case engine.ImproveKeepLevel:
			level = existing.Level
			message = msgLevelKept
		case engine.ImproveReject:
			success = true
			level = existing.Level
			answer = derefOr(existing.UserAnswer, "")
			message = msgNoImprovement
		case engine.ImproveDemote:
			success = false
			level = nil
		}
		// The right is consumed by any recorded attempt.
		if err := s.repos.Profile.SetImprovement(ctx, req.UserID, nil, 0); err != nil {
			s.logger.Warn("Failed to clear improvement right", zap.Error(err))
		}
	} else if !success {
		level = nil
	}

	record := &models.UserBadgeRecord{
		UserID:     req.UserID,
		BadgeID:    req.BadgeID,
		Success:    success,
		Level:      level,
		UserAnswer: &answer,
	}
	if err := s.repos.UserBadge.Upsert(ctx, record); err != nil {
		return nil, NewInternalError("failed to record answer")
	}

	totals, changes, err := s.recompute(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	s.publishAnswerEvents(ctx, req.UserID, badge, record, changes)

	return &SubmitAnswerResponse{
		Success:      success,
		Message:      message,
		Level:        level,
		Attempted:    true,
		BadgeCount:   totals.BadgeCount,
		SkillPoints:  totals.SkillPoints,
		Rank:         totals.Rank,
		GhostChanges: changes,
	}, nil
}

// RecomputeUser re-derives totals and ghost state for a user. Exposed for
// the flows that change unlock state outside of SubmitAnswer.
func (s *badgeService) RecomputeUser(ctx context.Context, userID int64) ([]ReconcileChange, error) {
	_, changes, err := s.recompute(ctx, userID)
	return changes, err
}

func (s *badgeService) RecentUnlocks(ctx context.Context, limit int) ([]*models.CommunityEntry, error) {
	entries, err := s.repos.UserBadge.RecentUnlocks(ctx, limit)
	if err != nil {
		return nil, NewInternalError("failed to load community feed")
	}
	return entries, nil
}

// ===============================
// DERIVATION
// ===============================

// recompute runs ghost reconciliation, persists the resulting flips, and
// writes the re-derived totals onto the profile.
func (s *badgeService) recompute(ctx context.Context, userID int64) (engine.Totals, []ReconcileChange, error) {
	badges, configs, err := s.loadCatalog(ctx)
	if err != nil {
		return engine.Totals{}, nil, err
	}

	recordsByID, err := s.repos.UserBadge.GetAllForUser(ctx, userID)
	if err != nil {
		return engine.Totals{}, nil, NewInternalError("failed to load badge records")
	}
	records := make([]*models.UserBadgeRecord, 0, len(recordsByID))
	for _, record := range recordsByID {
		records = append(records, record)
	}

	ops := engine.Reconcile(badges, configs, records)
	changes := make([]ReconcileChange, 0, len(ops))
	for _, op := range ops {
		if err := s.repos.UserBadge.SetUnlocked(ctx, userID, op.BadgeID, op.Unlock); err != nil {
			return engine.Totals{}, nil, NewInternalError("failed to apply ghost reconciliation")
		}

		if existing, ok := recordsByID[op.BadgeID]; ok {
			existing.Success = op.Unlock
		} else {
			flipped := &models.UserBadgeRecord{
				UserID:  userID,
				BadgeID: op.BadgeID,
				Success: op.Unlock,
			}
			recordsByID[op.BadgeID] = flipped
			records = append(records, flipped)
		}

		name := ""
		if badge, ok := badges[op.BadgeID]; ok {
			name = badge.Name
		}
		changes = append(changes, ReconcileChange{
			BadgeID:  op.BadgeID,
			Name:     name,
			Unlocked: op.Unlock,
		})
	}

	totals := engine.ComputeTotals(badges, configs, records)

	if err := s.repos.Profile.Ensure(ctx, userID); err != nil {
		return engine.Totals{}, nil, NewInternalError("failed to ensure profile")
	}
	oldProfile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return engine.Totals{}, nil, NewInternalError("failed to load profile")
	}
	if err := s.repos.Profile.UpdateTotals(ctx, userID, totals.BadgeCount, totals.SkillPoints, totals.Rank); err != nil {
		return engine.Totals{}, nil, NewInternalError("failed to update totals")
	}

	if oldProfile != nil && oldProfile.Rank != totals.Rank {
		if err := s.eventBus.PublishAsync(ctx, events.NewRankChangedEvent(userID, oldProfile.Rank, totals.Rank, totals.SkillPoints)); err != nil {
			s.logger.Debug("Failed to publish rank change", zap.Error(err))
		}
	}

	return totals, changes, nil
}

func (s *badgeService) loadCatalog(ctx context.Context) (map[int64]*models.Badge, map[int64]*engine.BadgeConfig, error) {
	catalog, err := s.repos.Badge.GetAll(ctx)
	if err != nil {
		return nil, nil, NewInternalError("failed to load badge catalog")
	}

	badges := make(map[int64]*models.Badge, len(catalog))
	configs := make(map[int64]*engine.BadgeConfig, len(catalog))
	for _, badge := range catalog {
		badges[badge.ID] = badge
		configs[badge.ID] = engine.Parse(badge.RawAnswer)
	}
	return badges, configs, nil
}

func (s *badgeService) publishAnswerEvents(ctx context.Context, userID int64, badge *models.Badge, record *models.UserBadgeRecord, changes []ReconcileChange) {
	publish := func(event events.Event) {
		if err := s.eventBus.PublishAsync(ctx, event); err != nil {
			s.logger.Debug("Failed to publish event",
				zap.String("event_type", event.GetEventType()),
				zap.Error(err),
			)
		}
	}

	publish(events.NewBadgeAnswerSubmittedEvent(userID, badge.ID, record.Success, record.Level))
	if record.Success {
		publish(events.NewBadgeUnlockedEvent(userID, badge.ID, badge.Name, record.Level, !record.WasEverUnlocked))
	}
	for _, change := range changes {
		publish(events.NewGhostBadgeReconciledEvent(userID, change.BadgeID, change.Unlocked))
	}
}

// ===============================
// VIEW BUILDING
// ===============================

func buildBadgeView(badge *models.Badge, cfg *engine.BadgeConfig, record *models.UserBadgeRecord) *BadgeView {
	view := &BadgeView{
		ID:         badge.ID,
		Name:       badge.Name,
		Emoji:      badge.Emoji,
		Theme:      badge.DisplayTheme(),
		Question:   badge.Question,
		LowSkill:   badge.LowSkill,
		AnswerType: string(engine.TypeText),
	}

	if cfg != nil {
		view.AnswerType = string(cfg.Type)
		view.DisplayPrefix = cfg.DisplayPrefix
		view.DisplaySuffix = cfg.DisplaySuffix
		view.IsGhost = cfg.IsGhost
		if cfg.IsGhost {
			view.GhostDisplayText = cfg.Ghost.DisplayText
		}
		switch {
		case cfg.Multi != nil:
			view.Options = optionValues(cfg.Multi.Options)
		case cfg.Single != nil:
			view.Options = optionValues(cfg.Single.Options)
		}
	}

	if record != nil {
		view.Unlocked = record.Success
		view.Level = record.Level
		view.WasEverUnlocked = record.WasEverUnlocked
		view.UpdatedAt = record.UpdatedAt
	}
	return view
}

func optionValues(options []engine.Option) []string {
	values := make([]string, 0, len(options))
	for _, option := range options {
		values = append(values, option.Value)
	}
	return values
}

func derefOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}
