// file: internal/services/reward_service.go
package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"badgehub/internal/engine"
	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"go.uber.org/zap"
)

const (
	msgNotEnoughTokens    = "Pas assez de jetons"
	msgNothingToImprove   = "Aucune amélioration en cours"
	msgImproveInProgress  = "Une amélioration est déjà en cours"
	msgDailyAlreadyTaken  = "Bonus quotidien déjà réclamé aujourd'hui"
	msgBadgeNotImprovable = "Ce badge n'est pas débloqué"
)

// rewardService implements RewardService
type rewardService struct {
	repos    *repositories.Collection
	badges   BadgeService
	eventBus events.EventBus
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRewardService creates a new reward service
func NewRewardService(
	repos *repositories.Collection,
	badges BadgeService,
	eventBus events.EventBus,
	logger *zap.Logger,
) RewardService {
	return &rewardService{
		repos:    repos,
		badges:   badges,
		eventBus: eventBus,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewRewardServiceWithRand creates a reward service with a caller-supplied
// random source. Tests use this to make spins deterministic.
func NewRewardServiceWithRand(
	repos *repositories.Collection,
	badges BadgeService,
	eventBus events.EventBus,
	logger *zap.Logger,
	rng *rand.Rand,
) RewardService {
	return &rewardService{
		repos:    repos,
		badges:   badges,
		eventBus: eventBus,
		logger:   logger,
		rng:      rng,
	}
}

// ===============================
// WHEEL
// ===============================

func (s *rewardService) SpinWheel(ctx context.Context, userID int64) (*SpinResponse, error) {
	// Deduct the spin cost first; the guard in SQL keeps the balance
	// non-negative under concurrent spins.
	balance, err := s.repos.Profile.AdjustTokens(ctx, userID, -engine.SpinCost)
	if err != nil {
		if err == repositories.ErrInsufficientTokens {
			return nil, NewBusinessError(msgNotEnoughTokens, "INSUFFICIENT_TOKENS")
		}
		return nil, NewInternalError("failed to deduct spin cost")
	}

	eligible, lockedByTheme, unlockedRegular, err := s.wheelState(ctx, userID)
	if err != nil {
		// Refund on any failure after the deduction.
		s.refund(ctx, userID, engine.SpinCost)
		return nil, err
	}

	s.mu.Lock()
	outcome := engine.Spin(s.rng, eligible)
	s.mu.Unlock()

	resp := &SpinResponse{
		Joker:       outcome.Joker,
		Theme:       outcome.Theme,
		TokensDelta: -engine.SpinCost,
		Balance:     balance,
	}

	if !outcome.Joker {
		if candidates := lockedByTheme[outcome.Theme]; len(candidates) > 0 {
			s.mu.Lock()
			pick := candidates[s.rng.Intn(len(candidates))]
			s.mu.Unlock()
			resp.Badge = buildBadgeView(pick, engine.Parse(pick.RawAnswer), nil)
		}
		s.publishSpin(ctx, userID, resp)
		return resp, nil
	}

	resp.JokerOutcome = string(outcome.Sub)

	switch outcome.Sub {
	case engine.JokerMalus:
		if len(unlockedRegular) > 0 {
			s.mu.Lock()
			victim := unlockedRegular[s.rng.Intn(len(unlockedRegular))]
			s.mu.Unlock()
			if err := s.repos.UserBadge.SetUnlocked(ctx, userID, victim.ID, false); err != nil {
				s.refund(ctx, userID, engine.SpinCost)
				return nil, NewInternalError("failed to apply malus")
			}
			if _, err := s.badges.RecomputeUser(ctx, userID); err != nil {
				return nil, err
			}
			resp.MalusBadge = buildBadgeView(victim, engine.Parse(victim.RawAnswer), nil)
		}

	case engine.JokerModify:
		// A discounted re-answer offer; the badge is chosen at redemption.
		// An active paid right must not be wiped by the offer, so its cost
		// is returned before the columns are overwritten.
		profile, err := s.repos.Profile.GetByUserID(ctx, userID)
		if err != nil {
			s.refund(ctx, userID, engine.SpinCost)
			return nil, NewInternalError("failed to load profile")
		}
		if profile != nil && profile.ImproveBadgeID != nil {
			newBalance, err := s.repos.Profile.AdjustTokens(ctx, userID, profile.ImproveCost)
			if err != nil {
				s.refund(ctx, userID, engine.SpinCost)
				return nil, NewInternalError("failed to release active improvement")
			}
			resp.TokensDelta += profile.ImproveCost
			resp.Balance = newBalance
		}
		if err := s.repos.Profile.SetImprovement(ctx, userID, nil, engine.ModifyCost); err != nil {
			s.refund(ctx, userID, engine.SpinCost)
			return nil, NewInternalError("failed to grant improvement offer")
		}

	case engine.JokerTokens:
		newBalance, err := s.repos.Profile.AdjustTokens(ctx, userID, engine.BonusTokens)
		if err != nil {
			s.refund(ctx, userID, engine.SpinCost)
			return nil, NewInternalError("failed to grant token bonus")
		}
		resp.TokensDelta += engine.BonusTokens
		resp.Balance = newBalance
	}

	s.publishSpin(ctx, userID, resp)
	return resp, nil
}

// wheelState partitions the catalog for one spin: themes that still hold a
// locked non-ghost badge, those locked badges grouped by theme, and the
// unlocked non-ghost badges the malus can target.
func (s *rewardService) wheelState(ctx context.Context, userID int64) ([]string, map[string][]*models.Badge, []*models.Badge, error) {
	catalog, err := s.repos.Badge.GetAll(ctx)
	if err != nil {
		return nil, nil, nil, NewInternalError("failed to load badge catalog")
	}
	records, err := s.repos.UserBadge.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, NewInternalError("failed to load badge records")
	}

	lockedByTheme := make(map[string][]*models.Badge)
	var unlockedRegular []*models.Badge
	for _, badge := range catalog {
		cfg := engine.Parse(badge.RawAnswer)
		if cfg != nil && cfg.IsGhost {
			continue
		}
		record := records[badge.ID]
		if record != nil && record.Success {
			unlockedRegular = append(unlockedRegular, badge)
			continue
		}
		theme := badge.DisplayTheme()
		lockedByTheme[theme] = append(lockedByTheme[theme], badge)
	}

	eligible := make([]string, 0, len(lockedByTheme))
	for theme := range lockedByTheme {
		eligible = append(eligible, theme)
	}
	return eligible, lockedByTheme, unlockedRegular, nil
}

func (s *rewardService) refund(ctx context.Context, userID int64, amount int) {
	if _, err := s.repos.Profile.AdjustTokens(ctx, userID, amount); err != nil {
		s.logger.Error("Failed to refund tokens",
			zap.Int64("user_id", userID),
			zap.Int("amount", amount),
			zap.Error(err),
		)
	}
}

func (s *rewardService) publishSpin(ctx context.Context, userID int64, resp *SpinResponse) {
	event := events.NewWheelSpunEvent(userID, resp.Joker, resp.JokerOutcome, resp.Theme)
	if err := s.eventBus.PublishAsync(ctx, event); err != nil {
		s.logger.Debug("Failed to publish spin event", zap.Error(err))
	}
	tokens := events.NewTokensChangedEvent(userID, resp.TokensDelta, resp.Balance, "wheel_spin")
	if err := s.eventBus.PublishAsync(ctx, tokens); err != nil {
		s.logger.Debug("Failed to publish token event", zap.Error(err))
	}
}

// ===============================
// IMPROVEMENTS
// ===============================

// StartImprovement binds the pending re-answer right to a badge. A wheel-won
// offer is redeemed at the discounted cost; otherwise the full cost applies.
func (s *rewardService) StartImprovement(ctx context.Context, userID, badgeID int64) (*ImprovementResponse, error) {
	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	if profile == nil {
		return nil, EntityNotFoundError("profile", userID)
	}
	if profile.ImproveBadgeID != nil {
		return nil, NewBusinessError(msgImproveInProgress, "IMPROVEMENT_IN_PROGRESS")
	}

	record, err := s.repos.UserBadge.Get(ctx, userID, badgeID)
	if err != nil {
		return nil, NewInternalError("failed to load badge record")
	}
	if record == nil || !record.Success {
		return nil, NewBusinessError(msgBadgeNotImprovable, "BADGE_NOT_UNLOCKED")
	}

	cost := engine.ImproveCost
	if profile.ImproveCost == engine.ModifyCost {
		cost = engine.ModifyCost
	}

	balance, err := s.repos.Profile.AdjustTokens(ctx, userID, -cost)
	if err != nil {
		if err == repositories.ErrInsufficientTokens {
			return nil, NewBusinessError(msgNotEnoughTokens, "INSUFFICIENT_TOKENS")
		}
		return nil, NewInternalError("failed to deduct improvement cost")
	}

	if err := s.repos.Profile.SetImprovement(ctx, userID, &badgeID, cost); err != nil {
		s.refund(ctx, userID, cost)
		return nil, NewInternalError("failed to start improvement")
	}

	event := events.NewTokensChangedEvent(userID, -cost, balance, "improvement")
	if err := s.eventBus.PublishAsync(ctx, event); err != nil {
		s.logger.Debug("Failed to publish token event", zap.Error(err))
	}

	return &ImprovementResponse{
		BadgeID: &badgeID,
		Cost:    cost,
		Balance: balance,
	}, nil
}

// CancelImprovement refunds the deducted cost and clears the right
func (s *rewardService) CancelImprovement(ctx context.Context, userID int64) (*ImprovementResponse, error) {
	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	if profile == nil || profile.ImproveBadgeID == nil {
		return nil, NewBusinessError(msgNothingToImprove, "NO_IMPROVEMENT")
	}

	balance, err := s.repos.Profile.AdjustTokens(ctx, userID, profile.ImproveCost)
	if err != nil {
		return nil, NewInternalError("failed to refund improvement cost")
	}
	if err := s.repos.Profile.SetImprovement(ctx, userID, nil, 0); err != nil {
		return nil, NewInternalError("failed to cancel improvement")
	}

	event := events.NewTokensChangedEvent(userID, profile.ImproveCost, balance, "improvement_cancelled")
	if err := s.eventBus.PublishAsync(ctx, event); err != nil {
		s.logger.Debug("Failed to publish token event", zap.Error(err))
	}

	return &ImprovementResponse{Cost: 0, Balance: balance}, nil
}

// ===============================
// DAILY BONUS
// ===============================

// ClaimDailyBonus grants one token per calendar day (UTC)
func (s *rewardService) ClaimDailyBonus(ctx context.Context, userID int64) (*DailyBonusResponse, error) {
	if err := s.repos.Profile.Ensure(ctx, userID); err != nil {
		return nil, NewInternalError("failed to ensure profile")
	}
	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	if profile == nil {
		return nil, EntityNotFoundError("profile", userID)
	}

	now := time.Now().UTC()
	if profile.LastDailyClaim != nil && sameDay(profile.LastDailyClaim.UTC(), now) {
		return nil, NewBusinessError(msgDailyAlreadyTaken, "DAILY_ALREADY_CLAIMED")
	}

	balance, err := s.repos.Profile.AdjustTokens(ctx, userID, 1)
	if err != nil {
		return nil, NewInternalError("failed to grant daily bonus")
	}
	if err := s.repos.Profile.SetLastDailyClaim(ctx, userID, now); err != nil {
		return nil, NewInternalError("failed to record daily claim")
	}

	if err := s.eventBus.PublishAsync(ctx, events.NewDailyBonusClaimedEvent(userID, now)); err != nil {
		s.logger.Debug("Failed to publish daily bonus event", zap.Error(err))
	}

	return &DailyBonusResponse{
		Granted:   1,
		Balance:   balance,
		ClaimedAt: now,
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
