// file: internal/services/fakes_test.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"badgehub/internal/models"
	"badgehub/internal/repositories"
)

// In-memory repository fakes. They mirror the semantics the SQL layer
// guarantees: monotonic was_ever_unlocked, the non-negative token guard,
// and not-found reported as a nil entity.

type recordKey struct {
	userID  int64
	badgeID int64
}

// ===============================
// BADGES
// ===============================

type fakeBadgeRepo struct {
	mu     sync.Mutex
	nextID int64
	badges map[int64]*models.Badge
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{badges: make(map[int64]*models.Badge)}
}

func (r *fakeBadgeRepo) Create(_ context.Context, badge *models.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	badge.ID = r.nextID
	if badge.Theme == "" {
		badge.Theme = models.DefaultTheme
	}
	badge.CreatedAt = time.Now()
	copied := *badge
	r.badges[badge.ID] = &copied
	return nil
}

func (r *fakeBadgeRepo) GetByID(_ context.Context, id int64) (*models.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	badge, ok := r.badges[id]
	if !ok {
		return nil, nil
	}
	copied := *badge
	return &copied, nil
}

func (r *fakeBadgeRepo) GetAll(_ context.Context) ([]*models.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Badge, 0, len(r.badges))
	for _, badge := range r.badges {
		copied := *badge
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakeBadgeRepo) List(ctx context.Context, theme string, params models.PaginationParams) (*models.PaginatedResponse[*models.Badge], error) {
	params.Normalize()
	all, _ := r.GetAll(ctx)
	filtered := all[:0]
	for _, badge := range all {
		if theme == "" || strings.EqualFold(badge.DisplayTheme(), theme) {
			filtered = append(filtered, badge)
		}
	}
	total := int64(len(filtered))
	start := params.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + params.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return &models.PaginatedResponse[*models.Badge]{
		Data: filtered[start:end],
		Pagination: models.PaginationMeta{
			TotalItems:   total,
			ItemsPerPage: params.Limit,
		},
	}, nil
}

func (r *fakeBadgeRepo) ListThemes(ctx context.Context) ([]string, error) {
	all, _ := r.GetAll(ctx)
	seen := make(map[string]bool)
	var themes []string
	for _, badge := range all {
		theme := badge.DisplayTheme()
		if !seen[theme] {
			seen[theme] = true
			themes = append(themes, theme)
		}
	}
	sort.Strings(themes)
	return themes, nil
}

func (r *fakeBadgeRepo) Update(_ context.Context, badge *models.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.badges[badge.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *badge
	r.badges[badge.ID] = &copied
	return nil
}

func (r *fakeBadgeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.badges[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.badges, id)
	return nil
}

// ===============================
// USER BADGE RECORDS
// ===============================

type fakeUserBadgeRepo struct {
	mu      sync.Mutex
	records map[recordKey]*models.UserBadgeRecord
	feed    []*models.CommunityEntry
}

func newFakeUserBadgeRepo() *fakeUserBadgeRepo {
	return &fakeUserBadgeRepo{records: make(map[recordKey]*models.UserBadgeRecord)}
}

func (r *fakeUserBadgeRepo) Upsert(_ context.Context, record *models.UserBadgeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{record.UserID, record.BadgeID}
	stored := &models.UserBadgeRecord{
		UserID:     record.UserID,
		BadgeID:    record.BadgeID,
		Success:    record.Success,
		Level:      record.Level,
		UserAnswer: record.UserAnswer,
		UpdatedAt:  time.Now(),
	}
	if prev, ok := r.records[key]; ok {
		stored.WasEverUnlocked = prev.WasEverUnlocked || record.Success
	} else {
		stored.WasEverUnlocked = record.Success
	}
	r.records[key] = stored
	record.WasEverUnlocked = stored.WasEverUnlocked
	record.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeUserBadgeRepo) Get(_ context.Context, userID, badgeID int64) (*models.UserBadgeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[recordKey{userID, badgeID}]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *fakeUserBadgeRepo) GetAllForUser(_ context.Context, userID int64) (map[int64]*models.UserBadgeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*models.UserBadgeRecord)
	for key, record := range r.records {
		if key.userID == userID {
			copied := *record
			out[key.badgeID] = &copied
		}
	}
	return out, nil
}

func (r *fakeUserBadgeRepo) SetUnlocked(_ context.Context, userID, badgeID int64, unlocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{userID, badgeID}
	record, ok := r.records[key]
	if !ok {
		record = &models.UserBadgeRecord{UserID: userID, BadgeID: badgeID}
		r.records[key] = record
	}
	record.Success = unlocked
	record.WasEverUnlocked = record.WasEverUnlocked || unlocked
	record.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserBadgeRepo) RecentUnlocks(_ context.Context, limit int) ([]*models.CommunityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.feed) {
		limit = len(r.feed)
	}
	return r.feed[:limit], nil
}

// ===============================
// PROFILES
// ===============================

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[int64]*models.Profile

	// failAdjustOn makes the n-th AdjustTokens call after it is set fail,
	// for exercising refund paths.
	failAdjustOn int
	adjustCalls  int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int64]*models.Profile)}
}

func (r *fakeProfileRepo) Ensure(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		r.profiles[userID] = &models.Profile{
			UserID: userID,
			Tokens: 3,
			Rank:   "Novice",
		}
	}
	return nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID int64) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) UpdateTotals(_ context.Context, userID int64, badgeCount, skillPoints int, rank string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[userID]; ok {
		profile.BadgeCount = badgeCount
		profile.SkillPoints = skillPoints
		profile.Rank = rank
	}
	return nil
}

func (r *fakeProfileRepo) AdjustTokens(_ context.Context, userID int64, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdjustOn > 0 {
		r.adjustCalls++
		if r.adjustCalls == r.failAdjustOn {
			return 0, errors.New("storage unavailable")
		}
	}
	profile, ok := r.profiles[userID]
	if !ok || profile.Tokens+delta < 0 {
		return 0, repositories.ErrInsufficientTokens
	}
	profile.Tokens += delta
	return profile.Tokens, nil
}

func (r *fakeProfileRepo) SetImprovement(_ context.Context, userID int64, badgeID *int64, cost int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[userID]; ok {
		profile.ImproveBadgeID = badgeID
		profile.ImproveCost = cost
	}
	return nil
}

func (r *fakeProfileRepo) SetLastDailyClaim(_ context.Context, userID int64, claimedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[userID]; ok {
		profile.LastDailyClaim = &claimedAt
	}
	return nil
}

func (r *fakeProfileRepo) Leaderboard(_ context.Context, params models.PaginationParams) (*models.PaginatedResponse[*models.Profile], error) {
	params.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		copied := *profile
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SkillPoints != all[j].SkillPoints {
			return all[i].SkillPoints > all[j].SkillPoints
		}
		return all[i].BadgeCount > all[j].BadgeCount
	})
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return &models.PaginatedResponse[*models.Profile]{
		Data:       all,
		Pagination: models.PaginationMeta{TotalItems: int64(len(all))},
	}, nil
}

// ===============================
// USERS & SESSIONS
// ===============================

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	user.Email = strings.ToLower(user.Email)
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.LastSeen = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.GoogleID != nil && *user.GoogleID == googleID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) LinkGoogleID(_ context.Context, userID int64, googleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.GoogleID = &googleID
		user.EmailVerified = true
	}
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL, publicID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.AvatarURL = avatarURL
		user.AvatarPublicID = publicID
	}
	return nil
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, userID int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.Username = username
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastSeen(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.LastSeen = time.Now()
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok && session.RevokedAt == nil {
		now := time.Now()
		session.RevokedAt = &now
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllForUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, session := range r.sessions {
		if time.Now().After(session.ExpiresAt) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// ===============================
// WIRING
// ===============================

func newTestRepos() *repositories.Collection {
	return &repositories.Collection{
		Badge:     newFakeBadgeRepo(),
		UserBadge: newFakeUserBadgeRepo(),
		Profile:   newFakeProfileRepo(),
		User:      newFakeUserRepo(),
		Session:   newFakeSessionRepo(),
	}
}
