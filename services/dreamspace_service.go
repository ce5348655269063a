package services

import (
	"fmt"
	"math/rand"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DreamspaceTriggerProbability is the fixed Bernoulli probability that a
// roll grants anything at all. Memoryless: no per-user state feeds in.
const DreamspaceTriggerProbability = 0.02

// dreamspaceCandidateCap bounds the candidate list a winning roll picks from.
const dreamspaceCandidateCap = 25

// dreamspaceGrantXP is the flat XP attached to a dreamspace grant.
const dreamspaceGrantXP = 20

// DreamspaceService handles the random surprise-grant roll. The random
// source is injectable so tests can force either branch.
type DreamspaceService struct {
	DB      *gorm.DB
	Economy *EconomyService

	// Roll returns a uniform draw in [0,1); Pick returns a uniform int in
	// [0,n). Both default to math/rand.
	Roll func() float64
	Pick func(n int) int
}

func NewDreamspaceService(db *gorm.DB, economy *EconomyService) *DreamspaceService {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &DreamspaceService{
		DB:      db,
		Economy: economy,
		Roll:    rng.Float64,
		Pick:    rng.Intn,
	}
}

// DreamspaceResult is the roll outcome. A miss carries no grant and writes
// nothing.
type DreamspaceResult struct {
	Triggered bool                    `json:"triggered"`
	Rolled    float64                 `json:"rolled"`
	Grant     *models.DreamspaceGrant `json:"grant,omitempty"`
}

// dreamspaceCandidate is one entry of the capped pick list.
type dreamspaceCandidate struct {
	Kind  string
	ID    string
	Title string
}

// RollForGrant performs the Bernoulli draw. On a hit, one eligible entity is
// chosen uniformly from the capped candidate list and granted along with the
// flat XP reward.
func (s *DreamspaceService) RollForGrant(externalUserID string) (*DreamspaceResult, error) {
	if _, err := s.Economy.EnsureActor(externalUserID); err != nil {
		return nil, err
	}

	rolled := s.Roll()
	if rolled >= DreamspaceTriggerProbability {
		return &DreamspaceResult{Triggered: false, Rolled: rolled}, nil
	}

	candidates, err := s.candidates()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &DreamspaceResult{Triggered: false, Rolled: rolled}, nil
	}

	chosen := candidates[s.Pick(len(candidates))]

	grant := models.DreamspaceGrant{
		ID:          uuid.NewString(),
		UserID:      externalUserID,
		EntityKind:  chosen.Kind,
		EntityID:    chosen.ID,
		EntityTitle: chosen.Title,
		Rolled:      rolled,
		RewardXP:    dreamspaceGrantXP,
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		_, err := s.Economy.ApplyDelta(tx, externalUserID, BalanceDelta{XP: dreamspaceGrantXP})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "dreamspace_grant",
		EntityKind: grant.EntityKind,
		EntityID:   grant.EntityID,
		XPDelta:    dreamspaceGrantXP,
		Detail:     fmt.Sprintf("dreamspace surfaced %q (rolled %.4f)", grant.EntityTitle, rolled),
	})
	s.Economy.Ledger.Notify(externalUserID, "dreamspace", "The dreamspace stirs",
		fmt.Sprintf("%q has surfaced for you", grant.EntityTitle))

	return &DreamspaceResult{Triggered: true, Rolled: rolled, Grant: &grant}, nil
}

// candidates collects up to the cap of active quests, rituals and forks.
func (s *DreamspaceService) candidates() ([]dreamspaceCandidate, error) {
	var out []dreamspaceCandidate

	var quests []models.Quest
	if err := s.DB.Where("is_active = ?", true).Limit(dreamspaceCandidateCap).Find(&quests).Error; err != nil {
		return nil, err
	}
	for _, q := range quests {
		out = append(out, dreamspaceCandidate{Kind: "quest", ID: q.ID, Title: q.Title})
	}

	var rituals []models.Ritual
	if err := s.DB.Where("is_active = ?", true).Limit(dreamspaceCandidateCap).Find(&rituals).Error; err != nil {
		return nil, err
	}
	for _, r := range rituals {
		out = append(out, dreamspaceCandidate{Kind: "ritual", ID: r.ID, Title: r.Title})
	}

	var forks []models.DailyFork
	if err := s.DB.Where("is_active = ?", true).Limit(dreamspaceCandidateCap).Find(&forks).Error; err != nil {
		return nil, err
	}
	for _, f := range forks {
		out = append(out, dreamspaceCandidate{Kind: "fork", ID: f.ID, Title: f.Title})
	}

	if len(out) > dreamspaceCandidateCap {
		out = out[:dreamspaceCandidateCap]
	}
	return out, nil
}
