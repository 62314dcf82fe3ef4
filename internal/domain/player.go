package domain

import "time"

// Количество фрагментов в игре и обязательный набор для сжигания
const (
	FragmentCount = 8

	// фрагменты 1-3 обязательны, без них burn недоступен
	MandatoryFragmentMin = 1
	MandatoryFragmentMax = 3
)

// Player — запись игрока в таблице players
type Player struct {
	TgID      int64     `db:"tg_id" json:"tg_id"`
	Name      string    `db:"name" json:"name"`
	Fragments []int     `db:"fragments" json:"fragments"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// окно финала и даты последней попытки
	NextFinalWindow time.Time  `db:"next_final_window" json:"next_final_window"`
	LastFinalSubmit *time.Time `db:"last_final_submit" json:"last_final_submit"`
	Completed       bool       `db:"completed" json:"completed"`

	// проклятие блокирует сжигания до истечения
	CurseExpires *time.Time `db:"curse_expires" json:"curse_expires"`

	ReferralCode         string `db:"referral_code" json:"referral_code"`
	ReferredBy           *int64 `db:"referred_by" json:"referred_by,omitempty"`
	InvitedCount         int    `db:"invited_count" json:"invited_count"`
	ReferralRewardIssued bool   `db:"referral_reward_issued" json:"referral_reward_issued"`
}

// HasFragment проверяет наличие фрагмента у игрока
func (p *Player) HasFragment(n int) bool {
	for _, f := range p.Fragments {
		if f == n {
			return true
		}
	}
	return false
}

// HasMandatoryFragments проверяет наличие всех обязательных фрагментов (1-3)
func (p *Player) HasMandatoryFragments() bool {
	for n := MandatoryFragmentMin; n <= MandatoryFragmentMax; n++ {
		if !p.HasFragment(n) {
			return false
		}
	}
	return true
}

// IsCursed проверяет действует ли проклятие в момент now
func (p *Player) IsCursed(now time.Time) bool {
	return p.CurseExpires != nil && p.CurseExpires.After(now)
}

// MissingFragments возвращает фрагменты, которых у игрока еще нет
func (p *Player) MissingFragments() []int {
	var missing []int
	for n := 1; n <= FragmentCount; n++ {
		if !p.HasFragment(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// LeaderboardEntry — строка глобального топа
type LeaderboardEntry struct {
	TgID           int64  `json:"tg_id"`
	Name           string `json:"name"`
	FragmentsCount int    `json:"fragmentsCount"`
}

// ReferralSummary — сводка по рефералам для ответа /api/referral
type ReferralSummary struct {
	RefCode      string `json:"refCode"`
	InvitedCount int    `json:"invitedCount"`
	RewardIssued bool   `json:"rewardIssued"`
	Threshold    int    `json:"threshold"`
	Link         string `json:"link"`
}
