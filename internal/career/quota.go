package career

// QuotaStatus is a division quota's availability.
type QuotaStatus string

const (
	QuotaOpen     QuotaStatus = "OPEN"
	QuotaCooldown QuotaStatus = "COOLDOWN"
)

// Quota is one division's bounded intake capacity in one world.
type Quota struct {
	WorldID          string      `json:"world_id" db:"world_id"`
	Division         string      `json:"division" db:"division"`
	Total            int         `json:"quota_total" db:"quota_total"`
	Used             int         `json:"quota_used" db:"quota_used"`
	Remaining        int         `json:"quota_remaining" db:"quota_remaining"`
	Status           QuotaStatus `json:"status" db:"status"`
	CooldownUntilDay int         `json:"cooldown_until_day" db:"cooldown_until_day"`
	CooldownDays     int         `json:"cooldown_days" db:"cooldown_days"`
}

// reopen restores a full quota once its cooldown has elapsed.
func (q *Quota) reopen(day int) {
	if q.Status == QuotaCooldown && day >= q.CooldownUntilDay {
		q.Status = QuotaOpen
		q.Used = 0
		q.Remaining = q.Total
	}
}

// Slack is the number of places left, counting an elapsed cooldown as full.
func (q *Quota) Slack(day int) int {
	if q.Status == QuotaCooldown {
		if day < q.CooldownUntilDay {
			return 0
		}
		return q.Total
	}
	return q.Remaining
}

// Reserve takes one place. It returns "" on success or a rejection reason.
// Taking the last place puts the quota on cooldown.
func (q *Quota) Reserve(day int) string {
	q.reopen(day)
	if q.Status == QuotaCooldown {
		return RejectCooldown
	}
	if q.Remaining <= 0 {
		return RejectQuotaFull
	}
	q.Remaining--
	q.Used++
	if q.Remaining == 0 {
		q.Status = QuotaCooldown
		q.CooldownUntilDay = day + q.CooldownDays
	}
	return ""
}
