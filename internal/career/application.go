package career

// Status is a recruitment pipeline application status.
type Status string

const (
	StatusRegistration         Status = "REGISTRATION"
	StatusTryout               Status = "TRYOUT"
	StatusSelection            Status = "SELECTION"
	StatusAnnouncementAccepted Status = "ANNOUNCEMENT_ACCEPTED"
	StatusAnnouncementRejected Status = "ANNOUNCEMENT_REJECTED"
)

// Track distinguishes a first posting from a lateral transfer.
type Track string

const (
	TrackDivision Track = "DIVISION"
	TrackMutation Track = "MUTATION"
)

// Day offsets from registration at which each later stage may run.
const (
	TryoutOffset       = 1
	SelectionOffset    = 2
	AnnouncementOffset = 3
)

// AcceptCutoff is the final score an applicant needs to claim a quota slot.
const AcceptCutoff = 68

// Rejection reasons.
const (
	RejectLowScore   = "SCORE_BELOW_CUTOFF"
	RejectQuotaFull  = "QUOTA_FULL"
	RejectCooldown   = "QUOTA_COOLDOWN"
	RejectNoQuota    = "NO_QUOTA"
	RejectNoDivision = "UNKNOWN_DIVISION"
)

// Application is one NPC's attempt to join one division.
type Application struct {
	ApplicationID   string  `json:"application_id"`
	WorldID         string  `json:"world_id"`
	NpcID           string  `json:"npc_id"`
	NpcName         string  `json:"npc_name"`
	Division        string  `json:"division"`
	Track           Track   `json:"track"`
	Status          Status  `json:"status"`
	RegisteredDay   int     `json:"registered_day"`
	TryoutDay       *int    `json:"tryout_day,omitempty"`
	SelectionDay    *int    `json:"selection_day,omitempty"`
	AnnouncementDay *int    `json:"announcement_day,omitempty"`
	TryoutScore     float64 `json:"tryout_score"`
	FinalScore      float64 `json:"final_score"`
	RejectReason    string  `json:"reject_reason,omitempty"`
}

// Terminal reports whether the application has been announced.
func (a *Application) Terminal() bool {
	return a.Status == StatusAnnouncementAccepted || a.Status == StatusAnnouncementRejected
}

// NextStageDay is the first day the application may leave its current status.
func (a *Application) NextStageDay() int {
	switch a.Status {
	case StatusRegistration:
		return a.RegisteredDay + TryoutOffset
	case StatusTryout:
		return a.RegisteredDay + SelectionOffset
	case StatusSelection:
		return a.RegisteredDay + AnnouncementOffset
	}
	return a.RegisteredDay
}

// AcceptedReason is the assignment history reason for an accepted track.
func (t Track) AcceptedReason() string {
	return string(t) + "_PIPELINE_ACCEPTED"
}
