package domain

// Participant is a reference to someone taking part in a thread.
// Email and DisplayName are optional.
type Participant struct {
	UserID      UserID `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Thread is one coordination task (schedule a meeting or draft an email)
// with its own lifecycle.
//
// Proposal is set iff Status is proposed, approved or done.
// ExecutedAt is set iff Status is done.
type Thread struct {
	ID           ThreadID
	OwnerID      UserID
	Kind         ThreadKind
	Status       ThreadStatus
	Prompt       string
	Participants []Participant

	Proposal   *Proposal
	ExecutedAt *Timestamp

	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// ThreadPatch is a partial update. Nil fields are left unchanged.
type ThreadPatch struct {
	Status     *ThreadStatus
	Proposal   *Proposal
	ExecutedAt *Timestamp
	UpdatedAt  *Timestamp

	// ExpectStatus turns the update into a compare-and-swap on the stored status.
	ExpectStatus *ThreadStatus
}

// Apply merges the patch into t.
func (p ThreadPatch) Apply(t *Thread) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Proposal != nil {
		t.Proposal = p.Proposal
	}
	if p.ExecutedAt != nil {
		at := *p.ExecutedAt
		t.ExecutedAt = &at
	}
	if p.UpdatedAt != nil {
		t.UpdatedAt = *p.UpdatedAt
	}
}

// IsParticipant reports whether userID is the owner or one of the participants.
func (t *Thread) IsParticipant(userID UserID) bool {
	if t.OwnerID == userID {
		return true
	}
	for _, p := range t.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// OtherParticipantIDs returns participant ids in order, excluding the owner.
func (t *Thread) OtherParticipantIDs() []UserID {
	out := make([]UserID, 0, len(t.Participants))
	for _, p := range t.Participants {
		if p.UserID == t.OwnerID {
			continue
		}
		out = append(out, p.UserID)
	}
	return out
}

// UniqueParticipants drops repeated user ids, keeping the first occurrence.
func UniqueParticipants(in []Participant) []Participant {
	seen := make(map[UserID]struct{}, len(in))
	out := make([]Participant, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		out = append(out, p)
	}
	return out
}
