package model

import (
	"time"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

type ConceptAction string

const (
	ConceptMaster   ConceptAction = "master"
	ConceptStruggle ConceptAction = "struggle"
	ConceptRemove   ConceptAction = "remove"
)

func (a ConceptAction) Valid() bool {
	switch a {
	case ConceptMaster, ConceptStruggle, ConceptRemove:
		return true
	}
	return false
}

// Message is one entry in a user's conversation history.
// Timestamp is epoch milliseconds, matching the wire format.
type Message struct {
	Role      string `json:"role"` // "user" | "assistant" | "system"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// UserState is the aggregate root for one student's learning profile
// and chat history. Exactly one record exists per user id.
type UserState struct {
	UserID              string     `json:"userId"`
	CurrentLanguage     string     `json:"currentLanguage"`
	CurrentTopic        string     `json:"currentTopic"`
	MasteredConcepts    []string   `json:"masteredConcepts"`
	StruggleAreas       []string   `json:"struggleAreas"`
	ConversationHistory []Message  `json:"conversationHistory"`
	SkillLevel          SkillLevel `json:"skillLevel"`
	CreatedAt           int64      `json:"createdAt"`
	LastUpdated         int64      `json:"lastUpdated"`
}

func NewUserState(userID string) *UserState {
	now := nowMillis()
	return &UserState{
		UserID:              userID,
		MasteredConcepts:    []string{},
		StruggleAreas:       []string{},
		ConversationHistory: []Message{},
		SkillLevel:          SkillBeginner,
		CreatedAt:           now,
		LastUpdated:         now,
	}
}

// StateUpdate is a partial UserState: nil/empty fields are left untouched
// by Apply. List fields are whole-value overwrites; concept membership
// changes go through ClassifyConcept instead.
type StateUpdate struct {
	CurrentLanguage  *string     `json:"currentLanguage,omitempty"`
	CurrentTopic     *string     `json:"currentTopic,omitempty"`
	SkillLevel       *SkillLevel `json:"skillLevel,omitempty"`
	MasteredConcepts []string    `json:"masteredConcepts,omitempty"`
	StruggleAreas    []string    `json:"struggleAreas,omitempty"`
}

func (u StateUpdate) Empty() bool {
	return u.CurrentLanguage == nil && u.CurrentTopic == nil && u.SkillLevel == nil &&
		u.MasteredConcepts == nil && u.StruggleAreas == nil
}

// Apply shallow-merges the set fields of upd into the record and
// refreshes LastUpdated.
func (s *UserState) Apply(upd StateUpdate) {
	if upd.CurrentLanguage != nil {
		s.CurrentLanguage = *upd.CurrentLanguage
	}
	if upd.CurrentTopic != nil {
		s.CurrentTopic = *upd.CurrentTopic
	}
	if upd.SkillLevel != nil {
		s.SkillLevel = *upd.SkillLevel
	}
	if upd.MasteredConcepts != nil {
		s.MasteredConcepts = append([]string{}, upd.MasteredConcepts...)
	}
	if upd.StruggleAreas != nil {
		s.StruggleAreas = append([]string{}, upd.StruggleAreas...)
	}
	s.touch()
}

// AppendMessage stamps the message if it carries no timestamp, appends it,
// and drops the oldest entries once the history exceeds window.
func (s *UserState) AppendMessage(m Message, window int) Message {
	if m.Timestamp == 0 {
		m.Timestamp = nowMillis()
	}
	s.ConversationHistory = append(s.ConversationHistory, m)
	if window > 0 && len(s.ConversationHistory) > window {
		s.ConversationHistory = s.ConversationHistory[len(s.ConversationHistory)-window:]
	}
	s.touch()
	return m
}

// RecentMessages returns the last n history entries in original order.
func (s *UserState) RecentMessages(n int) []Message {
	if n <= 0 || len(s.ConversationHistory) <= n {
		return s.ConversationHistory
	}
	return s.ConversationHistory[len(s.ConversationHistory)-n:]
}

// ClassifyConcept moves a concept between the mastered and struggling sets.
// Mastering removes the concept from the struggle list; both inserts are
// idempotent. Remove deletes the concept from both sets.
func (s *UserState) ClassifyConcept(concept string, action ConceptAction) {
	switch action {
	case ConceptMaster:
		s.MasteredConcepts = appendUnique(s.MasteredConcepts, concept)
		s.StruggleAreas = remove(s.StruggleAreas, concept)
	case ConceptStruggle:
		s.StruggleAreas = appendUnique(s.StruggleAreas, concept)
	case ConceptRemove:
		s.MasteredConcepts = remove(s.MasteredConcepts, concept)
		s.StruggleAreas = remove(s.StruggleAreas, concept)
	}
	s.touch()
}

// Reset discards history, concept sets and profile fields, keeping only
// the user identity. CreatedAt restarts with the fresh record.
func (s *UserState) Reset() {
	*s = *NewUserState(s.UserID)
}

// Clone returns a deep copy safe to hand outside the owning goroutine.
func (s *UserState) Clone() *UserState {
	cp := *s
	cp.MasteredConcepts = append([]string{}, s.MasteredConcepts...)
	cp.StruggleAreas = append([]string{}, s.StruggleAreas...)
	cp.ConversationHistory = append([]Message{}, s.ConversationHistory...)
	return &cp
}

func (s *UserState) touch() { s.LastUpdated = nowMillis() }

func nowMillis() int64 { return time.Now().UnixMilli() }

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, e := range list {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}
