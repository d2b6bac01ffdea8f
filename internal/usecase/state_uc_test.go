package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
)

// ---- Fakes ----

// memOwners mimics the record owner registry over a plain map: lazy
// default creation, serialized access, copies out.
type memOwners struct {
	mu      sync.Mutex
	records map[string]*model.UserState
}

func newMemOwners() *memOwners {
	return &memOwners{records: map[string]*model.UserState{}}
}

func (m *memOwners) View(ctx context.Context, userID string) (*model.UserState, error) {
	return m.Update(ctx, userID, nil)
}

func (m *memOwners) Update(ctx context.Context, userID string, fn func(*model.UserState) error) (*model.UserState, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.records[userID]
	if s == nil {
		s = model.NewUserState(userID)
		m.records[userID] = s
	}
	if fn != nil {
		if err := fn(s); err != nil {
			return nil, err
		}
	}
	return s.Clone(), nil
}

// ---- Tests ----

func TestGetLazilyCreatesDefault(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)

	state, err := uc.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.UserID != "never-seen" || state.SkillLevel != model.SkillBeginner {
		t.Fatalf("unexpected default: %+v", state)
	}
	if len(state.ConversationHistory) != 0 {
		t.Fatalf("history not empty: %v", state.ConversationHistory)
	}
}

func TestUpdateMergesAndKeepsOtherFields(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	ctx := context.Background()

	lang := "Go"
	if _, err := uc.Update(ctx, "u", model.StateUpdate{CurrentLanguage: &lang}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	adv := model.SkillAdvanced
	state, err := uc.Update(ctx, "u", model.StateUpdate{SkillLevel: &adv})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state.SkillLevel != model.SkillAdvanced {
		t.Fatalf("SkillLevel = %q", state.SkillLevel)
	}
	if state.CurrentLanguage != "Go" {
		t.Fatalf("other field lost: %+v", state)
	}
}

func TestUpdateRejectsBadSkillLevel(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	bad := model.SkillLevel("wizard")
	if _, err := uc.Update(context.Background(), "u", model.StateUpdate{SkillLevel: &bad}); err != domain.ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestAppendMessageAppliesRetention(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 3)
	ctx := context.Background()

	var state *model.UserState
	var err error
	for i := 0; i < 7; i++ {
		state, err = uc.AppendMessage(ctx, "u", model.Message{Role: "user", Content: fmt.Sprintf("m%d", i)})
		if err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
		if len(state.ConversationHistory) > 3 {
			t.Fatalf("retention violated: %d entries", len(state.ConversationHistory))
		}
	}
	want := []string{"m4", "m5", "m6"}
	for i, m := range state.ConversationHistory {
		if m.Content != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, m.Content, want[i])
		}
	}
}

func TestAppendMessageValidation(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	ctx := context.Background()

	if _, err := uc.AppendMessage(ctx, "u", model.Message{Role: "wizard", Content: "hi"}); err != domain.ErrInvalidArgument {
		t.Fatalf("bad role: err = %v", err)
	}
	if _, err := uc.AppendMessage(ctx, "u", model.Message{Role: "user", Content: "   "}); err != domain.ErrInvalidArgument {
		t.Fatalf("empty content: err = %v", err)
	}
}

func TestClassifyConceptMasterClearsStruggle(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	ctx := context.Background()

	if _, err := uc.ClassifyConcept(ctx, "u", "recursion", model.ConceptStruggle); err != nil {
		t.Fatalf("ClassifyConcept: %v", err)
	}
	state, err := uc.ClassifyConcept(ctx, "u", "recursion", model.ConceptMaster)
	if err != nil {
		t.Fatalf("ClassifyConcept: %v", err)
	}
	for _, c := range state.StruggleAreas {
		if c == "recursion" {
			t.Fatalf("mastered concept still in struggle areas")
		}
	}

	state, _ = uc.ClassifyConcept(ctx, "u", "recursion", model.ConceptMaster)
	count := 0
	for _, c := range state.MasteredConcepts {
		if c == "recursion" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("duplicate mastered entries: %v", state.MasteredConcepts)
	}
}

func TestClassifyConceptValidation(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	ctx := context.Background()
	if _, err := uc.ClassifyConcept(ctx, "u", "", model.ConceptMaster); err != domain.ErrInvalidArgument {
		t.Fatalf("empty concept: err = %v", err)
	}
	if _, err := uc.ClassifyConcept(ctx, "u", "x", model.ConceptAction("promote")); err != domain.ErrInvalidArgument {
		t.Fatalf("bad action: err = %v", err)
	}
}

func TestResetKeepsUserID(t *testing.T) {
	uc := NewStateUseCase(newMemOwners(), 50)
	ctx := context.Background()

	if _, err := uc.AppendMessage(ctx, "carol", model.Message{Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	state, err := uc.Reset(ctx, "carol")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.UserID != "carol" {
		t.Fatalf("UserID = %q", state.UserID)
	}
	if len(state.ConversationHistory) != 0 {
		t.Fatalf("history survived reset")
	}

	state, _ = uc.Get(ctx, "carol")
	if len(state.ConversationHistory) != 0 {
		t.Fatalf("reset not persisted")
	}
}
