// File: internal/usecase/tutor_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/domain/ports/adapter"
	"ai-coding-tutor/internal/infra/logging"
	"ai-coding-tutor/internal/infra/metrics"
)

// Compile-time check
var _ TutorUseCase = (*tutorUC)(nil)

// TutorResult is one chat turn's outcome: the assistant text plus any
// heuristically suggested profile changes. The caller decides whether to
// apply the suggestions; the orchestrator never mutates state itself.
type TutorResult struct {
	Response         string
	SuggestedUpdates model.StateUpdate
}

type TutorUseCase interface {
	// Chat answers the student against their profile and recent history.
	// It never fails on inference errors: those degrade to a fixed
	// fallback message, logged and counted.
	Chat(ctx context.Context, message string, state *model.UserState) (TutorResult, error)
	// GeneratePractice builds a practice problem. Inference failure is
	// surfaced to the caller as domain.ErrAIUnavailable.
	GeneratePractice(ctx context.Context, topic, difficulty, language string) (string, error)
	// ReviewCode reviews the submitted code verbatim.
	ReviewCode(ctx context.Context, code, topic, language string) (string, error)
}

type TutorParams struct {
	Model              string
	Temperature        float64
	MaxOutputTokens    int
	PromptHistoryLimit int
	FallbackMessage    string
}

type tutorUC struct {
	ai     adapter.AIServiceAdapter
	hinter adapter.UpdateHinter
	params TutorParams
	log    *zerolog.Logger
}

func NewTutorUseCase(ai adapter.AIServiceAdapter, hinter adapter.UpdateHinter, params TutorParams, log *zerolog.Logger) *tutorUC {
	if params.PromptHistoryLimit <= 0 {
		params.PromptHistoryLimit = 10
	}
	if params.MaxOutputTokens <= 0 {
		params.MaxOutputTokens = 1024
	}
	if params.Temperature == 0 {
		params.Temperature = 0.7
	}
	return &tutorUC{ai: ai, hinter: hinter, params: params, log: log}
}

const systemPromptTemplate = `You are a personalized coding tutor helping students prepare for exams.
Your student is currently learning %s and focusing on %s.
Their skill level is %s.
Mastered concepts: %s.
Struggling with: %s.

- Adapt explanations to the user's skill level.
- After explaining, ask questions to verify understanding.
- Generate practice problems appropriate to their level.
- When reviewing code, be constructive and educational.
- Keep responses concise and helpful.`

func (t *tutorUC) Chat(ctx context.Context, message string, state *model.UserState) (TutorResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TutorResult{}, domain.ErrInvalidArgument
	}
	defer logging.TraceDuration(t.log, "TutorUC.Chat")()

	msgs := make([]adapter.Message, 0, t.params.PromptHistoryLimit+2)
	msgs = append(msgs, adapter.Message{Role: "system", Content: t.systemPrompt(state)})
	for _, m := range state.RecentMessages(t.params.PromptHistoryLimit) {
		msgs = append(msgs, adapter.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: message})

	reply, err := t.invoke(ctx, msgs)
	if err != nil {
		logging.With(ctx, t.log).Warn().Err(err).Msg("inference failed, answering with fallback")
		metrics.IncChatFallback(t.ai.Provider())
		reply = t.params.FallbackMessage
		if reply == "" {
			reply = "I'm having trouble connecting to my brain right now. Please try again."
		}
	}

	return TutorResult{
		Response:         reply,
		SuggestedUpdates: t.hinter.Suggest(message),
	}, nil
}

func (t *tutorUC) GeneratePractice(ctx context.Context, topic, difficulty, language string) (string, error) {
	defer logging.TraceDuration(t.log, "TutorUC.GeneratePractice")()
	prompt := fmt.Sprintf(
		"Generate a %s-level practice problem about %s in %s.\n"+
			"Include a clear problem statement, example input and output, and one hint.\n"+
			"Do not include the solution.",
		difficulty, topic, language,
	)
	return t.invoke(ctx, []adapter.Message{
		{Role: "system", Content: "You are a coding tutor creating practice problems for exam preparation."},
		{Role: "user", Content: prompt},
	})
}

func (t *tutorUC) ReviewCode(ctx context.Context, code, topic, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", domain.ErrInvalidArgument
	}
	defer logging.TraceDuration(t.log, "TutorUC.ReviewCode")()
	prompt := fmt.Sprintf(
		"Review this %s code from a student studying %s.\n"+
			"Point out bugs, style issues, and possible improvements.\n"+
			"Be constructive and educational.\n\n```\n%s\n```",
		language, topic, code,
	)
	return t.invoke(ctx, []adapter.Message{
		{Role: "system", Content: "You are a constructive code reviewer helping a student learn."},
		{Role: "user", Content: prompt},
	})
}

func (t *tutorUC) invoke(ctx context.Context, msgs []adapter.Message) (string, error) {
	promptTokens, _ := t.ai.CountTokens(t.params.Model, msgs)
	start := time.Now()
	reply, err := t.ai.Chat(ctx, t.params.Model, msgs, adapter.ChatOptions{
		Temperature: t.params.Temperature,
		MaxTokens:   t.params.MaxOutputTokens,
	})
	metrics.ObserveAICall(t.ai.Provider(), t.params.Model, promptTokens,
		int(time.Since(start).Milliseconds()), err == nil)
	return reply, err
}

func (t *tutorUC) systemPrompt(state *model.UserState) string {
	lang := state.CurrentLanguage
	if lang == "" {
		lang = "General"
	}
	topic := state.CurrentTopic
	if topic == "" {
		topic = "General"
	}
	return fmt.Sprintf(systemPromptTemplate,
		lang, topic, state.SkillLevel,
		strings.Join(state.MasteredConcepts, ", "),
		strings.Join(state.StruggleAreas, ", "),
	)
}
