package service

import (
	"math/rand"
	"testing"
	"time"

	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineRecorder struct {
	events      []EngineEvent
	completions int
}

func (r *engineRecorder) notify(ev EngineEvent) {
	r.events = append(r.events, ev)
}

func (r *engineRecorder) complete(_ *model.InterviewSession) {
	r.completions++
}

func (r *engineRecorder) eventTypes() []string {
	types := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

// newTestEngine 构造纯启发式模式（无评审服务）的引擎。
// friendly 人格的打断概率最低，基线计时远长于测试时长
func newTestEngine(maxTurns int) (*InterviewEngine, *engineRecorder) {
	rng := rand.New(rand.NewSource(1))
	profile := model.GetPersonaProfile(model.PersonaFriendly)
	session := &model.InterviewSession{
		ID:        "test-session",
		UserID:    1,
		Status:    model.SessionPreparing,
		Mode:      model.ModePractice,
		Persona:   profile,
		CreatedAt: time.Now(),
	}

	rec := &engineRecorder{}
	e := NewInterviewEngine(EngineOptions{
		Session:    session,
		Policy:     NewPersonaPolicy(profile, defaultTiming(), rng),
		Scoring:    NewScoringService(),
		Bank:       NewQuestionBank(rng),
		MaxTurns:   maxTurns,
		Notify:     rec.notify,
		OnComplete: rec.complete,
	})
	return e, rec
}

func TestBeginAsksFirstQuestion(t *testing.T) {
	e, rec := newTestEngine(5)

	require.NoError(t, e.Begin())

	session := e.Session()
	assert.Equal(t, model.SessionActive, session.Status)
	require.Len(t, session.Turns, 1)
	assert.NotEmpty(t, session.Turns[0].Question)
	assert.False(t, session.Turns[0].Finalized)
	assert.Contains(t, rec.eventTypes(), "question")
}

func TestBeginTwiceRejected(t *testing.T) {
	e, _ := newTestEngine(5)

	require.NoError(t, e.Begin())
	assert.Error(t, e.Begin())
}

func TestAdvanceFinalizesWithNoResponseSentinel(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	require.NoError(t, e.Advance())

	session := e.Session()
	require.Len(t, session.Turns, 2)

	first := session.Turns[0]
	assert.True(t, first.Finalized)
	assert.Equal(t, CauseManual, first.FinalizeCause)
	assert.Equal(t, model.NoResponseSentinel, first.Transcript)
	require.NotNil(t, first.Result)
	assert.Equal(t, model.AnswerIncomplete, first.Result.Quality)

	assert.False(t, session.Turns[1].Finalized)
}

func TestStaleTimerCallbackIsNoOp(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	staleHard := e.hardEpoch
	require.NoError(t, e.Advance()) // 推进后旧计时器全部失效

	before := e.Session()
	e.onTimerFired(timerHard, staleHard)
	e.onTimerFired(timerSilence, staleHard)

	after := e.Session()
	assert.Equal(t, len(before.Turns), len(after.Turns))
	assert.False(t, after.Turns[1].Finalized)
}

func TestHardTimeoutFinalizesTurn(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	e.OnTranscript("I want to study computer science.", nil)
	e.onTimerFired(timerHard, e.hardEpoch)

	session := e.Session()
	require.GreaterOrEqual(t, len(session.Turns), 2)
	first := session.Turns[0]
	assert.True(t, first.Finalized)
	assert.Equal(t, CauseHardTimeout, first.FinalizeCause)
	assert.Equal(t, "I want to study computer science.", first.Transcript)
}

func TestSilenceTimerArmsOnlyAfterFirstUpdate(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	// 没有任何转写更新时静默计时不布防
	assert.Nil(t, e.silenceTimer)
	assert.False(t, e.hadUpdate)

	e.OnTranscript("My father sponsors me.", nil)
	assert.NotNil(t, e.silenceTimer)
	assert.True(t, e.hadUpdate)

	e.onTimerFired(timerSilence, e.silenceEpoch)
	session := e.Session()
	assert.True(t, session.Turns[0].Finalized)
	assert.Equal(t, CauseSilenceTimeout, session.Turns[0].FinalizeCause)
}

func TestTranscriptLastWriteWins(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	conf := 0.8
	e.OnTranscript("My father", nil)
	e.OnTranscript("My father sponsors my education.", &conf)

	session := e.Session()
	assert.Equal(t, "My father sponsors my education.", session.Turns[0].Transcript)
	require.NotNil(t, session.Turns[0].ASRConfidence)
	assert.Equal(t, conf, *session.Turns[0].ASRConfidence)
}

func TestTranscriptIgnoredAfterFinalize(t *testing.T) {
	e, _ := newTestEngine(1)
	require.NoError(t, e.Begin())

	e.OnTranscript("first answer", nil)
	require.NoError(t, e.Advance())

	e.OnTranscript("late frame", nil)
	session := e.Session()
	assert.Equal(t, "first answer", session.Turns[0].Transcript)
}

func TestPauseCancelsTimersResumeRearms(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	epoch := e.hardEpoch
	require.NoError(t, e.Pause())
	assert.Equal(t, model.SessionPaused, e.Session().Status)
	assert.Nil(t, e.hardTimer)

	// 暂停期间迟到的回调是空操作
	e.onTimerFired(timerHard, epoch)
	assert.False(t, e.Session().Turns[0].Finalized)

	require.NoError(t, e.Resume())
	assert.Equal(t, model.SessionActive, e.Session().Status)
	assert.NotNil(t, e.hardTimer)
	assert.Greater(t, e.hardEpoch, epoch)

	// 还没开口，静默计时仍等第一次转写
	assert.Nil(t, e.silenceTimer)
}

func TestResumeRearmsSilenceTimerAfterSpeech(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())
	e.OnTranscript("My father is sponsoring me.", nil)
	require.NotNil(t, e.silenceTimer)

	require.NoError(t, e.Pause())
	assert.Nil(t, e.silenceTimer)

	// 已开口的回合恢复后，静默倒计时立即重新开始，而不是等下一次转写
	require.NoError(t, e.Resume())
	assert.NotNil(t, e.silenceTimer)
	assert.NotNil(t, e.hardTimer)
	assert.True(t, e.hadUpdate)

	e.onTimerFired(timerSilence, e.silenceEpoch)
	assert.True(t, e.Session().Turns[0].Finalized)
	assert.Equal(t, CauseSilenceTimeout, e.Session().Turns[0].FinalizeCause)
}

func TestPauseRequiresActiveSession(t *testing.T) {
	e, _ := newTestEngine(5)
	assert.Error(t, e.Pause())

	require.NoError(t, e.Begin())
	require.NoError(t, e.Pause())
	assert.Error(t, e.Pause())
}

func TestCompleteScoresInFlightTurn(t *testing.T) {
	e, rec := newTestEngine(5)
	require.NoError(t, e.Begin())
	e.OnTranscript("Tuition is $42,000 per year at Example University.", nil)

	require.NoError(t, e.Complete())

	session := e.Session()
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.True(t, session.Turns[0].Finalized)
	require.NotNil(t, session.Turns[0].Result)
	assert.Equal(t, 1, rec.completions)
	assert.Contains(t, rec.eventTypes(), "session_completed")

	// 已完成的会话不可重复结束
	assert.ErrorIs(t, e.Complete(), util.ErrSessionCompleted)
}

func TestMaxTurnsCompletesSession(t *testing.T) {
	e, rec := newTestEngine(1)
	require.NoError(t, e.Begin())
	require.NoError(t, e.Advance())

	session := e.Session()
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.Len(t, session.Turns, 1)
	assert.Equal(t, 1, rec.completions)
}

func TestAbandonSkipsCompletionCallback(t *testing.T) {
	e, rec := newTestEngine(5)
	require.NoError(t, e.Begin())

	e.Abandon()

	assert.Equal(t, model.SessionCompleted, e.Session().Status)
	assert.Zero(t, rec.completions)
	assert.NotContains(t, rec.eventTypes(), "session_completed")

	// 放弃后迟到的计时器回调不做任何事
	e.onTimerFired(timerHard, e.hardEpoch)
	assert.Zero(t, rec.completions)
}

func TestOnBodySampleAttachesToCurrentTurn(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	e.OnBodySample(82)

	session := e.Session()
	require.NotNil(t, session.Turns[0].BodyLanguage)
	assert.Equal(t, 82.0, *session.Turns[0].BodyLanguage)
}

func TestSessionSnapshotIsIsolated(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	snapshot := e.Session()
	snapshot.Turns[0].Transcript = "tampered"

	assert.Empty(t, e.Session().Turns[0].Transcript)
}

func TestFollowUpFallbackWithoutJudge(t *testing.T) {
	e, _ := newTestEngine(5)
	require.NoError(t, e.Begin())

	turn := e.session.CurrentTurn()
	turn.Transcript = "maybe my family pays somehow"

	followUp := e.resolveFollowUp(turn)
	assert.Equal(t, FollowUpFor(turn.Category), followUp)
}
