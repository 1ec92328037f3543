package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
	"alfredoptarigan/career-copilot/internal/repositories"
)

type fakeAppRepo struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*models.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: make(map[uuid.UUID]*models.Application)}
}

func (r *fakeAppRepo) Create(app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r *fakeAppRepo) FindByID(id uuid.UUID) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *fakeAppRepo) UpdateStatus(id uuid.UUID, status models.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	app.Status = status
	return nil
}

func (r *fakeAppRepo) UpdateResult(id uuid.UUID, data *repositories.ApplicationUpdateData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	app.Status = models.StatusCompleted
	if data.ErrorMessage != nil {
		app.Status = models.StatusFailed
	}
	app.TailoredResume = data.TailoredResume
	app.CoverLetter = data.CoverLetter
	app.InterviewQuestions = data.InterviewQuestions
	app.InterviewFallbackUsed = data.InterviewFallbackUsed
	app.ErrorMessage = data.ErrorMessage
	return nil
}

func (r *fakeAppRepo) UpdateError(id uuid.UUID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	app.Status = models.StatusFailed
	app.ErrorMessage = &msg
	return nil
}

func (r *fakeAppRepo) FindPendingJobs(limit int) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, app := range r.apps {
		if app.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *app)
		}
	}
	return out, nil
}

type fakeReply struct {
	text string
	err  error
}

// fakeCompleter answers by system prompt so each of the three calls can be scripted.
type fakeCompleter struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	seen    [][]models.PromptMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.PromptMessage, settings CallSettings) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, messages)
	r := f.replies[messages[0].Content]
	return r.text, r.err
}

type generatorFixture struct {
	repo      *fakeAppRepo
	sessions  *MemorySessionStore
	completer *fakeCompleter
	gen       GeneratorService
	session   *models.Session
	app       *models.Application
}

func newGeneratorFixture(t *testing.T, replies map[string]fakeReply) *generatorFixture {
	t.Helper()
	ctx := context.Background()

	f := &generatorFixture{
		repo:      newFakeAppRepo(),
		sessions:  NewMemorySessionStore(DefaultSessionTTL),
		completer: &fakeCompleter{replies: replies},
	}
	f.gen = NewGeneratorService(f.repo, f.sessions, f.completer, NewPromptBuilder(config.PromptConfig{}), testLogger())

	created, err := f.sessions.Create(ctx)
	require.NoError(t, err)
	f.app = &models.Application{ID: uuid.New(), SessionID: created.ID, Status: models.StatusQueued}

	session, err := f.sessions.Update(ctx, created.ID, func(s *models.Session) error {
		s.Resume = &models.UploadedDocument{SourceKind: models.SourcePastedText, RawText: "Jane Doe, Engineer"}
		s.JobDescription = "Backend role requiring Go"
		s.Pending = map[uuid.UUID]models.GenerationInputs{
			f.app.ID: {ResumeText: s.Resume.RawText, JobDescription: s.JobDescription},
		}
		return nil
	})
	require.NoError(t, err)
	f.session = session

	require.NoError(t, f.repo.Create(f.app))
	return f
}

func (f *generatorFixture) editInputs(t *testing.T, fn func(in *models.GenerationInputs)) {
	t.Helper()
	_, err := f.sessions.Update(context.Background(), f.session.ID, func(s *models.Session) error {
		in := s.Pending[f.app.ID]
		fn(&in)
		s.Pending[f.app.ID] = in
		return nil
	})
	require.NoError(t, err)
}

func (f *generatorFixture) stored(t *testing.T) *models.Application {
	t.Helper()
	app, err := f.repo.FindByID(f.app.ID)
	require.NoError(t, err)
	return app
}

func TestGenerateApplication(t *testing.T) {
	f := newGeneratorFixture(t, map[string]fakeReply{
		resumeSystemPrompt:      {text: "Tailored resume"},
		coverLetterSystemPrompt: {text: "Dear hiring manager"},
		interviewSystemPrompt:   {text: `[{"question":"Why Go?","answer":"Because."}]`},
	})

	require.NoError(t, f.gen.GenerateApplication(context.Background(), f.app.ID))

	app := f.stored(t)
	assert.Equal(t, models.StatusCompleted, app.Status)
	assert.Equal(t, "Tailored resume", *app.TailoredResume)
	assert.Equal(t, "Dear hiring manager", *app.CoverLetter)
	assert.Equal(t, []models.InterviewQA{{Question: "Why Go?", Answer: "Because."}}, app.InterviewQuestions)
	assert.False(t, app.InterviewFallbackUsed)
	assert.Nil(t, app.ErrorMessage)

	require.Len(t, f.completer.seen, 3)
	for _, msgs := range f.completer.seen {
		assert.Contains(t, msgs[1].Content, "Jane Doe, Engineer")
		assert.Contains(t, msgs[1].Content, "Backend role requiring Go")
	}
}

func TestGenerateApplicationInterviewFallback(t *testing.T) {
	f := newGeneratorFixture(t, map[string]fakeReply{
		resumeSystemPrompt:      {text: "Tailored resume"},
		coverLetterSystemPrompt: {text: ""},
		interviewSystemPrompt:   {text: "not json"},
	})

	require.NoError(t, f.gen.GenerateApplication(context.Background(), f.app.ID))

	app := f.stored(t)
	assert.Equal(t, models.StatusCompleted, app.Status)
	assert.True(t, app.InterviewFallbackUsed)
	assert.Equal(t, FallbackInterviewQuestions(), app.InterviewQuestions)
	require.NotNil(t, app.CoverLetter)
	assert.Equal(t, "", *app.CoverLetter)
}

func TestGenerateApplicationKeepsPartialResults(t *testing.T) {
	f := newGeneratorFixture(t, map[string]fakeReply{
		resumeSystemPrompt:      {text: "Tailored resume"},
		coverLetterSystemPrompt: {err: &CompletionError{Kind: ErrKindRateLimited, Provider: "openai", StatusCode: 429}},
		interviewSystemPrompt:   {text: `[{"question":"Q","answer":"A"}]`},
	})

	err := f.gen.GenerateApplication(context.Background(), f.app.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	app := f.stored(t)
	assert.Equal(t, models.StatusFailed, app.Status)
	assert.Equal(t, "Tailored resume", *app.TailoredResume)
	assert.Nil(t, app.CoverLetter)
	assert.Len(t, app.InterviewQuestions, 1)
	require.NotNil(t, app.ErrorMessage)
	assert.Contains(t, *app.ErrorMessage, "cover letter")
	assert.NotContains(t, *app.ErrorMessage, "tailored resume")
}

func TestGenerateApplicationMissingInputs(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *generatorFixture)
		want    error
	}{
		{
			name: "session expired",
			prepare: func(t *testing.T, f *generatorFixture) {
				f.sessions.Delete(context.Background(), f.session.ID)
			},
			want: ErrSessionExpired,
		},
		{
			name: "no captured inputs",
			prepare: func(t *testing.T, f *generatorFixture) {
				_, err := f.sessions.Update(context.Background(), f.session.ID, func(s *models.Session) error {
					s.Pending = nil
					return nil
				})
				require.NoError(t, err)
			},
			want: ErrInputsMissing,
		},
		{
			name: "resume without text",
			prepare: func(t *testing.T, f *generatorFixture) {
				f.editInputs(t, func(in *models.GenerationInputs) { in.ResumeText = "" })
			},
			want: ErrResumeMissing,
		},
		{
			name: "no job description",
			prepare: func(t *testing.T, f *generatorFixture) {
				f.editInputs(t, func(in *models.GenerationInputs) { in.JobDescription = " " })
			},
			want: ErrJobDescMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGeneratorFixture(t, nil)
			tt.prepare(t, f)

			err := f.gen.GenerateApplication(context.Background(), f.app.ID)
			assert.ErrorIs(t, err, tt.want)

			app := f.stored(t)
			assert.Equal(t, models.StatusFailed, app.Status)
			require.NotNil(t, app.ErrorMessage)
			assert.Equal(t, tt.want.Error(), *app.ErrorMessage)
			assert.Empty(t, f.completer.seen)
		})
	}
}

func TestGenerateApplicationUsesInputsCapturedAtQueueTime(t *testing.T) {
	f := newGeneratorFixture(t, map[string]fakeReply{
		resumeSystemPrompt:      {text: "Tailored resume"},
		coverLetterSystemPrompt: {text: "Dear hiring manager"},
		interviewSystemPrompt:   {text: `[{"question":"Q","answer":"A"}]`},
	})
	ctx := context.Background()

	_, err := f.sessions.Update(ctx, f.session.ID, func(s *models.Session) error {
		s.Resume = &models.UploadedDocument{SourceKind: models.SourcePastedText, RawText: "John Roe, Designer"}
		s.JobDescription = "Frontend role requiring React"
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.gen.GenerateApplication(ctx, f.app.ID))

	require.Len(t, f.completer.seen, 3)
	for _, msgs := range f.completer.seen {
		assert.Contains(t, msgs[1].Content, "Jane Doe, Engineer")
		assert.Contains(t, msgs[1].Content, "Backend role requiring Go")
		assert.NotContains(t, msgs[1].Content, "John Roe")
	}

	session, err := f.sessions.Get(ctx, f.session.ID)
	require.NoError(t, err)
	assert.NotContains(t, session.Pending, f.app.ID)
	assert.Equal(t, "John Roe, Designer", session.Resume.RawText)
}
