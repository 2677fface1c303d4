package voiceService_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"callstack/database/dbtest"
	callsession "callstack/internal/api/call_session"
	callSessionRepository "callstack/internal/api/call_session/repository"
	callSessionService "callstack/internal/api/call_session/service"
	projectRepository "callstack/internal/api/project/repository"
	projectService "callstack/internal/api/project/service"
	userRepository "callstack/internal/api/user/repository"
	userService "callstack/internal/api/user/service"
	"callstack/internal/api/voice"
	voiceService "callstack/internal/api/voice/service"
	"callstack/internal/entity"
	"callstack/pkg/audio"
	"callstack/pkg/classifier"
	"callstack/pkg/utils"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	mu    sync.Mutex
	reply string
	err   error
	block bool
	last  classifier.Request
}

func (f *fakeClassifier) Complete(ctx context.Context, req classifier.Request) (string, error) {
	f.mu.Lock()
	f.last = req
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (f *fakeClassifier) set(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply, f.err, f.block = reply, nil, false
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, r io.Reader) (audio.Transcription, error) {
	f.calls++
	if _, err := io.ReadAll(r); err != nil {
		return audio.Transcription{}, err
	}
	if f.err != nil {
		return audio.Transcription{}, f.err
	}
	return audio.Transcription{Text: f.text, LanguageCode: "en"}, nil
}

type fakeStorage struct {
	keys []string
	err  error
}

func (f *fakeStorage) UploadAudio(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "s3://clips/" + key, nil
}

type env struct {
	svc         voiceService.IVoiceService
	projects    projectService.IProjectService
	sessions    callSessionService.ICallSessionService
	users       userService.IUserService
	classifier  *fakeClassifier
	transcriber *fakeTranscriber
	storage     *fakeStorage
	db          *sqlx.DB
}

func newEnv(t *testing.T, cfg voiceService.Config) *env {
	t.Helper()

	db := dbtest.New(t)
	log := dbtest.Logger()
	u := utils.New(0)

	e := &env{
		projects:    projectService.NewProjectService(log, projectRepository.New(db, log), u),
		sessions:    callSessionService.NewCallSessionService(log, callSessionRepository.New(db, log), u),
		users:       userService.NewUserService(log, userRepository.New(db, log)),
		classifier:  &fakeClassifier{},
		transcriber: &fakeTranscriber{},
		storage:     &fakeStorage{},
		db:          db,
	}
	e.svc = voiceService.NewVoiceService(log, e.users, e.projects, e.sessions, e.transcriber, e.classifier, e.storage, u, cfg)

	return e
}

var u1 = entity.UserLoginData{ID: "u1", Email: "u1@example.com"}

func (e *env) say(t *testing.T, reply, transcript string) voice.TranscribeResponse {
	t.Helper()
	e.classifier.set(reply)
	resp, err := e.svc.ProcessText(context.Background(), u1, transcript, "")
	require.NoError(t, err)
	return resp
}

func (e *env) project(t *testing.T, name string) entity.Project {
	t.Helper()
	p, found, err := e.projects.GetProjectByName(context.Background(), u1.ID, name)
	require.NoError(t, err)
	require.True(t, found, "project %q should exist", name)
	return p
}

func (e *env) tasks(t *testing.T, name string) []entity.Task {
	t.Helper()
	tasks, err := e.projects.ListProjectTasks(context.Background(), u1.ID, e.project(t, name).ID)
	require.NoError(t, err)
	return tasks
}

func (e *env) countAudits(t *testing.T, transcript string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM tasks WHERE raw_transcript = ?`, transcript))
	return n
}

func TestLaunchScenario(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	transcript := "create a project called Launch"

	resp := e.say(t, `{"intent":"create_project","project_name":"Launch","task_description":null,"parameters":{}}`, transcript)

	assert.Equal(t, voice.StatusSuccess, resp.Status)
	assert.Equal(t, transcript, resp.Transcript)
	assert.Equal(t, entity.IntentCreateProject, resp.Intent.Type)
	require.NotNil(t, resp.ActionResult)
	assert.Equal(t, "Successfully created project 'Launch'.", *resp.ActionResult)
	assert.Equal(t, 0, resp.ContextProjectsCount)
	require.NotNil(t, resp.Created.ProjectID)
	assert.Nil(t, resp.Created.TaskID)
	assert.Empty(t, e.classifier.last.ProjectNames)

	projects, err := e.projects.ListProjects(context.Background(), u1.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Launch", projects[0].Name)
	assert.Equal(t, *resp.Created.ProjectID, projects[0].ID)

	tasks := e.tasks(t, "Launch")
	require.Len(t, tasks, 1)
	audit := tasks[0]
	assert.Equal(t, resp.LoggedTaskID, audit.ID)
	assert.Equal(t, transcript, audit.RawTranscript)
	assert.Equal(t, transcript, audit.VoiceCommand)
	assert.Equal(t, string(entity.IntentCreateProject), audit.IntentType)
	assert.Equal(t, "Successfully created project 'Launch'.", audit.OutputSummary)
	assert.Equal(t, "Voice command: "+transcript, audit.Description)
}

func TestCreateProject_AlreadyExists(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	reply := `{"intent":"create_project","project_name":"Launch"}`

	e.say(t, reply, "create a project called Launch")
	resp := e.say(t, `{"intent":"create_project","project_name":"launch"}`, "make project launch")

	assert.Equal(t, "Project 'Launch' already exists.", *resp.ActionResult)
	assert.Equal(t, 1, resp.ContextProjectsCount)
	assert.Nil(t, resp.Created.ProjectID)
	assert.Equal(t, []string{"Launch"}, e.classifier.last.ProjectNames)

	projects, err := e.projects.ListProjects(context.Background(), u1.ID)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Len(t, e.tasks(t, "Launch"), 2)
}

func TestCreateTask_UnknownProjectAuditsUnderGeneral(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	ctx := context.Background()
	_, err := e.users.UpsertUser(ctx, u1.ID, u1.Email, "")
	require.NoError(t, err)
	_, err = e.projects.CreateProject(ctx, u1.ID, "Launch", "")
	require.NoError(t, err)

	transcript := "add write docs to Atlas"
	resp := e.say(t, `{"intent":"create_task","project_name":"Atlas","task_description":"write docs"}`, transcript)

	assert.Equal(t, "Project 'Atlas' not found.", *resp.ActionResult)
	assert.Nil(t, resp.Created.TaskID)
	assert.Empty(t, e.tasks(t, "Launch"))

	general := e.tasks(t, entity.GeneralProjectName)
	require.Len(t, general, 1)
	assert.Equal(t, transcript, general[0].RawTranscript)
	assert.Equal(t, resp.LoggedTaskID, general[0].ID)

	_, found, err := e.projects.GetProjectByName(ctx, u1.ID, "Atlas")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateTask_CaseInsensitiveProjectMatch(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	e.say(t, `{"intent":"create_project","project_name":"Launch"}`, "create a project called Launch")
	before := e.project(t, "Launch")

	time.Sleep(5 * time.Millisecond)
	transcript := "add write docs to launch"
	resp := e.say(t, "```json\n{\"intent\":\"create_task\",\"project_name\":\"LAUNCH\",\"task_description\":\"write docs\",\"confidence\":0.92}\n```", transcript)

	assert.Equal(t, "Added task 'write docs' to project 'Launch'.", *resp.ActionResult)
	require.NotNil(t, resp.Created.TaskID)
	require.NotNil(t, resp.Created.ProjectID)
	assert.Equal(t, before.ID, *resp.Created.ProjectID)

	tasks := e.tasks(t, "Launch")
	require.Len(t, tasks, 3)

	var created, audit entity.Task
	for _, task := range tasks {
		switch task.ID {
		case *resp.Created.TaskID:
			created = task
		case resp.LoggedTaskID:
			audit = task
		}
	}
	assert.Equal(t, "write docs", created.Description)
	assert.Equal(t, transcript, created.VoiceCommand)
	assert.Equal(t, entity.TaskStatusPending, created.Status)
	assert.Equal(t, transcript, audit.RawTranscript)
	require.NotNil(t, audit.IntentConfidence)
	assert.InDelta(t, 0.92, *audit.IntentConfidence, 1e-9)

	after := e.project(t, "Launch")
	assert.True(t, after.LastAccessed.After(before.LastAccessed))
}

func TestMissingFields(t *testing.T) {
	e := newEnv(t, voiceService.Config{})

	resp := e.say(t, `{"intent":"create_project","project_name":"  "}`, "create a project")
	assert.Equal(t, "I couldn't determine the project name.", *resp.ActionResult)
	assert.Nil(t, resp.Intent.ProjectName)

	resp = e.say(t, `{"intent":"create_task","project_name":"Launch"}`, "add a task to launch")
	assert.Equal(t, "I couldn't determine the project or task.", *resp.ActionResult)

	assert.Len(t, e.tasks(t, entity.GeneralProjectName), 2)
}

func TestStatusCheck(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	ctx := context.Background()

	resp := e.say(t, `{"intent":"status_check"}`, "how am I doing")
	assert.Equal(t, "You don't have any projects yet. Say \"create a project called ...\" to get started.", *resp.ActionResult)

	alpha, err := e.projects.CreateProject(ctx, u1.ID, "Alpha", "")
	require.NoError(t, err)
	_, err = e.projects.CreateProject(ctx, u1.ID, "Beta", "")
	require.NoError(t, err)

	first, err := e.projects.CreateTask(ctx, entity.Task{ProjectID: alpha, UserID: u1.ID, Description: "one"})
	require.NoError(t, err)
	_, err = e.projects.CreateTask(ctx, entity.Task{ProjectID: alpha, UserID: u1.ID, Description: "two"})
	require.NoError(t, err)
	_, err = e.projects.UpdateTaskStatus(ctx, first, entity.TaskStatusCompleted)
	require.NoError(t, err)

	resp = e.say(t, `{"intent":"status_check"}`, "what's the status")
	lines := strings.Split(*resp.ActionResult, "\n")

	// General holds the audit task of the first status check.
	require.Len(t, lines, 3)
	assert.Contains(t, lines, "Alpha — 2 task(s) (1 pending, 0 in progress, 1 done)")
	assert.Contains(t, lines, "Beta — 0 task(s) (0 pending, 0 in progress, 0 done)")
	assert.Contains(t, lines, "General — 1 task(s) (1 pending, 0 in progress, 0 done)")
}

func TestContactCollisionDoesNotBlockCommand(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	ctx := context.Background()

	_, err := e.users.UpsertUser(ctx, "id-1", "", "")
	require.NoError(t, err)
	_, err = e.users.UpsertUser(ctx, "id-2", "shared@example.com", "")
	require.NoError(t, err)

	e.classifier.set(`{"intent":"status_check"}`)
	caller := entity.UserLoginData{ID: "id-1", Email: "shared@example.com"}
	resp, err := e.svc.ProcessText(ctx, caller, "what's the status", "")
	require.NoError(t, err)
	assert.Equal(t, voice.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.LoggedTaskID)
	assert.Equal(t, 1, e.countAudits(t, "what's the status"))
}

func TestClassifierTimeout(t *testing.T) {
	e := newEnv(t, voiceService.Config{IntentTimeout: 50 * time.Millisecond})
	e.classifier.block = true

	transcript := "do the thing"
	resp, err := e.svc.ProcessText(context.Background(), u1, transcript, "")
	require.NoError(t, err)

	assert.Equal(t, voice.StatusSuccess, resp.Status)
	assert.Equal(t, entity.IntentError, resp.Intent.Type)
	assert.Contains(t, resp.Intent.Message, voiceService.FailureTimeout)
	assert.Equal(t, "I wasn't able to map that command to an action.", *resp.ActionResult)

	general := e.tasks(t, entity.GeneralProjectName)
	require.Len(t, general, 1)
	assert.Equal(t, string(entity.IntentError), general[0].IntentType)
	assert.Equal(t, transcript, general[0].RawTranscript)
}

func TestClassifierTransportError(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	e.classifier.err = errors.New("connection refused")

	resp, err := e.svc.ProcessText(context.Background(), u1, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, entity.IntentError, resp.Intent.Type)
	assert.Contains(t, resp.Intent.Message, "connection refused")
	assert.Equal(t, 1, e.countAudits(t, "hello"))
}

func TestUnknownIntentType(t *testing.T) {
	e := newEnv(t, voiceService.Config{})

	resp := e.say(t, `{"intent":"delete_everything","project_name":"Launch"}`, "delete everything")
	assert.Equal(t, entity.IntentUnknown, resp.Intent.Type)
	assert.Equal(t, "I wasn't able to map that command to an action.", *resp.ActionResult)
	assert.Len(t, e.tasks(t, entity.GeneralProjectName), 1)
}

func TestEveryRunWritesOneAudit(t *testing.T) {
	e := newEnv(t, voiceService.Config{})

	replies := []string{
		`{"intent":"create_project","project_name":"Launch"}`,
		`{"intent":"create_project","project_name":"Launch"}`,
		`{"intent":"create_task","project_name":"Launch","task_description":"ship"}`,
		`{"intent":"status_check"}`,
		`not json at all`,
		``,
	}
	for i, reply := range replies {
		transcript := "command " + string(rune('a'+i))
		e.say(t, reply, transcript)
		assert.Equal(t, 1, e.countAudits(t, transcript), "reply %q", reply)
	}
}

func TestProcessAudio(t *testing.T) {
	e := newEnv(t, voiceService.Config{ArchiveAudio: true})
	ctx := context.Background()
	_, err := e.users.UpsertUser(ctx, u1.ID, u1.Email, "")
	require.NoError(t, err)
	session, err := e.sessions.StartSession(ctx, u1.ID, "+15550001")
	require.NoError(t, err)

	e.transcriber.text = "  create a project called Launch "
	e.classifier.set(`{"intent":"create_project","project_name":"Launch"}`)

	resp, err := e.svc.ProcessAudio(ctx, u1, voice.AudioInput{
		Filename:      "clip.webm",
		ContentType:   "audio/webm",
		Data:          []byte("fake-audio"),
		CallSessionID: session.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "create a project called Launch", resp.Transcript)
	assert.Equal(t, "en", resp.Language)
	require.Len(t, e.storage.keys, 1)
	assert.True(t, strings.HasPrefix(e.storage.keys[0], "audio/u1/"))
	assert.True(t, strings.HasSuffix(e.storage.keys[0], ".webm"))
	assert.Equal(t, "s3://clips/"+e.storage.keys[0], resp.AudioLocation)

	updated, err := e.sessions.GetUserSession(ctx, u1.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "create a project called Launch", updated.Transcript)
	assert.Equal(t, []string{resp.LoggedTaskID}, updated.CommandsExecuted)
}

func TestProcessAudio_ArchiveFailureIsNotFatal(t *testing.T) {
	e := newEnv(t, voiceService.Config{ArchiveAudio: true})
	e.storage.err = errors.New("bucket gone")
	e.transcriber.text = "status please"
	e.classifier.set(`{"intent":"status_check"}`)

	resp, err := e.svc.ProcessAudio(context.Background(), u1, voice.AudioInput{Filename: "a.wav", Data: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, resp.AudioLocation)
	assert.Equal(t, voice.StatusSuccess, resp.Status)
}

func TestProcessAudio_TranscriptionFailureWritesNothing(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	e.transcriber.err = errors.New("whisper down")

	_, err := e.svc.ProcessAudio(context.Background(), u1, voice.AudioInput{Filename: "a.wav", Data: []byte("x")})
	assert.ErrorIs(t, err, voice.ErrTranscriptionFailed)

	e.transcriber.err = nil
	e.transcriber.text = "   "
	_, err = e.svc.ProcessAudio(context.Background(), u1, voice.AudioInput{Filename: "a.wav", Data: []byte("x")})
	assert.ErrorIs(t, err, voice.ErrTranscriptionFailed)

	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM tasks`))
	assert.Zero(t, n)
}

func TestProcessAudio_Rejections(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	ctx := context.Background()

	_, err := e.svc.ProcessAudio(ctx, u1, voice.AudioInput{Filename: "a.wav"})
	assert.ErrorIs(t, err, voice.ErrMissingAudioFile)

	_, err = e.svc.ProcessAudio(ctx, u1, voice.AudioInput{Filename: "a.wav", Data: []byte("x"), CallSessionID: "missing"})
	assert.ErrorIs(t, err, callsession.ErrSessionNotFound)
	assert.Zero(t, e.transcriber.calls)

	session, err := e.sessions.StartSession(ctx, u1.ID, "")
	require.NoError(t, err)
	_, err = e.sessions.EndSession(ctx, u1.ID, session.ID)
	require.NoError(t, err)

	_, err = e.svc.ProcessText(ctx, u1, "hello", session.ID)
	assert.ErrorIs(t, err, callsession.ErrSessionEnded)

	_, err = e.svc.ProcessText(ctx, u1, "  ", "")
	assert.ErrorIs(t, err, voice.ErrEmptyTranscript)
}

func TestStorageFailureIsReported(t *testing.T) {
	e := newEnv(t, voiceService.Config{})
	ctx := context.Background()
	_, err := e.users.UpsertUser(ctx, u1.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, e.db.Close())

	_, err = e.svc.ProcessTranscript(ctx, u1.ID, "create a project called Launch")
	assert.ErrorIs(t, err, voice.ErrStorage)
}
