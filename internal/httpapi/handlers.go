package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// messageRequest is the POST /tasks/from-message payload.
type messageRequest struct {
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// taskRequest is the POST /tasks payload.
type taskRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Type               string   `json:"type,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	TargetBranch       string   `json:"target_branch,omitempty"`
	Source             string   `json:"source,omitempty"`
	AffectedFiles      []string `json:"affected_files"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// applyRequest is the POST /tasks/{id}/apply payload. Both fields are optional.
type applyRequest struct {
	Policy   string `json:"policy,omitempty"`
	Language string `json:"language,omitempty"`
}

// closeRequest is the POST /tasks/{id}/close payload.
type closeRequest struct {
	Reason string `json:"reason,omitempty"`
}

// createdResponse is returned for every created task.
type createdResponse struct {
	Task        *domain.Task `json:"task"`
	Status      string       `json:"status"`
	TaskID      string       `json:"task_id"`
	StoragePath string       `json:"storage_path"`
	Requested   []string     `json:"requested_files,omitempty"`
	Guessed     bool         `json:"files_guessed,omitempty"`
}

// listResponse is the GET /tasks response.
type listResponse struct {
	Items []*domain.Task `json:"items"`
	Count int            `json:"count"`
}

// applyResponse is the POST /tasks/{id}/apply response.
type applyResponse struct {
	Task      *domain.Task `json:"task"`
	Status    string       `json:"status"`
	TaskID    string       `json:"task_id"`
	Branch    string       `json:"branch"`
	Commit    string       `json:"commit,omitempty"`
	Files     []string     `json:"files"`
	Committed bool         `json:"committed"`
}

// testResponse is the POST /tasks/{id}/test response.
type testResponse struct {
	Task     *domain.Task `json:"task"`
	Status   string       `json:"status"`
	TaskID   string       `json:"task_id"`
	Command  string       `json:"command"`
	Stdout   string       `json:"stdout"`
	Stderr   string       `json:"stderr"`
	ExitCode int          `json:"exit_code"`
	Passed   bool         `json:"passed"`
}

// errorResponse carries the error message in "detail".
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "git-pilot is up and running"})
}

func (s *Server) handleCreateFromMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.NewTaskFromTextUseCase().Execute(r.Context(), usecase.NewTaskFromTextInput{
		Message: req.Message,
		Source:  sourceOr(req.Source),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := s.created(out.Task)
	resp.Requested = out.Requested
	resp.Guessed = out.Guessed
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.NewTaskUseCase().Execute(r.Context(), usecase.NewTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		Type:               req.Type,
		Priority:           req.Priority,
		TargetBranch:       req.TargetBranch,
		Source:             sourceOr(req.Source),
		AffectedFiles:      req.AffectedFiles,
		AcceptanceCriteria: req.AcceptanceCriteria,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, s.created(out.Task))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, _ := strconv.ParseBool(q.Get("all"))

	out, err := s.c.ListTasksUseCase().Execute(r.Context(), usecase.ListTasksInput{
		Status:        domain.Status(strings.ToUpper(q.Get("status"))),
		IncludeClosed: all,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := out.Tasks
	if items == nil {
		items = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(items), Items: items})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.ShowTaskUseCase().Execute(r.Context(), usecase.ShowTaskInput{TaskID: r.PathValue("id")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Task)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.ApplyChangeUseCase().Execute(r.Context(), usecase.ApplyChangeInput{
		TaskID:   r.PathValue("id"),
		Policy:   domain.ResolvePolicy(req.Policy),
		Language: req.Language,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	files := out.Files
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, applyResponse{
		Status:    string(out.Task.Status),
		TaskID:    out.Task.ID,
		Branch:    out.Branch,
		Commit:    out.Commit,
		Files:     files,
		Committed: out.Committed,
		Task:      out.Task,
	})
}

// handleTest answers 200 for failing tests too; the outcome is in the body.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.RunTestsUseCase().Execute(r.Context(), usecase.RunTestsInput{TaskID: r.PathValue("id")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, testResponse{
		Status:   string(out.Task.Status),
		TaskID:   out.Task.ID,
		Command:  out.Result.Command,
		Stdout:   out.Result.Stdout,
		Stderr:   out.Result.Stderr,
		ExitCode: out.Result.ExitCode,
		Passed:   out.Result.Passed(),
		Task:     out.Task,
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.CloseTaskUseCase().Execute(r.Context(), usecase.CloseTaskInput{
		TaskID: r.PathValue("id"),
		Reason: req.Reason,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  string(out.Task.Status),
		"task_id": out.Task.ID,
		"task":    out.Task,
	})
}

func (s *Server) created(task *domain.Task) createdResponse {
	return createdResponse{
		Status:      "task_created",
		TaskID:      task.ID,
		StoragePath: domain.TaskFilePath(s.c.AppConfig.Tasks.Dir, task.ID),
		Task:        task,
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
// On failure the 400 response is already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: fmt.Sprintf("invalid JSON body: %v", err)})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		detail = "Task not found"
	case status == http.StatusInternalServerError:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrNoAffectedFiles):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTaskClosed),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAmbiguousPath),
		errors.Is(err, domain.ErrNoBranch),
		errors.Is(err, domain.ErrSyncConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingTarget),
		errors.Is(err, domain.ErrGeneration),
		errors.Is(err, domain.ErrNoTrackedFiles):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func sourceOr(source string) string {
	if source == "" {
		return DefaultSource
	}
	return source
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"detail":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
