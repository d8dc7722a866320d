package store

import (
	"context"
	"errors"
	"slices"

	"github.com/samber/lo"

	"github.com/taskcamp/taskcamp/pkg/apiclient"
	"github.com/taskcamp/taskcamp/pkg/metrics"
	"github.com/taskcamp/taskcamp/pkg/model"
)

// ErrTaskNotFound is returned by ChangeTaskStatus when the task is not
// in the cache; no network call is made in that case. ErrSubtaskNotFound
// is its ToggleSubtask counterpart.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
)

// TaskStore caches the task list of one project, the currently opened
// task, and that task's subtasks.
type TaskStore struct {
	state
	api *apiclient.Client

	tasks       []model.Task
	currentTask *model.Task
	subtasks    []model.Subtask
	projectID   string
}

func NewTaskStore(api *apiclient.Client) *TaskStore {
	return &TaskStore{api: api}
}

// FetchTasks loads the task list for a project. An empty projectID
// returns the cache unchanged, and a repeat fetch for the already
// cached project short-circuits without a network call as long as the
// cache is non-empty.
func (s *TaskStore) FetchTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if projectID == "" {
		return s.Tasks(), nil
	}

	s.mutex.Lock()
	if s.projectID == projectID && len(s.tasks) > 0 {
		cached := slices.Clone(s.tasks)
		s.mutex.Unlock()
		metrics.CacheHitsCount.WithLabelValues("task").Inc()
		return cached, nil
	}
	s.mutex.Unlock()
	metrics.CacheMissesCount.WithLabelValues("task").Inc()

	s.begin()
	tasks, err := s.api.ListTasks(ctx, projectID)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch tasks")
	}
	s.mutex.Lock()
	s.tasks = tasks
	s.projectID = projectID
	s.loading = false
	s.mutex.Unlock()
	return tasks, nil
}

func (s *TaskStore) FetchTask(ctx context.Context, projectID, taskID string) (model.Task, error) {
	s.begin()
	task, err := s.api.GetTask(ctx, projectID, taskID)
	if err != nil {
		return model.Task{}, s.fail(err, "Failed to fetch task")
	}
	s.mutex.Lock()
	s.currentTask = &task
	s.subtasks = slices.Clone(task.Subtasks)
	s.loading = false
	s.mutex.Unlock()
	return task, nil
}

func (s *TaskStore) CreateTask(ctx context.Context, projectID string, form apiclient.TaskForm) (model.Task, error) {
	s.begin()
	task, err := s.api.CreateTask(ctx, projectID, form)
	if err != nil {
		return model.Task{}, s.fail(err, "Failed to create task")
	}
	s.mutex.Lock()
	s.tasks = append(s.tasks, task)
	s.loading = false
	s.mutex.Unlock()
	return task, nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, projectID, taskID string, form apiclient.TaskForm) (model.Task, error) {
	s.begin()
	task, err := s.api.UpdateTask(ctx, projectID, taskID, form)
	if err != nil {
		return model.Task{}, s.fail(err, "Failed to update task")
	}
	s.mutex.Lock()
	s.replaceTask(taskID, task)
	s.loading = false
	s.mutex.Unlock()
	return task, nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	s.begin()
	if err := s.api.DeleteTask(ctx, projectID, taskID); err != nil {
		return s.fail(err, "Failed to delete task")
	}
	s.mutex.Lock()
	s.tasks = lo.Filter(s.tasks, func(task model.Task, _ int) bool {
		return task.ID != taskID
	})
	if s.currentTask != nil && s.currentTask.ID == taskID {
		s.currentTask = nil
	}
	s.loading = false
	s.mutex.Unlock()
	return nil
}

// ChangeTaskStatus moves a task to another kanban column. The cached
// task flips immediately so the board reflects the drop before the
// server confirms; a failed update restores the exact previous task.
// The update payload resends title, description and the normalized
// assignee id because the endpoint requires the full write form.
func (s *TaskStore) ChangeTaskStatus(ctx context.Context, projectID, taskID string, status model.TaskStatus) (model.Task, error) {
	s.mutex.Lock()
	index, found := findTask(s.tasks, taskID)
	if !found {
		s.mutex.Unlock()
		return model.Task{}, ErrTaskNotFound
	}
	snapshot := s.tasks[index]
	s.mutex.Unlock()

	form := apiclient.TaskForm{
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Status:      status,
		AssignedTo:  snapshot.AssignedToID(),
	}

	return runOptimistic(&s.state,
		func() {
			if i, ok := findTask(s.tasks, taskID); ok {
				s.tasks[i].Status = status
			}
		},
		func() {
			if i, ok := findTask(s.tasks, taskID); ok {
				s.tasks[i] = snapshot
			}
		},
		func() (model.Task, error) {
			return s.api.UpdateTask(ctx, projectID, taskID, form)
		},
		func(task model.Task) {
			s.replaceTask(taskID, task)
		},
		"Failed to change task status")
}

func (s *TaskStore) CreateSubtask(ctx context.Context, projectID, taskID, title string) (model.Subtask, error) {
	s.begin()
	subtask, err := s.api.CreateSubtask(ctx, projectID, taskID, title)
	if err != nil {
		return model.Subtask{}, s.fail(err, "Failed to create subtask")
	}
	s.mutex.Lock()
	s.subtasks = append(s.subtasks, subtask)
	s.loading = false
	s.mutex.Unlock()
	return subtask, nil
}

func (s *TaskStore) UpdateSubtask(ctx context.Context, projectID, subtaskID string, update apiclient.SubtaskUpdate) (model.Subtask, error) {
	s.begin()
	subtask, err := s.api.UpdateSubtask(ctx, projectID, subtaskID, update)
	if err != nil {
		return model.Subtask{}, s.fail(err, "Failed to update subtask")
	}
	s.mutex.Lock()
	s.subtasks = lo.Map(s.subtasks, func(item model.Subtask, _ int) model.Subtask {
		if item.ID == subtaskID {
			return subtask
		}
		return item
	})
	s.loading = false
	s.mutex.Unlock()
	return subtask, nil
}

// ToggleSubtask flips a subtask's completion optimistically, rolling
// back on failure. Completion is the one mutation any project member
// may perform, so it is the most latency-sensitive.
func (s *TaskStore) ToggleSubtask(ctx context.Context, projectID, subtaskID string) (model.Subtask, error) {
	s.mutex.Lock()
	index := slices.IndexFunc(s.subtasks, func(item model.Subtask) bool {
		return item.ID == subtaskID
	})
	if index < 0 {
		s.mutex.Unlock()
		return model.Subtask{}, ErrSubtaskNotFound
	}
	snapshot := s.subtasks[index]
	s.mutex.Unlock()

	completed := !snapshot.IsCompleted
	return runOptimistic(&s.state,
		func() {
			if i := subtaskIndex(s.subtasks, subtaskID); i >= 0 {
				s.subtasks[i].IsCompleted = completed
			}
		},
		func() {
			if i := subtaskIndex(s.subtasks, subtaskID); i >= 0 {
				s.subtasks[i] = snapshot
			}
		},
		func() (model.Subtask, error) {
			return s.api.UpdateSubtask(ctx, projectID, subtaskID,
				apiclient.SubtaskUpdate{IsCompleted: &completed})
		},
		func(subtask model.Subtask) {
			if i := subtaskIndex(s.subtasks, subtaskID); i >= 0 {
				s.subtasks[i] = subtask
			}
		},
		"Failed to toggle subtask completion")
}

func (s *TaskStore) DeleteSubtask(ctx context.Context, projectID, subtaskID string) error {
	s.begin()
	if err := s.api.DeleteSubtask(ctx, projectID, subtaskID); err != nil {
		return s.fail(err, "Failed to delete subtask")
	}
	s.mutex.Lock()
	s.subtasks = lo.Filter(s.subtasks, func(item model.Subtask, _ int) bool {
		return item.ID != subtaskID
	})
	s.loading = false
	s.mutex.Unlock()
	return nil
}

func (s *TaskStore) Tasks() []model.Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.tasks)
}

// TasksByStatus groups the cached tasks into one kanban column.
func (s *TaskStore) TasksByStatus(status model.TaskStatus) []model.Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return lo.Filter(s.tasks, func(task model.Task, _ int) bool {
		return task.Status == status
	})
}

func (s *TaskStore) TaskByID(taskID string) (model.Task, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if index, ok := findTask(s.tasks, taskID); ok {
		return s.tasks[index], true
	}
	return model.Task{}, false
}

func (s *TaskStore) CurrentTask() *model.Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.currentTask == nil {
		return nil
	}
	task := *s.currentTask
	return &task
}

func (s *TaskStore) Subtasks() []model.Subtask {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.subtasks)
}

func (s *TaskStore) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tasks = nil
	s.currentTask = nil
	s.subtasks = nil
	s.projectID = ""
	s.loading = false
	s.lastError = ""
}

// replaceTask swaps the cached task (and the current-task pointer)
// with the server's canonical copy. Callers hold the lock.
func (s *TaskStore) replaceTask(taskID string, task model.Task) {
	if index, ok := findTask(s.tasks, taskID); ok {
		s.tasks[index] = task
	}
	if s.currentTask != nil && s.currentTask.ID == taskID {
		s.currentTask = &task
	}
}

func findTask(tasks []model.Task, taskID string) (int, bool) {
	index := slices.IndexFunc(tasks, func(task model.Task) bool {
		return task.ID == taskID
	})
	return index, index >= 0
}

func subtaskIndex(subtasks []model.Subtask, subtaskID string) int {
	return slices.IndexFunc(subtasks, func(item model.Subtask) bool {
		return item.ID == subtaskID
	})
}
