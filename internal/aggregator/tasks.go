package aggregator

import (
	"encoding/json"
	"fmt"
	"regexp"

	"agentlens/internal/eventmodel"
)

var (
	taskHashRe = regexp.MustCompile(`Task #(\d+)`)
	taskIDJSONRe = regexp.MustCompile(`"taskId"\s*:\s*"?(\d+)"?`)
)

type taskCreateInput struct {
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	ActiveForm   string `json:"activeForm"`
	SubagentType string `json:"subagentType"`
	IsGoalGate   bool   `json:"isGoalGate"`
}

type taskUpdateInput struct {
	TaskID        string   `json:"taskId"`
	Status        string   `json:"status"`
	Subject       string   `json:"subject"`
	Description   string   `json:"description"`
	ActiveForm    string   `json:"activeForm"`
	AddBlockedBy  []string `json:"addBlockedBy"`
	AddBlocks     []string `json:"addBlocks"`
}

// trackTask implements spec §4.4.4. Task-id extraction from a tool
// result's free-form text deliberately drops the task on failure rather
// than assigning a surrogate id (spec §9 open question, preserved per
// DESIGN.md).
func (a *Aggregator) trackTask(e eventmodel.SessionEvent) {
	if e.Type == eventmodel.EventToolUse && e.Tool != nil {
		switch e.Tool.Name {
		case "TaskCreate":
			var in taskCreateInput
			json.Unmarshal(e.Tool.Input, &in)
			a.pendingTaskCreates[e.Tool.ToolUseID] = pendingTaskCreate{
				subject:      in.Subject,
				description:  in.Description,
				activeForm:   in.ActiveForm,
				subagentType: in.SubagentType,
				isGoalGate:   in.IsGoalGate,
			}
		case "TaskUpdate":
			a.applyTaskUpdate(e.Tool.Input)
		}
		return
	}

	if e.Type == eventmodel.EventToolResult && e.Result != nil {
		pending, ok := a.pendingTaskCreates[e.Result.ToolUseID]
		if !ok {
			return
		}
		delete(a.pendingTaskCreates, e.Result.ToolUseID)

		taskID := extractTaskID(e.Result.Output)
		if taskID == "" {
			return
		}
		a.tasks[taskID] = eventmodel.TrackedTask{
			TaskID:       taskID,
			Subject:      pending.subject,
			Description:  pending.description,
			ActiveForm:   pending.activeForm,
			SubagentType: pending.subagentType,
			IsGoalGate:   pending.isGoalGate,
			Status:       eventmodel.TaskPending,
		}
	}
}

func extractTaskID(output []byte) string {
	s := string(output)
	if m := taskHashRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := taskIDJSONRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func (a *Aggregator) applyTaskUpdate(rawInput []byte) {
	var in taskUpdateInput
	json.Unmarshal(rawInput, &in)
	if in.TaskID == "" {
		return
	}

	if in.Status == "deleted" {
		delete(a.tasks, in.TaskID)
		if a.activeTaskID == in.TaskID {
			a.activeTaskID = ""
		}
		return
	}

	task, ok := a.tasks[in.TaskID]
	if !ok {
		task = eventmodel.TrackedTask{
			TaskID:  in.TaskID,
			Subject: fmt.Sprintf("Task %s", in.TaskID),
			Status:  eventmodel.TaskPending,
		}
	}
	if in.Status != "" {
		task.Status = eventmodel.TaskStatus(in.Status)
	}
	if in.Subject != "" {
		task.Subject = in.Subject
	}
	if in.Description != "" {
		task.Description = in.Description
	}
	if in.ActiveForm != "" {
		task.ActiveForm = in.ActiveForm
	}
	task.BlockedBy = append(task.BlockedBy, in.AddBlockedBy...)
	task.Blocks = append(task.Blocks, in.AddBlocks...)
	task.ToolCallCount++

	a.tasks[in.TaskID] = task

	if task.Status == eventmodel.TaskInProgress {
		// Keep at most one task in progress: the previously active task
		// drops back to pending.
		if prev, ok := a.tasks[a.activeTaskID]; ok && a.activeTaskID != in.TaskID && prev.Status == eventmodel.TaskInProgress {
			prev.Status = eventmodel.TaskPending
			a.tasks[a.activeTaskID] = prev
		}
		a.activeTaskID = in.TaskID
	}
}
