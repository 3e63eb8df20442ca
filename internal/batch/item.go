package batch

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of one batch item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// ParseStatus converts a stored status string into a Status.
func ParseStatus(value string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is one line of input processed as an independent unit.
type Item struct {
	Seq       int       `json:"seq"`
	Text      string    `json:"text"`
	AuxText   string    `json:"aux_text,omitempty"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// transition moves the item forward. Only pending→processing and
// processing→{completed,failed} are legal; pending→failed is allowed for
// items abandoned by a cancelled run.
func (it *Item) transition(to Status, now time.Time) error {
	legal := false
	switch it.Status {
	case StatusPending:
		legal = to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		legal = to == StatusCompleted || to == StatusFailed
	}
	if !legal {
		return fmt.Errorf("batch item %d: illegal transition %s -> %s", it.Seq, it.Status, to)
	}
	it.Status = to
	it.UpdatedAt = now
	return nil
}

// SplitInput turns raw multi-line input into pending items numbered from 1.
// Blank lines are dropped and every line is trimmed. auxText is attached to
// every item.
func SplitInput(raw, auxText string) []Item {
	auxText = strings.TrimSpace(auxText)
	lines := strings.Split(raw, "\n")
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		items = append(items, Item{
			Seq:     len(items) + 1,
			Text:    text,
			AuxText: auxText,
			Status:  StatusPending,
		})
	}
	return items
}

// Report summarizes a finished run.
type Report struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

func (r Report) String() string {
	return fmt.Sprintf("%d/%d succeeded", r.Completed, r.Total)
}

// Message renders the completion banner shown to the user.
func (r Report) Message() string {
	return fmt.Sprintf("批量生成完成！成功 %d/%d 个", r.Completed, r.Total)
}

func summarize(items []Item) Report {
	report := Report{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case StatusCompleted:
			report.Completed++
		case StatusFailed:
			report.Failed++
		}
	}
	return report
}
