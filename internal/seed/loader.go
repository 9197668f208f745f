// Package seed fetches the one-time initial task set from a public mock API
// and normalizes it into task inputs.
package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/taskboard/internal/model"
)

// DefaultLimit is the page size requested from the seed endpoint.
const DefaultLimit = 10

// record is the remote todo shape.
type record struct {
	UserID    int    `json:"userId"`
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`

	// DueDate is not part of the public API but is honored when present.
	DueDate string `json:"dueDate,omitempty"`
}

// Item is a normalized seed record. RemoteID is the source's identifier and
// is used by the store to derive the task id.
type Item struct {
	RemoteID string
	Input    model.TaskInput
}

// Loader fetches seed records through a Client.
type Loader struct {
	client *Client
}

// NewLoader creates a loader for the API at baseURL.
func NewLoader(baseURL string) *Loader {
	return &Loader{client: NewClient(baseURL)}
}

// NewLoaderWithClient creates a loader using an existing client.
func NewLoaderWithClient(c *Client) *Loader {
	return &Loader{client: c}
}

// FetchSeed requests a single page of limit records and normalizes them.
// A non-positive limit uses DefaultLimit. Any failure is a transport error.
func (l *Loader) FetchSeed(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var records []record
	path := fmt.Sprintf("/todos?_limit=%d", limit)
	if err := l.client.Get(ctx, path, &records); err != nil {
		return nil, model.WrapTransport("fetch seed", err)
	}

	// The API may ignore _limit; never hand back more than asked for.
	if len(records) > limit {
		records = records[:limit]
	}

	items := make([]Item, 0, len(records))
	for _, r := range records {
		items = append(items, normalize(r))
	}
	return items, nil
}

// normalize maps a remote record onto the task shape: completed becomes the
// completed status and everything else todo, priority is medium, and the
// due date is only set when the record supplies a parseable one.
func normalize(r record) Item {
	status := model.StatusTodo
	if r.Completed {
		status = model.StatusCompleted
	}

	in := model.TaskInput{
		Title:    strings.TrimSpace(r.Title),
		Status:   status,
		Priority: model.PriorityMedium,
		Category: model.DefaultCategory,
	}
	if r.DueDate != "" {
		if d, err := model.ParseDate(r.DueDate); err == nil {
			in.DueDate = &d
		}
	}

	remoteID := ""
	if r.ID != 0 {
		remoteID = strconv.Itoa(r.ID)
	}
	return Item{RemoteID: remoteID, Input: in}
}
