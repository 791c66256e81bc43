package scheduler

import (
	"context"
	"sync"

	"github.com/example/ebbinghausbot/pkg/models"
)

type memoryPersister struct {
	mu      sync.Mutex
	data    map[models.UserID][]models.Topic
	loadErr error
	saveErr error
	saves   int
}

func (p *memoryPersister) Load(ctx context.Context) (map[models.UserID][]models.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.data, nil
}

func (p *memoryPersister) Save(ctx context.Context, topics map[models.UserID][]models.Topic) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.data = topics
	return nil
}

func (p *memoryPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

type recordingNotifier struct {
	mu        sync.Mutex
	reminders []Reminder
	err       error
}

func (n *recordingNotifier) SendReminder(ctx context.Context, reminder Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, reminder)
	return n.err
}

func (n *recordingNotifier) sent() []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Reminder, len(n.reminders))
	copy(out, n.reminders)
	return out
}
