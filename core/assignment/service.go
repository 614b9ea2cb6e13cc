package assignment

import (
	"errors"
	"sort"

	"github.com/google/uuid"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	// Repository is the durable store: a single document holding every record,
	// loaded and replaced as a whole.
	Repository interface {
		LoadAll() ([]Assignment, error)
		// Update runs fn on the current record set under the store's advisory
		// lock and persists fn's output as the full replacement document.
		// No write happens when fn reports changed == false or returns an error.
		Update(fn func(recs []Assignment) (out []Assignment, changed bool, err error)) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all records sorted by due date, then title.
func (svc *Service) List() ([]Assignment, error) {
	recs, err := svc.repo.LoadAll()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].DueDate != recs[j].DueDate {
			return recs[i].DueDate < recs[j].DueDate
		}
		return recs[i].Title < recs[j].Title
	})
	return recs, nil
}

func (svc *Service) Get(id string) (Assignment, error) {
	recs, err := svc.repo.LoadAll()
	if err != nil {
		return Assignment{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Assignment{}, ErrNotFound
}

// Create adds a manual record; the sync never touches it.
func (svc *Service) Create(na NewAssignment) (Assignment, error) {
	rec := Assignment{
		ID:                uuid.New().String(),
		Title:             na.Title,
		Course:            na.Course,
		DueDate:           na.DueDate,
		NotificationsSent: []string{},
	}
	err := svc.repo.Update(func(recs []Assignment) ([]Assignment, bool, error) {
		return append(recs, rec), true, nil
	})
	if err != nil {
		return Assignment{}, err
	}
	return rec, nil
}

// SetCompleted flips the done flag. Un-completing is an explicit user action;
// the reconciliation engine itself never reverts completed records.
func (svc *Service) SetCompleted(id string, completed bool) (Assignment, error) {
	var updated Assignment
	err := svc.repo.Update(func(recs []Assignment) ([]Assignment, bool, error) {
		for i := range recs {
			if recs[i].ID == id {
				recs[i].Completed = completed
				updated = recs[i]
				return recs, true, nil
			}
		}
		return nil, false, ErrNotFound
	})
	if err != nil {
		return Assignment{}, err
	}
	return updated, nil
}

// Delete removes a record by id; deleting an unknown id is a no-op.
func (svc *Service) Delete(id string) error {
	return svc.repo.Update(func(recs []Assignment) ([]Assignment, bool, error) {
		out := recs[:0]
		var changed bool
		for _, rec := range recs {
			if rec.ID == id {
				changed = true
				continue
			}
			out = append(out, rec)
		}
		return out, changed, nil
	})
}
