package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
)

type (
	// NewAssignment is the payload for creating a manual record.
	NewAssignment struct {
		Title   string `json:"title" validate:"required"`
		Course  string `json:"course" validate:"required"`
		DueDate string `json:"due_date" validate:"required,date"`
	}

	// UpdateAssignment is the payload for toggling completion.
	UpdateAssignment struct {
		Completed *bool `json:"completed" validate:"required"`
	}
)

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Course = core.CleanString(na.Course)
	na.DueDate = core.CleanString(na.DueDate)
	return validate.Struct(na)
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(ua)
}
