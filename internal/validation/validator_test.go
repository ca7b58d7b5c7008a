package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/validation"
)

type bookForm struct {
	Title string `form:"title" validate:"required,max=200"`
	ISBN  string `form:"isbn" validate:"isbn13digits"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookForm{Title: "Dune", ISBN: "9780441013593"})
	assert.NoError(t, err)
}

func TestValidator_FieldNames(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		form      bookForm
		wantField string
		wantMsg   string
	}{
		{"missing title", bookForm{ISBN: "9780441013593"}, "title", "This field is required."},
		{"short isbn", bookForm{Title: "Dune", ISBN: "978044101"}, "isbn", "Enter a 13 digit ISBN."},
		{"isbn with letters", bookForm{Title: "Dune", ISBN: "97804410135X3"}, "isbn", "Enter a 13 digit ISBN."},
		{"bad email uses json name", bookForm{Title: "Dune", ISBN: "9780441013593", Email: "nope"}, "email", "Enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

			fields := domainerrors.FieldsOf(err)
			require.NotNil(t, fields)
			assert.Equal(t, tt.wantMsg, fields[tt.wantField])
		})
	}
}

func TestValidator_CollectsAllFields(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookForm{})
	fields := domainerrors.FieldsOf(err)
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "isbn")
}
