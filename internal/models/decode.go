package models

import (
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

// validatable is implemented by records that can check their own shape.
type validatable interface {
	Validate() error
}

// Decode unmarshals a stored document into dest and validates required
// fields. Malformed documents fail loudly instead of producing half-empty
// records.
func Decode(raw json.RawMessage, dest validatable) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrMalformedRecord.Code, appErrors.ErrMalformedRecord.Status, "stored record failed to decode")
	}
	if err := dest.Validate(); err != nil {
		return err
	}
	return nil
}

func requiredFieldsError(kind string, fields ...string) error {
	return appErrors.Clone(appErrors.ErrMalformedRecord,
		fmt.Sprintf("%s record missing required fields (%s)", kind, strings.Join(fields, ", ")))
}

// Pagination describes list metadata shared across endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
