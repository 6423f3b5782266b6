package menu

import (
	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/core/common/validation"
)

type CreateMenuRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	ParentCode   string `json:"parent_code,omitempty"`
	DisplayOrder int    `json:"display_order"`
	Type         string `json:"type"`
}

func (r CreateMenuRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("code", r.Code).Required().MaxLength(64).Code()
	v.Field("name", r.Name).Required().MaxLength(128)
	v.Field("path", r.Path).MaxLength(255)
	v.Field("parent_code", r.ParentCode).Code()
	v.Field("display_order", r.DisplayOrder).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("type", r.Type).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateMenuRequest changes only the fields that are present. A non-nil
// ParentCode moves the node; the empty string moves it to the root.
type UpdateMenuRequest struct {
	Name         *string `json:"name,omitempty"`
	Path         *string `json:"path,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	Type         *string `json:"type,omitempty"`
	ParentCode   *string `json:"parent_code,omitempty"`
}

func (r UpdateMenuRequest) Validate() error {
	v := validation.NewValidator()
	if r.Name != nil {
		v.Field("name", *r.Name).Required().MaxLength(128)
	}
	if r.Path != nil {
		v.Field("path", *r.Path).MaxLength(255)
	}
	if r.DisplayOrder != nil {
		v.Field("display_order", *r.DisplayOrder).MinInt(0, internal.ErrCodeValidationFailed)
	}
	if r.ParentCode != nil {
		v.Field("parent_code", *r.ParentCode).Code()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MenusResponse struct {
	Menus []Node `json:"menus"`
}
