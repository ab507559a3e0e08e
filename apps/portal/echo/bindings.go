package echoapi

import "github.com/trezcool/academia/core"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}

type StudentLoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password" validate:"required"`
}

func (r *StudentLoginRequest) Validate() error {
	r.PhoneNumber = core.CleanString(r.PhoneNumber)
	return core.Validate.Struct(r)
}

type StudentRegisterRequest struct {
	PhoneNumber     string `json:"phone_number" validate:"required,phone"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	AdmissionNumber string `json:"admission_number" validate:"required,alphanum_"`
}

func (r *StudentRegisterRequest) Validate() error {
	r.PhoneNumber = core.CleanString(r.PhoneNumber)
	r.AdmissionNumber = core.CleanString(r.AdmissionNumber)
	return core.Validate.Struct(r)
}

type StudentChangePasswordRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func (r *StudentChangePasswordRequest) Validate() error {
	if err := core.Validate.Struct(r); err != nil {
		return err
	}
	if r.NewPassword == r.OldPassword {
		return core.NewValidationError(nil, core.FieldError{
			Field: "new_password", Error: "new password must be different from the old one",
		})
	}
	return nil
}

type SuccessResponse struct {
	Success string `json:"success"`
}
