package forms

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

const msgPasswordMismatch = "As senhas não coincidem"

var passwordRuleMessages = map[string]string{
	"minLength":       "A senha deve ter no mínimo 8 caracteres",
	"allOf/0/pattern": "A senha deve conter pelo menos uma letra maiúscula",
	"allOf/1/pattern": "A senha deve conter pelo menos uma letra minúscula",
	"allOf/2/pattern": "A senha deve conter pelo menos um número",
	"allOf/3/pattern": "A senha deve conter pelo menos um caractere especial",
}

var profileMessages = map[string]string{
	"name":      "O nome é obrigatório",
	"lastName":  "O sobrenome é obrigatório",
	"email":     "Email inválido",
	"birthDate": "Data de nascimento inválida",
}

var passwordMessages = withRules("newPassword", map[string]string{
	"currentPassword": "Senha atual é obrigatória",
	"confirmPassword": "Confirmação de senha é obrigatória",
})

var signInMessages = map[string]string{
	"email":    "Email inválido",
	"password": "A senha é obrigatória",
}

var signUpMessages = withRules("password", map[string]string{
	"name":            "O nome é obrigatório",
	"lastName":        "O sobrenome é obrigatório",
	"email":           "Email inválido",
	"confirmPassword": "Confirmação de senha é obrigatória",
})

func withRules(field string, m map[string]string) map[string]string {
	for k, v := range passwordRuleMessages {
		m[field+":"+k] = v
	}
	return m
}

// ProfileForm is the general settings form
type ProfileForm struct {
	Name      string
	LastName  string
	Email     string
	BirthDate string
}

// ProfileFormFrom prefills the form from the current user
func ProfileFormFrom(u *entities.User) *ProfileForm {
	if u == nil {
		return &ProfileForm{}
	}
	return &ProfileForm{
		Name:      u.Name,
		LastName:  u.LastName,
		Email:     u.Email,
		BirthDate: dateOnly(u.BirthDate),
	}
}

// ParseProfileForm reads the profile form from posted values
func ParseProfileForm(values url.Values) *ProfileForm {
	return &ProfileForm{
		Name:      strings.TrimSpace(values.Get("name")),
		LastName:  strings.TrimSpace(values.Get("lastName")),
		Email:     strings.TrimSpace(values.Get("email")),
		BirthDate: strings.TrimSpace(values.Get("birthDate")),
	}
}

// Validate returns the upstream update payload, or field errors
func (f *ProfileForm) Validate() (*entities.ProfileUpdate, FieldErrors, error) {
	update := &entities.ProfileUpdate{
		Name:      f.Name,
		LastName:  f.LastName,
		Email:     f.Email,
		BirthDate: f.BirthDate,
	}
	fe, err := validate(profileSchema, update, profileMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("validate profile form: %w", err)
	}
	if _, ok := fe["birthDate"]; !ok {
		if _, err := time.Parse("2006-01-02", f.BirthDate); err != nil {
			fe.Add("birthDate", profileMessages["birthDate"])
		}
	}
	if fe.Any() {
		return nil, fe, nil
	}
	return update, fe, nil
}

// PasswordForm is the change password form
type PasswordForm struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ParsePasswordForm reads the password form from posted values
func ParsePasswordForm(values url.Values) *PasswordForm {
	return &PasswordForm{
		CurrentPassword: values.Get("currentPassword"),
		NewPassword:     values.Get("newPassword"),
		ConfirmPassword: values.Get("confirmPassword"),
	}
}

// Validate returns the upstream payload, or field errors
func (f *PasswordForm) Validate() (*entities.PasswordChange, FieldErrors, error) {
	fe, err := validate(passwordSchema, map[string]any{
		"currentPassword": f.CurrentPassword,
		"newPassword":     f.NewPassword,
		"confirmPassword": f.ConfirmPassword,
	}, passwordMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("validate password form: %w", err)
	}
	if f.ConfirmPassword != "" && f.NewPassword != f.ConfirmPassword {
		fe.Add("confirmPassword", msgPasswordMismatch)
	}
	if fe.Any() {
		return nil, fe, nil
	}
	return &entities.PasswordChange{
		CurrentPassword: f.CurrentPassword,
		NewPassword:     f.NewPassword,
	}, fe, nil
}

// SignInForm is the login form
type SignInForm struct {
	Email    string
	Password string
}

// ParseSignInForm reads the login form from posted values
func ParseSignInForm(values url.Values) *SignInForm {
	return &SignInForm{
		Email:    strings.TrimSpace(values.Get("email")),
		Password: values.Get("password"),
	}
}

// Validate returns the credentials, or field errors
func (f *SignInForm) Validate() (*entities.Credentials, FieldErrors, error) {
	creds := &entities.Credentials{Email: f.Email, Password: f.Password}
	fe, err := validate(signInSchema, creds, signInMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("validate sign-in form: %w", err)
	}
	if fe.Any() {
		return nil, fe, nil
	}
	return creds, fe, nil
}

// SignUpForm is the account creation form
type SignUpForm struct {
	Name            string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ParseSignUpForm reads the signup form from posted values
func ParseSignUpForm(values url.Values) *SignUpForm {
	return &SignUpForm{
		Name:            strings.TrimSpace(values.Get("name")),
		LastName:        strings.TrimSpace(values.Get("lastName")),
		Email:           strings.TrimSpace(values.Get("email")),
		Password:        values.Get("password"),
		ConfirmPassword: values.Get("confirmPassword"),
	}
}

// Validate returns the registration payload, or field errors
func (f *SignUpForm) Validate() (*entities.Registration, FieldErrors, error) {
	fe, err := validate(signUpSchema, map[string]any{
		"name":            f.Name,
		"lastName":        f.LastName,
		"email":           f.Email,
		"password":        f.Password,
		"confirmPassword": f.ConfirmPassword,
	}, signUpMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("validate signup form: %w", err)
	}
	if f.ConfirmPassword != "" && f.Password != f.ConfirmPassword {
		fe.Add("confirmPassword", msgPasswordMismatch)
	}
	if fe.Any() {
		return nil, fe, nil
	}
	return &entities.Registration{
		Name:     f.Name,
		LastName: f.LastName,
		Email:    f.Email,
		Password: f.Password,
	}, fe, nil
}
