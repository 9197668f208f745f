// Package validate holds the pure field checks applied before a task or
// account change is accepted. Every function returns nil or a
// *model.Error with code validation and per-field messages.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nhle/taskboard/internal/model"
)

// Title length bounds, counted in runes after trimming.
const (
	TitleMinLen = 3
	TitleMaxLen = 100
)

// PasswordMinLen is the shortest accepted password.
const PasswordMinLen = 8

// PasswordMaxLen is the longest password bcrypt accepts, in bytes.
const PasswordMaxLen = 72

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fields collects per-field problems, keeping the first one for each field.
type fields map[string]string

func (f fields) add(name string, err error) {
	if err == nil {
		return
	}
	if _, ok := f[name]; !ok {
		f[name] = err.Error()
	}
}

func (f fields) err(op string) error {
	if len(f) == 0 {
		return nil
	}
	return model.NewValidationError(op, f)
}

// Required fails when s is blank.
func Required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// Title checks presence and the 3..100 length bounds.
func Title(s string) error {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return fmt.Errorf("title is required")
	case n < TitleMinLen:
		return fmt.Errorf("title must be at least %d characters", TitleMinLen)
	case n > TitleMaxLen:
		return fmt.Errorf("title must be at most %d characters", TitleMaxLen)
	}
	return nil
}

// DueDate accepts an empty string or a YYYY-MM-DD date.
func DueDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseDate(s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// Status requires a known status value.
func Status(s model.Status) error {
	if s == "" {
		return fmt.Errorf("status is required")
	}
	if !s.Valid() {
		return fmt.Errorf("unknown status %q", s)
	}
	return nil
}

// Priority requires a known priority value.
func Priority(p model.Priority) error {
	if p == "" {
		return fmt.Errorf("priority is required")
	}
	if !p.Valid() {
		return fmt.Errorf("unknown priority %q", p)
	}
	return nil
}

// Email requires a plausible address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(s) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// Password requires eight to PasswordMaxLen letters or digits with one
// uppercase letter, one lowercase letter and one digit.
func Password(s string) error {
	if s == "" {
		return fmt.Errorf("password is required")
	}
	if len(s) > PasswordMaxLen {
		return fmt.Errorf("password must be at most %d characters", PasswordMaxLen)
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) && r < unicode.MaxASCII:
			upper = true
		case unicode.IsLower(r) && r < unicode.MaxASCII:
			lower = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		default:
			return fmt.Errorf("password may only contain letters and digits")
		}
	}
	if len(s) < PasswordMinLen || !upper || !lower || !digit {
		return fmt.Errorf(
			"password must be at least %d characters with 1 uppercase, 1 lowercase, and 1 number",
			PasswordMinLen,
		)
	}
	return nil
}

// TaskInput gates add: title, status and priority must be well formed.
func TaskInput(in model.TaskInput) error {
	f := fields{}
	f.add("title", Title(in.Title))
	f.add("status", Status(in.Status))
	f.add("priority", Priority(in.Priority))
	for i, st := range in.Subtasks {
		if strings.TrimSpace(st.Label) == "" {
			f.add(fmt.Sprintf("subtasks[%d]", i), fmt.Errorf("label is required"))
		}
	}
	return f.err("validate task")
}

// Task gates update: the record needs an id on top of the TaskInput rules.
func Task(t model.Task) error {
	f := fields{}
	if strings.TrimSpace(t.ID) == "" {
		f.add("id", fmt.Errorf("id is required"))
	}
	if err := TaskInput(t.Input()); err != nil {
		for name, msg := range model.FieldErrors(err) {
			f[name] = msg
		}
	}
	return f.err("validate task")
}

// Signup checks the registration form.
func Signup(in model.SignupInput) error {
	f := fields{}
	f.add("name", Required("name")(in.Name))
	f.add("email", Email(in.Email))
	f.add("password", Password(in.Password))
	switch {
	case in.ConfirmPassword == "":
		f.add("confirmPassword", fmt.Errorf("please confirm your password"))
	case in.Password != in.ConfirmPassword:
		f.add("confirmPassword", fmt.Errorf("passwords do not match"))
	}
	return f.err("validate signup")
}

// Login checks the login form shape. Credential matching happens in auth.
func Login(in model.LoginInput) error {
	f := fields{}
	f.add("email", Email(in.Email))
	f.add("password", Required("password")(in.Password))
	return f.err("validate login")
}
