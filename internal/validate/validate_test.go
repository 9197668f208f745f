package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func validInput() model.TaskInput {
	return model.TaskInput{
		Title:    "Buy groceries",
		Status:   model.StatusTodo,
		Priority: model.PriorityMedium,
		Category: "Shopping",
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr string
	}{
		{"ok", "Call dentist", ""},
		{"min length", "abc", ""},
		{"max length", strings.Repeat("x", TitleMaxLen), ""},
		{"empty", "", "required"},
		{"blank", "   ", "required"},
		{"too short", "ab", "at least 3"},
		{"too short after trim", "  ab  ", "at least 3"},
		{"too long", strings.Repeat("x", TitleMaxLen+1), "at most 100"},
		{"multibyte counted as runes", "äöü", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Title(tt.title)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTaskInput_Valid(t *testing.T) {
	assert.NoError(t, TaskInput(validInput()))
}

func TestTaskInput_CollectsFieldErrors(t *testing.T) {
	in := model.TaskInput{Title: "x", Status: "doing", Priority: ""}

	err := TaskInput(in)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	fields := model.FieldErrors(err)
	assert.Contains(t, fields["title"], "at least 3")
	assert.Contains(t, fields["status"], "unknown status")
	assert.Contains(t, fields["priority"], "required")
}

func TestTaskInput_RejectsBlankSubtaskLabel(t *testing.T) {
	in := validInput()
	in.Subtasks = []model.Subtask{{Label: "milk"}, {Label: " "}}

	err := TaskInput(in)
	require.Error(t, err)
	assert.Contains(t, model.FieldErrors(err), "subtasks[1]")
}

func TestTask_RequiresID(t *testing.T) {
	task := model.Task{}.WithInput(validInput())

	err := Task(task)
	require.Error(t, err)
	assert.Equal(t, "id is required", model.FieldErrors(err)["id"])

	task.ID = "1"
	assert.NoError(t, Task(task))
}

func TestDueDate(t *testing.T) {
	assert.NoError(t, DueDate(""))
	assert.NoError(t, DueDate("2026-10-19"))
	assert.Error(t, DueDate("19/10/2026"))
	assert.Error(t, DueDate("2026-13-01"))
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("ada@example.com"))
	assert.Error(t, Email(""))
	assert.Error(t, Email("ada@example"))
	assert.Error(t, Email("ada example.com"))
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("Secret123"))
	assert.Error(t, Password(""))
	assert.Error(t, Password("secret123"), "missing uppercase")
	assert.Error(t, Password("SECRET123"), "missing lowercase")
	assert.Error(t, Password("SecretPwd"), "missing digit")
	assert.Error(t, Password("Sec123"), "too short")
	assert.Error(t, Password("Secret 123"), "space not allowed")
	assert.NoError(t, Password("Aa1"+strings.Repeat("x", PasswordMaxLen-3)))
	assert.Error(t, Password("Aa1"+strings.Repeat("x", PasswordMaxLen-2)), "longer than bcrypt accepts")
}

func TestSignup(t *testing.T) {
	in := model.SignupInput{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
	}
	assert.NoError(t, Signup(in))

	in.ConfirmPassword = "Secret124"
	err := Signup(in)
	require.Error(t, err)
	assert.Equal(t, "passwords do not match", model.FieldErrors(err)["confirmPassword"])
}

func TestLogin(t *testing.T) {
	assert.NoError(t, Login(model.LoginInput{Email: "ada@example.com", Password: "x"}))

	err := Login(model.LoginInput{Email: "nope"})
	require.Error(t, err)
	fields := model.FieldErrors(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}
